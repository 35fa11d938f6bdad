package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New("test")
	l.SetWriter(&buf)
	l.SetLevel(WARN)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New("exclude")
	l.SetWriter(&buf)

	l.Info("entering region %s", "abc")

	out := buf.String()
	assert.Contains(t, out, "[INFO ] exclude: entering region abc")
}

func TestFieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	l := New("exclude")
	l.SetWriter(&buf)

	l.InfoFields("span done", Fields{"excluded": 4, "commands": 7})

	assert.Contains(t, buf.String(), "{commands=7, excluded=4}")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New("engine")
	l.SetWriter(&buf)
	l.SetFormat(FormatJSON)

	l.Warn("bad line")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "engine", rec["logger"])
	assert.Equal(t, "bad line", rec["message"])
}

func TestComponentInheritsSettings(t *testing.T) {
	var buf bytes.Buffer
	l := New("engine")
	l.SetWriter(&buf)
	l.SetLevel(DEBUG)

	c := l.Component("regions")
	c.Debug("hello")

	assert.Contains(t, buf.String(), "engine.regions: hello")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("WARNING"))
	assert.Equal(t, INFO, ParseLevel("bogus"))
}

func TestRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.log")

	w, err := NewRotatingFileWriter(RotationConfig{Filename: path, MaxSize: 1, MaxBackups: 2})
	require.NoError(t, err)
	defer w.Close()

	// Force a rotation by exceeding 1 MB.
	chunk := strings.Repeat("x", 64*1024)
	for i := 0; i < 20; i++ {
		_, err := w.Write([]byte(chunk))
		require.NoError(t, err)
	}

	_, err = os.Stat(path + ".1")
	assert.NoError(t, err, "expected a rotated backup file")
}
