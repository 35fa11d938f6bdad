package exclude

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"excluderegion-go/pkg/settings"
)

func defaultDispatcher(t *testing.T) *AtDispatcher {
	t.Helper()
	d, err := NewAtDispatcher(settings.Default().AtCommandActions)
	require.NoError(t, err)
	return d
}

func TestAtDispatcherDefaultRules(t *testing.T) {
	d := defaultDispatcher(t)

	tests := []struct {
		params string
		action settings.AtAction
	}{
		{"enable", settings.ActionEnableExclusion},
		{"on", settings.ActionEnableExclusion},
		{"  on", settings.ActionEnableExclusion},
		{"enable for the rest of this file", settings.ActionEnableExclusion},
		{"disable", settings.ActionDisableExclusion},
		{"off", settings.ActionDisableExclusion},
	}
	for _, tt := range tests {
		action, ok := d.Match("ExcludeRegion", tt.params)
		require.True(t, ok, "params %q", tt.params)
		assert.Equal(t, tt.action, action, "params %q", tt.params)
	}
}

func TestAtDispatcherNonMatches(t *testing.T) {
	d := defaultDispatcher(t)

	_, ok := d.Match("ExcludeRegion", "toggle")
	assert.False(t, ok)

	// Prefixes of the keywords do not match.
	_, ok = d.Match("ExcludeRegion", "online")
	assert.False(t, ok)

	// Command names are case sensitive.
	_, ok = d.Match("excluderegion", "enable")
	assert.False(t, ok)

	_, ok = d.Match("OtherCommand", "enable")
	assert.False(t, ok)
}

func TestAtDispatcherEmptyPatternMatchesAnything(t *testing.T) {
	d, err := NewAtDispatcher([]settings.AtCommandAction{
		{Command: "PauseFilter", Action: settings.ActionDisableExclusion},
	})
	require.NoError(t, err)

	action, ok := d.Match("PauseFilter", "whatever trailing text")
	require.True(t, ok)
	assert.Equal(t, settings.ActionDisableExclusion, action)
}

func TestAtDispatcherRejectsBadPattern(t *testing.T) {
	_, err := NewAtDispatcher([]settings.AtCommandAction{
		{Command: "X", ParameterPattern: "(", Action: settings.ActionEnableExclusion},
	})
	assert.Error(t, err)
}
