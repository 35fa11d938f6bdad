package exclude

import (
	"bufio"
	"os"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"excluderegion-go/pkg/region"
	"excluderegion-go/pkg/settings"
)

// TestFilterStreamGolden runs a small print through the filter and
// compares the full output stream against the golden file.
func TestFilterStreamGolden(t *testing.T) {
	e := newTestEngine(t, settings.Default(),
		region.NewRectangleRegion("failed-part", 30, 30, 40, 40, nil, nil))

	in, err := os.Open("testdata/print.gcode")
	require.NoError(t, err)
	defer in.Close()

	var out strings.Builder
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		for _, line := range e.ProcessLine(scanner.Text()) {
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}
	require.NoError(t, scanner.Err())
	for _, line := range e.FinishJob() {
		out.WriteString(line)
		out.WriteByte('\n')
	}

	g := goldie.New(t)
	g.Assert(t, "print_filtered", []byte(out.String()))
}
