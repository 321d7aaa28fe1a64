package invoice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLineFieldsDefaults(t *testing.T) {
	f := extractLineFields("nothing useful here")
	assert.Equal(t, "", f.MPN)
	assert.Equal(t, "", f.Manufacturer)
	assert.Equal(t, "", f.Quantity)
	assert.Equal(t, CustPartAbsent, f.CustPartNumber)
}

func TestExtractLineFieldsManufacturerTrimmed(t *testing.T) {
	f := extractLineFields("Manufacturer: Acme Mfg   \n")
	assert.Equal(t, "Acme Mfg", f.Manufacturer)
}

func TestExtractLineFieldsMPNLabelMustStartLine(t *testing.T) {
	// An indented label is not the line-item label.
	f := extractLineFields("  Manuf. Part#: NOPE-1\nManuf. Part#: YES-2\n")
	assert.Equal(t, "YES-2", f.MPN)
}

func TestContextWindowClipsAtBoundaries(t *testing.T) {
	lines := make([]string, 30)
	for i := range lines {
		lines[i] = strings.Repeat("x", i+1)
	}

	// Anchor near the top: window starts at line 0.
	top := contextWindow(lines, 2)
	assert.True(t, strings.HasPrefix(top, lines[0]))
	assert.Equal(t, 12, len(strings.Split(top, "\n")))

	// Anchor near the bottom: window ends at the last line.
	bottom := contextWindow(lines, 28)
	parts := strings.Split(bottom, "\n")
	assert.Equal(t, lines[29], parts[len(parts)-1])
	assert.Equal(t, 12, len(parts))
}

func TestFieldsOutsideWindowIgnored(t *testing.T) {
	// The MPN label sits 12 lines below the anchor, outside the window.
	var b strings.Builder
	b.WriteString("line 777777-1\n")
	for i := 0; i < 11; i++ {
		b.WriteString("filler\n")
	}
	b.WriteString("Manuf. Part#: FAR-AWAY\n")

	recs := Parse(b.String())
	require.Len(t, recs, 1)
	assert.Equal(t, "", recs[0].MPN)
}
