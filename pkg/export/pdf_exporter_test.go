package export

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableSection(heading string, rows int) Section {
	data := Dataset{Headers: []string{"ID", "Value"}}
	for i := 0; i < rows; i++ {
		data.Rows = append(data.Rows, map[string]string{"ID": fmt.Sprintf("S%d", i), "Value": "x"})
	}
	return Section{Heading: heading, Data: data}
}

func TestPDFRender(t *testing.T) {
	exporter := NewPDFExporter()

	out, err := exporter.Render(Document{
		Title:    "Course Outcome Summary",
		Sections: []Section{tableSection("Stats", 3), tableSection("Students", 5)},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFRenderRequiresSections(t *testing.T) {
	exporter := NewPDFExporter()

	_, err := exporter.Render(Document{Title: "empty"})
	assert.Error(t, err)
}

func TestPDFEstimateHeight(t *testing.T) {
	exporter := NewPDFExporter()

	// heading + header + 10 rows + gap
	section := tableSection("Students", 10)
	assert.InDelta(t, 8+8+10*7+5, exporter.EstimateHeight(section), 0.001)

	// No heading drops the heading band.
	section.Heading = ""
	assert.InDelta(t, 8+10*7+5, exporter.EstimateHeight(section), 0.001)
}

func TestPDFRenderPageBreakBeforeTallSection(t *testing.T) {
	exporter := NewPDFExporter()

	// The second section does not fit under the first on one page; it
	// must start on page two rather than splitting its header from its
	// rows.
	doc := Document{
		Title:    "Paginated",
		Sections: []Section{tableSection("First", 20), tableSection("Second", 20)},
	}
	out, err := exporter.Render(doc)
	require.NoError(t, err)
	// Two pages present in the PDF page tree.
	assert.Contains(t, string(out), "/Count 2")
}

func TestPDFRenderHugeSectionStillRenders(t *testing.T) {
	exporter := NewPDFExporter()

	// A section taller than a full page relies on the auto page break.
	out, err := exporter.Render(Document{
		Sections: []Section{tableSection("Huge", 80)},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
