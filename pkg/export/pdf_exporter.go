package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageHeight    = 297.0 // A4 portrait, mm
	bottomMargin  = 15.0
	headingHeight = 8.0
	headerHeight  = 8.0
	rowHeight     = 7.0
	sectionGap    = 5.0
)

// PDFExporter renders documents into paginated tabular PDFs.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF with one table per section. Before appending a
// table the rendered height is estimated; a table that would overflow the
// current page starts on a fresh one. Tables taller than a full page
// still break mid-table through the auto page break.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	if len(doc.Sections) == 0 {
		return nil, fmt.Errorf("pdf requires at least one section")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.AddPage()

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(doc.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	for _, section := range doc.Sections {
		if len(section.Data.Headers) == 0 {
			return nil, fmt.Errorf("pdf section requires at least one header")
		}
		if e.wouldOverflow(pdf, section) {
			pdf.AddPage()
		}
		e.renderSection(pdf, section)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// EstimateHeight returns the rendered height of a section in mm.
func (e *PDFExporter) EstimateHeight(section Section) float64 {
	h := headerHeight + float64(len(section.Data.Rows))*rowHeight + sectionGap
	if section.Heading != "" {
		h += headingHeight
	}
	return h
}

func (e *PDFExporter) wouldOverflow(pdf *gofpdf.Fpdf, section Section) bool {
	remaining := pageHeight - bottomMargin - pdf.GetY()
	estimate := e.EstimateHeight(section)
	// A table taller than a whole page overflows no matter where it
	// starts, so keep it on the current page and let auto break handle it.
	if estimate > pageHeight-bottomMargin-15 {
		return false
	}
	return estimate > remaining
}

func (e *PDFExporter) renderSection(pdf *gofpdf.Fpdf, section Section) {
	if section.Heading != "" {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, headingHeight, section.Heading, "", 1, "L", false, 0, "")
	}

	colWidth := 190.0 / float64(len(section.Data.Headers))

	pdf.SetFont("Arial", "B", 10)
	for _, header := range section.Data.Headers {
		pdf.CellFormat(colWidth, headerHeight, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range section.Data.Rows {
		for _, header := range section.Data.Headers {
			pdf.CellFormat(colWidth, rowHeight, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(sectionGap)
}
