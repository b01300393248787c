package export

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"
)

const pdfFontFamily = "portal"

// ErrFontRequired is returned when no UTF-8 font is configured. The core PDF
// fonts cannot encode Arabic, so rendering without one is refused.
var ErrFontRequired = errors.New("pdf export needs a UTF-8 font file (EXPORT_PDF_FONT)")

// PDFExporter renders datasets into a tabular landscape PDF using the
// configured TrueType font for every cell.
type PDFExporter struct {
	fontPath string
}

func NewPDFExporter(fontPath string) *PDFExporter {
	return &PDFExporter{fontPath: fontPath}
}

// Ready reports whether a font is configured.
func (e *PDFExporter) Ready() error {
	if e.fontPath == "" {
		return ErrFontRequired
	}
	return nil
}

func (e *PDFExporter) ContentType() string { return "application/pdf" }

func (e *PDFExporter) Extension() string { return "pdf" }

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	if err := e.Ready(); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)

	if err := e.loadFont(pdf); err != nil {
		return nil, err
	}
	pdf.AddPage()

	if data.Title != "" {
		pdf.SetFont(pdfFontFamily, "B", 14)
		pdf.CellFormat(0, 10, data.Title, "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont(pdfFontFamily, "B", 10)
	colWidth := 277.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(pdfFontFamily, "", 9)
	for _, row := range data.Rows {
		for _, value := range data.record(row) {
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) loadFont(pdf *gofpdf.Fpdf) error {
	raw, err := os.ReadFile(e.fontPath)
	if err != nil {
		return fmt.Errorf("read pdf font: %w", err)
	}
	pdf.AddUTF8FontFromBytes(pdfFontFamily, "", raw)
	pdf.AddUTF8FontFromBytes(pdfFontFamily, "B", raw)
	return nil
}
