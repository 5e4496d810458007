// Package render turns a seating arrangement into a printable document.
package render

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/unicode/norm"

	"github.com/iliyamo/classroom-seating/internal/model"
	"github.com/iliyamo/classroom-seating/internal/seating"
)

// Page geometry in millimetres (A4 landscape).
const (
	margin      = 10.0
	titleHeight = 14.0
	frontHeight = 10.0
	gap         = 6.0
	cellPad     = 1.0
	maxCellH    = 24.0
	frontLabel  = "Front / Blackboard"
)

// Option configures a PDFRenderer.
type Option func(*PDFRenderer)

// WithFont embeds f instead of the font compiled into the binary.
func WithFont(f *Font) Option { return func(r *PDFRenderer) { r.font = f } }

// WithMarker sets the gender value drawn with MarkedColor.
func WithMarker(marker string) Option { return func(r *PDFRenderer) { r.marker = marker } }

// PDFRenderer draws one-page seating charts.  It holds no per-call state
// and is safe for concurrent use.
type PDFRenderer struct {
	font   *Font
	marker string
}

// NewPDFRenderer returns a renderer.  The default marker is "男".
func NewPDFRenderer(opts ...Option) *PDFRenderer {
	r := &PDFRenderer{marker: "男"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Font returns the font exports are drawn with.
func (r *PDFRenderer) Font() (*Font, error) {
	if r.font != nil {
		return r.font, nil
	}
	return DefaultFont()
}

// Render produces the PDF bytes for result.  A nil result yields a
// *seating.NoArrangementError.  Text the font has no glyphs for yields a
// *seating.ResourceError rather than a chart with blank names.
func (r *PDFRenderer) Render(classroomName string, result *model.SeatingResult) ([]byte, error) {
	if result == nil {
		return nil, &seating.NoArrangementError{ClassName: classroomName}
	}
	if err := seating.CheckDimensions(result.Rows, result.Cols); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if len(result.Layout) != result.Rows*result.Cols {
		return nil, fmt.Errorf("render: arrangement %dx%d has %d positions", result.Rows, result.Cols, len(result.Layout))
	}
	font, err := r.Font()
	if err != nil {
		return nil, err
	}

	title := norm.NFC.String(classroomName) + " Seating Chart"
	cells := seatCells(result, r.marker)
	texts := []string{title, frontLabel}
	for _, c := range cells {
		texts = append(texts, c.Lines...)
	}
	if err := font.coverage(texts...); err != nil {
		return nil, err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(margin, margin, margin)
	family := font.Family
	pdf.AddUTF8FontFromBytes(family, "", font.Data)
	pdf.AddUTF8FontFromBytes(family, "B", font.Data)
	pdf.SetTitle(title, true)
	pdf.SetCreator("classroom-seating", false)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*margin

	// title
	pdf.SetFont(family, "B", 18)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(margin, margin)
	pdf.CellFormat(contentW, titleHeight, title, "", 0, "C", false, 0, "")

	// front of room marker, half width and centred
	y := margin + titleHeight + 2
	frontW := contentW / 2
	setFill(pdf, FrontColor)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont(family, "B", 12)
	pdf.SetXY(margin+(contentW-frontW)/2, y)
	pdf.CellFormat(frontW, frontHeight, frontLabel, "", 0, "CM", true, 0, "")

	// seat grid
	y += frontHeight + gap
	cellW := contentW / float64(result.Cols)
	cellH := math.Min(maxCellH, (pageH-margin-y)/float64(result.Rows))
	fontSize := math.Max(5, math.Min(11, cellH*1.1))
	lineH := fontSize * 0.3528 * 1.25

	pdf.SetDrawColor(BorderColor.R, BorderColor.G, BorderColor.B)
	pdf.SetLineWidth(0.3)
	pdf.SetFont(family, "", fontSize)
	pdf.SetTextColor(0, 0, 0)
	for _, c := range cells {
		x := margin + float64(c.Col-1)*cellW + cellPad
		cy := y + float64(c.Row-1)*cellH + cellPad
		w, h := cellW-2*cellPad, cellH-2*cellPad
		if !c.Border {
			// empty seat: page-coloured and unbordered
			setFill(pdf, c.Fill)
			pdf.Rect(x, cy, w, h, "F")
			continue
		}
		setFill(pdf, c.Fill)
		pdf.Rect(x, cy, w, h, "FD")
		top := cy + (h-lineH*float64(len(c.Lines)))/2
		for i, line := range c.Lines {
			pdf.SetXY(x, top+float64(i)*lineH)
			pdf.CellFormat(w, lineH, fit(pdf, line, w-1), "", 0, "CM", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func setFill(pdf *fpdf.Fpdf, c RGB) { pdf.SetFillColor(c.R, c.G, c.B) }

// fit shortens s rune by rune until it is no wider than w.
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	runes := []rune(s)
	for len(runes) > 1 {
		runes = runes[:len(runes)-1]
		if cut := string(runes) + ".."; pdf.GetStringWidth(cut) <= w {
			return cut
		}
	}
	return string(runes)
}
