package render

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/iliyamo/classroom-seating/internal/model"
)

// RGB is a fill or text colour.
type RGB struct{ R, G, B int }

var (
	MarkedColor = RGB{91, 192, 222}  // students whose gender equals the marker
	OtherColor  = RGB{255, 153, 204} // everyone else
	PageColor   = RGB{255, 255, 255} // empty seats blend into the page
	FrontColor  = RGB{64, 64, 64}    // front of room block
	BorderColor = RGB{0, 0, 0}
)

// GenderCategory is the binary classification used for cell colours.  Only
// one gender value is recognised; every other value, including empty,
// falls into CategoryOther.
type GenderCategory int

const (
	CategoryOther GenderCategory = iota
	CategoryMarked
)

// Classify compares gender against marker exactly.  Values are stored as
// entered, so " 男" is a different value from "男".
func Classify(gender, marker string) GenderCategory {
	if marker != "" && gender == marker {
		return CategoryMarked
	}
	return CategoryOther
}

// cellStyle is everything drawn for one seat.
type cellStyle struct {
	Row, Col int
	Lines    []string
	Fill     RGB
	Border   bool
}

// seatCells returns the drawing instructions for every seat in the
// row-major order of result.Layout.
func seatCells(result *model.SeatingResult, marker string) []cellStyle {
	cells := make([]cellStyle, 0, len(result.Layout))
	for _, p := range result.Layout {
		c := cellStyle{Row: p.Row, Col: p.Col, Fill: PageColor}
		if p.Occupied() {
			c.Border = true
			c.Lines = []string{norm.NFC.String(strings.TrimSpace(p.StudentName)), fmt.Sprintf("(%d-%d)", p.Row, p.Col)}
			c.Fill = OtherColor
			if Classify(p.Gender, marker) == CategoryMarked {
				c.Fill = MarkedColor
			}
		}
		cells = append(cells, c)
	}
	return cells
}
