package render

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/sfnt"

	"github.com/iliyamo/classroom-seating/internal/render/fonts"
	"github.com/iliyamo/classroom-seating/internal/seating"
)

// Font is a TrueType font embedded into every exported document.
type Font struct {
	Family string
	Data   []byte

	glyphs *sfnt.Font
}

// LoadFont reads and parses a TTF file.  Any failure is reported as a
// *seating.ResourceError so startup can abort before serving exports.
func LoadFont(family, path string) (*Font, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &seating.ResourceError{Resource: "font", Err: errors.New("empty font path")}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &seating.ResourceError{Resource: "font " + path, Err: err}
	}
	return ParseFont(family, data)
}

var (
	defaultFont     *Font
	defaultFontErr  error
	defaultFontOnce sync.Once
)

// DefaultFont returns the font compiled into the binary.  It is parsed once.
func DefaultFont() (*Font, error) {
	defaultFontOnce.Do(func() {
		defaultFont, defaultFontErr = ParseFont(fonts.DefaultFamily, fonts.DefaultTTF())
	})
	return defaultFont, defaultFontErr
}

// ParseFont checks that data is a usable UTF-8 TrueType font.
func ParseFont(family string, data []byte) (f *Font, err error) {
	if family == "" {
		family = "embedded"
	}
	if len(data) == 0 {
		return nil, &seating.ResourceError{Resource: "font " + family, Err: errors.New("empty font data")}
	}
	glyphs, err := sfnt.Parse(data)
	if err != nil {
		return nil, &seating.ResourceError{Resource: "font " + family, Err: fmt.Errorf("parse ttf: %w", err)}
	}
	// the fpdf ttf parser panics on some inputs sfnt accepts
	defer func() {
		if p := recover(); p != nil {
			f, err = nil, &seating.ResourceError{Resource: "font " + family, Err: fmt.Errorf("parse ttf: %v", p)}
		}
	}()
	check := fpdf.New("L", "mm", "A4", "")
	check.AddUTF8FontFromBytes(family, "", data)
	if err := check.Error(); err != nil {
		return nil, &seating.ResourceError{Resource: "font " + family, Err: fmt.Errorf("parse ttf: %w", err)}
	}
	return &Font{Family: family, Data: data, glyphs: glyphs}, nil
}

// Missing returns the first rune of s the font has no glyph for.  Spaces
// and control characters are never reported.  A Font not built by
// ParseFont has no glyph table and reports nothing.
func (f *Font) Missing(s string) (rune, bool) {
	if f.glyphs == nil {
		return 0, false
	}
	var buf sfnt.Buffer
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			continue
		}
		if idx, err := f.glyphs.GlyphIndex(&buf, r); err != nil || idx == 0 {
			return r, true
		}
	}
	return 0, false
}

// Covers reports whether every printable rune of s has a glyph.
func (f *Font) Covers(s string) bool {
	_, missing := f.Missing(s)
	return !missing
}

// coverage reports the first text the font cannot draw as a ResourceError.
func (f *Font) coverage(texts ...string) error {
	for _, s := range texts {
		if r, missing := f.Missing(s); missing {
			return &seating.ResourceError{
				Resource: "font " + f.Family,
				Err:      fmt.Errorf("no glyph for %q (U+%04X) in %q", r, r, s),
			}
		}
	}
	return nil
}
