// Package fonts provides the font compiled into the binary so that exports
// work without any font installed on the host.
package fonts

import _ "embed"

// DejaVu Sans Condensed covers Latin, Greek and Cyrillic.  Deployments with
// names in other scripts configure their own font.

//go:embed DejaVuSansCondensed.ttf
var dejaVuSansCondensedTTF []byte

// DefaultFamily is the family name the embedded font is registered under.
const DefaultFamily = "DejaVuSansCondensed"

// DefaultTTF returns the embedded TTF data.
func DefaultTTF() []byte {
	return dejaVuSansCondensedTTF
}
