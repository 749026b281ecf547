package apod

import "strings"

// ModeSpec describes the fixed-size raster a client expects for a mode token.
type ModeSpec struct {
	Token        string `json:"token"`
	ImageBytes   int    `json:"image_bytes"`
	PaletteBytes int    `json:"palette_bytes"`
	Suffix       string `json:"suffix"`
}

// Size is the exact on-disk length of an artifact for this mode.
func (m ModeSpec) Size() int {
	return m.ImageBytes + m.PaletteBytes
}

const (
	ModeGraphics8  = "8"
	ModeGraphics9  = "9"
	ModeGraphics15 = "15"
	ModeRGB9       = "rgb9"
)

// DefaultMode is the 80x192 sixteen-shade GRAPHICS 9 screen.
var DefaultMode = ModeSpec{Token: ModeGraphics9, ImageBytes: 7680, PaletteBytes: 0, Suffix: "GR9"}

var modeCatalog = map[string]ModeSpec{
	ModeGraphics8:  {Token: ModeGraphics8, ImageBytes: 7680, PaletteBytes: 0, Suffix: "GR8"},
	ModeGraphics15: {Token: ModeGraphics15, ImageBytes: 7680, PaletteBytes: 4, Suffix: "G15"},
	ModeRGB9:       {Token: ModeRGB9, ImageBytes: 7680 * 3, PaletteBytes: 0, Suffix: "CV9"},
}

// ResolveMode maps a requested token to its ModeSpec. Anything unknown,
// including an explicit "9", resolves to DefaultMode.
func ResolveMode(token string) ModeSpec {
	if spec, ok := modeCatalog[strings.TrimSpace(token)]; ok {
		return spec
	}
	return DefaultMode
}

// Modes lists every mode the catalog knows about, default last.
func Modes() []ModeSpec {
	return []ModeSpec{
		modeCatalog[ModeGraphics8],
		modeCatalog[ModeGraphics15],
		modeCatalog[ModeRGB9],
		DefaultMode,
	}
}
