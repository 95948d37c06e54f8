package drawing

import "strings"

// Palette names.
const (
	PaletteClassic = "classic"
	PaletteNeon    = "neon"
)

// Swatch is a named palette color.
type Swatch struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Palette is a set of swatches plus the offered brush widths.
type Palette struct {
	Name     string    `json:"name"`
	Swatches []Swatch  `json:"swatches"`
	Widths   []float64 `json:"widths"`
}

var brushWidths = []float64{2, 5, 10, 15, 20}

// Palettes returns all available palettes.
func Palettes() map[string]Palette {
	return map[string]Palette{
		PaletteClassic: ClassicPalette(),
		PaletteNeon:    NeonPalette(),
	}
}

// PaletteNames returns the list of available palette names.
func PaletteNames() []string {
	return []string{PaletteClassic, PaletteNeon}
}

// GetPalette returns a palette by name, or nil if not found.
func GetPalette(name string) *Palette {
	if p, ok := Palettes()[name]; ok {
		return &p
	}
	return nil
}

// ClassicPalette is the primary/secondary color set.
func ClassicPalette() Palette {
	return Palette{
		Name: PaletteClassic,
		Swatches: []Swatch{
			{"black", "#000000"},
			{"red", "#ff0000"},
			{"green", "#00ff00"},
			{"blue", "#0000ff"},
			{"yellow", "#ffff00"},
			{"magenta", "#ff00ff"},
			{"cyan", "#00ffff"},
			{"orange", "#ff8800"},
		},
		Widths: brushWidths,
	}
}

// NeonPalette is the bright color set.
func NeonPalette() Palette {
	return Palette{
		Name: PaletteNeon,
		Swatches: []Swatch{
			{"purple", "#713eff"},
			{"sky", "#36b9ff"},
			{"pink", "#ff71e9"},
			{"lemon", "#f9f871"},
			{"coral", "#ff5252"},
			{"leaf", "#4caf50"},
			{"white", "#ffffff"},
			{"black", "#000000"},
		},
		Widths: brushWidths,
	}
}

// LookupColor finds a swatch by name across all palettes.
func LookupColor(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, pn := range PaletteNames() {
		for _, s := range Palettes()[pn].Swatches {
			if s.Name == name {
				return s.Color, true
			}
		}
	}
	return "", false
}
