package common

import (
	"fmt"
	"image/color"
	"strconv"
)

// HumanPalette is assigned to human players in join order
var HumanPalette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#FFA07A",
	"#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E2",
	"#F39C12", "#E74C3C", "#3498DB", "#2ECC71",
}

// BotPalette is assigned to bots in join order
var BotPalette = []string{
	"#8B4513", "#696969", "#808000", "#800080",
	"#008080", "#4B0082", "#2F4F4F", "#556B2F",
}

// PlayerColor returns the nth colour of the human or bot palette, wrapping
// around once the palette is exhausted.
func PlayerColor(n int, bot bool) string {
	palette := HumanPalette
	if bot {
		palette = BotPalette
	}
	if n < 0 {
		n = -n
	}
	return palette[n%len(palette)]
}

// ParseHexColor converts "#RRGGBB" to an opaque RGBA.
func ParseHexColor(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// Cell colors
var (
	NeutralLandColor = color.RGBA{44, 62, 80, 255}
	WaterColor       = color.RGBA{20, 40, 90, 255}
	BuildingColor    = color.White
	TroopTextColor   = color.White
)

// UI colors
var (
	BackgroundColor = color.Black
	GridLineColor   = color.RGBA{50, 50, 50, 255}
	PanelColor      = color.RGBA{0, 0, 0, 200}
)
