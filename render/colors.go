package render

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var namedColors = map[string]string{
	"black":  "#000000",
	"white":  "#ffffff",
	"gray":   "#808080",
	"grey":   "#808080",
	"red":    "#ff0000",
	"green":  "#008000",
	"lime":   "#00ff00",
	"blue":   "#0000ff",
	"yellow": "#ffff00",
	"orange": "#ffa500",
	"purple": "#800080",
	"cyan":   "#00ffff",
}

// ParseColor understands the CSS forms the editor uses: named colors,
// #rgb, #rrggbb, rgb(r, g, b) and rgba(r, g, b, a). Alpha is ignored.
func ParseColor(s string) (colorful.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if hex, ok := namedColors[s]; ok {
		s = hex
	}

	switch {
	case strings.HasPrefix(s, "#") && len(s) == 4:
		s = "#" + strings.Repeat(s[1:2], 2) + strings.Repeat(s[2:3], 2) + strings.Repeat(s[3:4], 2)
		return colorful.Hex(s)
	case strings.HasPrefix(s, "#"):
		return colorful.Hex(s)
	case strings.HasPrefix(s, "rgb"):
		open, end := strings.IndexByte(s, '('), strings.IndexByte(s, ')')
		if open < 0 || end < open {
			return colorful.Color{}, fmt.Errorf("malformed color %q", s)
		}
		parts := strings.Split(s[open+1:end], ",")
		if len(parts) < 3 {
			return colorful.Color{}, fmt.Errorf("malformed color %q", s)
		}
		var rgb [3]uint8
		for i := range rgb {
			if _, err := fmt.Sscanf(strings.TrimSpace(parts[i]), "%d", &rgb[i]); err != nil {
				return colorful.Color{}, fmt.Errorf("malformed color %q: %w", s, err)
			}
		}
		return colorful.Color{R: float64(rgb[0]) / 255, G: float64(rgb[1]) / 255, B: float64(rgb[2]) / 255}, nil
	default:
		return colorful.Color{}, fmt.Errorf("unknown color %q", s)
	}
}

// HexColor returns s as #rrggbb, or fallback when s cannot be parsed
func HexColor(s, fallback string) string {
	c, err := ParseColor(s)
	if err != nil {
		return fallback
	}
	return c.Hex()
}
