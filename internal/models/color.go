package models

// Color is an RGBA color with 8 bit channels.
type Color struct {
	R, G, B, A uint8
}

// Transparent is the zero color.
var Transparent = Color{}

// Highlight colors for payload bytes.
var (
	ColorIncrease = Color{R: 0, G: 187, B: 255, A: 128}
	ColorDecrease = Color{R: 255, G: 0, B: 0, A: 128}
)

const (
	// fadeAlphaDelta is the alpha lost per frame at the nominal frame rate.
	fadeAlphaDelta = 5.0
	nominalFPS     = 60
)

// WithAlpha returns c with its alpha replaced.
func (c Color) WithAlpha(alpha uint8) Color {
	c.A = alpha
	return c
}

// UpdateHighlight recolors colors in place for a payload change from prev to
// cur after dt seconds. colors must already have len(cur) entries. Bytes that
// went up are tinted ColorIncrease, bytes that went down ColorDecrease, and
// unchanged bytes fade linearly with dt.
func UpdateHighlight(colors []Color, prev, cur []byte, dt float64) {
	fade := int(fadeAlphaDelta * dt * nominalFPS)
	if fade < 0 {
		fade = 0
	}
	for i := range cur {
		if i >= len(colors) {
			return
		}
		if i < len(prev) && cur[i] != prev[i] {
			if cur[i] > prev[i] {
				colors[i] = ColorIncrease
			} else {
				colors[i] = ColorDecrease
			}
			continue
		}
		c := &colors[i]
		if c.A > 0 {
			alpha := int(c.A) - fade
			if alpha < 0 {
				alpha = 0
			}
			c.A = uint8(alpha)
		}
	}
}

// ResizeColors returns colors with exactly n entries, padding with Transparent.
func ResizeColors(colors []Color, n int) []Color {
	if len(colors) == n {
		return colors
	}
	if len(colors) > n {
		return colors[:n]
	}
	return append(colors, make([]Color, n-len(colors))...)
}
