package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/busview/internal/models"
)

// BaseColors defines global UI colors.
type BaseColors struct {
	Background string
	Foreground string
	Muted      string
	Accent     string
	Border     string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Header       string
	Footer       string
	SelectedItem string
	SelectedText string
	Error        string
}

// RowColors defines colors for row state.
type RowColors struct {
	Declared string
	Inactive string
}

// Theme defines the viewer style tokens.
type Theme struct {
	Name string

	Base   BaseColors
	Chrome ChromeColors
	Row    RowColors
}

// DefaultTheme is the baseline dark palette.
var DefaultTheme = Theme{
	Name: "default",
	Base: BaseColors{
		Background: "234",
		Foreground: "252",
		Muted:      "245",
		Accent:     "75",
		Border:     "240",
	},
	Chrome: ChromeColors{
		Header:       "111",
		Footer:       "110",
		SelectedItem: "24",
		SelectedText: "231",
		Error:        "203",
	},
	Row: RowColors{
		Declared: "109",
		Inactive: "243",
	},
}

// HighContrastTheme favors legibility on low-quality terminals.
var HighContrastTheme = Theme{
	Name: "high-contrast",
	Base: BaseColors{
		Background: "16",
		Foreground: "231",
		Muted:      "250",
		Accent:     "51",
		Border:     "231",
	},
	Chrome: ChromeColors{
		Header:       "117",
		Footer:       "159",
		SelectedItem: "21",
		SelectedText: "231",
		Error:        "196",
	},
	Row: RowColors{
		Declared: "195",
		Inactive: "248",
	},
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}

// ResolveTheme returns the named theme, falling back to the default.
func ResolveTheme(name string) Theme {
	if theme, ok := Themes[name]; ok {
		return theme
	}
	return DefaultTheme
}

func (t Theme) headerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Chrome.Header)).Bold(true)
}

func (t Theme) footerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Chrome.Footer))
}

func (t Theme) mutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Muted))
}

func (t Theme) accentStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Accent))
}

func (t Theme) borderStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Border))
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Chrome.Error)).Bold(true)
}

func (t Theme) selectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.Chrome.SelectedText)).
		Background(lipgloss.Color(t.Chrome.SelectedItem))
}

// highlightColor flattens a translucent highlight onto a black terminal
// background. Fully transparent colors report false.
func highlightColor(c models.Color) (lipgloss.Color, bool) {
	if c.A == 0 {
		return "", false
	}
	scale := func(v uint8) uint8 { return uint8(uint16(v) * uint16(c.A) / 255) }
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", scale(c.R), scale(c.G), scale(c.B))), true
}
