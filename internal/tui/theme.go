package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Color is a lipgloss.TerminalColor that can be decoded from a theme file,
// either as a single color or as a [light, dark] pair.
type Color struct {
	lipgloss.TerminalColor
}

// UnmarshalTOML implements toml.Unmarshaler.
func (c *Color) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case string:
		c.TerminalColor = lipgloss.Color(v)
		return nil
	case []any:
		if len(v) != 2 {
			return fmt.Errorf("color pair must have 2 values, got %d", len(v))
		}
		light, ok1 := v[0].(string)
		dark, ok2 := v[1].(string)
		if !ok1 || !ok2 {
			return fmt.Errorf("color pair must be strings: %v", v)
		}
		c.TerminalColor = lipgloss.AdaptiveColor{Light: light, Dark: dark}
		return nil
	}
	return fmt.Errorf("invalid color: %v", v)
}

// hex returns the color as a hex string for the current terminal background.
func (c Color) hex() string {
	switch v := c.TerminalColor.(type) {
	case lipgloss.Color:
		return string(v)
	case lipgloss.AdaptiveColor:
		if lipgloss.HasDarkBackground() {
			return v.Dark
		}
		return v.Light
	}
	return ""
}

// Theme contains the colors for the application.
type Theme struct {
	Primary    Color
	Subtle     Color
	Success    Color
	Error      Color
	Normal     Color
	Disabled   Color
	Border     Color
	SignalHigh Color
	SignalLow  Color
}

// CurrentTheme is the active theme for the application.
var CurrentTheme = NewDefaultTheme()

func adaptive(light, dark string) Color {
	return Color{lipgloss.AdaptiveColor{Light: light, Dark: dark}}
}

// NewDefaultTheme creates a new default theme.
func NewDefaultTheme() Theme {
	return Theme{
		Primary:    adaptive("#5A56E0", "#D359E3"),
		Subtle:     adaptive("#BDBDBD", "#616161"),
		Success:    adaptive("#388E3C", "#81C784"),
		Error:      adaptive("#D32F2F", "#E57373"),
		Normal:     adaptive("#212121", "#FFFFFF"),
		Disabled:   adaptive("#9E9E9E", "#424242"),
		Border:     adaptive("#BDBDBD", "#616161"),
		SignalHigh: adaptive("#00B300", "#00FF00"),
		SignalLow:  adaptive("#D05F00", "#BC3C00"),
	}
}

// SignalColor blends between SignalLow and SignalHigh for a 0-100 strength.
func (t Theme) SignalColor(strength uint8) lipgloss.TerminalColor {
	low, err := colorful.Hex(t.SignalLow.hex())
	if err != nil {
		return t.Normal
	}
	high, err := colorful.Hex(t.SignalHigh.hex())
	if err != nil {
		return t.Normal
	}
	p := float64(strength) / 100.0
	if p > 1 {
		p = 1
	}
	return lipgloss.Color(low.BlendRgb(high, p).Clamped().Hex())
}
