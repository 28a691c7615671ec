package tui

import (
	"io"

	"github.com/BurntSushi/toml"
)

// themeFile mirrors Theme with optional fields so a file can override only
// some colors.
type themeFile struct {
	Primary    *Color `toml:"Primary"`
	Subtle     *Color `toml:"Subtle"`
	Success    *Color `toml:"Success"`
	Error      *Color `toml:"Error"`
	Normal     *Color `toml:"Normal"`
	Disabled   *Color `toml:"Disabled"`
	Border     *Color `toml:"Border"`
	SignalHigh *Color `toml:"SignalHigh"`
	SignalLow  *Color `toml:"SignalLow"`
}

// LoadTheme reads a TOML theme from r on top of the default theme. A nil
// reader returns the default theme.
func LoadTheme(r io.Reader) (Theme, error) {
	theme := NewDefaultTheme()
	if r == nil {
		return theme, nil
	}

	var tf themeFile
	if _, err := toml.NewDecoder(r).Decode(&tf); err != nil {
		return theme, err
	}

	overrides := []struct {
		src *Color
		dst *Color
	}{
		{tf.Primary, &theme.Primary},
		{tf.Subtle, &theme.Subtle},
		{tf.Success, &theme.Success},
		{tf.Error, &theme.Error},
		{tf.Normal, &theme.Normal},
		{tf.Disabled, &theme.Disabled},
		{tf.Border, &theme.Border},
		{tf.SignalHigh, &theme.SignalHigh},
		{tf.SignalLow, &theme.SignalLow},
	}
	for _, o := range overrides {
		if o.src != nil {
			*o.dst = *o.src
		}
	}
	return theme, nil
}
