package highlight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/dshills/tintview/internal/renderer/core"
)

// DefaultThemeName is the theme used when none is configured.
const DefaultThemeName = "monokai"

// Theme maps chroma token types to renderer styles.
type Theme struct {
	// Name is the chroma style name.
	Name string

	// Background is the editor background color.
	Background core.Color

	// Foreground is the default text color.
	Foreground core.Color

	style *chroma.Style
}

// LoadTheme looks up a chroma style by name (case-insensitive).
func LoadTheme(name string) (*Theme, error) {
	if name == "" {
		name = DefaultThemeName
	}
	style, ok := styles.Registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	return ThemeFromChroma(style), nil
}

// ThemeFromChroma builds a Theme from a chroma style.
func ThemeFromChroma(style *chroma.Style) *Theme {
	base := style.Get(chroma.Background)

	t := &Theme{
		Name:       style.Name,
		Background: core.ColorDefault,
		Foreground: core.ColorDefault,
		style:      style,
	}
	if base.Background.IsSet() {
		t.Background = convertColour(base.Background)
	}
	if base.Colour.IsSet() {
		t.Foreground = convertColour(base.Colour)
	}
	return t
}

// BaseStyle returns the theme's default text style.
func (t *Theme) BaseStyle() core.Style {
	return core.Style{
		Foreground: t.Foreground,
		Background: t.Background,
	}
}

// StyleFor returns the style for a chroma token type. Only foreground and
// bold/italic/underline are taken from the theme; the background is left to
// the surface the text is drawn on.
func (t *Theme) StyleFor(tokenType chroma.TokenType) core.Style {
	entry := t.style.Get(tokenType)

	style := core.NewStyle(t.Foreground)
	if entry.Colour.IsSet() {
		style.Foreground = convertColour(entry.Colour)
	}
	if entry.Bold == chroma.Yes {
		style = style.Bold()
	}
	if entry.Italic == chroma.Yes {
		style = style.Italic()
	}
	if entry.Underline == chroma.Yes {
		style = style.Underline()
	}
	return style
}

// ThemeNames lists the available theme names, sorted.
func ThemeNames() []string {
	names := make([]string, 0, len(styles.Registry))
	for name := range styles.Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func convertColour(c chroma.Colour) core.Color {
	return core.ColorFromRGB(c.Red(), c.Green(), c.Blue())
}
