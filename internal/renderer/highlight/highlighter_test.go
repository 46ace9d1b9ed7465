package highlight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dshills/tintview/internal/renderer/core"
)

func mustTheme(t *testing.T) *Theme {
	t.Helper()
	theme, err := LoadTheme("monokai")
	require.NoError(t, err)
	return theme
}

func TestLoadTheme(t *testing.T) {
	theme := mustTheme(t)

	require.Equal(t, "monokai", strings.ToLower(theme.Name))
	require.False(t, theme.Background.IsDefault(), "monokai defines a background")
	require.False(t, theme.Foreground.IsDefault(), "monokai defines a foreground")

	base := theme.BaseStyle()
	require.True(t, base.Background.Equals(theme.Background))
	require.True(t, base.Foreground.Equals(theme.Foreground))
}

func TestLoadTheme_CaseInsensitiveAndDefault(t *testing.T) {
	theme, err := LoadTheme("MONOKAI")
	require.NoError(t, err)
	require.Equal(t, "monokai", strings.ToLower(theme.Name))

	theme, err = LoadTheme("")
	require.NoError(t, err)
	require.Equal(t, DefaultThemeName, strings.ToLower(theme.Name))
}

func TestLoadTheme_Unknown(t *testing.T) {
	_, err := LoadTheme("no-such-theme")
	require.ErrorIs(t, err, ErrUnknownTheme)
}

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	require.Contains(t, names, "monokai")
	require.IsIncreasing(t, names)
}

func TestNew_Plain(t *testing.T) {
	theme := mustTheme(t)

	for _, lang := range []string{"", "text", "Plain", "none"} {
		h, err := New(lang, theme)
		require.NoError(t, err)
		require.IsType(t, &PlainHighlighter{}, h, "language %q", lang)
		require.Equal(t, "text", h.Language())
	}
}

func TestNew_UnknownLanguage(t *testing.T) {
	_, err := New("definitely-not-a-language", mustTheme(t))
	require.ErrorIs(t, err, ErrUnknownLanguage)
}

func TestNew_NilTheme(t *testing.T) {
	_, err := New("ini", nil)
	require.Error(t, err)
}

func TestPlainHighlighter(t *testing.T) {
	style := core.NewStyle(core.ColorWhite)
	h := NewPlainHighlighter(style)

	tokens, err := h.HighlightLine("a = b")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	require.Equal(t, "a = b", tokens[0].Text)
	require.True(t, tokens[0].Style.Equals(style))

	tokens, err = h.HighlightLine("")
	require.NoError(t, err)
	require.Empty(t, tokens)
}

func TestChromaHighlighter_INI(t *testing.T) {
	h, err := NewChromaHighlighter("ini", mustTheme(t))
	require.NoError(t, err)
	require.Equal(t, "INI", h.Language())

	lines := []string{
		"[Unit]",
		"Description=jgjg",
		"",
		"# This is a comment",
		"WantedBy=boo",
	}
	for _, line := range lines {
		tokens, err := h.HighlightLine(line)
		require.NoError(t, err)
		require.Equal(t, line, JoinTokens(tokens), "tokens must rebuild %q", line)
		for _, tok := range tokens {
			require.NotEmpty(t, tok.Text, "no empty tokens")
		}
	}

	tokens, err := h.HighlightLine("After=jkhk")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(tokens), 2, "key and value should be styled differently")
}

func TestChromaHighlighter_AdjacentTokensMerged(t *testing.T) {
	h, err := NewChromaHighlighter("ini", mustTheme(t))
	require.NoError(t, err)

	tokens, err := h.HighlightLine("Wants=jgj")
	require.NoError(t, err)
	for i := 1; i < len(tokens); i++ {
		require.False(t, tokens[i].Style.Equals(tokens[i-1].Style),
			"adjacent tokens %q and %q share a style", tokens[i-1].Text, tokens[i].Text)
	}
}

func TestChromaHighlighter_ContextWindow(t *testing.T) {
	h, err := NewChromaHighlighter("go", mustTheme(t))
	require.NoError(t, err)

	for i := 0; i < maxChromaContext+10; i++ {
		_, err := h.HighlightLine("x := 1")
		require.NoError(t, err)
	}
	require.Len(t, h.context, maxChromaContext)

	h.Reset()
	require.Empty(t, h.context)
}

func TestHighlighters_RoundTrip(t *testing.T) {
	theme := mustTheme(t)

	rapid.Check(t, func(t *rapid.T) {
		lang := rapid.SampledFrom([]string{"text", "ini", "go", "yaml"}).Draw(t, "lang")
		h, err := New(lang, theme)
		if err != nil {
			t.Fatalf("New(%q): %v", lang, err)
		}

		lines := rapid.SliceOfN(rapid.StringMatching(`[^\n\r]{0,40}`), 1, 8).Draw(t, "lines")
		for _, line := range lines {
			tokens, err := h.HighlightLine(line)
			if err != nil {
				t.Fatalf("HighlightLine(%q): %v", line, err)
			}
			if got := JoinTokens(tokens); got != line {
				t.Fatalf("round trip failed for %s: got %q, want %q", lang, got, line)
			}
		}
	})
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"go by extension", "main.go", "package main\n", "Go"},
		{"ini by extension", "settings.ini", "[core]\nname=x\n", "INI"},
		{"unknown", "notes.zzzz", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DetectLanguage(tt.file, []byte(tt.content)))
		})
	}
}

func TestJoinTokens(t *testing.T) {
	require.Equal(t, "", JoinTokens(nil))
	require.Equal(t, "ab", JoinTokens([]Token{{Text: "a"}, {Text: "b"}}))
}
