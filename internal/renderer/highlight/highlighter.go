// Package highlight provides syntax highlighting for the renderer.
//
// A Highlighter turns one line of source text into an ordered list of
// tokens, each a style plus the substring it covers. Concatenating the
// token texts of a line yields the line.
package highlight

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/tintview/internal/renderer/core"
)

// Setup errors. Both are fatal for the viewer.
var (
	ErrUnknownLanguage = errors.New("unknown language")
	ErrUnknownTheme    = errors.New("unknown theme")
)

// Token is a styled substring of a line.
type Token struct {
	Style core.Style
	Text  string
}

// Highlighter defines the interface for syntax highlighters.
// Implementations may keep state between lines (multi-line comments,
// strings), so lines must be fed in document order after a Reset.
type Highlighter interface {
	// Reset clears any state carried over from previous lines.
	Reset()

	// HighlightLine tokenizes a single line without its terminator.
	HighlightLine(line string) ([]Token, error)

	// Language returns the language this highlighter handles.
	Language() string
}

// plainLanguages name the languages served by PlainHighlighter.
var plainLanguages = map[string]bool{
	"":          true,
	"text":      true,
	"plain":     true,
	"plaintext": true,
	"none":      true,
}

// IsPlain reports whether language selects the plain highlighter.
func IsPlain(language string) bool {
	return plainLanguages[strings.ToLower(language)]
}

// New returns the highlighter for language using theme.
// Plain languages get a PlainHighlighter, everything else is resolved
// through chroma.
func New(language string, theme *Theme) (Highlighter, error) {
	if theme == nil {
		return nil, fmt.Errorf("highlighter for %q: nil theme", language)
	}
	if IsPlain(language) {
		return NewPlainHighlighter(theme.BaseStyle()), nil
	}
	return NewChromaHighlighter(language, theme)
}

// PlainHighlighter emits each non-empty line as a single token.
type PlainHighlighter struct {
	style core.Style
}

// NewPlainHighlighter creates a highlighter that styles every line with style.
func NewPlainHighlighter(style core.Style) *PlainHighlighter {
	return &PlainHighlighter{style: style}
}

func (h *PlainHighlighter) Reset() {}

func (h *PlainHighlighter) HighlightLine(line string) ([]Token, error) {
	if line == "" {
		return nil, nil
	}
	return []Token{{Style: h.style, Text: line}}, nil
}

func (h *PlainHighlighter) Language() string { return "text" }

// JoinTokens concatenates token texts.
func JoinTokens(tokens []Token) string {
	if len(tokens) == 0 {
		return ""
	}
	total := 0
	for _, tok := range tokens {
		total += len(tok.Text)
	}
	var sb strings.Builder
	sb.Grow(total)
	for _, tok := range tokens {
		sb.WriteString(tok.Text)
	}
	return sb.String()
}
