package highlight

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// maxChromaContext is the number of previous lines fed to the lexer as
// context for the current one.
const maxChromaContext = 50

// ChromaHighlighter tokenizes lines with a chroma lexer and styles them
// with a Theme. Chroma lexers are not incremental, so each line is lexed
// together with a window of preceding lines and only the tokens that fall
// inside the current line are kept.
type ChromaHighlighter struct {
	lexer    chroma.Lexer
	theme    *Theme
	language string
	context  []string
}

// NewChromaHighlighter creates a highlighter for the named chroma lexer.
// The name may be a lexer name, alias or file name.
func NewChromaHighlighter(language string, theme *Theme) (*ChromaHighlighter, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, language)
	}
	return &ChromaHighlighter{
		lexer:    chroma.Coalesce(lexer),
		theme:    theme,
		language: lexer.Config().Name,
	}, nil
}

func (h *ChromaHighlighter) Reset() {
	h.context = h.context[:0]
}

func (h *ChromaHighlighter) Language() string { return h.language }

func (h *ChromaHighlighter) HighlightLine(line string) ([]Token, error) {
	defer h.remember(line)

	var sb strings.Builder
	for _, ctx := range h.context {
		sb.WriteString(ctx)
		sb.WriteByte('\n')
	}
	lineStart := sb.Len()
	sb.WriteString(line)
	sb.WriteByte('\n') // line-oriented rules expect a terminator
	lineEnd := lineStart + len(line)

	iter, err := h.lexer.Tokenise(nil, sb.String())
	if err != nil {
		return nil, fmt.Errorf("tokenise %s line: %w", h.language, err)
	}

	var (
		tokens   []Token
		segStart = -1 // start of the last emitted token, relative to line
		covered  = 0  // bytes of line covered so far
		pos      = 0
	)
	for tok := iter(); tok != chroma.EOF; tok = iter() {
		tokStart, tokEnd := pos, pos+len(tok.Value)
		pos = tokEnd
		if tokEnd <= lineStart {
			continue
		}
		if tokStart >= lineEnd {
			break
		}

		a := max(tokStart, lineStart) - lineStart
		b := min(tokEnd, lineEnd) - lineStart
		if a >= b {
			continue
		}

		style := h.theme.StyleFor(tok.Type)
		if n := len(tokens); n > 0 && tokens[n-1].Style.Equals(style) {
			tokens[n-1].Text = line[segStart:b]
		} else {
			tokens = append(tokens, Token{Style: style, Text: line[a:b]})
			segStart = a
		}
		covered = b
	}

	// Lexers emit tokens for every input byte, but a short stream must not
	// drop text from the line.
	if covered < len(line) {
		tokens = append(tokens, Token{Style: h.theme.StyleFor(chroma.Text), Text: line[covered:]})
	}

	return tokens, nil
}

func (h *ChromaHighlighter) remember(line string) {
	h.context = append(h.context, line)
	if over := len(h.context) - maxChromaContext; over > 0 {
		h.context = append(h.context[:0], h.context[over:]...)
	}
}
