// Package document holds highlighted text ready for rendering.
//
// A Document owns its source text and, per line, the segments produced by a
// highlighter. Segments are byte ranges into the owned text, so converting a
// document to styled lines never copies character data.
package document

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dshills/tintview/internal/renderer/core"
	"github.com/dshills/tintview/internal/renderer/highlight"
)

// Segment is a styled byte range [Start, End) of the document text.
type Segment struct {
	Style core.Style
	Start int
	End   int
}

// Len returns the segment length in bytes.
func (s Segment) Len() int { return s.End - s.Start }

// Span is a styled substring as consumed by the renderer.
type Span struct {
	Style core.Style
	Text  string
}

// StyledLine is one source line as an ordered list of spans.
type StyledLine struct {
	Spans []Span
}

// Text concatenates the span texts of the line.
func (l StyledLine) Text() string {
	var sb strings.Builder
	for _, s := range l.Spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Width returns the display width of the line in cells.
func (l StyledLine) Width() int {
	w := 0
	for _, s := range l.Spans {
		w += core.StringWidth(s.Text)
	}
	return w
}

// lineRange is the byte range of one logical line, terminator excluded.
type lineRange struct {
	start, end int
}

// Document is an immutable highlighted text.
type Document struct {
	text     string
	language string
	lines    []lineRange
	segments [][]Segment
	diags    []Diagnostic

	convertOnce sync.Once
	converted   []StyledLine
}

// New highlights text line by line with h and builds a document from the
// result. The highlighter is reset first and sees every line exactly once,
// in order. A highlighter error aborts construction.
func New(text string, h highlight.Highlighter) (*Document, error) {
	if h == nil {
		return nil, fmt.Errorf("document: nil highlighter")
	}

	ranges := splitLines(text)
	tokenLines := make([][]highlight.Token, 0, len(ranges))

	h.Reset()
	for i, r := range ranges {
		tokens, err := h.HighlightLine(text[r.start:r.end])
		if err != nil {
			return nil, fmt.Errorf("highlight line %d: %w", i+1, err)
		}
		tokenLines = append(tokenLines, tokens)
	}

	doc := FromTokens(text, tokenLines)
	doc.language = h.Language()
	return doc, nil
}

// FromTokens builds a document from text and an already tokenized
// per-line stream. Token line i is paired with text line i. Tokens are
// mapped to byte ranges of the text by their lengths; any place where the
// tokens do not reconstruct the line is recorded as a Diagnostic.
func FromTokens(text string, tokenLines [][]highlight.Token) *Document {
	doc := &Document{
		text:  text,
		lines: splitLines(text),
	}

	if len(tokenLines) != len(doc.lines) {
		doc.diags = append(doc.diags, Diagnostic{
			Kind: LineCountMismatch,
			Line: -1,
			Message: fmt.Sprintf("text has %d lines, tokenizer produced %d; output truncated to %d",
				len(doc.lines), len(tokenLines), min(len(doc.lines), len(tokenLines))),
		})
	}

	doc.segments = make([][]Segment, len(tokenLines))
	for i, tokens := range tokenLines {
		if i >= len(doc.lines) {
			// No text to point into; these lines are dropped by Convert.
			doc.segments[i] = nil
			continue
		}
		segs, diag := doc.mapTokens(i, tokens)
		doc.segments[i] = segs
		if diag != nil {
			doc.diags = append(doc.diags, *diag)
		}
	}

	return doc
}

// mapTokens turns the tokens of line i into segments. Tokens running past
// the end of the line are clamped.
func (d *Document) mapTokens(i int, tokens []highlight.Token) ([]Segment, *Diagnostic) {
	r := d.lines[i]
	segs := make([]Segment, 0, len(tokens))
	var diag *Diagnostic

	report := func(format string, args ...any) {
		if diag == nil {
			diag = &Diagnostic{
				Kind:    ReconstructionMismatch,
				Line:    i,
				Message: fmt.Sprintf(format, args...),
			}
		}
	}

	pos := r.start
	for _, tok := range tokens {
		if tok.Text == "" {
			continue
		}
		end := pos + len(tok.Text)
		if end > r.end {
			report("line %d: tokens exceed line length by %d bytes", i+1, end-r.end)
			end = r.end
		}
		if pos >= end {
			break
		}
		if d.text[pos:end] != tok.Text[:end-pos] {
			report("line %d: token %q does not match text %q at byte %d",
				i+1, tok.Text, d.text[pos:end], pos-r.start)
		}
		segs = append(segs, Segment{Style: tok.Style, Start: pos, End: end})
		pos = end
	}
	if pos < r.end {
		report("line %d: tokens cover %d of %d bytes", i+1, pos-r.start, r.end-r.start)
	}

	return segs, diag
}

// Convert returns the renderable styled lines. Text line i is paired with
// token line i and pairing stops at the shorter of the two sequences.
// The result is computed once and shared by later calls; callers must not
// modify it.
func (d *Document) Convert() []StyledLine {
	d.convertOnce.Do(func() {
		n := min(len(d.lines), len(d.segments))
		out := make([]StyledLine, n)
		for i := 0; i < n; i++ {
			segs := d.segments[i]
			spans := make([]Span, len(segs))
			for j, s := range segs {
				spans[j] = Span{Style: s.Style, Text: d.text[s.Start:s.End]}
			}
			out[i] = StyledLine{Spans: spans}
		}
		d.converted = out
	})
	return d.converted
}

// Text returns the source text.
func (d *Document) Text() string { return d.text }

// Language returns the language the document was highlighted as, if known.
func (d *Document) Language() string { return d.language }

// LineCount returns the number of logical lines in the text.
func (d *Document) LineCount() int { return len(d.lines) }

// TokenLineCount returns the number of token lines supplied.
func (d *Document) TokenLineCount() int { return len(d.segments) }

// LineText returns the text of logical line i without its terminator.
func (d *Document) LineText(i int) (string, bool) {
	if i < 0 || i >= len(d.lines) {
		return "", false
	}
	r := d.lines[i]
	return d.text[r.start:r.end], true
}

// Segments returns the segments of line i.
func (d *Document) Segments(i int) []Segment {
	if i < 0 || i >= len(d.segments) {
		return nil
	}
	return d.segments[i]
}

// Line returns converted line i.
func (d *Document) Line(i int) (StyledLine, bool) {
	lines := d.Convert()
	if i < 0 || i >= len(lines) {
		return StyledLine{}, false
	}
	return lines[i], true
}

// Diagnostics returns the tokenizer contract violations found while
// building the document.
func (d *Document) Diagnostics() []Diagnostic { return d.diags }

// splitLines splits text on '\n'. A trailing '\r' is not part of the line,
// a final terminator does not start another line and empty text has no lines.
func splitLines(text string) []lineRange {
	if text == "" {
		return nil
	}

	ranges := make([]lineRange, 0, strings.Count(text, "\n")+1)
	start := 0
	for start < len(text) {
		idx := strings.IndexByte(text[start:], '\n')
		end, next := len(text), len(text)
		if idx >= 0 {
			end, next = start+idx, start+idx+1
		}
		lineEnd := end
		if lineEnd > start && text[lineEnd-1] == '\r' {
			lineEnd--
		}
		ranges = append(ranges, lineRange{start: start, end: lineEnd})
		start = next
	}
	return ranges
}
