package renderer

import (
	"errors"
	"strings"
	"testing"

	"github.com/dshills/tintview/internal/document"
	"github.com/dshills/tintview/internal/renderer/backend"
	"github.com/dshills/tintview/internal/renderer/core"
)

// newTestBackend creates and initializes a NullBackend for testing.
func newTestBackend(width, height int) *backend.NullBackend {
	b := backend.NewNullBackend(width, height)
	_ = b.Init()
	return b
}

func plainLines(texts ...string) []document.StyledLine {
	lines := make([]document.StyledLine, len(texts))
	for i, s := range texts {
		if s != "" {
			lines[i].Spans = []document.Span{{Style: core.DefaultStyle(), Text: s}}
		}
	}
	return lines
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Margin = 1
	opts.Title = "T"
	return opts
}

// contentRow returns the text inside the border on screen row y.
func contentRow(b *backend.NullBackend, y int) string {
	row := []rune(b.RowText(y))
	// margin 1 + border 1 on each side
	return strings.TrimRight(string(row[2:len(row)-2]), " ")
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Title != "Left, no wrap" {
		t.Errorf("unexpected default title %q", opts.Title)
	}
	if opts.Margin != 5 {
		t.Errorf("expected margin 5, got %d", opts.Margin)
	}
	if opts.Alignment != AlignLeft {
		t.Errorf("expected left alignment, got %s", opts.Alignment)
	}
	if opts.Wrap || opts.FollowScroll {
		t.Error("wrap and follow scroll should be off by default")
	}
	if !opts.TitleStyle.Attributes.Has(core.AttrBold) {
		t.Error("title should be bold by default")
	}
}

func TestParseAlignment(t *testing.T) {
	tests := []struct {
		input   string
		want    Alignment
		wantErr bool
	}{
		{"", AlignLeft, false},
		{"left", AlignLeft, false},
		{"Center", AlignCenter, false},
		{"centre", AlignCenter, false},
		{"RIGHT", AlignRight, false},
		{"justify", AlignLeft, true},
	}

	for _, tt := range tests {
		got, err := ParseAlignment(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAlignment(%q): unexpected error state %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAlignment(%q): expected %s, got %s", tt.input, tt.want, got)
		}
	}
}

func TestRenderBorderAndTitle(t *testing.T) {
	b := newTestBackend(20, 8)
	opts := testOptions()
	opts.Title = "Title"
	r := New(b, opts)

	if err := r.Render(Frame{}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if got := b.RowText(0); strings.TrimSpace(got) != "" {
		t.Errorf("margin row should be blank, got %q", got)
	}
	if got := b.RowText(1); got != " ┌Title───────────┐ " {
		t.Errorf("unexpected top border %q", got)
	}
	if got := b.RowText(3); got != " │                │ " {
		t.Errorf("unexpected body row %q", got)
	}
	if got := b.RowText(6); got != " └────────────────┘ " {
		t.Errorf("unexpected bottom border %q", got)
	}

	title := b.GetCell(2, 1)
	if !title.Style.Attributes.Has(core.AttrBold) {
		t.Error("title should be bold")
	}
	if !title.Style.Background.Equals(opts.BaseStyle.Background) {
		t.Error("title should keep the base background")
	}
	if b.ShowCount() != 1 || r.FrameCount() != 1 {
		t.Errorf("expected one frame, got show=%d frames=%d", b.ShowCount(), r.FrameCount())
	}
}

func TestRenderTitleClipped(t *testing.T) {
	b := newTestBackend(10, 6)
	opts := testOptions()
	opts.Title = "A very long title"
	r := New(b, opts)

	if err := r.Render(Frame{}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := b.RowText(1); got != " ┌A very┐ " {
		t.Errorf("title should be clipped inside the corners, got %q", got)
	}
}

func TestRenderFillsBackground(t *testing.T) {
	b := newTestBackend(12, 6)
	opts := testOptions()
	r := New(b, opts)

	if err := r.Render(Frame{}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	for _, pos := range [][2]int{{0, 0}, {11, 5}, {5, 3}} {
		c := b.GetCell(pos[0], pos[1])
		if !c.Style.Background.Equals(core.ColorBlack) {
			t.Errorf("cell %v: expected black background, got %s", pos, c.Style.Background)
		}
	}
}

func TestRenderLines(t *testing.T) {
	b := newTestBackend(20, 8)
	r := New(b, testOptions())

	lines := plainLines("[Unit]", "", "Key=Value")
	if err := r.Render(Frame{Lines: lines}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := []string{"[Unit]", "", "Key=Value", ""}
	for i, w := range want {
		if got := contentRow(b, 2+i); got != w {
			t.Errorf("row %d: expected %q, got %q", i, w, got)
		}
	}
}

func TestRenderSpanStyles(t *testing.T) {
	b := newTestBackend(20, 8)
	r := New(b, testOptions())

	red := core.NewStyle(core.ColorRed).Italic()
	lines := []document.StyledLine{{Spans: []document.Span{
		{Style: red, Text: "k"},
		{Style: core.DefaultStyle(), Text: "v"},
	}}}
	if err := r.Render(Frame{Lines: lines}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	k := b.GetCell(2, 2)
	if k.Rune != 'k' || !k.Style.Foreground.Equals(core.ColorRed) || !k.Style.Attributes.Has(core.AttrItalic) {
		t.Errorf("unexpected styled cell %+v", k)
	}
	if !k.Style.Background.Equals(core.ColorBlack) {
		t.Error("span without background should inherit the base background")
	}

	v := b.GetCell(3, 2)
	if v.Rune != 'v' || !v.Style.Foreground.Equals(core.ColorWhite) {
		t.Errorf("default span should use base foreground, got %+v", v)
	}
}

func TestRenderClipsLongLines(t *testing.T) {
	b := newTestBackend(10, 6)
	r := New(b, testOptions())

	if err := r.Render(Frame{Lines: plainLines("0123456789")}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if got := contentRow(b, 2); got != "012345" {
		t.Errorf("expected line clipped to 6 cells, got %q", got)
	}
	if got := b.GetCell(8, 2).Rune; got != '│' {
		t.Errorf("border overwritten, got %q", got)
	}
}

func TestRenderClipsRows(t *testing.T) {
	b := newTestBackend(10, 6)
	r := New(b, testOptions())

	if err := r.Render(Frame{Lines: plainLines("a", "b", "c", "d")}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if got := contentRow(b, 3); got != "b" {
		t.Errorf("expected second row b, got %q", got)
	}
	if got := b.RowText(4); got != " └──────┘ " {
		t.Errorf("bottom border overwritten: %q", got)
	}
}

func TestRenderAlignment(t *testing.T) {
	tests := []struct {
		align Alignment
		want  string
	}{
		{AlignLeft, "ab      "},
		{AlignCenter, "   ab   "},
		{AlignRight, "      ab"},
	}

	for _, tt := range tests {
		t.Run(tt.align.String(), func(t *testing.T) {
			b := newTestBackend(12, 6)
			opts := testOptions()
			opts.Alignment = tt.align
			r := New(b, opts)

			if err := r.Render(Frame{Lines: plainLines("ab")}); err != nil {
				t.Fatalf("Render: %v", err)
			}
			row := []rune(b.RowText(2))
			if got := string(row[2:10]); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRenderWrap(t *testing.T) {
	b := newTestBackend(10, 8)
	opts := testOptions()
	opts.Wrap = true
	r := New(b, opts)

	if err := r.Render(Frame{Lines: plainLines("abcdefghij", "k")}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := []string{"abcdef", "ghij", "k"}
	for i, w := range want {
		if got := contentRow(b, 2+i); got != w {
			t.Errorf("row %d: expected %q, got %q", i, w, got)
		}
	}
}

func TestRenderFollowScroll(t *testing.T) {
	lines := plainLines("zero", "one", "two", "three")

	b := newTestBackend(12, 8)
	r := New(b, testOptions())
	if err := r.Render(Frame{Lines: lines, Scroll: 2}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := contentRow(b, 2); got != "zero" {
		t.Errorf("scroll should be ignored unless enabled, got %q", got)
	}

	opts := testOptions()
	opts.FollowScroll = true
	r.SetOptions(opts)
	if err := r.Render(Frame{Lines: lines, Scroll: 2}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := contentRow(b, 2); got != "two" {
		t.Errorf("expected first visible row two, got %q", got)
	}
	if got := contentRow(b, 4); got != "" {
		t.Errorf("expected blank row after content, got %q", got)
	}
}

func TestRenderWideRuneAtEdge(t *testing.T) {
	b := newTestBackend(9, 6)
	r := New(b, testOptions())

	// 5 content cells: "abcd" then a wide rune that does not fit.
	if err := r.Render(Frame{Lines: plainLines("abcd中")}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := b.GetCell(6, 2); got.Rune != ' ' {
		t.Errorf("expected blank where half a wide rune would go, got %q", got.Rune)
	}
	if got := b.GetCell(7, 2).Rune; got != '│' {
		t.Errorf("border overwritten, got %q", got)
	}
}

func TestRenderTinyScreen(t *testing.T) {
	b := newTestBackend(4, 4)
	opts := testOptions()
	opts.Margin = 5
	r := New(b, opts)

	if err := r.Render(Frame{Lines: plainLines("x")}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !r.BlockArea().IsEmpty() {
		t.Error("expected empty block area")
	}
	if b.ShowCount() != 1 {
		t.Error("an empty frame should still be shown")
	}
}

type failingBackend struct {
	*backend.NullBackend
}

func (f failingBackend) Show() error { return errors.New("terminal gone") }

func TestRenderShowError(t *testing.T) {
	b := failingBackend{newTestBackend(10, 6)}
	r := New(b, testOptions())

	err := r.Render(Frame{})
	if err == nil || !strings.Contains(err.Error(), "terminal gone") {
		t.Fatalf("expected show error, got %v", err)
	}
	if r.FrameCount() != 0 {
		t.Error("failed frames should not be counted")
	}
}
