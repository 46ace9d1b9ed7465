package renderer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dshills/tintview/internal/document"
	"github.com/dshills/tintview/internal/renderer/backend"
	"github.com/dshills/tintview/internal/renderer/core"
	"github.com/dshills/tintview/internal/renderer/layout"
)

// Alignment controls the horizontal placement of rows inside the block.
type Alignment uint8

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// ParseAlignment parses "left", "center" or "right".
func ParseAlignment(s string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left":
		return AlignLeft, nil
	case "center", "centre":
		return AlignCenter, nil
	case "right":
		return AlignRight, nil
	default:
		return AlignLeft, fmt.Errorf("unknown alignment %q", s)
	}
}

func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return fmt.Sprintf("Alignment(%d)", a)
	}
}

// Options configures the renderer.
type Options struct {
	// Block
	Title  string // Drawn on the top border
	Margin int    // Inset of the block from the screen edge

	// Content
	TabWidth     int       // Tab expansion width
	Alignment    Alignment // Row placement
	Wrap         bool      // Wrap rows longer than the block
	TrimWrapped  bool      // Drop leading blanks on wrapped rows
	FollowScroll bool      // Skip Frame.Scroll rows at the top

	// Styles
	BaseStyle  core.Style // Screen and block background, default text
	TitleStyle core.Style // Merged over BaseStyle for the title
}

// DefaultOptions returns the options of the classic view: left aligned,
// unwrapped, white on black, block inset by 5.
func DefaultOptions() Options {
	return Options{
		Title:      "Left, no wrap",
		Margin:     5,
		TabWidth:   4,
		Alignment:  AlignLeft,
		BaseStyle:  core.NewStyle(core.ColorWhite).WithBackground(core.ColorBlack),
		TitleStyle: core.DefaultStyle().Bold(),
	}
}

// Frame is the input of one render pass.
type Frame struct {
	Lines  []document.StyledLine
	Scroll int
}

// Box drawing runes for the block border.
const (
	boxHorizontal  = '─'
	boxVertical    = '│'
	boxTopLeft     = '┌'
	boxTopRight    = '┐'
	boxBottomLeft  = '└'
	boxBottomRight = '┘'
)

// Renderer draws frames onto a backend.
type Renderer struct {
	mu sync.Mutex

	opts    Options
	backend backend.Backend
	engine  *layout.Engine

	frameCount uint64
}

// New creates a new renderer with the given backend and options.
func New(b backend.Backend, opts Options) *Renderer {
	return &Renderer{
		opts:    opts,
		backend: b,
		engine:  layout.NewEngine(opts.TabWidth),
	}
}

// Options returns the current options.
func (r *Renderer) Options() Options {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opts
}

// SetOptions replaces the options.
func (r *Renderer) SetOptions(opts Options) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts = opts
	r.engine.SetTabWidth(opts.TabWidth)
}

// FrameCount returns the number of frames shown.
func (r *Renderer) FrameCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameCount
}

// BlockArea returns the bordered block rectangle for the current size.
func (r *Renderer) BlockArea() core.ScreenRect {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blockArea()
}

func (r *Renderer) blockArea() core.ScreenRect {
	w, h := r.backend.Size()
	return core.RectFromSize(0, 0, h, w).Margin(max(r.opts.Margin, 0))
}

// Render draws one complete frame and flushes it.
func (r *Renderer) Render(f Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, h := r.backend.Size()
	base := r.opts.BaseStyle
	r.backend.Fill(core.RectFromSize(0, 0, h, w), core.NewStyledCell(' ', base))

	area := r.blockArea()
	if !area.IsEmpty() {
		content := r.renderBlock(area)
		if !content.IsEmpty() {
			r.renderContent(content, f)
		}
	}

	if err := r.backend.Show(); err != nil {
		return fmt.Errorf("show frame: %w", err)
	}
	r.frameCount++
	return nil
}

// renderBlock draws the border and title and returns the inner area.
// Blocks too small for a border get none.
func (r *Renderer) renderBlock(area core.ScreenRect) core.ScreenRect {
	if area.Width() < 2 || area.Height() < 2 {
		return area
	}

	style := r.opts.BaseStyle
	top, bottom := area.Top, area.Bottom-1
	left, right := area.Left, area.Right-1

	for x := left + 1; x < right; x++ {
		r.backend.SetCell(x, top, core.NewStyledCell(boxHorizontal, style))
		r.backend.SetCell(x, bottom, core.NewStyledCell(boxHorizontal, style))
	}
	for y := top + 1; y < bottom; y++ {
		r.backend.SetCell(left, y, core.NewStyledCell(boxVertical, style))
		r.backend.SetCell(right, y, core.NewStyledCell(boxVertical, style))
	}
	r.backend.SetCell(left, top, core.NewStyledCell(boxTopLeft, style))
	r.backend.SetCell(right, top, core.NewStyledCell(boxTopRight, style))
	r.backend.SetCell(left, bottom, core.NewStyledCell(boxBottomLeft, style))
	r.backend.SetCell(right, bottom, core.NewStyledCell(boxBottomRight, style))

	r.renderTitle(left+1, right, top)

	return area.Margin(1)
}

// renderTitle writes the title on the top border between x and limit.
func (r *Renderer) renderTitle(x, limit, y int) {
	style := r.opts.BaseStyle.Merge(r.opts.TitleStyle)
	for _, ch := range r.opts.Title {
		w := core.RuneWidth(ch)
		if w == 0 {
			continue
		}
		if x+w > limit {
			return
		}
		r.backend.SetCell(x, y, core.NewStyledCell(ch, style))
		if w == 2 {
			r.backend.SetCell(x+1, y, core.ContinuationCell())
		}
		x += w
	}
}

// renderContent lays out the frame lines and draws the visible rows.
func (r *Renderer) renderContent(area core.ScreenRect, f Frame) {
	wrapWidth := 0
	if r.opts.Wrap {
		wrapWidth = area.Width()
	}
	r.engine.SetWrap(wrapWidth, r.opts.TrimWrapped)

	skip := 0
	if r.opts.FollowScroll {
		skip = max(f.Scroll, 0)
	}

	y := area.Top
	for _, line := range f.Lines {
		if y >= area.Bottom {
			return
		}
		l := r.engine.Layout(line, r.opts.BaseStyle)
		for row := 0; row < l.RowCount() && y < area.Bottom; row++ {
			if skip > 0 {
				skip--
				continue
			}
			r.renderRow(area, y, l.CellsForRow(row))
			y++
		}
	}
}

// renderRow draws one visual row at y, aligned and clipped to area.
func (r *Renderer) renderRow(area core.ScreenRect, y int, cells []core.Cell) {
	x := area.Left + alignOffset(r.opts.Alignment, area.Width(), len(cells))

	for i := 0; i < len(cells) && x < area.Right; i++ {
		c := cells[i]
		if c.IsContinuation() {
			x++
			continue
		}
		if c.Width == 2 && x+1 >= area.Right {
			// Half a wide rune does not fit.
			r.backend.SetCell(x, y, core.NewStyledCell(' ', c.Style))
			return
		}
		r.backend.SetCell(x, y, c)
		if c.Width == 2 {
			r.backend.SetCell(x+1, y, core.ContinuationCell())
		}
		x++
	}
}

// alignOffset is the column offset of a row of rowWidth cells in an area
// of the given width. Rows wider than the area start at its left edge.
func alignOffset(a Alignment, width, rowWidth int) int {
	free := width - rowWidth
	if free <= 0 {
		return 0
	}
	switch a {
	case AlignCenter:
		return free / 2
	case AlignRight:
		return free
	default:
		return 0
	}
}
