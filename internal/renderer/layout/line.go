// Package layout turns styled lines into rows of terminal cells.
package layout

import (
	"github.com/dshills/tintview/internal/document"
	"github.com/dshills/tintview/internal/renderer/core"
)

// LineLayout is the cell representation of one styled line.
type LineLayout struct {
	// Cells holds the visual cells after tab expansion. A wide rune is
	// followed by a continuation cell.
	Cells []core.Cell

	// WrapPoints are the cell indexes where wrapped rows start.
	WrapPoints []int

	// Metadata
	Width   int
	HasTabs bool
	HasWide bool
}

// RowCount returns the number of visual rows (1 if not wrapped).
func (l *LineLayout) RowCount() int {
	return len(l.WrapPoints) + 1
}

// RowStart returns the cell index where a wrapped row starts.
func (l *LineLayout) RowStart(row int) int {
	if row <= 0 || len(l.WrapPoints) == 0 {
		return 0
	}
	if row > len(l.WrapPoints) {
		row = len(l.WrapPoints)
	}
	return l.WrapPoints[row-1]
}

// RowEnd returns the cell index where a wrapped row ends (exclusive).
func (l *LineLayout) RowEnd(row int) int {
	if row >= len(l.WrapPoints) {
		return len(l.Cells)
	}
	return l.WrapPoints[row]
}

// CellsForRow returns the cells of a visual row.
func (l *LineLayout) CellsForRow(row int) []core.Cell {
	start, end := l.RowStart(row), l.RowEnd(row)
	if start >= len(l.Cells) {
		return nil
	}
	return l.Cells[start:min(end, len(l.Cells))]
}

// IsEmpty returns true if the line has no visible cells.
func (l *LineLayout) IsEmpty() bool {
	return len(l.Cells) == 0
}

// Engine computes line layouts.
type Engine struct {
	tabs      *TabExpander
	wrapWidth int  // 0 = no wrap
	trim      bool // drop leading blanks on wrapped rows
}

// NewEngine creates a layout engine with the given tab width.
func NewEngine(tabWidth int) *Engine {
	return &Engine{tabs: NewTabExpander(tabWidth)}
}

// TabWidth returns the current tab width.
func (e *Engine) TabWidth() int {
	return e.tabs.TabWidth()
}

// SetTabWidth sets the tab width.
func (e *Engine) SetTabWidth(width int) {
	e.tabs.SetTabWidth(width)
}

// SetWrap configures wrapping. width of 0 disables it.
func (e *Engine) SetWrap(width int, trim bool) {
	e.wrapWidth = max(width, 0)
	e.trim = trim
}

// Layout lays out a styled line. Each span style is merged over base.
func (e *Engine) Layout(line document.StyledLine, base core.Style) *LineLayout {
	l := &LineLayout{Cells: make([]core.Cell, 0, line.Width())}

	col := 0
	for _, span := range line.Spans {
		style := base.Merge(span.Style)
		for _, r := range span.Text {
			if r == '\t' {
				l.HasTabs = true
				n := e.tabs.TabStopOffset(col)
				for i := 0; i < n; i++ {
					l.Cells = append(l.Cells, core.Cell{Rune: ' ', Width: 1, Style: style})
				}
				col += n
				continue
			}

			width := runeCells(r)
			if width == 0 {
				continue
			}
			l.Cells = append(l.Cells, core.Cell{Rune: r, Width: width, Style: style})
			col++
			if width == 2 {
				l.HasWide = true
				cont := core.ContinuationCell()
				cont.Style = style
				l.Cells = append(l.Cells, cont)
				col++
			}
		}
	}
	l.Width = col

	if e.wrapWidth > 0 {
		e.wrap(l)
	}
	return l
}

// wrap splits the cells into rows of at most wrapWidth cells, preferring
// to break after a space. A wide rune is never split from its
// continuation cell.
func (e *Engine) wrap(l *LineLayout) {
	start := 0
	for start < len(l.Cells) {
		if e.trim && start > 0 {
			for start < len(l.Cells) && l.Cells[start].Rune == ' ' {
				start++
			}
			if start >= len(l.Cells) {
				l.WrapPoints = l.WrapPoints[:len(l.WrapPoints)-1]
				return
			}
			l.WrapPoints[len(l.WrapPoints)-1] = start
		}

		end := start + e.wrapWidth
		if end >= len(l.Cells) {
			return
		}
		if l.Cells[end].IsContinuation() {
			end--
		}
		if brk := lastSpace(l.Cells, start, end); brk > start {
			end = brk
		}
		if end <= start {
			end = start + max(l.Cells[start].Width, 1)
		}

		l.WrapPoints = append(l.WrapPoints, end)
		start = end
	}
}

// lastSpace returns the index after the last space in cells[start:end],
// or -1 when there is none.
func lastSpace(cells []core.Cell, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if cells[i].Rune == ' ' {
			return i + 1
		}
	}
	return -1
}

// runeCells is the number of cells r occupies.
func runeCells(r rune) int {
	return core.RuneWidth(r)
}
