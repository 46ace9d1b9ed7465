// Package backend provides terminal backend abstraction for the renderer.
package backend

import (
	"errors"
	"time"

	"github.com/dshills/tintview/internal/renderer/core"
)

// ErrClosed is returned by PollEvent once the backend has been shut down.
var ErrClosed = errors.New("backend closed")

// EventType identifies the type of terminal event.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventMouse
	EventResize
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventKey:
		return "key"
	case EventMouse:
		return "mouse"
	case EventResize:
		return "resize"
	default:
		return "none"
	}
}

// Event represents a terminal event.
type Event struct {
	Type EventType

	// Key event fields
	Key  Key
	Rune rune
	Mod  ModMask

	// Mouse event fields
	MouseX, MouseY int

	// Resize event fields
	Width, Height int
}

// KeyEvent builds a key event for the given key.
func KeyEvent(k Key, r rune, mod ModMask) Event {
	return Event{Type: EventKey, Key: k, Rune: r, Mod: mod}
}

// RuneEvent builds a key event for a printable rune.
func RuneEvent(r rune) Event {
	return KeyEvent(KeyRune, r, ModNone)
}

// Key represents a keyboard key.
type Key int

// Key constants for special keys.
const (
	KeyNone Key = iota
	KeyRune     // Regular character (use Rune field)
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyPageUp
	KeyPageDown
	KeyHome
	KeyEnd
	KeyCtrlC
	KeyCtrlD
	KeyCtrlQ
)

// ModMask represents modifier key state.
type ModMask int

const (
	ModNone  ModMask = 0
	ModShift ModMask = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Has returns true if the mask contains the given modifier.
func (m ModMask) Has(mod ModMask) bool {
	return m&mod != 0
}

// Backend defines the interface for terminal/display backends.
// Implementations handle actual drawing to the terminal and input polling.
type Backend interface {
	// Init acquires the terminal: raw input, alternate screen, mouse capture.
	// Must be called before any other methods.
	Init() error

	// Shutdown releases the terminal and restores its previous state.
	// Safe to call more than once.
	Shutdown()

	// Size returns the current terminal dimensions.
	Size() (width, height int)

	// SetCell sets a single cell at the given position.
	// Positions outside the terminal are silently ignored.
	SetCell(x, y int, cell core.Cell)

	// Fill fills a rectangular region with the given cell.
	Fill(rect core.ScreenRect, cell core.Cell)

	// Clear clears the entire screen with the default style.
	Clear()

	// Show flushes the frame to the display.
	Show() error

	// HideCursor hides the cursor.
	HideCursor()

	// PollEvent waits at most timeout for the next event.
	// ok is false when the timeout elapsed with no event.
	PollEvent(timeout time.Duration) (ev Event, ok bool, err error)

	// PostEvent queues a synthetic event and wakes a pending PollEvent.
	// Safe to call from another goroutine.
	PostEvent(ev Event) error

	// HasTrueColor returns true if the backend supports 24-bit color.
	HasTrueColor() bool
}

// NullBackend is an in-memory backend for testing.
type NullBackend struct {
	width, height int
	cells         [][]core.Cell
	cursorVisible bool
	events        chan Event
	initialized   bool
	shutdown      bool
	shows         int
}

// NewNullBackend creates a null backend with the given dimensions.
func NewNullBackend(width, height int) *NullBackend {
	return &NullBackend{
		width:  width,
		height: height,
		events: make(chan Event, 100),
	}
}

func (b *NullBackend) Init() error {
	b.allocate()
	b.initialized = true
	b.cursorVisible = true
	return nil
}

func (b *NullBackend) allocate() {
	b.cells = make([][]core.Cell, b.height)
	for i := range b.cells {
		b.cells[i] = make([]core.Cell, b.width)
		for j := range b.cells[i] {
			b.cells[i][j] = core.EmptyCell()
		}
	}
}

func (b *NullBackend) Shutdown() {
	b.shutdown = true
	b.cursorVisible = true
}

func (b *NullBackend) Size() (int, int) {
	return b.width, b.height
}

func (b *NullBackend) SetCell(x, y int, cell core.Cell) {
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		b.cells[y][x] = cell
	}
}

// GetCell returns the cell at the given position.
func (b *NullBackend) GetCell(x, y int) core.Cell {
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		return b.cells[y][x]
	}
	return core.EmptyCell()
}

func (b *NullBackend) Fill(rect core.ScreenRect, cell core.Cell) {
	for y := max(rect.Top, 0); y < rect.Bottom && y < b.height; y++ {
		for x := max(rect.Left, 0); x < rect.Right && x < b.width; x++ {
			b.cells[y][x] = cell
		}
	}
}

func (b *NullBackend) Clear() {
	empty := core.EmptyCell()
	for y := range b.cells {
		for x := range b.cells[y] {
			b.cells[y][x] = empty
		}
	}
}

func (b *NullBackend) Show() error {
	b.shows++
	return nil
}

func (b *NullBackend) HideCursor() {
	b.cursorVisible = false
}

// PollEvent returns a queued event if one is available, otherwise it
// returns immediately with ok=false. It never sleeps.
func (b *NullBackend) PollEvent(_ time.Duration) (Event, bool, error) {
	if b.shutdown {
		return Event{}, false, ErrClosed
	}
	select {
	case ev := <-b.events:
		return ev, true, nil
	default:
		return Event{}, false, nil
	}
}

func (b *NullBackend) PostEvent(ev Event) error {
	select {
	case b.events <- ev:
		return nil
	default:
		return errors.New("event queue full")
	}
}

func (b *NullBackend) HasTrueColor() bool { return true }

// Resize simulates a terminal resize and queues the matching event.
func (b *NullBackend) Resize(width, height int) {
	b.width = width
	b.height = height
	b.allocate()
	_ = b.PostEvent(Event{Type: EventResize, Width: width, Height: height})
}

// Initialized reports whether Init was called.
func (b *NullBackend) Initialized() bool { return b.initialized }

// Released reports whether Shutdown was called.
func (b *NullBackend) Released() bool { return b.shutdown }

// CursorVisible reports the cursor visibility.
func (b *NullBackend) CursorVisible() bool { return b.cursorVisible }

// ShowCount returns how many frames were flushed.
func (b *NullBackend) ShowCount() int { return b.shows }

// RowText returns the runes of row y as a string, skipping continuation cells.
func (b *NullBackend) RowText(y int) string {
	if y < 0 || y >= b.height {
		return ""
	}
	runes := make([]rune, 0, b.width)
	for _, c := range b.cells[y] {
		if !c.IsContinuation() {
			runes = append(runes, c.Rune)
		}
	}
	return string(runes)
}
