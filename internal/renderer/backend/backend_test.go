package backend

import (
	"errors"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/tintview/internal/renderer/core"
)

func TestNullBackendInit(t *testing.T) {
	b := NewNullBackend(80, 24)
	if err := b.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	w, h := b.Size()
	if w != 80 || h != 24 {
		t.Errorf("expected size (80, 24), got (%d, %d)", w, h)
	}
	if !b.Initialized() {
		t.Error("backend should report initialized")
	}
}

func TestNullBackendSetGetCell(t *testing.T) {
	b := NewNullBackend(80, 24)
	b.Init()

	cell := core.NewStyledCell('X', core.DefaultStyle().WithForeground(core.ColorRed))
	b.SetCell(10, 5, cell)

	got := b.GetCell(10, 5)
	if !got.Equals(cell) {
		t.Errorf("cell mismatch: expected %+v, got %+v", cell, got)
	}

	// Out of bounds should be ignored/return empty
	b.SetCell(-1, 0, cell)
	b.SetCell(100, 0, cell)

	empty := b.GetCell(-1, 0)
	if !empty.Equals(core.EmptyCell()) {
		t.Error("out of bounds should return empty cell")
	}
}

func TestNullBackendFill(t *testing.T) {
	b := NewNullBackend(80, 24)
	b.Init()

	cell := core.NewCell('.')
	rect := core.NewScreenRect(5, 10, 10, 20)
	b.Fill(rect, cell)

	if got := b.GetCell(15, 7); !got.Equals(cell) {
		t.Error("cell inside rect should be filled")
	}
	if got := b.GetCell(0, 0); got.Equals(cell) {
		t.Error("cell outside rect should not be filled")
	}

	// Rect partly off screen is clipped.
	b.Fill(core.NewScreenRect(-5, -5, 2, 2), cell)
	if got := b.GetCell(0, 0); !got.Equals(cell) {
		t.Error("clipped fill should still cover on-screen cells")
	}
}

func TestNullBackendClear(t *testing.T) {
	b := NewNullBackend(80, 24)
	b.Init()

	b.SetCell(10, 10, core.NewCell('X'))
	b.Clear()

	if got := b.GetCell(10, 10); !got.Equals(core.EmptyCell()) {
		t.Error("clear should reset all cells")
	}
}

func TestNullBackendRowText(t *testing.T) {
	b := NewNullBackend(5, 1)
	b.Init()

	b.SetCell(0, 0, core.NewCell('h'))
	b.SetCell(1, 0, core.NewCell('i'))

	if got := b.RowText(0); got != "hi   " {
		t.Errorf("RowText = %q, want %q", got, "hi   ")
	}
	if got := b.RowText(3); got != "" {
		t.Errorf("RowText out of range = %q, want empty", got)
	}
}

func TestNullBackendPollEvent(t *testing.T) {
	b := NewNullBackend(80, 24)
	b.Init()

	if _, ok, err := b.PollEvent(time.Second); ok || err != nil {
		t.Fatalf("empty queue: ok=%v err=%v", ok, err)
	}

	if err := b.PostEvent(RuneEvent('q')); err != nil {
		t.Fatalf("PostEvent: %v", err)
	}
	ev, ok, err := b.PollEvent(0)
	if err != nil || !ok {
		t.Fatalf("expected queued event, ok=%v err=%v", ok, err)
	}
	if ev.Type != EventKey || ev.Rune != 'q' {
		t.Errorf("unexpected event %+v", ev)
	}

	b.Shutdown()
	if _, _, err := b.PollEvent(0); !errors.Is(err, ErrClosed) {
		t.Errorf("poll after shutdown: got %v, want ErrClosed", err)
	}
	if !b.Released() || !b.CursorVisible() {
		t.Error("shutdown should release the backend and show the cursor")
	}
}

func TestNullBackendResize(t *testing.T) {
	b := NewNullBackend(80, 24)
	b.Init()

	b.Resize(100, 40)

	w, h := b.Size()
	if w != 100 || h != 40 {
		t.Errorf("expected (100, 40), got (%d, %d)", w, h)
	}

	ev, ok, _ := b.PollEvent(0)
	if !ok || ev.Type != EventResize || ev.Width != 100 || ev.Height != 40 {
		t.Errorf("expected resize event, got %+v (ok=%v)", ev, ok)
	}
}

func TestModMaskHas(t *testing.T) {
	m := ModCtrl | ModAlt
	if !m.Has(ModCtrl) || !m.Has(ModAlt) {
		t.Error("mask should have ctrl and alt")
	}
	if m.Has(ModShift) {
		t.Error("mask should not have shift")
	}
}

func newSimTerminal(t *testing.T) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	term := NewTerminalWithScreen(sim, WithMouse(false))
	if err := term.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	sim.SetSize(20, 5)
	return term, sim
}

func TestTerminalPollEventKey(t *testing.T) {
	term, sim := newSimTerminal(t)
	defer term.Shutdown()

	sim.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	for i := 0; i < 10; i++ {
		ev, ok, err := term.PollEvent(time.Second)
		if err != nil {
			t.Fatalf("PollEvent: %v", err)
		}
		if !ok {
			t.Fatal("expected an event before the timeout")
		}
		if ev.Type == EventKey {
			if ev.Key != KeyRune || ev.Rune != 'q' {
				t.Errorf("unexpected key event %+v", ev)
			}
			return
		}
	}
	t.Fatal("key event never arrived")
}

func TestTerminalPollEventTimeout(t *testing.T) {
	term, _ := newSimTerminal(t)
	defer term.Shutdown()

	// Init and SetSize may queue resize events; keep polling until one
	// call times out.
	for i := 0; i < 10; i++ {
		start := time.Now()
		ev, ok, err := term.PollEvent(20 * time.Millisecond)
		if err != nil {
			t.Fatalf("PollEvent: %v", err)
		}
		if ok {
			if ev.Type == EventKey {
				t.Fatalf("unexpected key event %+v", ev)
			}
			continue
		}
		if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
			t.Errorf("poll returned too early: %v", elapsed)
		}
		return
	}
	t.Fatal("poll never timed out")
}

func TestTerminalShutdownClosesEvents(t *testing.T) {
	term, _ := newSimTerminal(t)
	term.Shutdown()
	term.Shutdown() // idempotent

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		_, _, err := term.PollEvent(50 * time.Millisecond)
		if errors.Is(err, ErrClosed) {
			return
		}
	}
	t.Fatal("expected ErrClosed after shutdown")
}

func TestTerminalSetCellStyle(t *testing.T) {
	term, sim := newSimTerminal(t)
	defer term.Shutdown()

	style := core.NewStyle(core.ColorFromRGB(10, 20, 30)).Bold().Underline()
	term.SetCell(2, 1, core.NewStyledCell('Z', style))

	mainc, _, ts, _ := sim.GetContent(2, 1) //nolint:staticcheck // GetContent is the correct API
	if mainc != 'Z' {
		t.Errorf("expected rune Z, got %q", mainc)
	}
	fg, _, attrs := ts.Decompose()
	if fg != tcell.NewRGBColor(10, 20, 30) {
		t.Errorf("foreground = %v, want rgb(10,20,30)", fg)
	}
	if attrs&tcell.AttrBold == 0 || attrs&tcell.AttrUnderline == 0 {
		t.Errorf("attributes = %v, want bold|underline", attrs)
	}
}

func TestTerminalPostEventWakesPoll(t *testing.T) {
	term, _ := newSimTerminal(t)
	defer term.Shutdown()

	posted := []Event{
		KeyEvent(KeyEscape, 0, ModNone),
		RuneEvent('q'),
	}
	for _, ev := range posted {
		if err := term.PostEvent(ev); err != nil {
			t.Fatalf("PostEvent(%+v): %v", ev, err)
		}
	}
	if err := term.PostEvent(Event{Type: EventMouse}); err != nil {
		t.Fatalf("non-key events are dropped, got %v", err)
	}

	var got []Event
	for i := 0; i < 10 && len(got) < len(posted); i++ {
		ev, ok, err := term.PollEvent(time.Second)
		if err != nil {
			t.Fatalf("PollEvent: %v", err)
		}
		if ok && ev.Type == EventKey {
			got = append(got, ev)
		}
	}
	if len(got) != len(posted) {
		t.Fatalf("expected %d key events, got %+v", len(posted), got)
	}
	if got[0].Key != KeyEscape {
		t.Errorf("first event key = %v, want KeyEscape", got[0].Key)
	}
	if got[1].Key != KeyRune || got[1].Rune != 'q' {
		t.Errorf("second event = %+v, want rune q", got[1])
	}
}

func TestTerminalHasTrueColor(t *testing.T) {
	term, sim := newSimTerminal(t)
	defer term.Shutdown()

	if got := term.HasTrueColor(); got != (sim.Colors() > 256) {
		t.Errorf("HasTrueColor() = %v with %d colours", got, sim.Colors())
	}
}

func TestConvertKey(t *testing.T) {
	tests := []struct {
		in   tcell.Key
		want Key
	}{
		{tcell.KeyRune, KeyRune},
		{tcell.KeyEscape, KeyEscape},
		{tcell.KeyEnter, KeyEnter},
		{tcell.KeyBackspace2, KeyBackspace},
		{tcell.KeyCtrlC, KeyCtrlC},
		{tcell.KeyF5, KeyNone},
	}
	for _, tt := range tests {
		if got := convertKey(tt.in); got != tt.want {
			t.Errorf("convertKey(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, k := range []Key{KeyEscape, KeyEnter, KeyUp, KeyCtrlC, KeyCtrlQ} {
		if got := convertKey(convertToTcellKey(k)); got != k {
			t.Errorf("key %v did not round trip, got %v", k, got)
		}
	}
}
