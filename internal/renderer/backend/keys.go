package backend

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// KeySpec identifies one key binding: a special key, or a rune.
type KeySpec struct {
	Key  Key
	Rune rune
}

var namedKeys = map[string]Key{
	"esc":       KeyEscape,
	"escape":    KeyEscape,
	"enter":     KeyEnter,
	"return":    KeyEnter,
	"tab":       KeyTab,
	"backspace": KeyBackspace,
	"up":        KeyUp,
	"down":      KeyDown,
	"left":      KeyLeft,
	"right":     KeyRight,
	"pgup":      KeyPageUp,
	"pageup":    KeyPageUp,
	"pgdn":      KeyPageDown,
	"pagedown":  KeyPageDown,
	"home":      KeyHome,
	"end":       KeyEnd,
	"ctrl+c":    KeyCtrlC,
	"ctrl+d":    KeyCtrlD,
	"ctrl+q":    KeyCtrlQ,
}

// ParseKey parses a key name such as "q", "esc" or "ctrl+c".
// A single character is a rune binding and is case-sensitive.
func ParseKey(s string) (KeySpec, error) {
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		if r < 0x20 || r == 0x7f {
			return KeySpec{}, fmt.Errorf("invalid key %q", s)
		}
		return KeySpec{Key: KeyRune, Rune: r}, nil
	}

	name := strings.ToLower(strings.TrimSpace(s))
	if name == "space" {
		return KeySpec{Key: KeyRune, Rune: ' '}, nil
	}
	if k, ok := namedKeys[name]; ok {
		return KeySpec{Key: k}, nil
	}
	return KeySpec{}, fmt.Errorf("unknown key %q", s)
}

// Matches reports whether ev is a press of this key.
func (k KeySpec) Matches(ev Event) bool {
	if ev.Type != EventKey || ev.Key != k.Key {
		return false
	}
	return k.Key != KeyRune || ev.Rune == k.Rune
}

// Event returns a key event for this key.
func (k KeySpec) Event() Event {
	return KeyEvent(k.Key, k.Rune, ModNone)
}

func (k KeySpec) String() string {
	if k.Key == KeyRune {
		if k.Rune == ' ' {
			return "space"
		}
		return string(k.Rune)
	}
	best := ""
	for name, key := range namedKeys {
		if key == k.Key && (best == "" || len(name) < len(best) || (len(name) == len(best) && name < best)) {
			best = name
		}
	}
	if best == "" {
		return fmt.Sprintf("Key(%d)", k.Key)
	}
	return best
}
