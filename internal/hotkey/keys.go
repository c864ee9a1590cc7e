// Package hotkey parses key chords such as "ctrl+alt+space" and, on Windows,
// registers them as global hotkeys.
package hotkey

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnsupported is returned by Register on platforms without global hotkeys.
var ErrUnsupported = errors.New("global hotkeys not supported on this platform")

// Modifier is a bit mask using the RegisterHotKey MOD_* values.
type Modifier uint32

const (
	ModAlt   Modifier = 0x0001
	ModCtrl  Modifier = 0x0002
	ModShift Modifier = 0x0004
	ModWin   Modifier = 0x0008
)

// Action identifies what a chord does.
type Action int

const (
	ActionToggle Action = iota + 1
	ActionCancel
)

func (a Action) String() string {
	switch a {
	case ActionToggle:
		return "toggle"
	case ActionCancel:
		return "cancel"
	default:
		return "action(" + strconv.Itoa(int(a)) + ")"
	}
}

// Chord is a parsed key combination. VK is a Windows virtual-key code.
type Chord struct {
	Spec string
	Mods Modifier
	VK   uint32
}

func (c Chord) String() string { return c.Spec }

// Binding maps a chord to an action.
type Binding struct {
	Action Action
	Chord  Chord
}

var modifierNames = map[string]Modifier{
	"alt":     ModAlt,
	"menu":    ModAlt,
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"shift":   ModShift,
	"win":     ModWin,
	"meta":    ModWin,
	"super":   ModWin,
}

var namedKeys = map[string]uint32{
	"esc":       0x1B,
	"escape":    0x1B,
	"space":     0x20,
	"enter":     0x0D,
	"return":    0x0D,
	"tab":       0x09,
	"backspace": 0x08,
	"insert":    0x2D,
	"delete":    0x2E,
	"home":      0x24,
	"end":       0x23,
	"pageup":    0x21,
	"pagedown":  0x22,
	"left":      0x25,
	"up":        0x26,
	"right":     0x27,
	"down":      0x28,
	"pause":     0x13,
	"add":       0x6B,
	"plus":      0x6B,
	"subtract":  0x6D,
	"minus":     0x6D,
}

// Parse accepts strings like "alt+q", "ctrl+shift+F1" or "esc".
func Parse(spec string) (Chord, error) {
	if strings.TrimSpace(spec) == "" {
		return Chord{}, errors.New("empty key")
	}
	parts := strings.Split(spec, "+")
	for i := range parts {
		parts[i] = strings.TrimSpace(strings.ToLower(parts[i]))
	}

	var mods Modifier
	for _, p := range parts[:len(parts)-1] {
		m, ok := modifierNames[p]
		if !ok {
			return Chord{}, fmt.Errorf("unknown modifier %q in %q", p, spec)
		}
		mods |= m
	}
	vk, err := keyCode(parts[len(parts)-1])
	if err != nil {
		return Chord{}, fmt.Errorf("invalid hotkey %q: %w", spec, err)
	}
	return Chord{Spec: spec, Mods: mods, VK: vk}, nil
}

func keyCode(tok string) (uint32, error) {
	if len(tok) == 1 {
		ch := tok[0]
		switch {
		case ch >= 'a' && ch <= 'z':
			return uint32(ch - 'a' + 'A'), nil
		case ch >= '0' && ch <= '9':
			return uint32(ch), nil
		}
	}
	if v, ok := namedKeys[tok]; ok {
		return v, nil
	}
	if n, ok := strings.CutPrefix(tok, "f"); ok {
		if i, err := strconv.Atoi(n); err == nil && i >= 1 && i <= 24 {
			return 0x70 + uint32(i-1), nil
		}
	}
	for _, prefix := range []string{"numpad", "num", "kp"} {
		if n, ok := strings.CutPrefix(tok, prefix); ok && len(n) == 1 && n[0] >= '0' && n[0] <= '9' {
			return 0x60 + uint32(n[0]-'0'), nil
		}
	}
	return 0, fmt.Errorf("unsupported key token %q", tok)
}

// Bindings parses the toggle chord and, when set, the cancel chord.
func Bindings(toggle, cancel string) ([]Binding, error) {
	c, err := Parse(toggle)
	if err != nil {
		return nil, err
	}
	out := []Binding{{Action: ActionToggle, Chord: c}}
	if cancel == "" {
		return out, nil
	}
	cc, err := Parse(cancel)
	if err != nil {
		return nil, err
	}
	if cc.Mods == c.Mods && cc.VK == c.VK {
		return nil, fmt.Errorf("cancel key %q duplicates hotkey %q", cancel, toggle)
	}
	return append(out, Binding{Action: ActionCancel, Chord: cc}), nil
}
