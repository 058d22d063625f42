package chromedp

import (
	"strings"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp/kb"
)

// namedKeys maps the key names the model emits (pyautogui-style, lower case)
// onto the DevTools key runes.
var namedKeys = map[string]string{
	"enter":     kb.Enter,
	"return":    kb.Enter,
	"tab":       kb.Tab,
	"esc":       kb.Escape,
	"escape":    kb.Escape,
	"backspace": kb.Backspace,
	"delete":    kb.Delete,
	"del":       kb.Delete,
	"space":     " ",
	"up":        kb.ArrowUp,
	"down":      kb.ArrowDown,
	"left":      kb.ArrowLeft,
	"right":     kb.ArrowRight,
	"home":      kb.Home,
	"end":       kb.End,
	"pageup":    kb.PageUp,
	"pagedown":  kb.PageDown,
	"f1":        kb.F1,
	"f2":        kb.F2,
	"f3":        kb.F3,
	"f4":        kb.F4,
	"f5":        kb.F5,
	"f6":        kb.F6,
	"f7":        kb.F7,
	"f8":        kb.F8,
	"f9":        kb.F9,
	"f10":       kb.F10,
	"f11":       kb.F11,
	"f12":       kb.F12,
}

// keyForName resolves a named key to its DevTools rune. Unrecognized names
// are typed literally, which covers single character keys like "a" or "/".
func keyForName(name string) string {
	if key, ok := namedKeys[strings.ToLower(name)]; ok {
		return key
	}

	return name
}

// modifierForName resolves modifier key names to the DevTools modifier bits.
func modifierForName(name string) (input.Modifier, bool) {
	switch strings.ToLower(name) {
	case "ctrl", "control":
		return input.ModifierCtrl, true
	case "alt", "option":
		return input.ModifierAlt, true
	case "shift":
		return input.ModifierShift, true
	case "cmd", "command", "meta", "win", "super":
		return input.ModifierMeta, true
	default:
		return 0, false
	}
}
