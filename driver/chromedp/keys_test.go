package chromedp

import (
	"testing"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp/kb"
	"github.com/stretchr/testify/assert"
)

func TestKeyForName(t *testing.T) {
	assert.Equal(t, kb.Enter, keyForName("enter"))
	assert.Equal(t, kb.Enter, keyForName("Return"))
	assert.Equal(t, kb.Escape, keyForName("ESC"))
	assert.Equal(t, " ", keyForName("space"))
	assert.Equal(t, kb.ArrowDown, keyForName("down"))

	// Unrecognized names are typed literally.
	assert.Equal(t, "a", keyForName("a"))
	assert.Equal(t, "/", keyForName("/"))
}

func TestModifierForName(t *testing.T) {
	tests := []struct {
		name string
		want input.Modifier
		ok   bool
	}{
		{"ctrl", input.ModifierCtrl, true},
		{"Control", input.ModifierCtrl, true},
		{"alt", input.ModifierAlt, true},
		{"option", input.ModifierAlt, true},
		{"shift", input.ModifierShift, true},
		{"cmd", input.ModifierMeta, true},
		{"command", input.ModifierMeta, true},
		{"win", input.ModifierMeta, true},
		{"s", 0, false},
		{"enter", 0, false},
	}

	for _, tt := range tests {
		mod, ok := modifierForName(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, mod, tt.name)
	}
}
