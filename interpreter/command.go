package interpreter

import (
	"sort"
	"time"

	"github.com/hupe1980/deskmesh/core"
)

// Command is one member of the closed set of executable actions. Instructions
// are compiled into a tagged variant up front so unknown function names are
// rejected before anything touches the OS, not discovered via runtime lookup.
type Command interface{ isCommand() }

// SleepCommand pauses the worker for Secs seconds. A zero duration is a no-op.
type SleepCommand struct{ Secs float64 }

// OpenURLCommand opens a URL in the driven tab or the default browser.
type OpenURLCommand struct{ URL string }

// OpenAppCommand launches an application by name.
type OpenAppCommand struct{ Name string }

// TerminalCommand runs a shell command.
type TerminalCommand struct{ Command string }

// ClickCommand presses a mouse button at (X, Y).
type ClickCommand struct {
	X, Y   float64
	Button string
	Clicks int
}

// MoveCommand moves the pointer to (X, Y).
type MoveCommand struct{ X, Y float64 }

// TypeCommand types text into the focused element.
type TypeCommand struct {
	Text     string
	Interval time.Duration
}

// PressCommand presses one or more named keys in order.
type PressCommand struct {
	Keys     []string
	Presses  int
	Interval time.Duration
}

// HotkeyCommand strikes a multi-key combination, e.g. ctrl+s.
type HotkeyCommand struct{ Keys []string }

func (SleepCommand) isCommand()    {}
func (OpenURLCommand) isCommand()  {}
func (OpenAppCommand) isCommand()  {}
func (TerminalCommand) isCommand() {}
func (ClickCommand) isCommand()    {}
func (MoveCommand) isCommand()     {}
func (TypeCommand) isCommand()     {}
func (PressCommand) isCommand()    {}
func (HotkeyCommand) isCommand()   {}

// Defaults applied during compilation, taken from the historical interpreter.
const (
	defaultTypeInterval  = 100 * time.Millisecond
	defaultPressInterval = 200 * time.Millisecond
)

// Compile normalizes an instruction into a Command.
//
// Parameter aliasing precedence (the model historically used both names):
//   - typed content: "string" over "text"
//   - pressed keys:  "keys" over "key"
//   - hotkey:        the "keys" list when present, otherwise every parameter
//     value in key-sorted order (the wire format carries no ordering)
//
// Unknown function names return core.UnknownFunctionError.
func Compile(inst core.Instruction) (Command, error) {
	switch inst.Function {
	case "sleep":
		secs, _ := inst.FloatParam("secs")
		return SleepCommand{Secs: secs}, nil

	case "open_url":
		url, _ := inst.StringParam("url")
		return OpenURLCommand{URL: url}, nil

	case "open_application", "open_app":
		name, _ := inst.StringParam("name", "application")
		return OpenAppCommand{Name: name}, nil

	case "run_terminal_command", "terminal":
		cmd, _ := inst.StringParam("command")
		return TerminalCommand{Command: cmd}, nil

	case "click", "doubleClick", "double_click":
		x, _ := inst.FloatParam("x")
		y, _ := inst.FloatParam("y")
		button, ok := inst.StringParam("button")
		if !ok {
			button = "left"
		}
		clicks := 1
		if n, ok := inst.FloatParam("clicks"); ok && n > 0 {
			clicks = int(n)
		}
		if inst.Function != "click" {
			clicks = 2
		}
		return ClickCommand{X: x, Y: y, Button: button, Clicks: clicks}, nil

	case "moveTo", "move_to", "move":
		x, _ := inst.FloatParam("x")
		y, _ := inst.FloatParam("y")
		return MoveCommand{X: x, Y: y}, nil

	case "write", "typewrite", "type_text", "type":
		text, _ := inst.StringParam("string", "text")
		interval := defaultTypeInterval
		if secs, ok := inst.FloatParam("interval"); ok {
			interval = secondsToDuration(secs)
		}
		return TypeCommand{Text: text, Interval: interval}, nil

	case "press", "key_press":
		keys, _ := inst.StringsParam("keys", "key")
		presses := 1
		if n, ok := inst.FloatParam("presses"); ok && n > 0 {
			presses = int(n)
		}
		interval := defaultPressInterval
		if secs, ok := inst.FloatParam("interval"); ok {
			interval = secondsToDuration(secs)
		}
		return PressCommand{Keys: keys, Presses: presses, Interval: interval}, nil

	case "hotkey", "key_combo":
		if keys, ok := inst.StringsParam("keys"); ok {
			return HotkeyCommand{Keys: keys}, nil
		}
		return HotkeyCommand{Keys: sortedParamValues(inst.Parameters)}, nil

	default:
		return nil, &core.UnknownFunctionError{Name: inst.Function}
	}
}

// isGUIPrimitive reports whether the command requires the automation driver.
func isGUIPrimitive(cmd Command) bool {
	switch cmd.(type) {
	case ClickCommand, MoveCommand, TypeCommand, PressCommand, HotkeyCommand:
		return true
	default:
		return false
	}
}

func secondsToDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}

// sortedParamValues flattens parameter string values in key-sorted order.
// JSON objects carry no ordering, so sorting keeps hotkey expansion
// deterministic for payloads like {"key1":"ctrl","key2":"s"}.
func sortedParamValues(params map[string]any) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if s, ok := params[k].(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
