package core

import (
	"fmt"
	"strings"
)

// FunctionDone is the function name the remote model uses to signal that the
// goal is complete and no further steps are required.
const FunctionDone = "done"

// Instruction is a single structured directive returned by the remote model
// for one step. It is produced once per step and consumed exactly once by the
// interpreter; after creation it should be treated as immutable.
//
// Wire shape (produced by the model, decoded from its free-form reply):
//
//	{"function": "...", "parameters": {...}, "human_readable_justification": "..."}
type Instruction struct {
	Function      string         `json:"function"`
	Parameters    map[string]any `json:"parameters,omitempty"`
	Justification string         `json:"human_readable_justification,omitempty"`
}

// IsDone reports whether the instruction signals goal completion. An empty
// object (no function) counts as done because the original backend treats an
// empty instruction set that way.
func (i Instruction) IsDone() bool {
	return i.Function == "" || strings.EqualFold(i.Function, FunctionDone)
}

// StringParam returns the first present, non-empty string value among the
// given parameter keys. The key order is the caller's precedence order.
func (i Instruction) StringParam(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := i.Parameters[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// FloatParam returns the first present numeric value among the given keys.
// JSON numbers decode as float64; integers supplied programmatically are
// accepted too.
func (i Instruction) FloatParam(keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := i.Parameters[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		}
	}
	return 0, false
}

// StringsParam returns the first present value among the given keys coerced
// to a string slice. A scalar string becomes a one-element slice; a JSON
// array keeps its element order.
func (i Instruction) StringsParam(keys ...string) ([]string, bool) {
	for _, k := range keys {
		v, ok := i.Parameters[k]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			if val != "" {
				return []string{val}, true
			}
		case []any:
			out := make([]string, 0, len(val))
			for _, e := range val {
				out = append(out, fmt.Sprintf("%v", e))
			}
			if len(out) > 0 {
				return out, true
			}
		case []string:
			if len(val) > 0 {
				return val, true
			}
		}
	}
	return nil, false
}

// String renders the instruction for status and diagnostic messages.
func (i Instruction) String() string {
	if len(i.Parameters) == 0 {
		return i.Function
	}
	return fmt.Sprintf("%s %v", i.Function, i.Parameters)
}
