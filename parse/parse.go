// Package parse extracts a structured Instruction from a free-form model
// reply. The remote model is not contractually bound to emit pure JSON, so
// the parser tolerates prose before and after the object.
package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/deskmesh/core"
)

// ErrNoJSON is returned when the reply contains no brace-delimited object.
var ErrNoJSON = errors.New("no JSON object found in model reply")

// MalformedJSONError is returned when the brace-delimited span cannot be
// decoded. Raw carries the offending substring for diagnosis.
type MalformedJSONError struct {
	Raw string
	Err error
}

// Error implements the error interface.
func (e *MalformedJSONError) Error() string {
	return fmt.Sprintf("malformed JSON in model reply: %v", e.Err)
}

// Unwrap exposes the decode error for errors.Is / errors.As.
func (e *MalformedJSONError) Unwrap() error { return e.Err }

// Extract locates the first '{' and the last '}' in text and decodes the
// substring between them as an Instruction.
//
// Known limitation: when the reply contains multiple independent
// brace-delimited objects the outermost span (first '{' to last '}') is used,
// which over-captures and fails to decode. This mirrors the permissive
// behavior of the original backend and is deliberately not "fixed" with
// balanced-brace matching.
func Extract(text string) (core.Instruction, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end == -1 || end < start {
		return core.Instruction{}, ErrNoJSON
	}

	raw := strings.TrimSpace(text[start : end+1])

	var inst core.Instruction
	if err := json.Unmarshal([]byte(raw), &inst); err != nil {
		return core.Instruction{}, &MalformedJSONError{Raw: raw, Err: err}
	}
	return inst, nil
}
