package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hupe1980/deskmesh/core"
)

// DefaultInstructions is the system prompt establishing the single-step JSON
// contract with the remote model. Adapters send it once per conversation.
const DefaultInstructions = `You control a computer by replying with exactly one JSON object per turn:
{"function": "<name>", "parameters": {...}, "human_readable_justification": "<why>"}
You see the current screen as an image and receive the user's goal plus the step number.
Available functions: sleep{secs}, open_url{url}, open_application{name},
run_terminal_command{command}, click{x,y,button}, moveTo{x,y}, write{string,interval},
press{keys,presses}, hotkey{keys}.
Issue one small action per turn and wait for the next screenshot to verify it worked.
When the goal is complete, reply with {"function": "done"}.`

// RequestPayload is the structured text sent as the newest user message of
// every step, alongside the observation reference.
type RequestPayload struct {
	OriginalUserRequest string `json:"original_user_request"`
	StepNum             int    `json:"step_num"`
}

// FormatRequest renders the per-step payload the way the remote model expects.
func FormatRequest(goal string, stepNum int) string {
	data, _ := json.Marshal(RequestPayload{OriginalUserRequest: goal, StepNum: stepNum})
	return string(data)
}

// Info contains metadata about an instructor implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", ...
	Vision   bool   `json:"vision"`
}

// Instructor conducts one request/response exchange with the remote
// reasoning service per step and owns the session's remote-side state.
type Instructor interface {
	// RequestInstruction submits the observation, goal and step number as the
	// newest turn of the session's conversation and returns the model's raw
	// text reply. Uploaded observation handles are appended to the session
	// and must not be deleted while the conversation is active. Polling for
	// completion observes ctx and aborts within one poll interval.
	RequestInstruction(ctx context.Context, sess *core.Session, goal string, stepNum int, obs core.Observation) (string, error)

	// Teardown releases the session's remote-side state (uploaded files) and
	// replaces the conversation handle so a stale one is never reused. Called
	// exactly once per run, after the session is guaranteed inactive.
	Teardown(ctx context.Context, sess *core.Session) error

	// Info returns metadata about the implementation.
	Info() Info
}

// MockInstructor is a scripted in-memory Instructor for tests and headless
// demos. Replies are returned in order; once exhausted it keeps returning the
// final reply (or a done instruction when none were scripted).
type MockInstructor struct {
	mu        sync.Mutex
	replies   []string
	calls     int
	steps     []int
	teardowns int
	err       error
}

// NewMockInstructor creates a mock with the given scripted replies.
func NewMockInstructor(replies ...string) *MockInstructor {
	return &MockInstructor{replies: replies}
}

// FailWith makes every subsequent request return err.
func (m *MockInstructor) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// RequestInstruction implements Instructor.
func (m *MockInstructor) RequestInstruction(ctx context.Context, sess *core.Session, _ string, stepNum int, _ core.Observation) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}

	m.steps = append(m.steps, stepNum)
	sess.AddHandle(fmt.Sprintf("mock-upload-%d", m.calls))

	if len(m.replies) == 0 {
		return `{"function": "done"}`, nil
	}
	idx := m.calls
	if idx >= len(m.replies) {
		idx = len(m.replies) - 1
	}
	m.calls++
	return m.replies[idx], nil
}

// Teardown implements Instructor.
func (m *MockInstructor) Teardown(context.Context, *core.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardowns++
	return nil
}

// Info implements Instructor.
func (m *MockInstructor) Info() Info {
	return Info{Name: "mock", Provider: "mock", Vision: true}
}

// Steps returns the step numbers observed across requests.
func (m *MockInstructor) Steps() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.steps))
	copy(out, m.steps)
	return out
}

// Teardowns returns how many times Teardown ran.
func (m *MockInstructor) Teardowns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.teardowns
}
