// Package deskmesh provides a high-level façade over the runner and service
// abstractions (sessions, artifacts & logging) for driving a desktop or
// browser surface from natural-language goals. Most applications interact
// with this package by:
//  1. Creating a DeskMesh via New() with a model backend (optionally
//     overriding the default in-memory services and headless observer)
//  2. Starting goals asynchronously (Start) or synchronously (RunSync)
//  3. Consuming progress from Status() and cancelling via Stop()
//
// The façade delegates orchestration to runner.Runner while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; live deployments supply a browser driver and a structured logger.
package deskmesh

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/deskmesh/artifact"
	"github.com/hupe1980/deskmesh/core"
	"github.com/hupe1980/deskmesh/interpreter"
	"github.com/hupe1980/deskmesh/logging"
	"github.com/hupe1980/deskmesh/model"
	"github.com/hupe1980/deskmesh/runner"
	"github.com/hupe1980/deskmesh/screen"
	"github.com/hupe1980/deskmesh/session"
)

// Options configures the DeskMesh instance.
type Options struct {
	// Observer produces the per-step snapshot. Defaults to a placeholder
	// provider with no visual grounding (headless operation).
	Observer core.ObservationProvider

	// Driver executes GUI primitives. Nil keeps the interpreter in headless
	// simulation mode.
	Driver core.Driver

	// Launcher performs system side effects (open URL / app / terminal).
	Launcher interpreter.Launcher

	// MaxSteps bounds the number of steps per run. Zero disables the bound.
	MaxSteps int

	// StatusBufferSize sets channel buffering for status messages.
	StatusBufferSize int

	// Stores (defaults to in-memory implementations if not provided)
	SessionStore  core.SessionStore
	ArtifactStore core.ArtifactStore

	// KeepArtifacts skips the artifact purge at teardown so saved snapshots
	// outlive the run.
	KeepArtifacts bool

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// DeskMesh is the high-level façade aggregating the runner and services.
type DeskMesh struct {
	opts   Options
	runner *runner.Runner
}

// New creates a new DeskMesh instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(instructor model.Instructor, optFns ...func(o *Options)) (*DeskMesh, error) {
	opts := Options{
		MaxSteps:         100,
		StatusBufferSize: 64,
		SessionStore:     session.NewInMemoryStore(),
		ArtifactStore:    artifact.NewInMemoryStore(),
		Logger:           logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Observer == nil {
		placeholder, err := screen.NewPlaceholderProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create placeholder observer: %w", err)
		}
		opts.Observer = placeholder
	}

	r := runner.New(instructor, opts.Observer, func(o *runner.Options) {
		o.StatusBufferSize = opts.StatusBufferSize
		o.MaxSteps = opts.MaxSteps
		o.Driver = opts.Driver
		o.Launcher = opts.Launcher
		o.SessionStore = opts.SessionStore
		o.ArtifactStore = opts.ArtifactStore
		o.KeepArtifacts = opts.KeepArtifacts
		o.Logger = opts.Logger
	})

	return &DeskMesh{opts: opts, runner: r}, nil
}

// Start begins an asynchronous run for the goal and returns its session ID.
func (m *DeskMesh) Start(goal string) (string, error) { return m.runner.Start(goal) }

// Stop cancels the active run, if any. Safe to call at any time.
func (m *DeskMesh) Stop() { m.runner.Stop() }

// State returns the lifecycle state of the most recent run.
func (m *DeskMesh) State() core.RunState { return m.runner.State() }

// Status returns the channel carrying human-readable progress messages.
func (m *DeskMesh) Status() <-chan string { return m.runner.Status() }

// Serve consumes observer commands (goals and stop signals) until ctx is
// done or the channel closes.
func (m *DeskMesh) Serve(ctx context.Context, commands <-chan core.Command) error {
	return m.runner.Serve(ctx, commands)
}

// RunSync is a synchronous helper that starts the goal, accumulates status
// messages until the run reaches a terminal state, and returns them.
func (m *DeskMesh) RunSync(ctx context.Context, goal string) ([]string, error) {
	if _, err := m.runner.Start(goal); err != nil {
		return nil, err
	}

	var messages []string

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Context cancelled - stop the run, return messages so far
			m.runner.Stop()
			return append(messages, m.drain()...), ctx.Err()

		case msg := <-m.runner.Status():
			messages = append(messages, msg)

		case <-ticker.C:
			if m.runner.State().Terminal() {
				return append(messages, m.drain()...), nil
			}
		}
	}
}

func (m *DeskMesh) drain() []string {
	var out []string
	for {
		select {
		case msg := <-m.runner.Status():
			out = append(out, msg)
		default:
			return out
		}
	}
}
