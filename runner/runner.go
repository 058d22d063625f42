package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/deskmesh/artifact"
	"github.com/hupe1980/deskmesh/core"
	"github.com/hupe1980/deskmesh/interpreter"
	"github.com/hupe1980/deskmesh/logging"
	"github.com/hupe1980/deskmesh/model"
	"github.com/hupe1980/deskmesh/parse"
	"github.com/hupe1980/deskmesh/session"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// StatusBufferSize sets channel buffering for status messages.
	StatusBufferSize int
	// MaxSteps bounds the number of steps per run. Zero disables the bound.
	MaxSteps int
	// Driver executes GUI primitives. Nil selects headless simulation.
	Driver core.Driver
	// Launcher performs system side effects (open URL / app / terminal).
	Launcher interpreter.Launcher
	// Session management services.
	SessionStore core.SessionStore
	// Artifact management services.
	ArtifactStore core.ArtifactStore
	// KeepArtifacts skips the artifact purge at teardown so saved snapshots
	// outlive the run.
	KeepArtifacts bool
	// Logging services.
	Logger logging.Logger
	// TeardownTimeout bounds remote-side cleanup at run end.
	TeardownTimeout time.Duration
}

// Runner drives the observe→ask→act loop on a background worker: captures
// observations, requests and parses instructions, executes them, and streams
// progress to the status channel. Public methods are safe for concurrent use.
type Runner struct {
	instructor model.Instructor
	observer   core.ObservationProvider
	interp     *interpreter.Interpreter

	maxSteps        int
	teardownTimeout time.Duration

	sessionStore  core.SessionStore
	artifactStore core.ArtifactStore
	keepArtifacts bool
	logger        logging.Logger

	statusCh chan string

	// startMu serializes Start calls so the stop-then-launch sequence is
	// atomic and at most one worker is ever live.
	startMu sync.Mutex

	mu      sync.Mutex
	state   core.RunState
	cancel  context.CancelFunc
	done    chan struct{}
	current *core.Session
}

// New constructs a Runner with optional overrides.
func New(instructor model.Instructor, observer core.ObservationProvider, optFns ...func(o *Options)) *Runner {
	opts := Options{
		StatusBufferSize: 64,
		MaxSteps:         100,
		SessionStore:     session.NewInMemoryStore(),
		ArtifactStore:    artifact.NewInMemoryStore(),
		Logger:           logging.NoOpLogger{},
		TeardownTimeout:  30 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	r := &Runner{
		instructor:      instructor,
		observer:        observer,
		maxSteps:        opts.MaxSteps,
		teardownTimeout: opts.TeardownTimeout,
		sessionStore:    opts.SessionStore,
		artifactStore:   opts.ArtifactStore,
		keepArtifacts:   opts.KeepArtifacts,
		logger:          opts.Logger,
		statusCh:        make(chan string, opts.StatusBufferSize),
		state:           core.RunIdle,
	}

	r.interp = interpreter.New(r.emitStatus, func(o *interpreter.Options) {
		o.Driver = opts.Driver
		o.Logger = opts.Logger
		if opts.Launcher != nil {
			o.Launcher = opts.Launcher
		}
	})

	return r
}

// Status returns the channel carrying human-readable progress messages.
// Messages for step n are emitted strictly before any message for step n+1.
func (r *Runner) Status() <-chan string { return r.statusCh }

// State returns the lifecycle state of the most recent run.
func (r *Runner) State() core.RunState {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}

// Session returns the session of the most recent run, or nil before the
// first Start.
func (r *Runner) Session() *core.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.current
}

// Start begins a run for the given goal on a background worker and returns
// the new session ID. A still-active prior run is stopped and waited out
// first, so at most one run is ever active.
func (r *Runner) Start(goal string) (string, error) {
	r.startMu.Lock()
	defer r.startMu.Unlock()

	r.Stop()

	sess, err := r.sessionStore.Create(core.NewID(), goal)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	r.mu.Lock()
	r.state = core.RunActive
	r.cancel = cancel
	r.done = done
	r.current = sess
	r.mu.Unlock()

	r.logger.Info("run started", "session_id", sess.ID, "goal", goal, "model", r.instructor.Info().Name)

	go r.run(ctx, sess, done)

	return sess.ID, nil
}

// Stop cancels the active run and waits for its worker to wind down. Calling
// it with no active run, or repeatedly, is a no-op. In-flight OS actions are
// not rolled back; no further observation is captured after Stop returns.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	done := r.done
	r.cancel = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// Serve consumes observer commands until ctx is done or the channel closes.
// A goal command starts a new run, a stop command cancels the active one.
func (r *Runner) Serve(ctx context.Context, commands <-chan core.Command) error {
	for {
		select {
		case <-ctx.Done():
			r.Stop()
			return ctx.Err()
		case cmd, ok := <-commands:
			if !ok {
				r.Stop()
				return nil
			}

			switch cmd.Type {
			case core.CommandGoal:
				if _, err := r.Start(cmd.Text); err != nil {
					r.logger.Error("failed to start run", "error", err)
					r.emitStatus(fmt.Sprintf("Could not start the request: %v", err))
				}
			case core.CommandStop:
				r.Stop()
				r.emitStatus("Stopped the current request.")
			default:
				r.logger.Warn("ignoring unknown command", "type", string(cmd.Type))
			}
		}
	}
}

func (r *Runner) run(ctx context.Context, sess *core.Session, done chan struct{}) {
	defer close(done)
	defer r.teardown(sess)

	for {
		if ctx.Err() != nil {
			r.finish(sess, core.RunStopped)
			return
		}

		if r.maxSteps > 0 && sess.Step() >= r.maxSteps {
			r.emitStatus(fmt.Sprintf("Giving up after %d steps without the model signaling completion.", r.maxSteps))
			r.finish(sess, core.RunFailed)

			return
		}

		switch r.step(ctx, sess) {
		case core.StepContinue:
		case core.StepDone:
			r.emitStatus("Finished the requested task.")
			r.finish(sess, core.RunCompleted)

			return
		case core.StepFailed:
			r.finish(sess, core.RunFailed)
			return
		case core.StepStopped:
			r.finish(sess, core.RunStopped)
			return
		}
	}
}

// step runs one observe→ask→act cycle. Any failure ends the run; a single
// malformed or failed step aborts the remaining goal rather than being
// silently skipped.
func (r *Runner) step(ctx context.Context, sess *core.Session) core.StepResult {
	stepNum := sess.Step()
	start := time.Now()

	obs, err := r.observer.Capture(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return core.StepStopped
		}

		r.emitStatus(fmt.Sprintf("Could not capture the screen: %v", err))

		return core.StepFailed
	}

	if len(obs.PNG) > 0 {
		if _, err := r.artifactStore.Save(sess.ID, fmt.Sprintf("step-%03d.png", stepNum), obs.PNG); err != nil {
			r.logger.Warn("failed to save observation artifact", "session_id", sess.ID, "step", stepNum, "error", err)
		}
	}

	reply, err := r.instructor.RequestInstruction(ctx, sess, sess.Goal, stepNum, obs)
	if err != nil {
		if ctx.Err() != nil {
			return core.StepStopped
		}

		r.emitStatus(fmt.Sprintf("The model could not produce an instruction: %v", err))

		return core.StepFailed
	}

	inst, err := parse.Extract(reply)
	if err != nil {
		r.emitStatus(fmt.Sprintf("Could not understand the model reply: %v", err))
		return core.StepFailed
	}

	if inst.IsDone() {
		if inst.Justification != "" {
			r.emitStatus(inst.Justification)
		}

		return core.StepDone
	}

	if err := r.interp.Execute(ctx, inst); err != nil {
		if ctx.Err() != nil {
			return core.StepStopped
		}

		return core.StepFailed
	}

	sess.AdvanceStep()
	r.logger.Debug("step completed",
		"session_id", sess.ID,
		"step", stepNum,
		"function", inst.Function,
		"duration", time.Since(start),
	)

	return core.StepContinue
}

func (r *Runner) finish(sess *core.Session, state core.RunState) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()

	r.logger.Info("run finished", "session_id", sess.ID, "state", state.String(), "steps", sess.Step())
}

// teardown releases the session's remote-side state and local store entries
// exactly once per run, after the worker is guaranteed inactive. The session
// record is removed from the store; Session() keeps the last run readable.
func (r *Runner) teardown(sess *core.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), r.teardownTimeout)
	defer cancel()

	if err := r.instructor.Teardown(ctx, sess); err != nil {
		r.logger.Warn("session teardown failed", "session_id", sess.ID, "error", err)
	}

	if !r.keepArtifacts {
		if err := r.artifactStore.Purge(sess.ID); err != nil {
			r.logger.Warn("failed to purge session artifacts", "session_id", sess.ID, "error", err)
		}
	}

	if err := r.sessionStore.Delete(sess.ID); err != nil {
		r.logger.Warn("failed to delete session record", "session_id", sess.ID, "error", err)
	}
}

// emitStatus never blocks the worker: when the buffer is full the oldest
// pending message is dropped to make room for the newest one.
func (r *Runner) emitStatus(msg string) {
	for {
		select {
		case r.statusCh <- msg:
			return
		default:
		}

		select {
		case <-r.statusCh:
		default:
		}
	}
}
