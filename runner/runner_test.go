package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hupe1980/deskmesh/artifact"
	"github.com/hupe1980/deskmesh/core"
	"github.com/hupe1980/deskmesh/interpreter"
	"github.com/hupe1980/deskmesh/model"
	"github.com/hupe1980/deskmesh/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubObserver returns a fixed placeholder observation.
type stubObserver struct{}

func (stubObserver) Capture(context.Context) (core.Observation, error) {
	return core.Observation{PNG: []byte{0x89, 0x50, 0x4e, 0x47}, Placeholder: true}, nil
}

// failingObserver fails every capture.
type failingObserver struct{}

func (failingObserver) Capture(context.Context) (core.Observation, error) {
	return core.Observation{}, errors.New("display gone")
}

// safeLauncher records side effects without touching the OS.
type safeLauncher struct {
	mu    sync.Mutex
	calls []string
}

func (l *safeLauncher) record(call string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
	return nil
}

func (l *safeLauncher) OpenURL(_ context.Context, url string) error {
	return l.record("url " + url)
}

func (l *safeLauncher) OpenApplication(_ context.Context, name string) error {
	return l.record("app " + name)
}

func (l *safeLauncher) RunTerminalCommand(_ context.Context, command string) error {
	return l.record("cmd " + command)
}

var _ interpreter.Launcher = (*safeLauncher)(nil)

func (l *safeLauncher) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	copy(out, l.calls)
	return out
}

// countingStore records artifact store traffic without keeping bytes.
type countingStore struct {
	mu     sync.Mutex
	saves  int
	purged []string
}

var _ core.ArtifactStore = (*countingStore)(nil)

func (s *countingStore) Save(sessionID, artifactID string, _ []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	return artifactID, nil
}

func (s *countingStore) Get(string, string) ([]byte, error) { return nil, artifact.ErrNotFound }

func (s *countingStore) List(string) ([]string, error) { return nil, nil }

func (s *countingStore) Purge(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purged = append(s.purged, sessionID)
	return nil
}

func (s *countingStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *countingStore) Purged() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.purged))
	copy(out, s.purged)
	return out
}

func newTestRunner(mock *model.MockInstructor, optFns ...func(o *Options)) (*Runner, *safeLauncher) {
	launcher := &safeLauncher{}
	all := append([]func(o *Options){func(o *Options) {
		o.Launcher = launcher
	}}, optFns...)

	return New(mock, stubObserver{}, all...), launcher
}

func waitTerminal(t *testing.T, r *Runner) {
	t.Helper()
	require.Eventually(t, func() bool {
		return r.State().Terminal()
	}, 5*time.Second, 10*time.Millisecond)
}

func drainStatus(r *Runner) []string {
	var out []string
	for {
		select {
		case msg := <-r.Status():
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestRunner_CompletesOnDone(t *testing.T) {
	mock := model.NewMockInstructor(
		`{"function": "open_url", "parameters": {"url": "http://example.com"}, "human_readable_justification": "Opening the site"}`,
		`{"function": "done"}`,
	)
	r, launcher := newTestRunner(mock)

	sessionID, err := r.Start("open example.com")
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)

	waitTerminal(t, r)

	assert.Equal(t, core.RunCompleted, r.State())
	assert.Equal(t, []string{"url http://example.com"}, launcher.Calls())
	assert.Equal(t, 1, mock.Teardowns())
	assert.Equal(t, []int{0, 1}, mock.Steps())

	messages := drainStatus(r)
	require.NotEmpty(t, messages)
	assert.Equal(t, "Opening the site", messages[0])
	assert.Contains(t, messages, "Finished the requested task.")
}

func TestRunner_FailsWhenReplyHasNoJSON(t *testing.T) {
	mock := model.NewMockInstructor(`I cannot help with that.`)
	r, launcher := newTestRunner(mock)

	_, err := r.Start("do something")
	require.NoError(t, err)

	waitTerminal(t, r)

	assert.Equal(t, core.RunFailed, r.State())
	assert.Empty(t, launcher.Calls())
	assert.Equal(t, 1, mock.Teardowns())

	messages := drainStatus(r)
	require.NotEmpty(t, messages)
	assert.Contains(t, messages[len(messages)-1], "no JSON object")
}

func TestRunner_FailsOnUnknownFunction(t *testing.T) {
	mock := model.NewMockInstructor(`{"function": "teleport", "parameters": {"x": 1}}`)
	r, _ := newTestRunner(mock)

	_, err := r.Start("go places")
	require.NoError(t, err)

	waitTerminal(t, r)

	assert.Equal(t, core.RunFailed, r.State())

	var found bool
	for _, msg := range drainStatus(r) {
		if strings.Contains(msg, "teleport") {
			found = true
			break
		}
	}
	assert.True(t, found, "expected a status message naming the offending function")
}

func TestRunner_FailsWhenModelFails(t *testing.T) {
	mock := model.NewMockInstructor()
	mock.FailWith(&core.ModelRunFailedError{Reason: "rate limited"})
	r, _ := newTestRunner(mock)

	_, err := r.Start("anything")
	require.NoError(t, err)

	waitTerminal(t, r)

	assert.Equal(t, core.RunFailed, r.State())
	assert.Equal(t, 1, mock.Teardowns())
}

func TestRunner_FailsWhenCaptureFails(t *testing.T) {
	mock := model.NewMockInstructor()
	r := New(mock, failingObserver{}, func(o *Options) {
		o.Launcher = &safeLauncher{}
	})

	_, err := r.Start("anything")
	require.NoError(t, err)

	waitTerminal(t, r)

	assert.Equal(t, core.RunFailed, r.State())
	assert.Empty(t, mock.Steps())
}

func TestRunner_StopBeforeStartIsNoOp(t *testing.T) {
	mock := model.NewMockInstructor()
	r, _ := newTestRunner(mock)

	r.Stop()
	r.Stop()

	assert.Equal(t, core.RunIdle, r.State())
	assert.Zero(t, mock.Teardowns())
}

func TestRunner_StopInterruptsSleep(t *testing.T) {
	mock := model.NewMockInstructor(`{"function": "sleep", "parameters": {"secs": 30}}`)
	r, _ := newTestRunner(mock)

	_, err := r.Start("wait forever")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(mock.Steps()) == 1
	}, 5*time.Second, 10*time.Millisecond)

	start := time.Now()
	r.Stop()
	elapsed := time.Since(start)

	assert.Equal(t, core.RunStopped, r.State())
	assert.Less(t, elapsed, 5*time.Second, "stop must interrupt the sleep")
	assert.Equal(t, 1, mock.Teardowns())

	// Repeated stops after the run ended stay no-ops.
	r.Stop()
	r.Stop()
	assert.Equal(t, core.RunStopped, r.State())
	assert.Equal(t, 1, mock.Teardowns())
}

func TestRunner_StartStopsPriorRun(t *testing.T) {
	mock := model.NewMockInstructor(
		`{"function": "sleep", "parameters": {"secs": 30}}`,
		`{"function": "done"}`,
	)
	r, _ := newTestRunner(mock)

	firstID, err := r.Start("wait forever")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(mock.Steps()) == 1
	}, 5*time.Second, 10*time.Millisecond)

	secondID, err := r.Start("finish up")
	require.NoError(t, err)
	assert.NotEqual(t, firstID, secondID)

	waitTerminal(t, r)

	assert.Equal(t, core.RunCompleted, r.State())
	assert.Equal(t, 2, mock.Teardowns())

	sess := r.Session()
	require.NotNil(t, sess)
	assert.Equal(t, secondID, sess.ID)
	assert.Equal(t, "finish up", sess.Goal)
}

func TestRunner_StepNumbersStrictlyIncrease(t *testing.T) {
	mock := model.NewMockInstructor(
		`{"function": "click", "parameters": {"x": 1, "y": 2}}`,
		`{"function": "write", "parameters": {"string": "hi", "interval": 0}}`,
		`{"function": "press", "parameters": {"keys": "enter"}}`,
		`{"function": "done"}`,
	)
	r, _ := newTestRunner(mock)

	_, err := r.Start("fill the form")
	require.NoError(t, err)

	waitTerminal(t, r)

	assert.Equal(t, core.RunCompleted, r.State())
	assert.Equal(t, []int{0, 1, 2, 3}, mock.Steps())
}

func TestRunner_HeadlessSimulatesGUIPrimitives(t *testing.T) {
	mock := model.NewMockInstructor(
		`{"function": "click", "parameters": {"x": 10, "y": 20}, "human_readable_justification": "Clicking the button"}`,
		`{"function": "done"}`,
	)
	r, launcher := newTestRunner(mock)

	_, err := r.Start("click something")
	require.NoError(t, err)

	waitTerminal(t, r)

	assert.Equal(t, core.RunCompleted, r.State())
	assert.Empty(t, launcher.Calls())

	var simulated int
	for _, msg := range drainStatus(r) {
		if strings.Contains(msg, "Simulated") {
			simulated++
		}
	}
	assert.Equal(t, 1, simulated, "exactly one simulated-action message per GUI step")
}

func TestRunner_MaxStepsGuard(t *testing.T) {
	mock := model.NewMockInstructor(`{"function": "sleep", "parameters": {"secs": 0}}`)
	r, _ := newTestRunner(mock, func(o *Options) {
		o.MaxSteps = 3
	})

	_, err := r.Start("never finish")
	require.NoError(t, err)

	waitTerminal(t, r)

	assert.Equal(t, core.RunFailed, r.State())
	assert.Equal(t, []int{0, 1, 2}, mock.Steps())

	messages := drainStatus(r)
	require.NotEmpty(t, messages)
	assert.Contains(t, messages[len(messages)-1], "Giving up after 3 steps")
}

func TestRunner_TeardownReleasesStores(t *testing.T) {
	mock := model.NewMockInstructor(
		`{"function": "click", "parameters": {"x": 1, "y": 2}}`,
		`{"function": "done"}`,
	)
	store := &countingStore{}
	sessions := session.NewInMemoryStore()
	r, _ := newTestRunner(mock, func(o *Options) {
		o.ArtifactStore = store
		o.SessionStore = sessions
	})

	sessionID, err := r.Start("click and finish")
	require.NoError(t, err)

	waitTerminal(t, r)

	assert.Equal(t, core.RunCompleted, r.State())
	assert.Greater(t, store.Saves(), 0)
	assert.Equal(t, []string{sessionID}, store.Purged())

	_, err = sessions.Get(sessionID)
	assert.Error(t, err, "session record must be released at teardown")
}

func TestRunner_KeepArtifactsSkipsPurge(t *testing.T) {
	mock := model.NewMockInstructor(`{"function": "done"}`)
	store := &countingStore{}
	r, _ := newTestRunner(mock, func(o *Options) {
		o.ArtifactStore = store
		o.KeepArtifacts = true
	})

	_, err := r.Start("finish immediately")
	require.NoError(t, err)

	waitTerminal(t, r)

	assert.Equal(t, core.RunCompleted, r.State())
	assert.Greater(t, store.Saves(), 0)
	assert.Empty(t, store.Purged())
}

func TestRunner_ConcurrentStartsKeepSingleRun(t *testing.T) {
	mock := model.NewMockInstructor(`{"function": "sleep", "parameters": {"secs": 30}}`)
	r, _ := newTestRunner(mock)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Start("wait forever")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	r.Stop()

	// Every launched run must have been stopped and torn down; an orphaned
	// worker would be missing here and trip the leak check.
	assert.Equal(t, core.RunStopped, r.State())
	assert.Equal(t, 8, mock.Teardowns())
}

func TestRunner_ServeCommands(t *testing.T) {
	mock := model.NewMockInstructor(`{"function": "done"}`)
	r, _ := newTestRunner(mock)

	commands := make(chan core.Command)
	serveDone := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { serveDone <- r.Serve(ctx, commands) }()

	commands <- core.Command{Type: core.CommandGoal, Text: "open example.com"}

	waitTerminal(t, r)
	assert.Equal(t, core.RunCompleted, r.State())

	commands <- core.Command{Type: core.CommandStop}

	cancel()
	err := <-serveDone
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunner_ServeStopsOnClosedChannel(t *testing.T) {
	mock := model.NewMockInstructor()
	r, _ := newTestRunner(mock)

	commands := make(chan core.Command)
	close(commands)

	err := r.Serve(context.Background(), commands)
	require.NoError(t, err)
}

func TestEmitStatusDropsOldest(t *testing.T) {
	mock := model.NewMockInstructor()
	r, _ := newTestRunner(mock, func(o *Options) {
		o.StatusBufferSize = 2
	})

	r.emitStatus("one")
	r.emitStatus("two")
	r.emitStatus("three")
	r.emitStatus("four")

	assert.Equal(t, []string{"three", "four"}, drainStatus(r))
}

func TestRunner_DefaultOptions(t *testing.T) {
	r := New(model.NewMockInstructor(), stubObserver{})

	assert.Equal(t, core.RunIdle, r.State())
	assert.Nil(t, r.Session())
	assert.Equal(t, 64, cap(r.statusCh))
	assert.Equal(t, 100, r.maxSteps)
}
