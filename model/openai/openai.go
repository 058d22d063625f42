// Package openai implements model.Instructor on the OpenAI Assistants API.
// The assistant keeps the whole conversation server-side, which makes it
// contextually aware across steps: each step uploads the current screenshot
// as a vision file, appends a user message referencing it, starts a run and
// polls until the run reaches a terminal state.
package openai

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/deskmesh/core"
	"github.com/hupe1980/deskmesh/logging"
	"github.com/hupe1980/deskmesh/model"
)

// Options configure the OpenAI instructor.
type Options struct {
	// Model is the assistant's underlying chat model; must support vision.
	Model string
	// Instructions is the system prompt establishing the JSON contract.
	Instructions string
	// AssistantName labels the server-side assistant object.
	AssistantName string
	// PollInterval is the fixed wait between run status checks.
	PollInterval time.Duration
	// PollTimeout bounds the total wait for one run so a stalled remote
	// service cannot block the step forever.
	PollTimeout time.Duration
	// APIKey overrides the OPENAI_API_KEY environment variable.
	APIKey string
	// Logger receives diagnostic output.
	Logger logging.Logger
}

// Instructor drives the Assistants API. One assistant object is shared by
// all sessions; each session owns its own thread.
type Instructor struct {
	client *openai.Client
	opts   Options

	mu          sync.Mutex
	assistantID string
}

// New creates an Instructor using the official client.
func New(optFns ...func(o *Options)) *Instructor {
	opts := Options{
		Model:         openai.ChatModelGPT4o,
		Instructions:  model.DefaultInstructions,
		AssistantName: "DeskMesh Backend",
		PollInterval:  time.Second,
		PollTimeout:   2 * time.Minute,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)

	return &Instructor{client: &client, opts: opts}
}

// NewFromClient creates an Instructor from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Instructor {
	inst := New(optFns...)
	inst.client = client
	return inst
}

// RequestInstruction implements model.Instructor.
func (o *Instructor) RequestInstruction(ctx context.Context, sess *core.Session, goal string, stepNum int, obs core.Observation) (string, error) {
	if err := o.ensureAssistant(ctx); err != nil {
		return "", err
	}
	threadID, err := o.ensureThread(ctx, sess)
	if err != nil {
		return "", err
	}

	// Upload the screenshot first; the handle stays alive for the whole
	// session because the thread keeps referencing it in prior turns.
	fileID, err := o.uploadObservation(ctx, obs)
	if err != nil {
		return "", fmt.Errorf("uploading observation: %w", err)
	}
	sess.AddHandle(fileID)

	payload := model.FormatRequest(goal, stepNum)
	_, err = o.client.Beta.Threads.Messages.New(ctx, threadID, openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfArrayOfContentParts: []openai.MessageContentPartParamUnion{
				{OfText: &openai.TextContentBlockParam{Text: payload}},
				{OfImageFile: &openai.ImageFileContentBlockParam{
					ImageFile: openai.ImageFileParam{FileID: fileID},
				}},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("appending user message: %w", err)
	}

	run, err := o.client.Beta.Threads.Runs.New(ctx, threadID, openai.BetaThreadRunNewParams{
		AssistantID: o.assistantID,
	})
	if err != nil {
		return "", fmt.Errorf("starting run: %w", err)
	}

	if err := o.pollRun(ctx, threadID, run.ID); err != nil {
		return "", err
	}
	return o.newestReply(ctx, threadID)
}

// pollRun checks the run status on a fixed interval until a terminal state.
// It observes ctx so cancellation takes effect within one interval, and the
// poll timeout bounds the total wait.
func (o *Instructor) pollRun(ctx context.Context, threadID, runID string) error {
	deadline := time.Now().Add(o.opts.PollTimeout)
	ticker := time.NewTicker(o.opts.PollInterval)
	defer ticker.Stop()

	for {
		run, err := o.client.Beta.Threads.Runs.Get(ctx, threadID, runID)
		if err != nil {
			return fmt.Errorf("polling run: %w", err)
		}

		switch run.Status {
		case openai.RunStatusCompleted:
			return nil
		case openai.RunStatusFailed:
			reason := "unknown"
			if run.LastError.Message != "" {
				reason = run.LastError.Message
			}
			return &core.ModelRunFailedError{Reason: reason}
		case openai.RunStatusCancelled, openai.RunStatusExpired, openai.RunStatusIncomplete, openai.RunStatusRequiresAction:
			return &core.ModelRunFailedError{Reason: fmt.Sprintf("run ended in status %s", run.Status)}
		}

		if time.Now().After(deadline) {
			return &core.ModelRunFailedError{Reason: fmt.Sprintf("no terminal state within %s", o.opts.PollTimeout)}
		}

		o.opts.Logger.Debug("waiting for run", "status", run.Status)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newestReply fetches the latest assistant message of the thread. The API has
// no "just the last message" call, so list in descending order with limit 1.
func (o *Instructor) newestReply(ctx context.Context, threadID string) (string, error) {
	page, err := o.client.Beta.Threads.Messages.List(ctx, threadID, openai.BetaThreadMessageListParams{
		Order: openai.BetaThreadMessageListParamsOrderDesc,
		Limit: openai.Int(1),
	})
	if err != nil {
		return "", fmt.Errorf("listing messages: %w", err)
	}
	if len(page.Data) == 0 {
		return "", &core.ModelRunFailedError{Reason: "run completed but thread has no messages"}
	}

	var sb strings.Builder
	for _, content := range page.Data[0].Content {
		if content.Type == "text" {
			sb.WriteString(content.Text.Value)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// Teardown implements model.Instructor. Uploaded files cannot be deleted
// while the thread is active, so this runs only after the session is
// guaranteed inactive. The thread handle is replaced so a stale one is never
// reused; reusing the old thread would reference deleted images.
func (o *Instructor) Teardown(ctx context.Context, sess *core.Session) error {
	var firstErr error
	for _, fileID := range sess.Handles() {
		if _, err := o.client.Files.Delete(ctx, fileID); err != nil {
			o.opts.Logger.Warn("could not delete uploaded observation", "file_id", fileID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	thread, err := o.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		sess.SetThread("")
		if firstErr == nil {
			firstErr = fmt.Errorf("replacing thread: %w", err)
		}
		return firstErr
	}
	sess.SetThread(thread.ID)
	return firstErr
}

// Info implements model.Instructor.
func (o *Instructor) Info() model.Info {
	return model.Info{Name: o.opts.Model, Provider: "openai", Vision: true}
}

// ensureAssistant lazily creates the shared assistant object.
func (o *Instructor) ensureAssistant(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.assistantID != "" {
		return nil
	}
	assistant, err := o.client.Beta.Assistants.New(ctx, openai.BetaAssistantNewParams{
		Model:        o.opts.Model,
		Name:         openai.String(o.opts.AssistantName),
		Instructions: openai.String(o.opts.Instructions),
	})
	if err != nil {
		return fmt.Errorf("creating assistant: %w", err)
	}
	o.assistantID = assistant.ID
	return nil
}

// ensureThread lazily creates the session's conversation thread.
func (o *Instructor) ensureThread(ctx context.Context, sess *core.Session) (string, error) {
	if id := sess.Thread(); id != "" {
		return id, nil
	}
	thread, err := o.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", fmt.Errorf("creating thread: %w", err)
	}
	sess.SetThread(thread.ID)
	return thread.ID, nil
}

// uploadObservation sends the snapshot to OpenAI with purpose "vision". The
// Assistants API needs a named file, so in-memory observations are wrapped
// with a synthetic filename.
func (o *Instructor) uploadObservation(ctx context.Context, obs core.Observation) (string, error) {
	var params openai.FileNewParams
	if obs.Path != "" {
		f, err := os.Open(obs.Path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		params = openai.FileNewParams{File: f, Purpose: openai.FilePurposeVision}
		file, err := o.client.Files.New(ctx, params)
		if err != nil {
			return "", err
		}
		return file.ID, nil
	}

	params = openai.FileNewParams{
		File:    openai.File(bytes.NewReader(obs.PNG), "screenshot.png", "image/png"),
		Purpose: openai.FilePurposeVision,
	}
	file, err := o.client.Files.New(ctx, params)
	if err != nil {
		return "", err
	}
	return file.ID, nil
}
