// Package anthropic implements model.Instructor on the Anthropic Messages
// API. Claude has no server-side conversation object, so the adapter keeps a
// local transcript per session and inlines the current screenshot as a
// base64 image block. No remote handles accumulate; teardown only discards
// the local transcript.
package anthropic

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/deskmesh/core"
	"github.com/hupe1980/deskmesh/logging"
	"github.com/hupe1980/deskmesh/model"
)

// Options configure the Anthropic instructor.
type Options struct {
	Model        anthropic.Model
	MaxTokens    int64
	Instructions string
	APIKey       string
	Logger       logging.Logger
}

// Instructor wraps the Anthropic Messages API behind the model.Instructor
// interface.
type Instructor struct {
	client *anthropic.Client
	opts   Options

	mu          sync.Mutex
	transcripts map[string][]anthropic.MessageParam // session id -> prior turns (text only)
}

// New creates an Instructor using the official client.
func New(optFns ...func(o *Options)) *Instructor {
	opts := Options{
		Model:        anthropic.ModelClaude3_5Sonnet20241022,
		MaxTokens:    1024,
		Instructions: model.DefaultInstructions,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Instructor{client: &client, opts: opts, transcripts: make(map[string][]anthropic.MessageParam)}
}

// NewFromClient creates an Instructor from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Instructor {
	inst := New(optFns...)
	inst.client = client
	return inst
}

// RequestInstruction implements model.Instructor. Prior turns are replayed as
// text only; the screenshot is attached to the newest turn, keeping request
// size bounded while the model still sees the conversation so far.
func (a *Instructor) RequestInstruction(ctx context.Context, sess *core.Session, goal string, stepNum int, obs core.Observation) (string, error) {
	payload := model.FormatRequest(goal, stepNum)

	userBlocks := []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(payload)}
	if len(obs.PNG) > 0 {
		encoded := base64.StdEncoding.EncodeToString(obs.PNG)
		userBlocks = append(userBlocks, anthropic.NewImageBlockBase64("image/png", encoded))
	}

	a.mu.Lock()
	history := append([]anthropic.MessageParam(nil), a.transcripts[sess.ID]...)
	a.mu.Unlock()

	messages := append(history, anthropic.NewUserMessage(userBlocks...))

	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.opts.Model,
		MaxTokens: a.opts.MaxTokens,
		System:    []anthropic.TextBlockParam{{Text: a.opts.Instructions}},
		Messages:  messages,
	})
	if err != nil {
		return "", &core.ModelRunFailedError{Reason: err.Error()}
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	reply := strings.TrimSpace(sb.String())

	a.mu.Lock()
	a.transcripts[sess.ID] = append(a.transcripts[sess.ID],
		anthropic.NewUserMessage(anthropic.NewTextBlock(payload)),
		anthropic.NewAssistantMessage(anthropic.NewTextBlock(reply)),
	)
	a.mu.Unlock()

	// The local transcript stands in for a remote conversation handle.
	if sess.Thread() == "" {
		sess.SetThread(fmt.Sprintf("local-%s", sess.ID))
	}
	return reply, nil
}

// Teardown implements model.Instructor: discard the local transcript and
// replace the synthetic conversation handle.
func (a *Instructor) Teardown(_ context.Context, sess *core.Session) error {
	a.mu.Lock()
	delete(a.transcripts, sess.ID)
	a.mu.Unlock()
	sess.SetThread("")
	return nil
}

// Info implements model.Instructor.
func (a *Instructor) Info() model.Info {
	return model.Info{Name: string(a.opts.Model), Provider: "anthropic", Vision: true}
}
