package chromedp

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"

	"github.com/hupe1980/deskmesh/core"
	"github.com/hupe1980/deskmesh/logging"
)

// Compile-time checks to ensure Driver satisfies the automation contracts.
var (
	_ core.Driver              = (*Driver)(nil)
	_ core.URLOpener           = (*Driver)(nil)
	_ core.ObservationProvider = (*Driver)(nil)
)

// Options configure the browser driver.
type Options struct {
	// Headless runs the browser without a visible window.
	Headless bool
	// DisableGPU disables GPU acceleration, recommended in containers.
	DisableGPU bool
	// StartURL is navigated to once the tab is ready.
	StartURL string
	// SnapshotPath, when set, receives the latest screenshot on every
	// capture so model clients can upload a durable file reference. The
	// file is overwritten between steps.
	SnapshotPath string
	// Flags are extra command line switches passed to the browser binary.
	Flags map[string]any
	// Logger receives diagnostic output.
	Logger logging.Logger
}

// Driver drives a single Chrome tab. All primitives dispatch through the
// DevTools protocol; events already handed to the browser are not rolled
// back on cancellation.
type Driver struct {
	tab          context.Context
	cancelTab    context.CancelFunc
	cancelAlloc  context.CancelFunc
	snapshotPath string
	logger       logging.Logger
}

// New launches a browser, opens a tab and navigates it to the start URL.
// Close must be called to shut the browser down.
func New(ctx context.Context, optFns ...func(o *Options)) (*Driver, error) {
	opts := Options{
		Headless: true,
		StartURL: "about:blank",
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Headless)
	}
	if opts.DisableGPU {
		allocOpts = append(allocOpts, chromedp.DisableGPU)
	}
	for key, value := range opts.Flags {
		allocOpts = append(allocOpts, chromedp.Flag(key, value))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(tabCtx, chromedp.Navigate(opts.StartURL)); err != nil {
		cancelTab()
		cancelAlloc()

		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Driver{
		tab:          tabCtx,
		cancelTab:    cancelTab,
		cancelAlloc:  cancelAlloc,
		snapshotPath: opts.SnapshotPath,
		logger:       opts.Logger,
	}, nil
}

// Close shuts down the tab and the browser process.
func (d *Driver) Close() {
	d.cancelTab()
	d.cancelAlloc()
}

// Click presses and releases the given mouse button at (x, y).
func (d *Driver) Click(ctx context.Context, x, y float64, button string, clicks int) error {
	if button == "" {
		button = "left"
	}
	if clicks < 1 {
		clicks = 1
	}

	actions := make([]chromedp.Action, 0, clicks)
	for i := 0; i < clicks; i++ {
		actions = append(actions, chromedp.MouseClickXY(x, y, chromedp.Button(button)))
	}

	return d.run(ctx, actions...)
}

// MoveTo moves the pointer to (x, y) without clicking.
func (d *Driver) MoveTo(ctx context.Context, x, y float64) error {
	return d.run(ctx, chromedp.MouseEvent(input.MouseMoved, x, y))
}

// TypeText types the text into the focused element, pausing interval between
// keystrokes.
func (d *Driver) TypeText(ctx context.Context, text string, interval time.Duration) error {
	for _, r := range text {
		if err := d.run(ctx, chromedp.KeyEvent(string(r))); err != nil {
			return err
		}

		if err := pause(ctx, interval); err != nil {
			return err
		}
	}

	return nil
}

// KeyPress presses each named key in order, repeated presses times.
func (d *Driver) KeyPress(ctx context.Context, keys []string, presses int, interval time.Duration) error {
	if presses < 1 {
		presses = 1
	}

	for p := 0; p < presses; p++ {
		for _, name := range keys {
			if err := d.run(ctx, chromedp.KeyEvent(keyForName(name))); err != nil {
				return err
			}
		}

		if p < presses-1 {
			if err := pause(ctx, interval); err != nil {
				return err
			}
		}
	}

	return nil
}

// Hotkey strikes a multi-key combination. Keys naming a modifier (ctrl, alt,
// shift, cmd) are held while the remaining keys are struck, so the caller's
// key order does not matter.
func (d *Driver) Hotkey(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return fmt.Errorf("empty hotkey")
	}

	var modifiers input.Modifier
	struck := ""
	for _, name := range keys {
		if mod, ok := modifierForName(name); ok {
			modifiers |= mod
			continue
		}

		struck += keyForName(name)
	}

	if struck == "" {
		return fmt.Errorf("hotkey %v names only modifier keys", keys)
	}

	return d.run(ctx, chromedp.KeyEvent(struck, chromedp.KeyModifiers(modifiers)))
}

// OpenURL navigates the driven tab, keeping the run inside the controlled
// browser instead of spawning an external one.
func (d *Driver) OpenURL(ctx context.Context, url string) error {
	return d.run(ctx, chromedp.Navigate(url))
}

// Capture screenshots the driven tab. When a snapshot path is configured the
// image is also persisted there as the durable reference.
func (d *Driver) Capture(ctx context.Context) (core.Observation, error) {
	var buf []byte
	if err := d.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return core.Observation{}, fmt.Errorf("%w: %v", core.ErrCaptureUnavailable, err)
	}

	obs := core.Observation{PNG: buf}

	if d.snapshotPath != "" {
		if err := os.WriteFile(d.snapshotPath, buf, 0o600); err != nil {
			d.logger.Warn("failed to persist snapshot", "path", d.snapshotPath, "error", err)
		} else {
			obs.Path = d.snapshotPath
		}
	}

	return obs, nil
}

// run executes actions on the driven tab after checking the caller's context.
// chromedp actions run on the tab context; cancellation of the caller is
// observed between actions, not inside one.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return chromedp.Run(d.tab, actions...)
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
