// Package interpreter maps model instructions onto concrete OS actions. It
// compiles each instruction into a closed command variant, then dispatches to
// a timed wait, a best-effort system side effect, or an automation-driver
// primitive. When no driver is attached it runs headless and simulates GUI
// primitives instead of touching the OS.
package interpreter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/deskmesh/core"
	"github.com/hupe1980/deskmesh/logging"
)

// Options configure the interpreter.
type Options struct {
	// Driver executes GUI primitives. Nil selects headless mode.
	Driver core.Driver
	// Launcher performs system side effects (open URL / app / terminal).
	Launcher Launcher
	// Logger receives diagnostic output.
	Logger logging.Logger
}

// Interpreter executes compiled commands. The mode (live vs headless) is
// decided once at construction from driver availability.
type Interpreter struct {
	driver   core.Driver
	launcher Launcher
	status   func(string)
	logger   logging.Logger
}

// New creates an Interpreter publishing progress through the status function.
func New(status func(string), optFns ...func(o *Options)) *Interpreter {
	opts := Options{
		Launcher: NewOSLauncher(),
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if status == nil {
		status = func(string) {}
	}
	return &Interpreter{
		driver:   opts.Driver,
		launcher: opts.Launcher,
		status:   status,
		logger:   opts.Logger,
	}
}

// Headless reports whether GUI primitives are simulated.
func (i *Interpreter) Headless() bool { return i.driver == nil }

// Execute runs one instruction to completion.
//
// The instruction's justification (or a placeholder) is published to the
// status channel before execution begins, so the operator sees intent even if
// the action later fails. Unknown functions and driver failures end the run;
// system side effects are best-effort and only report through status.
func (i *Interpreter) Execute(ctx context.Context, inst core.Instruction) error {
	justification := inst.Justification
	if justification == "" {
		justification = fmt.Sprintf("Performing %s", inst.Function)
	}
	i.status(justification)
	i.logger.Debug("executing instruction", "function", inst.Function, "parameters", inst.Parameters)

	cmd, err := Compile(inst)
	if err != nil {
		i.status(fmt.Sprintf("Cannot interpret instruction: %v (received: %s)", err, inst))
		return err
	}

	if isGUIPrimitive(cmd) && i.driver == nil {
		i.status(simulationMessage(cmd))
		i.logger.Info("headless mode, simulated GUI action", "function", inst.Function)
		return nil
	}

	if err := i.dispatch(ctx, cmd); err != nil {
		i.status(fmt.Sprintf("Error while executing this step: %T - %v", err, err))
		i.status(fmt.Sprintf("Instruction received from the model: %s", inst))
		return &core.ExecutionError{Instruction: inst, Err: err}
	}
	return nil
}

func (i *Interpreter) dispatch(ctx context.Context, cmd Command) error {
	switch c := cmd.(type) {
	case SleepCommand:
		return i.sleep(ctx, c)

	case OpenURLCommand:
		return i.sideEffect(ctx, fmt.Sprintf("open URL %s", c.URL), func(ctx context.Context) error {
			if opener, ok := i.driver.(core.URLOpener); ok {
				return opener.OpenURL(ctx, c.URL)
			}
			return i.launcher.OpenURL(ctx, c.URL)
		})

	case OpenAppCommand:
		return i.sideEffect(ctx, fmt.Sprintf("open application %s", c.Name), func(ctx context.Context) error {
			return i.launcher.OpenApplication(ctx, c.Name)
		})

	case TerminalCommand:
		return i.sideEffect(ctx, fmt.Sprintf("run terminal command %q", c.Command), func(ctx context.Context) error {
			return i.launcher.RunTerminalCommand(ctx, c.Command)
		})

	case ClickCommand:
		return i.driver.Click(ctx, c.X, c.Y, c.Button, c.Clicks)

	case MoveCommand:
		return i.driver.MoveTo(ctx, c.X, c.Y)

	case TypeCommand:
		return i.driver.TypeText(ctx, c.Text, c.Interval)

	case PressCommand:
		return i.driver.KeyPress(ctx, c.Keys, c.Presses, c.Interval)

	case HotkeyCommand:
		return i.driver.Hotkey(ctx, c.Keys...)

	default:
		return fmt.Errorf("unhandled command %T", cmd)
	}
}

// sleep pauses for the command duration, waking early on cancellation.
func (i *Interpreter) sleep(ctx context.Context, c SleepCommand) error {
	if c.Secs <= 0 {
		return nil
	}
	timer := time.NewTimer(secondsToDuration(c.Secs))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// sideEffect runs a best-effort system action. Failures are reported through
// the status channel and swallowed; they never fail the run.
func (i *Interpreter) sideEffect(ctx context.Context, what string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		i.status(fmt.Sprintf("Could not %s: %v", what, err))
		i.logger.Warn("best-effort action failed", "action", what, "error", err)
	}
	return nil
}

// simulationMessage describes a GUI primitive for headless mode. Exactly one
// message per simulated action, naming the key parameters.
func simulationMessage(cmd Command) string {
	switch c := cmd.(type) {
	case ClickCommand:
		return fmt.Sprintf("Simulated %s click at %.0f, %.0f", c.Button, c.X, c.Y)
	case MoveCommand:
		return fmt.Sprintf("Simulated mouse move to %.0f, %.0f", c.X, c.Y)
	case TypeCommand:
		return fmt.Sprintf("Simulated typing: %s", c.Text)
	case PressCommand:
		return fmt.Sprintf("Simulated key press: %s", strings.Join(c.Keys, ", "))
	case HotkeyCommand:
		return fmt.Sprintf("Simulated hotkey: %s", strings.Join(c.Keys, "+"))
	default:
		return fmt.Sprintf("Simulated %T", cmd)
	}
}
