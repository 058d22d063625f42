package interpreter

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// Launcher performs OS-level side effects on behalf of the interpreter.
// Implementations must be safe to call from the single background worker.
type Launcher interface {
	OpenURL(ctx context.Context, url string) error
	OpenApplication(ctx context.Context, name string) error
	RunTerminalCommand(ctx context.Context, command string) error
}

// OSLauncher delegates to the platform's process/URL-opening primitives.
type OSLauncher struct{}

// NewOSLauncher returns a Launcher for the current platform.
func NewOSLauncher() *OSLauncher { return &OSLauncher{} }

// OpenURL opens the URL in the default browser.
func (l *OSLauncher) OpenURL(ctx context.Context, url string) error {
	if url == "" {
		return fmt.Errorf("empty url")
	}
	switch runtime.GOOS {
	case "darwin":
		return exec.CommandContext(ctx, "open", url).Start()
	case "windows":
		return exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.CommandContext(ctx, "xdg-open", url).Start()
	}
}

// OpenApplication launches the named application.
func (l *OSLauncher) OpenApplication(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("empty application name")
	}
	switch runtime.GOOS {
	case "darwin":
		return exec.CommandContext(ctx, "open", "-a", name).Start()
	case "windows":
		return exec.CommandContext(ctx, "cmd", "/c", "start", "", name).Start()
	default:
		return exec.CommandContext(ctx, name).Start()
	}
}

// RunTerminalCommand runs the command through the platform shell and waits
// for it to finish.
func (l *OSLauncher) RunTerminalCommand(ctx context.Context, command string) error {
	if command == "" {
		return fmt.Errorf("empty command")
	}
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/c", command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", command)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(out))
	}
	return nil
}
