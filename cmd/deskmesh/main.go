// Command deskmesh runs a natural-language goal against a desktop or browser
// surface, streaming progress to stdout until the run completes, fails or is
// interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"github.com/hupe1980/deskmesh"
	"github.com/hupe1980/deskmesh/artifact"
	"github.com/hupe1980/deskmesh/config"
	"github.com/hupe1980/deskmesh/core"
	chromedriver "github.com/hupe1980/deskmesh/driver/chromedp"
	"github.com/hupe1980/deskmesh/logging"
	"github.com/hupe1980/deskmesh/model"
	anthropicmodel "github.com/hupe1980/deskmesh/model/anthropic"
	openaimodel "github.com/hupe1980/deskmesh/model/openai"
	"github.com/hupe1980/deskmesh/screen"
)

var (
	cfgFile   string
	provider  string
	modelName string
	browser   bool
	headless  bool
	maxSteps  int
	keepSnaps bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "deskmesh [goal]",
		Short: "DeskMesh drives a desktop or browser surface from natural-language goals.",
		Long: `DeskMesh captures the screen, asks a vision model for the next action and
executes it, looping until the model signals completion. Press Ctrl+C to stop
the active run at the next safe point.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ~/.deskmesh/config.yaml)")
	rootCmd.Flags().StringVar(&provider, "provider", "", "model provider: openai, anthropic or mock")
	rootCmd.Flags().StringVar(&modelName, "model", "", "model name override")
	rootCmd.Flags().BoolVar(&browser, "browser", false, "drive a Chrome tab instead of simulating GUI actions")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "run the driven browser without a visible window")
	rootCmd.Flags().IntVar(&maxSteps, "max-steps", 0, "abort the run after this many steps")
	rootCmd.Flags().BoolVar(&keepSnaps, "keep-snapshots", false, "keep per-step snapshot files after the run ends")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	goal := args[0]

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Flags beat config file and environment.
	if cmd.Flags().Changed("provider") {
		cfg.Model.Provider = provider
	}
	if cmd.Flags().Changed("model") {
		cfg.Model.Name = modelName
	}
	if cmd.Flags().Changed("browser") {
		cfg.Browser.Enabled = browser
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if cmd.Flags().Changed("max-steps") {
		cfg.Runner.MaxSteps = maxSteps
	}
	if cmd.Flags().Changed("keep-snapshots") {
		cfg.Snapshot.Keep = keepSnaps
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     cfg.Logger.LogLevel(),
		Format:    cfg.Logger.Format,
		Output:    os.Stderr,
		AddSource: cfg.Logger.AddSource,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	instructor, err := buildInstructor(cfg, logger)
	if err != nil {
		return err
	}

	snapshotDir := cfg.Snapshot.Dir
	if snapshotDir == "" {
		snapshotDir, err = artifact.DefaultSnapshotDir()
		if err != nil {
			return fmt.Errorf("failed to resolve snapshot directory: %w", err)
		}
	}

	store, err := artifact.NewDiskStore(snapshotDir)
	if err != nil {
		return fmt.Errorf("failed to create snapshot store: %w", err)
	}

	opts := []func(o *deskmesh.Options){func(o *deskmesh.Options) {
		o.MaxSteps = cfg.Runner.MaxSteps
		o.StatusBufferSize = cfg.Runner.StatusBufferSize
		o.ArtifactStore = store
		o.KeepArtifacts = cfg.Snapshot.Keep
		o.Logger = logger
	}}

	if cfg.Browser.Enabled {
		driver, err := chromedriver.New(ctx, func(o *chromedriver.Options) {
			o.Headless = cfg.Browser.Headless
			o.DisableGPU = cfg.Browser.DisableGPU
			o.StartURL = cfg.Browser.StartURL
			o.SnapshotPath = filepath.Join(snapshotDir, "screenshot.png")
			o.Logger = logger
		})
		if err != nil {
			return fmt.Errorf("failed to start browser: %w", err)
		}
		defer driver.Close()

		observer, err := screen.NewFallbackProvider(driver)
		if err != nil {
			return fmt.Errorf("failed to create observer: %w", err)
		}

		opts = append(opts, func(o *deskmesh.Options) {
			o.Driver = driver
			o.Observer = observer
		})
	}

	mesh, err := deskmesh.New(instructor, opts...)
	if err != nil {
		return err
	}

	sessionID, err := mesh.Start(goal)
	if err != nil {
		return err
	}

	logger.Debug("session started", "session_id", sessionID, "goal", goal)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "Stopping...")
			mesh.Stop()
			printStatus(mesh)

			return nil

		case msg := <-mesh.Status():
			fmt.Println(msg)

		case <-ticker.C:
			if state := mesh.State(); state.Terminal() {
				printStatus(mesh)

				if state != core.RunCompleted {
					return fmt.Errorf("run ended %s", state)
				}

				return nil
			}
		}
	}
}

// printStatus drains any buffered status messages.
func printStatus(mesh *deskmesh.DeskMesh) {
	for {
		select {
		case msg := <-mesh.Status():
			fmt.Println(msg)
		default:
			return
		}
	}
}

func buildInstructor(cfg *config.Config, logger logging.Logger) (model.Instructor, error) {
	switch strings.ToLower(cfg.Model.Provider) {
	case "openai", "":
		return openaimodel.New(func(o *openaimodel.Options) {
			if cfg.Model.Name != "" {
				o.Model = cfg.Model.Name
			}
			o.APIKey = cfg.Model.APIKey
			if cfg.Model.PollInterval > 0 {
				o.PollInterval = cfg.Model.PollInterval
			}
			if cfg.Model.PollTimeout > 0 {
				o.PollTimeout = cfg.Model.PollTimeout
			}
			o.Logger = logger
		}), nil

	case "anthropic":
		return anthropicmodel.New(func(o *anthropicmodel.Options) {
			if cfg.Model.Name != "" {
				o.Model = anthropic.Model(cfg.Model.Name)
			}
			o.APIKey = cfg.Model.APIKey
			o.Logger = logger
		}), nil

	case "mock":
		return model.NewMockInstructor(), nil

	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}
