// Package main provides the cypilot binary entry point.
// Cypilot validate enforces structure and cross-references across a chain
// of typed Markdown artifacts: PRD -> ADR -> DESIGN -> DECOMPOSITION ->
// FEATURE -> CODE.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cypilot/cypilot/config"
	"github.com/cypilot/cypilot/report"
	"github.com/cypilot/cypilot/rules"
	"github.com/cypilot/cypilot/runner"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "cypilot"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

type flags struct {
	configPath    string
	workspace     string
	constraints   string
	format        string
	failOnWarning bool
	logLevel      string
}

func rootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Specification-consistency engine",
		Long: `Cypilot validates a chain of typed Markdown artifacts
(PRD, ADR, DESIGN, DECOMPOSITION, FEATURE) against a declarative rule
registry: required headings, identifier presentation, cross-artifact
coverage, and the code-trace completion cascade.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&f.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&f.workspace, "workspace", "", "Workspace root (default: cypilot.yaml location or cwd)")
	cmd.PersistentFlags().StringVar(&f.constraints, "constraints", "", "Constraints JSON path (default: built-in rules)")
	cmd.PersistentFlags().StringVar(&f.format, "format", "", "Output format (text, json)")
	cmd.PersistentFlags().BoolVar(&f.failOnWarning, "fail-on-warning", false, "Treat warnings as failures")
	cmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(validateCmd(&f))
	cmd.AddCommand(watchCmd(&f))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func validateCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the workspace and print a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(f.logLevel)
			opts, err := buildOptions(f, logger)
			if err != nil {
				return err
			}

			rep, err := runner.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := render(rep, opts.Config.Output.Format); err != nil {
				return err
			}
			if !rep.Passed {
				// Diagnostics failed the run; distinct from fatal errors.
				os.Exit(1)
			}
			return nil
		},
	}
}

func watchCmd(f *flags) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-validate on every document or source change",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(f.logLevel)
			opts, err := buildOptions(f, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pass := func(ctx context.Context) error {
				rep, runErr := runner.Run(ctx, opts)
				if runErr != nil {
					return runErr
				}
				return render(rep, opts.Config.Output.Format)
			}

			// Validate once up front, then watch.
			if err := pass(ctx); err != nil {
				return err
			}

			w, err := runner.NewWatcher(opts, debounce, logger)
			if err != nil {
				return err
			}
			logger.Info("watching for changes", slog.String("root", opts.Config.Workspace.Root))
			return w.Start(ctx, pass)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 250*time.Millisecond, "Delay before re-validating after a change")
	return cmd
}

// buildOptions resolves config (file layering + flags) and the rule
// registry. A failure here is fatal: no meaningful validation is possible
// without rules.
func buildOptions(f *flags, logger *slog.Logger) (runner.Options, error) {
	var cfg *config.Config
	if f.configPath != "" {
		loaded, err := config.LoadFromFile(f.configPath)
		if err != nil {
			return runner.Options{}, err
		}
		cfg = config.DefaultConfig()
		cfg.Merge(loaded)
	} else {
		loaded, err := config.NewLoader(logger).Load()
		if err != nil {
			return runner.Options{}, err
		}
		cfg = loaded
	}

	if f.workspace != "" {
		cfg.Workspace.Root = f.workspace
	}
	if f.constraints != "" {
		cfg.Rules.Constraints = f.constraints
	}
	if f.format != "" {
		cfg.Output.Format = f.format
	}
	if f.failOnWarning {
		cfg.Output.FailOnWarning = true
	}
	if cfg.Workspace.Root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return runner.Options{}, err
		}
		cfg.Workspace.Root = cwd
	}
	if err := cfg.Validate(); err != nil {
		return runner.Options{}, err
	}

	registry := rules.Defaults()
	if cfg.Rules.Constraints != "" {
		loaded, err := rules.LoadFile(cfg.Rules.Constraints)
		if err != nil {
			return runner.Options{}, err
		}
		registry = loaded
	}

	return runner.Options{Config: cfg, Registry: registry, Logger: logger}, nil
}

func render(rep *report.Report, format string) error {
	if format == "json" {
		return rep.RenderJSON(os.Stdout)
	}
	return rep.Render(os.Stdout)
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
