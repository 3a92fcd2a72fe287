package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmarlan/photosync/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagPIDFile    string
	flagVerbose    bool
	flagDebug      bool
	flagQuiet      bool
)

// CLIContext bundles resolved config and logger, built once in
// PersistentPreRunE so RunE handlers never repeat config resolution.
type CLIContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

type cliContextKey struct{}

func cliContextFrom(ctx context.Context) *CLIContext {
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok {
		return nil
	}

	return cc
}

// mustCLIContext extracts the CLIContext or panics. A panic here is
// always a programmer error — every command in this tree loads config
// in PersistentPreRunE before RunE runs.
func mustCLIContext(ctx context.Context) *CLIContext {
	cc := cliContextFrom(ctx)
	if cc == nil {
		panic("BUG: CLIContext not found in context")
	}

	return cc
}

// newRootCmd builds the fully assembled root command. Called once from
// main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "photosync",
		Short:   "Photo catalog sync worker",
		Long:    "Keeps a relational photo catalog eventually consistent with a hierarchical photo storage directory.",
		Version: version,
		// Silence Cobra's default error/usage printing — we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "optional TOML config file path")
	cmd.PersistentFlags().StringVar(&flagPIDFile, "pid-file", "", "PID file path (defaults next to the catalog database)")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "show detailed output")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.MarkFlagsMutuallyExclusive("verbose", "debug", "quiet")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newHealthcheckCmd())

	return cmd
}

// loadConfig resolves the effective configuration from the three-layer
// override chain (defaults, optional TOML file, environment) and stores
// the result in the command's context for subcommands.
func loadConfig(cmd *cobra.Command) error {
	if flagConfigPath != "" {
		if err := os.Setenv(config.EnvConfigFile, flagConfigPath); err != nil {
			return fmt.Errorf("setting %s: %w", config.EnvConfigFile, err)
		}
	}

	bootstrapLogger := buildLogger("")

	cfg, err := config.Load(bootstrapLogger)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := buildLogger(cfg.LogLevel)
	cc := &CLIContext{Cfg: cfg, Logger: logger}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cc))

	return nil
}

// buildLogger builds a logger whose level is set by configLevel (the
// config-file/env value, lowest priority), overridden by CLI flags
// (highest priority, mutually exclusive so at most one of them applies).
func buildLogger(configLevel string) *slog.Logger {
	level := slog.LevelInfo

	switch configLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if flagVerbose {
		level = slog.LevelInfo
	}

	if flagDebug {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
