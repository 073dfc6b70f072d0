package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/eleven-am/prpflow/internal/core"
	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prpctl",
		Short: "Generate, execute and validate versioned PRPs",
		Long: `prpctl drives PRP (Product Requirement Prompt) workflows.

Generated PRPs are stored as checksummed snapshots under the data directory.
A failed execution can roll the PRP file back to its last snapshot, and every
execution is appended to the document's history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addPersistentFlags(cmd)
	registerCommands(cmd)
	return cmd
}

func main() {
	cobra.OnInitialize(initConfig)
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("PRPFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.String("config", "", "YAML config file")
	flags.String("data-dir", "", "data directory (default .prpflow)")
	flags.String("prp-dir", "", "directory generated PRPs are written to (default PRPs)")
	flags.String("history-backend", "", "execution history backend: badger or sqlite")
	flags.Int("max-workers", 0, "maximum concurrently executing tasks")
	flags.Int("retries", -1, "retry attempts for failed worker tasks")
	flags.Bool("json", false, "output JSON")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")

	for _, name := range []string{"config", "data-dir", "prp-dir", "history-backend", "max-workers", "retries", "json", "log-level"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func registerCommands(root *cobra.Command) {
	root.AddCommand(generateCmd())
	root.AddCommand(executeCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(versionsCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(detectCmd())
}

func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig layers the config file, then PRPFLOW_* variables and flags, over
// the defaults.
func loadConfig() (*domain.Config, error) {
	cfg := domain.DefaultConfig()
	if path := viper.GetString("config"); path != "" {
		loaded, err := domain.LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if v := viper.GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v := viper.GetString("prp-dir"); v != "" {
		cfg.PRPDir = v
	}
	if v := viper.GetString("history-backend"); v != "" {
		cfg.History.Backend = domain.HistoryBackend(v)
	}
	if v := viper.GetInt("max-workers"); v > 0 {
		cfg.Dispatcher.MaxWorkers = v
	}
	if v := viper.GetInt("retries"); v >= 0 {
		cfg.Facade.RetryAttempts = v
	}
	cfg.Logger = newLogger()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func withSystem(ctx context.Context, opts []core.Option, fn func(ctx context.Context, sys *core.System) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sys, err := core.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := sys.Shutdown(); err != nil {
			cfg.Logger.Error("shutdown failed", "error", err)
		}
	}()

	if err := sys.Initialize(ctx); err != nil {
		return err
	}
	return fn(ctx, sys)
}
