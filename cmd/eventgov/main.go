package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agenthands/eventgov/internal/app"
	"github.com/agenthands/eventgov/internal/config"
	"github.com/agenthands/eventgov/internal/logger"
)

var (
	cfgPath string
	logMode string

	application *app.App
	lg          *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "eventgov",
	Short: "Extract business events from sales daily logs and govern their taxonomy",
	Long: `eventgov turns free-text sales daily logs into structured business events.

Each log is extracted twice with differently worded prompts; the two runs are
reconciled into silver (trustworthy), gray (needs review) or pending events.
Governance commands grow the tag taxonomy and the entity alias tables from
what the events actually contain.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipSetup(cmd) {
			return nil
		}
		if !cmd.Flags().Changed("config") {
			cfgPath = envOr("CONFIG_PATH", cfgPath)
		}
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if logMode != "" {
			cfg.Log.Mode = logMode
		}
		lg, err = logger.New(cfg.Log.Mode)
		if err != nil {
			return err
		}
		application, err = app.New(cmd.Context(), cfg, lg)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config/config.toml", "path to the TOML configuration, $CONFIG_PATH when not given")
	rootCmd.PersistentFlags().StringVar(&logMode, "log", "", "log mode: dev or prod (overrides config)")
}

// skipSetup is true for cobra's built-in help and completion commands.
func skipSetup(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "help" || c.Name() == "completion" {
			return true
		}
	}
	return false
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	shutdown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// shutdown runs after every command, including failed ones.
func shutdown() {
	if application != nil {
		if err := application.Close(); err != nil {
			lg.Warn("Close failed", "error", err)
		}
	}
	if lg != nil {
		lg.Sync()
	}
}
