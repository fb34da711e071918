package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eringen/socialmuse"
	"github.com/eringen/socialmuse/views"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	debug       bool
	storeDriver string
	workspaceID string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "socialmuse",
	Short: "SocialMuse - AI campaign drafts for LinkedIn, Twitter, and Instagram",
	Long: `SocialMuse turns one idea into a campaign: a tailored post per platform,
drafted by a Gemini text model, each with a generated visual.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if debug {
			config = zap.NewDevelopmentConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the socialmuse version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("socialmuse %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable development logging")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "store driver: sqlite, redis or memory (overrides STORE_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&workspaceID, "workspace", "cli", "workspace used by the offline commands")

	rootCmd.AddCommand(serveCmd, generateCmd, historyCmd, exportCmd, keyCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig applies the command-line overrides to the environment config.
func loadConfig() socialmuse.SiteConfig {
	cfg := socialmuse.LoadConfig()
	if storeDriver != "" {
		cfg.StoreDriver = storeDriver
	}
	return cfg
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	cfg.Validate(logger)

	app := socialmuse.New(cfg, views.Funcs(), socialmuse.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
