// Package cmd defines the maman command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/maman/internal/app"
	"github.com/JakeFAU/maman/internal/config"
	"github.com/JakeFAU/maman/internal/logging"
	"github.com/JakeFAU/maman/internal/queue"
	"github.com/JakeFAU/maman/internal/version"
)

const usageLine = "Usage: maman URL [LIMIT] [MIME_TYPES]"

// errUsage marks invalid invocations; the usage text has already been printed.
var errUsage = errors.New("invalid arguments")

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands use.
// This allows tests to inject their own services.
type App interface {
	Close()
	GetLogger() *zap.Logger
	GetQueue() queue.Provider
	GetConfig() config.Config
	StartMetrics(ctx context.Context)
}

// dependencies are the factories the root command builds its services with.
type dependencies struct {
	loadConfig func(path string) (config.Config, error)
	newLogger  func(development bool) (*zap.Logger, error)
	newApp     func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error)
}

func defaultDependencies() dependencies {
	return dependencies{
		loadConfig: config.Load,
		newLogger:  logging.New,
		newApp: func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
			return app.NewApp(ctx, cfg, logger)
		},
	}
}

// newRootCmd creates and configures the root command.
func newRootCmd(deps dependencies) *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "maman URL [LIMIT] [MIME_TYPES]",
		Short: "Crawl a single site and enqueue every page as a Sidekiq job.",
		Long: `maman crawls the site at URL, following only links on the same host,
honouring its robots.txt, and pushes every page it visits onto the "maman"
Sidekiq queue. LIMIT caps the number of visited pages (0 = unbounded) and
MIME_TYPES, a space separated list, restricts which content types are kept.`,
		Version:       version.Version,
		Args:          validateArgs,
		SilenceUsage:  true,
		SilenceErrors: true,

		// Runs after argument validation and before RunE.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := deps.loadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := deps.newLogger(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			appInstance, err := deps.newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},

		RunE: runCrawl,
	}

	cmd.SetVersionTemplate(version.String() + "\n")
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); env vars MAMAN_* override it")

	return cmd
}

// validateArgs prints the usage banner when the URL is missing or invalid.
func validateArgs(cmd *cobra.Command, args []string) error {
	if _, err := parseArgs(args); err != nil {
		printUsage(cmd.OutOrStdout())
		return err
	}
	return nil
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, version.String())
	_, _ = fmt.Fprintln(w, usageLine)
}

// Execute is the main entry point. It exits with status 1 on any failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(defaultDependencies()).ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errUsage) {
			_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
