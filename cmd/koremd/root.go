package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aretw0/koremd"
	"github.com/aretw0/koremd/internal/config"
)

var (
	verbose bool
	cfgFile string
	cfg     = viper.New()

	saveMu   sync.Mutex
	saveErrs []error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "koremd",
	Short: "A Markdown note keeper with native and web storage backends",
	Long: heredoc.Doc(`
		KoreMD keeps a flat list of Markdown notes, persisted as one JSON blob.

		On the native platform notes live in files.json under the data directory;
		on the web platform they live in origin-scoped key/value storage.
		Settings always live in key/value storage.
	`),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)

		if cfgFile != "" {
			cfg.SetConfigFile(cfgFile)
		}
		return config.Load(cfg)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := saveFailure(); err != nil {
		fmt.Fprintf(os.Stderr, "Some changes were not saved: %v\n", err)
		os.Exit(1)
	}
}

// recordSaveError keeps a failed save so the process can exit non-zero.
// The registry has already logged it.
func recordSaveError(err error) {
	saveMu.Lock()
	defer saveMu.Unlock()
	saveErrs = append(saveErrs, err)
}

// saveFailure returns every recorded save error, or nil.
func saveFailure() error {
	saveMu.Lock()
	defer saveMu.Unlock()
	return errors.Join(saveErrs...)
}

// openApp opens a session from the resolved configuration.
// Failed saves make the command exit with status 1.
func openApp(ctx context.Context) *koremd.App {
	opts := config.PlatformOptions(cfg, slog.Default())
	opts = append(opts, koremd.WithSaveErrorHandler(recordSaveError))
	app, err := koremd.New(ctx, opts...)
	if err != nil {
		fatal("Error opening koremd", err)
	}
	return app
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&cfgFile, "config", "", "Config file (default $XDG_CONFIG_HOME/koremd/config.yaml)")
	flags.String("platform", "", "Storage backend: native or web")
	flags.String("data-dir", "", "Directory holding files.json")
	flags.String("web-db", "", "SQLite file backing web storage")

	_ = cfg.BindPFlag("platform", flags.Lookup("platform"))
	_ = cfg.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = cfg.BindPFlag("web_db", flags.Lookup("web-db"))
}
