package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/framesync"
	"github.com/bft-labs/framesync/internal/cliconfig"
	"github.com/bft-labs/framesync/pkg/log"
	"github.com/bft-labs/framesync/plugins/pairjournal"
	"github.com/bft-labs/framesync/plugins/statsreporter"
)

func newReplayCommand() *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Pair the frames of two index files and print the pairs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.framesync/config.toml), then apply overrides
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			} else if cfgPath != "" {
				return fmt.Errorf("config file %s not found", cfgPath)
			}

			// Environment variables override the file but not flags
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			zl, err := cliconfig.NewLogger(os.Stderr, cfg.LogLevel)
			if err != nil {
				return err
			}
			zl.Info().Interface("config", cfg).Msg("configuration")
			logger := log.NewZerologAdapterWithLogger(zl)

			rc := framesync.DefaultReplayConfig()
			rc.Sync = framesync.Config{
				Tolerance:     cfg.Tolerance,
				SoftCapacity:  cfg.SoftCapacity,
				MaxPending:    cfg.MaxPending,
				EmitQueueSize: cfg.EmitQueueSize,
			}
			rc.Primary = cfg.Primary
			rc.Secondary = cfg.Secondary
			rc.Follow = cfg.Follow
			rc.IdleTimeout = cfg.IdleTimeout
			rc.Logger = logger

			var journal *pairjournal.Plugin
			if cfg.Journal != "" {
				jc := pairjournal.DefaultConfig()
				jc.Path = cfg.Journal
				journal = pairjournal.New(jc)
				rc.Options = append(rc.Options, framesync.WithPlugin(journal))
			}
			if cfg.StatsInterval > 0 {
				rc.Options = append(rc.Options, statsreporter.WithStatsReporter(statsreporter.Config{
					Interval: cfg.StatsInterval,
				}))
			}

			// Setup signal handling for graceful shutdown
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			summary, err := framesync.Replay(ctx, rc, cmd.OutOrStdout())

			session := ""
			if journal != nil {
				session = journal.SessionID()
			}
			fmt.Fprintln(cmd.ErrOrStderr(), renderSummary(summary, session))

			return err
		},
	}

	// Flags
	f := cmd.Flags()
	f.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.framesync/config.toml)")
	f.StringVar(&cfg.Primary, "primary", cfg.Primary, "frame index of the primary stream")
	f.StringVar(&cfg.Secondary, "secondary", cfg.Secondary, "frame index of the secondary stream")

	f.DurationVar(&cfg.Tolerance, "tolerance", cfg.Tolerance, "largest capture time difference within a pair")
	f.IntVar(&cfg.SoftCapacity, "soft-capacity", cfg.SoftCapacity, "pending frames per channel above which a warning is logged")
	f.IntVar(&cfg.MaxPending, "max-pending", cfg.MaxPending, "drop the oldest frames of a channel above this many pending (0 = unbounded)")
	f.IntVar(&cfg.EmitQueueSize, "emit-queue", cfg.EmitQueueSize, "deliver pairs from a dedicated goroutine with this queue size (0 = inline)")

	f.BoolVar(&cfg.Follow, "follow", cfg.Follow, "keep reading as the index files grow")
	f.DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "with --follow, stop after this long without new frames (0 = until interrupted)")

	f.StringVar(&cfg.Journal, "journal", cfg.Journal, "record pairs to this SQLite database")
	f.DurationVar(&cfg.StatsInterval, "stats-interval", cfg.StatsInterval, "log stats at this interval (0 = off)")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error)")

	return cmd
}
