package main

import (
	"encoding/json"
	"fmt"
	"io"

	"biofeat-go/internal/config"
	"biofeat-go/internal/logging"
	"biofeat-go/internal/metrics"
	"biofeat-go/internal/models"
	"biofeat-go/internal/recorder"
	"biofeat-go/internal/replay"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries the state shared by every command once setup has run.
type app struct {
	cfgFile string
	cfg     *config.Config
	log     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "biofeat",
		Short: "Extract behavioral biometric features from keyboard and pointer events.",
		Long: `biofeat replays recorded keyboard and pointer events through a collection
session and prints the statistical fingerprint derived from them: inter-key
intervals, pointer velocity, distance and acceleration, and click cadence.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	cmd.Version = version

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is config/biofeat.yaml or ./biofeat.yaml)")
	cmd.PersistentFlags().String("log-dir", "logs", "directory for rotating log files (empty disables file logging)")
	cmd.PersistentFlags().String("log-level", "info", "minimum log level (debug, info, warn, error)")

	cmd.AddCommand(a.newExtractCmd())
	cmd.AddCommand(a.newWatchCmd())
	cmd.AddCommand(a.newFeaturesCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Init(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	log, err := logging.Init(logging.Options{
		Directory:  cfg.Logging.Directory,
		Level:      cfg.Logging.Level,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
		Console:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.cfg = cfg
	a.log = log
	return nil
}

func extractionOptions(cfg *config.Config) (metrics.Options, error) {
	basis, err := metrics.ParseRateBasis(cfg.Extraction.KeystrokeRateBasis)
	if err != nil {
		return metrics.Options{}, err
	}
	return metrics.Options{
		Extended:           cfg.Extraction.Extended,
		KeystrokeRateBasis: basis,
	}, nil
}

func addExtractionFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("extended", false, "also emit median, quartile and spread statistics")
	cmd.Flags().String("rate-basis", "last_event", "end of the keystroke_rate span: last_event or wall_clock")
}

func (a *app) newExtractCmd() *cobra.Command {
	var showData, showDetailed bool

	cmd := &cobra.Command{
		Use:   "extract TRACE",
		Short: "Replay a recorded trace and print its features as JSON",
		Long: `Replays a YAML, JSON or JSONL trace through one collection session per
session id and prints the feature vector. With more than one session id the
output is keyed by id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if showData && showDetailed {
				return fmt.Errorf("--data and --detailed are mutually exclusive")
			}
			opts, err := extractionOptions(a.cfg)
			if err != nil {
				return err
			}

			trace, err := models.LoadTrace(args[0])
			if err != nil {
				a.log.Error("Failed to load trace", zap.String("trace", args[0]), zap.Error(err))
				return err
			}

			clock := replay.NewClock(0)
			registry := recorder.NewRegistry(recorder.Options{
				Clock:      clock.Now,
				Logger:     a.log,
				Extraction: opts,
			})
			res, err := replay.Run(cmd.Context(), trace, func(id string) replay.Recorder {
				g, _ := registry.Open(id)
				return g
			}, clock)
			if err != nil {
				a.log.Error("Replay failed", zap.String("trace", args[0]), zap.Error(err))
				return err
			}
			a.log.Info("Trace replayed",
				zap.String("trace", args[0]),
				zap.Int("events", res.Applied),
				zap.Int("sessions", len(res.Sessions)),
			)

			out := make(map[string]any, len(res.Sessions))
			for _, id := range res.Sessions {
				g, _ := registry.Get(id)
				switch {
				case showData:
					out[id] = g.Data()
				case showDetailed:
					out[id] = metrics.Detailed(g.Snapshot(), opts)
				default:
					out[id] = g.Extract()
				}
			}

			if len(res.Sessions) == 1 {
				return writeJSON(cmd.OutOrStdout(), out[res.Sessions[0]])
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	addExtractionFlags(cmd)
	cmd.Flags().BoolVar(&showData, "data", false, "print logs, features and duration")
	cmd.Flags().BoolVar(&showDetailed, "detailed", false, "print features with their sample sizes")
	return cmd
}

func (a *app) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch TRACE.jsonl",
		Short: "Follow a growing JSONL trace and print features after each update",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := extractionOptions(a.cfg)
			if err != nil {
				return err
			}

			clock := replay.NewClock(0)
			session := recorder.NewGuarded(recorder.Options{
				Clock:      clock.Now,
				Logger:     a.log,
				Extraction: opts,
			})

			config.Watch(a.log, func(cfg *config.Config) {
				next, err := extractionOptions(cfg)
				if err != nil {
					a.log.Error("Ignoring extraction settings", zap.Error(err))
					return
				}
				session.SetExtraction(next)
			})

			enc := json.NewEncoder(cmd.OutOrStdout())
			a.log.Info("Following trace", zap.String("trace", args[0]))
			return replay.Follow(cmd.Context(), args[0], session, clock, func(applied int) {
				a.log.Debug("Trace updated", zap.Int("events", applied))
				if err := enc.Encode(session.Extract()); err != nil {
					a.log.Error("Failed to write features", zap.Error(err))
				}
			})
		},
	}
	addExtractionFlags(cmd)
	return cmd
}

func (a *app) newFeaturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "features",
		Short: "Print the canonical feature order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), metrics.FeatureNames(a.cfg.Extraction.Extended))
		},
	}
	cmd.Flags().Bool("extended", false, "include the extended statistics")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// version needs neither config nor logging
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
