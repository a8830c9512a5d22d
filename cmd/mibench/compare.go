package main

import (
	"github.com/spf13/cobra"

	"github.com/mibench/mibench/dataset"
	"github.com/mibench/mibench/internal/config"
	"github.com/mibench/mibench/pkg/errors"
	mlog "github.com/mibench/mibench/pkg/log"
)

var errUsage = errors.New("Correct use of program: mibench compare config.yaml")

// compareCmd runs the benchmark on EEGBCI recordings described by a YAML file.
var compareCmd = &cobra.Command{
	Use:   "compare <config.yaml>",
	Short: "Benchmark the pipelines on EEGBCI recordings",
	Long: `Loads the execution and imagery runs of every configured subject,
cuts epochs around the do/feet, do/hands, imagine/feet and imagine/hands
events and compares the classifiers on CSP and SPoC features.

Example config:
  subjects: [1, 2]
  action_tasks: [3, 7]
  imaginary_tasks: [4, 8]
  data_dir: ./data/eegbci`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errUsage
		}
		return nil
	},
	RunE: runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if err := applyLogging(cmd, cfg.Logging); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	raw, err := dataset.LoadRuns(cfg.DataDir, cfg.Subjects, cfg.ActionTasks, cfg.ImaginaryTasks,
		dataset.LoadOptions{Logger: logger})
	if err != nil {
		return err
	}
	dataset.StandardizeLabels(raw)

	events := dataset.Events(raw, dataset.DefaultEventID)
	X, y, err := dataset.Epochs(raw, events, dataset.DefaultEventID, cfg.Epochs.TMin, cfg.Epochs.TMax)
	if err != nil {
		return err
	}
	trials, channels, times := X.Dims()
	logger.Info("epochs ready",
		mlog.PhaseKey, mlog.PhaseEpoching,
		mlog.SamplesKey, trials,
		mlog.ChannelsKey, channels,
		mlog.TimesKey, times,
	)

	return runBenchmark(ctx, cmd.OutOrStdout(), X, y, benchmark{
		nSplits:  cfg.CV.NSplits,
		testSize: cfg.CV.TestSize,
		seed:     cfg.CV.Seed,
		workers:  cfg.Workers,
	})
}

// applyLogging rebuilds the logger from the config file. --log-format and
// --verbose take precedence over the file's backend and level.
func applyLogging(cmd *cobra.Command, lc config.LoggingConfig) error {
	backendSet, levelSet := cmd.Flags().Changed("log-format"), cmd.Flags().Changed("verbose")
	if backendSet && levelSet {
		return nil
	}
	backend, level := lc.Backend, lc.Level
	if backendSet {
		backend = logFormat
	}
	if levelSet {
		level = flagLevel()
	}
	return setupLogger(cmd, backend, level)
}
