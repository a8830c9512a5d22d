package main

import (
	"github.com/spf13/cobra"

	"github.com/mibench/mibench/comparator"
	"github.com/mibench/mibench/dataset"
)

var syntheticCfg = dataset.DefaultSyntheticConfig()

// syntheticCmd runs the benchmark on generated epochs.
var syntheticCmd = &cobra.Command{
	Use:   "synthetic",
	Short: "Benchmark the pipelines on generated motor-imagery epochs",
	Args:  cobra.NoArgs,
	RunE:  runSynthetic,
}

func init() {
	f := syntheticCmd.Flags()
	f.IntVar(&syntheticCfg.Trials, "trials", syntheticCfg.Trials, "Number of trials")
	f.IntVar(&syntheticCfg.Channels, "channels", syntheticCfg.Channels, "Number of channels")
	f.IntVar(&syntheticCfg.Times, "samples", syntheticCfg.Times, "Time samples per trial")
	f.IntVar(&syntheticCfg.Classes, "classes", syntheticCfg.Classes, "Number of classes")
	f.Uint64Var(&syntheticCfg.Seed, "seed", syntheticCfg.Seed, "Generator and cross-validation seed")
}

func runSynthetic(cmd *cobra.Command, args []string) error {
	X, y, err := dataset.Synthetic(syntheticCfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	return runBenchmark(ctx, cmd.OutOrStdout(), X, y, benchmark{
		nSplits:  comparator.DefaultSplits,
		testSize: comparator.DefaultTestSize,
		seed:     syntheticCfg.Seed,
		workers:  workers,
	})
}
