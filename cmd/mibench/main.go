// Command mibench compares motor-imagery decoding pipelines on EEGBCI
// recordings or on generated epochs.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mibench/mibench/comparator"
	"github.com/mibench/mibench/core/model"
	"github.com/mibench/mibench/core/tensor"
	"github.com/mibench/mibench/decoding"
	"github.com/mibench/mibench/pkg/errors"
	"github.com/mibench/mibench/pkg/log"
	"github.com/mibench/mibench/sklearn/model_selection"
)

var (
	// Global flags
	verbose   bool
	workers   int
	logFormat string

	logger        log.Logger = log.NewNopLogger()
	restoreWarner            = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "mibench",
	Short: "Motor-imagery EEG pipeline benchmark",
	Long: `mibench extracts CSP and SPoC spatial-filter features from motor
execution and imagery epochs and reports the shuffle-split accuracy of
LDA, L1 logistic regression and a random forest on them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger(cmd, logFormat, flagLevel())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		restoreWarner()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 0, "Evaluation workers (default: one per CPU)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", log.BackendSlog, "Log backend: slog, zerolog or zap")

	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(syntheticCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func flagLevel() string {
	if verbose {
		return "debug"
	}
	return "info"
}

// setupLogger replaces the command logger and routes library warnings to it.
func setupLogger(cmd *cobra.Command, backend, level string) error {
	l, err := log.NewLogger(backend, level, cmd.ErrOrStderr())
	if err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	restoreWarner()
	logger = l
	log.SetLogger(l)
	restoreWarner = log.InstallWarningSink(l)
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// benchmark describes one pair of comparator runs.
type benchmark struct {
	nSplits  int
	testSize float64
	seed     uint64
	workers  int
}

// runBenchmark compares the three classifiers first on CSP(10) features and
// then on SPoC(15, oas) features, printing a report after each run.
func runBenchmark(ctx context.Context, w io.Writer, X *tensor.Dense3, y []int, b benchmark) error {
	families := []struct {
		title string
		newT  func() model.TensorTransformer
	}{
		{"CSP", func() model.TensorTransformer { return decoding.NewCSP(10) }},
		{"SPoC", func() model.TensorTransformer { return decoding.NewSPoC(15, decoding.WithReg(decoding.RegOAS)) }},
	}
	for _, f := range families {
		report, err := comparator.Compare(ctx, X, y, f.newT(), f.newT(), f.newT(),
			comparator.WithSplitter(model_selection.NewShuffleSplit(b.nSplits, b.testSize, b.seed)),
			comparator.WithSeed(b.seed),
			comparator.WithWorkers(b.workers),
			comparator.WithLogger(logger),
		)
		if err != nil {
			return errors.Wrapf(err, "%s comparison", f.title)
		}
		fmt.Fprintf(w, "%s features\n", f.title)
		if _, err := report.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}
