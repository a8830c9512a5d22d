// Package mibench benchmarks motor-imagery EEG decoding pipelines in Go.
//
// It reads PhysioNet EEG Motor Movement/Imagery recordings (EDF+), cuts
// epochs around motor execution and imagery events, extracts spatial-filter
// features (CSP, SPoC) and compares three classifiers on them with repeated
// shuffle-split cross-validation.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "log"
//	    "os"
//
//	    "github.com/mibench/mibench/comparator"
//	    "github.com/mibench/mibench/dataset"
//	    "github.com/mibench/mibench/decoding"
//	)
//
//	func main() {
//	    X, y, err := dataset.Synthetic(dataset.DefaultSyntheticConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    report, err := comparator.Compare(context.Background(), X, y,
//	        decoding.NewCSP(10), decoding.NewCSP(10), decoding.NewCSP(10))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    report.WriteTo(os.Stdout)
//	}
//
// which prints one line per pipeline:
//
//	LinearDiscriminantAnalysis: accuracy ..., std: ...
//	LogisticRegression: accuracy ..., std: ...
//	RandomForestClassifier: accuracy ..., std: ...
//
// # Packages
//
//   - comparator: the three-pipeline benchmark
//   - dataset: EDF+ reader, EEGBCI run loading, epoching, synthetic epochs
//   - decoding: CSP, SPoC, covariance estimators, Vectorizer, PCA features
//   - sklearn/discriminant_analysis, sklearn/linear_model, sklearn/tree,
//     sklearn/ensemble: classifiers
//   - sklearn/model_selection: ShuffleSplit, KFold, StratifiedKFold, CrossValScore
//   - sklearn/pipeline: transformer + classifier composition
//   - sklearn/decomposition, preprocessing: PCA and StandardScaler
//   - metrics: accuracy and score summaries
//   - core/model, core/tensor, core/parallel: interfaces, epochs tensor, worker pool
//   - pkg/errors, pkg/log: typed errors and structured logging
//
// The mibench command (cmd/mibench) runs the benchmark from a YAML file.
package mibench
