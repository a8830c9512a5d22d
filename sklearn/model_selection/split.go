// Package model_selection provides cross-validation splitters and scoring.
package model_selection

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/mibench/mibench/core/model"
	"github.com/mibench/mibench/pkg/errors"
)

// Fold holds the training and test indices of one split.
type Fold struct {
	Train []int
	Test  []int
}

// Splitter generates train/test partitions of nSamples samples. y may be nil
// for splitters that ignore labels.
type Splitter interface {
	Split(nSamples int, y []int) ([]Fold, error)
	NSplits() int
}

// ShuffleSplit draws NSplits independent random permutations; each puts
// ceil(TestSize·n) samples in the test set and the remainder in the
// training set. Splits are not stratified and may overlap across
// repetitions.
type ShuffleSplit struct {
	Splits   int
	TestSize float64
	Seed     uint64
}

// NewShuffleSplit returns a ShuffleSplit.
func NewShuffleSplit(nSplits int, testSize float64, seed uint64) *ShuffleSplit {
	return &ShuffleSplit{Splits: nSplits, TestSize: testSize, Seed: seed}
}

// NSplits returns the number of repetitions.
func (s *ShuffleSplit) NSplits() int { return s.Splits }

// TrainTestSizes returns the training and test set sizes for n samples.
func (s *ShuffleSplit) TrainTestSizes(n int) (train, test int, err error) {
	if s.Splits < 1 {
		return 0, 0, errors.NewValidationError("n_splits", "must be at least 1", s.Splits)
	}
	if s.TestSize <= 0 || s.TestSize >= 1 {
		return 0, 0, errors.NewValidationError("test_size", "must be in (0, 1)", s.TestSize)
	}
	test = int(math.Ceil(s.TestSize * float64(n)))
	train = n - test
	if train < 1 || test < 1 {
		return 0, 0, errors.NewValueError("ShuffleSplit",
			fmt.Sprintf("with n_samples=%d and test_size=%v the training or test set would be empty", n, s.TestSize))
	}
	return train, test, nil
}

// Split implements Splitter. The same seed always yields the same folds.
func (s *ShuffleSplit) Split(nSamples int, _ []int) ([]Fold, error) {
	_, nTest, err := s.TrainTestSizes(nSamples)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(s.Seed, s.Seed))
	folds := make([]Fold, s.Splits)
	for i := range folds {
		perm := rng.Perm(nSamples)
		folds[i] = Fold{
			Test:  perm[:nTest:nTest],
			Train: perm[nTest:],
		}
	}
	return folds, nil
}

// KFold splits samples into Splits consecutive folds, optionally after a
// seeded shuffle. The first n % Splits folds hold one extra sample.
type KFold struct {
	Splits  int
	Shuffle bool
	Seed    uint64
}

// NSplits returns the number of folds.
func (k *KFold) NSplits() int { return k.Splits }

// Split implements Splitter.
func (k *KFold) Split(nSamples int, _ []int) ([]Fold, error) {
	if k.Splits < 2 {
		return nil, errors.NewValidationError("n_splits", "must be at least 2", k.Splits)
	}
	if k.Splits > nSamples {
		return nil, errors.NewValueError("KFold",
			fmt.Sprintf("cannot have n_splits=%d greater than the number of samples %d", k.Splits, nSamples))
	}
	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if k.Shuffle {
		rng := rand.New(rand.NewPCG(k.Seed, k.Seed))
		rng.Shuffle(nSamples, func(a, b int) { indices[a], indices[b] = indices[b], indices[a] })
	}

	assignment := make([]int, nSamples)
	start := 0
	for f := 0; f < k.Splits; f++ {
		size := nSamples / k.Splits
		if f < nSamples%k.Splits {
			size++
		}
		for _, i := range indices[start : start+size] {
			assignment[i] = f
		}
		start += size
	}
	return foldsFromAssignment(k.Splits, indices, assignment), nil
}

// StratifiedKFold is KFold preserving the class proportions in every fold.
type StratifiedKFold struct {
	Splits  int
	Shuffle bool
	Seed    uint64
}

// NSplits returns the number of folds.
func (s *StratifiedKFold) NSplits() int { return s.Splits }

// Split implements Splitter. Samples of each class are dealt to the folds so
// that fold sizes per class differ by at most one.
func (s *StratifiedKFold) Split(nSamples int, y []int) ([]Fold, error) {
	if s.Splits < 2 {
		return nil, errors.NewValidationError("n_splits", "must be at least 2", s.Splits)
	}
	if len(y) != nSamples {
		return nil, errors.NewInputShapeError("splitting", []int{nSamples}, []int{len(y)})
	}
	classes := model.UniqueClasses(y)
	classIdx := model.ClassIndex(classes)
	counts := make([]int, len(classes))
	for _, label := range y {
		counts[classIdx[label]]++
	}
	if slices.Max(counts) < s.Splits {
		return nil, errors.NewValueError("StratifiedKFold",
			fmt.Sprintf("n_splits=%d cannot be greater than the number of members in each class", s.Splits))
	}
	if minCount := slices.Min(counts); minCount < s.Splits {
		errors.Warn(errors.NewValueError("StratifiedKFold",
			fmt.Sprintf("the least populated class has only %d members, which is less than n_splits=%d", minCount, s.Splits)))
	}

	// Sorted labels dealt round-robin give the per fold, per class allocation.
	encoded := make([]int, nSamples)
	for i, label := range y {
		encoded[i] = classIdx[label]
	}
	sorted := slices.Clone(encoded)
	slices.Sort(sorted)
	allocation := make([][]int, s.Splits)
	for f := range allocation {
		allocation[f] = make([]int, len(classes))
		for i := f; i < nSamples; i += s.Splits {
			allocation[f][sorted[i]]++
		}
	}

	var rng *rand.Rand
	if s.Shuffle {
		rng = rand.New(rand.NewPCG(s.Seed, s.Seed))
	}
	assignment := make([]int, nSamples)
	for c := range classes {
		var members []int
		for i, e := range encoded {
			if e == c {
				members = append(members, i)
			}
		}
		if rng != nil {
			rng.Shuffle(len(members), func(a, b int) { members[a], members[b] = members[b], members[a] })
		}
		pos := 0
		for f := 0; f < s.Splits; f++ {
			for _, i := range members[pos : pos+allocation[f][c]] {
				assignment[i] = f
			}
			pos += allocation[f][c]
		}
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	return foldsFromAssignment(s.Splits, indices, assignment), nil
}

// foldsFromAssignment builds folds where fold f tests the samples assigned
// to f, in the order they appear in indices.
func foldsFromAssignment(nSplits int, indices, assignment []int) []Fold {
	folds := make([]Fold, nSplits)
	for f := range folds {
		for _, i := range indices {
			if assignment[i] == f {
				folds[f].Test = append(folds[f].Test, i)
			} else {
				folds[f].Train = append(folds[f].Train, i)
			}
		}
		slices.Sort(folds[f].Train)
	}
	return folds
}
