// Package tensor provides the three-way feature tensor used for epoched EEG
// data: trials × channels × time samples, stored row-major.
package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Dense3 is a dense trials×channels×times tensor of float64.
//
// Element (i, c, t) is stored at data[(i*channels+c)*times+t], so the block of
// one trial is a contiguous channels×times row-major matrix.
type Dense3 struct {
	trials, channels, times int
	data                    []float64
}

// New creates a Dense3 with the given dimensions. If data is nil a zeroed
// backing slice is allocated; otherwise data is used directly and must have
// length trials*channels*times. New panics on non-positive dimensions or a
// length mismatch, as mat.NewDense does.
func New(trials, channels, times int, data []float64) *Dense3 {
	if trials <= 0 || channels <= 0 || times <= 0 {
		panic(fmt.Sprintf("tensor: non-positive dimension %dx%dx%d", trials, channels, times))
	}
	n := trials * channels * times
	if data == nil {
		data = make([]float64, n)
	} else if len(data) != n {
		panic(fmt.Sprintf("tensor: data length %d does not match %dx%dx%d", len(data), trials, channels, times))
	}
	return &Dense3{trials: trials, channels: channels, times: times, data: data}
}

// FromMatrix builds a tensor with times == 1 from a trials×features matrix.
func FromMatrix(m mat.Matrix) *Dense3 {
	r, c := m.Dims()
	t := New(r, c, 1, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			t.data[i*c+j] = m.At(i, j)
		}
	}
	return t
}

// Dims returns the number of trials, channels and time samples.
func (t *Dense3) Dims() (trials, channels, times int) {
	return t.trials, t.channels, t.times
}

// At returns the element at (trial, channel, time).
func (t *Dense3) At(i, c, s int) float64 {
	return t.data[t.offset(i, c, s)]
}

// Set sets the element at (trial, channel, time).
func (t *Dense3) Set(i, c, s int, v float64) {
	t.data[t.offset(i, c, s)] = v
}

func (t *Dense3) offset(i, c, s int) int {
	if i < 0 || i >= t.trials || c < 0 || c >= t.channels || s < 0 || s >= t.times {
		panic(fmt.Sprintf("tensor: index (%d,%d,%d) out of range %dx%dx%d", i, c, s, t.trials, t.channels, t.times))
	}
	return (i*t.channels+c)*t.times + s
}

// Trial returns a channels×times copy of trial i.
func (t *Dense3) Trial(i int) *mat.Dense {
	block := t.trialBlock(i)
	out := make([]float64, len(block))
	copy(out, block)
	return mat.NewDense(t.channels, t.times, out)
}

// TrialView returns a channels×times matrix sharing storage with trial i.
// Callers must not modify it.
func (t *Dense3) TrialView(i int) mat.Matrix {
	return mat.NewDense(t.channels, t.times, t.trialBlock(i))
}

func (t *Dense3) trialBlock(i int) []float64 {
	if i < 0 || i >= t.trials {
		panic(fmt.Sprintf("tensor: trial %d out of range [0,%d)", i, t.trials))
	}
	size := t.channels * t.times
	return t.data[i*size : (i+1)*size : (i+1)*size]
}

// Subset returns a deep copy holding the given trials in the given order.
func (t *Dense3) Subset(indices []int) *Dense3 {
	if len(indices) == 0 {
		panic("tensor: empty subset")
	}
	size := t.channels * t.times
	data := make([]float64, 0, len(indices)*size)
	for _, i := range indices {
		data = append(data, t.trialBlock(i)...)
	}
	return &Dense3{trials: len(indices), channels: t.channels, times: t.times, data: data}
}

// Flatten returns a trials×(channels·times) matrix copy, one row per trial.
func (t *Dense3) Flatten() *mat.Dense {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return mat.NewDense(t.trials, t.channels*t.times, data)
}

// Clone returns a deep copy of t.
func (t *Dense3) Clone() *Dense3 {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return &Dense3{trials: t.trials, channels: t.channels, times: t.times, data: data}
}

// RawData returns the backing slice.
func (t *Dense3) RawData() []float64 {
	return t.data
}
