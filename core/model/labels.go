package model

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/mibench/mibench/pkg/errors"
)

// LabelsFromMatrix reads an n×1 column of integer class labels.
func LabelsFromMatrix(op string, y mat.Matrix) ([]int, error) {
	r, c := y.Dims()
	if c != 1 {
		return nil, errors.NewDimensionError(op, 1, c, 1)
	}
	labels := make([]int, r)
	for i := 0; i < r; i++ {
		v := y.At(i, 0)
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, errors.NewValueError(op, "class labels must be integers")
		}
		labels[i] = int(v)
	}
	return labels, nil
}

// LabelsToMatrix returns labels as an n×1 column.
func LabelsToMatrix(labels []int) *mat.Dense {
	data := make([]float64, len(labels))
	for i, v := range labels {
		data[i] = float64(v)
	}
	return mat.NewDense(len(labels), 1, data)
}

// UniqueClasses returns the sorted distinct labels.
func UniqueClasses(labels []int) []int {
	classes := slices.Clone(labels)
	slices.Sort(classes)
	return slices.Compact(classes)
}

// ClassIndex maps every label to its position in classes.
func ClassIndex(classes []int) map[int]int {
	idx := make(map[int]int, len(classes))
	for i, c := range classes {
		idx[c] = i
	}
	return idx
}

// CheckFitInput validates the shapes of a classifier's training data and
// returns the labels and the sorted classes.
func CheckFitInput(op string, X, y mat.Matrix) ([]int, []int, error) {
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return nil, nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	labels, err := LabelsFromMatrix(op, y)
	if err != nil {
		return nil, nil, err
	}
	if len(labels) != nSamples {
		return nil, nil, errors.NewInputShapeError("training", []int{nSamples}, []int{len(labels)})
	}
	return labels, UniqueClasses(labels), nil
}
