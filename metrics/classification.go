// Package metrics provides evaluation metrics for classifiers and summaries
// of cross-validation scores.
package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mibench/mibench/pkg/errors"
)

// Accuracy は正解率（一致したラベルの割合）を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	n := yTrue.Len()
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// AccuracyMatrix は n×1 行列形式の入力に対して正解率を計算する
func AccuracyMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()
	if rTrue == 0 {
		return undefinedAccuracy(), nil
	}
	if cTrue != 1 || cPred != 1 {
		return 0, errors.NewValueError("AccuracyMatrix", "must be a column vector (n×1 matrix)")
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError("AccuracyMatrix", rTrue, rPred, 0)
	}
	return Accuracy(columnOf(yTrue, rTrue), columnOf(yPred, rPred))
}

// AccuracyLabels は整数ラベルと n×1 の予測行列の正解率を計算する。
// ラベルが空の場合は UndefinedMetricWarning を出して 0 を返す。
func AccuracyLabels(yTrue []int, yPred mat.Matrix) (float64, error) {
	if len(yTrue) == 0 {
		return undefinedAccuracy(), nil
	}
	truth := make([]float64, len(yTrue))
	for i, v := range yTrue {
		truth[i] = float64(v)
	}
	return AccuracyMatrix(mat.NewVecDense(len(truth), truth), yPred)
}

// undefinedAccuracy reports an empty test split through errors.Warn.
func undefinedAccuracy() float64 {
	errors.Warn(errors.NewUndefinedMetricWarning("accuracy", "empty test split", 0))
	return 0
}

func columnOf(m mat.Matrix, n int) *mat.VecDense {
	if v, ok := m.(*mat.VecDense); ok {
		return v
	}
	v := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
