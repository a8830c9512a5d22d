package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mibench/mibench/core/tensor"
)

// Transformer は行列データ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// TensorTransformer は試行×チャンネル×時間のテンソルを
// 試行×特徴量の行列へ写す教師あり変換器のインターフェース
type TensorTransformer interface {
	// Fit はラベル付きの試行から空間フィルタなどを学習する
	Fit(X *tensor.Dense3, y []int) error

	// Transform は各試行を特徴ベクトルへ変換する
	Transform(X *tensor.Dense3) (*mat.Dense, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X *tensor.Dense3, y []int) (*mat.Dense, error)

	// Clone は同じ設定を持つ未学習の新しいインスタンスを返す
	Clone() TensorTransformer

	// Name は変換器の表示名を返す
	Name() string
}
