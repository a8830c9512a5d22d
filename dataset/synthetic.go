package dataset

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mibench/mibench/core/tensor"
	"github.com/mibench/mibench/pkg/errors"
)

// SyntheticConfig describes generated motor-imagery-like epochs.
type SyntheticConfig struct {
	Trials   int
	Channels int
	Times    int
	Classes  int
	// SFreq is the sampling rate used for the 10 Hz rhythm (default 160).
	SFreq float64
	// Effect is the relative amplitude gain of the class-specific source.
	Effect float64
	// Noise is the standard deviation of the sensor noise.
	Noise float64
	Seed  uint64
}

// DefaultSyntheticConfig mirrors one EEGBCI subject: 45 two-class trials,
// 8 channels, one second at 160 Hz.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Trials:   45,
		Channels: 8,
		Times:    160,
		Classes:  2,
		SFreq:    160,
		Effect:   1.5,
		Noise:    0.5,
		Seed:     42,
	}
}

// Synthetic generates epochs in which class k amplifies a 10 Hz source k that
// is mixed into all channels by a fixed random matrix. Labels cycle through
// 0..Classes-1, so classes are balanced up to one trial. The output is fully
// determined by the configuration.
func Synthetic(cfg SyntheticConfig) (*tensor.Dense3, []int, error) {
	if cfg.Trials < 1 || cfg.Channels < 1 || cfg.Times < 2 {
		return nil, nil, errors.NewValidationError("shape", "trials, channels must be >= 1 and times >= 2",
			[]int{cfg.Trials, cfg.Channels, cfg.Times})
	}
	if cfg.Classes < 2 || cfg.Classes > cfg.Channels {
		return nil, nil, errors.NewValidationError("classes", "must be in [2, channels]", cfg.Classes)
	}
	if cfg.SFreq <= 0 {
		cfg.SFreq = 160
	}

	src := rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	phase := distuv.Uniform{Min: 0, Max: 2 * math.Pi, Src: src}
	gain := distuv.Uniform{Min: 0.8, Max: 1.2, Src: src}

	mixing := make([][]float64, cfg.Channels)
	for c := range mixing {
		mixing[c] = make([]float64, cfg.Channels)
		for s := range mixing[c] {
			mixing[c][s] = normal.Rand()
		}
		// each channel is dominated by its own source
		mixing[c][c] += 2
	}

	X := tensor.New(cfg.Trials, cfg.Channels, cfg.Times, nil)
	y := make([]int, cfg.Trials)
	sources := make([][]float64, cfg.Channels)
	for s := range sources {
		sources[s] = make([]float64, cfg.Times)
	}

	for i := 0; i < cfg.Trials; i++ {
		label := i % cfg.Classes
		y[i] = label
		for s := range sources {
			amp := gain.Rand()
			if s == label {
				amp *= 1 + cfg.Effect
			}
			phi := phase.Rand()
			for t := range sources[s] {
				sources[s][t] = amp*math.Sin(2*math.Pi*10*float64(t)/cfg.SFreq+phi) + 0.3*normal.Rand()
			}
		}
		for c := 0; c < cfg.Channels; c++ {
			for t := 0; t < cfg.Times; t++ {
				var v float64
				for s := range sources {
					v += mixing[c][s] * sources[s][t]
				}
				X.Set(i, c, t, v+cfg.Noise*normal.Rand())
			}
		}
	}
	return X, y, nil
}
