package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mibench/mibench/pkg/errors"
)

func rawData(channels, samples int) *mat.Dense {
	m := mat.NewDense(channels, samples, nil)
	for c := 0; c < channels; c++ {
		for s := 0; s < samples; s++ {
			m.Set(c, s, float64(1000*c+s))
		}
	}
	return m
}

func TestEpochs(t *testing.T) {
	raw := &Raw{
		Labels: []string{"C3", "C4"},
		SFreq:  10,
		Data:   rawData(2, 100),
		Annotations: []Annotation{
			{Onset: 0.5, Description: "do/feet"},      // window starts before 0: dropped
			{Onset: 2, Description: "rest"},           // not in eventID
			{Onset: 3, Description: "imagine/hands"},  // kept
			{Onset: 5, Description: "do/hands"},       // kept
			{Onset: 9.5, Description: "imagine/feet"}, // window ends after the end: dropped
		},
	}

	events := Events(raw, DefaultEventID)
	require.Len(t, events, 4)
	assert.Equal(t, 30, events[1].Sample)

	X, y, err := Epochs(raw, events, DefaultEventID, -1.0, 4.0)
	require.NoError(t, err)

	trials, channels, times := X.Dims()
	assert.Equal(t, 2, trials)
	assert.Equal(t, 2, channels)
	assert.Equal(t, 51, times, "both window ends are included")
	assert.Equal(t, []int{3, 1}, y)

	// first sample of the first epoch is at (3 - 1) s = sample 20
	assert.Equal(t, 20.0, X.At(0, 0, 0))
	assert.Equal(t, 1000.0+40+50, X.At(1, 1, 50))
}

func TestEpochsErrors(t *testing.T) {
	raw := &Raw{Labels: []string{"C3"}, SFreq: 10, Data: rawData(1, 20)}

	_, _, err := Epochs(raw, nil, DefaultEventID, 1, 0)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, _, err = Epochs(raw, []Event{{Sample: 5, Code: 1, Description: "do/feet"}}, DefaultEventID, -1, 4)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}
