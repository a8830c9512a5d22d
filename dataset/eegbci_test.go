package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mibench/mibench/pkg/errors"
	"github.com/mibench/mibench/pkg/log"
)

func TestEEGBCIPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "S001", "S001R04.edf"), EEGBCIPath("data", 1, 4))
	assert.Equal(t, filepath.Join("S109", "S109R14.edf"), EEGBCIPath("", 109, 14))
}

func TestLoadRunsRelabelsAndConcatenates(t *testing.T) {
	root := t.TempDir()
	runAnnotations := []Annotation{
		{Onset: 0, Duration: 1, Description: "T0"},
		{Onset: 1.5, Duration: 2, Description: "T1"},
		{Onset: 4, Duration: 1, Description: "T2"},
	}
	writeRun(t, root, 1, 3, runAnnotations)
	writeRun(t, root, 1, 4, runAnnotations)

	testLogger, _ := log.NewTestLogger(log.LevelDebug)
	raw, err := LoadRuns(root, []int{1}, []int{3}, []int{4}, LoadOptions{Logger: testLogger})
	require.NoError(t, err)

	assert.Equal(t, 120, raw.NSamples())
	descriptions := make([]string, len(raw.Annotations))
	for i, a := range raw.Annotations {
		descriptions[i] = a.Description
	}
	assert.Equal(t, []string{"rest", "do/feet", "do/hands", "rest", "imagine/feet", "imagine/hands"}, descriptions)
	// second run is shifted by the 6 s length of the first
	assert.InDelta(t, 7.5, raw.Annotations[4].Onset, 1e-12)
	// first sample of the second run carries its own base value
	assert.InDelta(t, 4.0, raw.Data.At(0, 60), 1e-9)

	assert.True(t, testLogger.ContainsField(log.RunKey, 4.0))
}

func TestLoadRunsValidation(t *testing.T) {
	_, err := LoadRuns(t.TempDir(), nil, []int{3}, []int{4}, LoadOptions{})
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = LoadRuns(t.TempDir(), []int{1}, []int{3, 7}, []int{4}, LoadOptions{})
	assert.True(t, errors.As(err, &ve))

	_, err = LoadRuns(t.TempDir(), []int{1}, []int{3}, []int{4}, LoadOptions{Logger: log.NewNopLogger()})
	assert.Error(t, err, "missing files")
}

func TestConcatenateRejectsMismatch(t *testing.T) {
	a := &Raw{Labels: []string{"C3"}, SFreq: 160, Data: rawData(1, 4)}
	b := &Raw{Labels: []string{"C4"}, SFreq: 160, Data: rawData(1, 4)}
	_, err := Concatenate([]*Raw{a, b})
	assert.Error(t, err)

	c := &Raw{Labels: []string{"C3"}, SFreq: 100, Data: rawData(1, 4)}
	_, err = Concatenate([]*Raw{a, c})
	assert.Error(t, err)

	_, err = Concatenate(nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestStandardizeLabels(t *testing.T) {
	raw := &Raw{Labels: []string{"Fc5.", "Cz..", "Fp1.", "Afz.", "T10."}}
	StandardizeLabels(raw)
	assert.Equal(t, []string{"FC5", "Cz", "Fp1", "AFz", "T10"}, raw.Labels)
}
