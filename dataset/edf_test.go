package dataset

import (
	"bytes"
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mibench/mibench/internal/edftest"
	"github.com/mibench/mibench/pkg/errors"
)

func writeEDF(t *testing.T, w io.Writer, labels []string, sfreq int, data [][]float64, annotations []Annotation) {
	t.Helper()
	edftest.Write(t, w, labels, sfreq, data, fixtureAnnotations(annotations))
}

func fixtureAnnotations(annotations []Annotation) []edftest.Annotation {
	out := make([]edftest.Annotation, len(annotations))
	for i, a := range annotations {
		out[i] = edftest.Annotation{Onset: a.Onset, Duration: a.Duration, Description: a.Description}
	}
	return out
}

func TestReadEDF(t *testing.T) {
	var buf bytes.Buffer
	data := edftest.Ramp(2, 40, -10)
	annotations := []Annotation{
		{Onset: 0.5, Duration: 1.5, Description: "T1"},
		{Onset: 2, Duration: 1, Description: "T0"},
	}
	writeEDF(t, &buf, []string{"Fc5.", "Cz.."}, 10, data, annotations)

	raw, err := ReadEDF(&buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"Fc5.", "Cz.."}, raw.Labels)
	assert.Equal(t, 10.0, raw.SFreq)
	assert.Equal(t, 40, raw.NSamples())
	assert.InDelta(t, 4.0, raw.Duration(), 1e-12)
	for c := range data {
		for s := range data[c] {
			require.InDelta(t, data[c][s], raw.Data.At(c, s), 1e-9, "channel %d sample %d", c, s)
		}
	}
	assert.Equal(t, annotations, raw.Annotations)
}

func TestReadEDFErrors(t *testing.T) {
	_, err := ReadEDF(strings.NewReader("short"))
	assert.Error(t, err)

	var buf bytes.Buffer
	writeEDF(t, &buf, []string{"C3"}, 10, edftest.Ramp(1, 20, 0), nil)
	truncated := buf.Bytes()[:buf.Len()-5]
	_, err = ReadEDF(bytes.NewReader(truncated))
	assert.Error(t, err)
}

func TestParseTALs(t *testing.T) {
	got, err := parseTALs([]byte("+0\x14\x14\x00+1.25\x154.2\x14T2\x14\x00+3\x14T0\x14extra\x14\x00\x00\x00"))
	require.NoError(t, err)
	assert.Equal(t, []Annotation{
		{Onset: 1.25, Duration: 4.2, Description: "T2"},
		{Onset: 3, Description: "T0"},
		{Onset: 3, Description: "extra"},
	}, got)

	_, err = parseTALs([]byte("+abc\x14T0\x14\x00"))
	assert.Error(t, err)
}

func writeRun(t *testing.T, root string, subject, run int, annotations []Annotation) {
	t.Helper()
	edftest.WriteFile(t, EEGBCIPath(root, subject, run), []string{"C3..", "Cz..", "C4.."}, 10,
		edftest.Ramp(3, 60, float64(run)), fixtureAnnotations(annotations))
}

func TestReadEDFFileMissing(t *testing.T) {
	path := EEGBCIPath(t.TempDir(), 1, 3)
	_, err := ReadEDFFile(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Equal(t, 1, strings.Count(err.Error(), path), err.Error())
}
