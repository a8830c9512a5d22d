// Package edftest writes small EDF+ recordings for tests.
//
// Records are one second long and the physical range equals the digital
// range, so integer-valued samples round-trip exactly through a reader that
// scales by (physical range / digital range).
package edftest

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AnnotationsLabel is the label of the EDF+ annotation signal.
const AnnotationsLabel = "EDF Annotations"

// annotSamples is the size, in 2-byte samples, of the annotation signal of
// every record.
const annotSamples = 60

// Annotation is one time-stamped annotation list entry.
type Annotation struct {
	Onset       float64
	Duration    float64
	Description string
}

// Write encodes an EDF+C file with one signal per label plus the annotation
// signal. data holds channels × samples integer values; the number of
// samples must be a multiple of sfreq. Annotations are stored in the record
// covering their onset.
func Write(t testing.TB, w io.Writer, labels []string, sfreq int, data [][]float64, annotations []Annotation) {
	t.Helper()
	nSamples := len(data[0])
	require.Zero(t, nSamples%sfreq, "whole records only")
	nRecords := nSamples / sfreq

	ns := len(labels) + 1
	pad := func(s string, n int) string {
		require.LessOrEqual(t, len(s), n, s)
		return s + strings.Repeat(" ", n-len(s))
	}

	var hdr bytes.Buffer
	hdr.WriteString(pad("0", 8))
	hdr.WriteString(pad("X X X X", 80))
	hdr.WriteString(pad("Startdate X X X X", 80))
	hdr.WriteString("01.01.09")
	hdr.WriteString("00.00.00")
	hdr.WriteString(pad(fmt.Sprint(256*(ns+1)), 8))
	hdr.WriteString(pad("EDF+C", 44))
	hdr.WriteString(pad(fmt.Sprint(nRecords), 8))
	hdr.WriteString(pad("1", 8))
	hdr.WriteString(pad(fmt.Sprint(ns), 4))

	all := append(append([]string(nil), labels...), AnnotationsLabel)
	field := func(width int, value func(i int) string) {
		for i := range all {
			hdr.WriteString(pad(value(i), width))
		}
	}
	field(16, func(i int) string { return all[i] })
	field(80, func(int) string { return "" })
	field(8, func(int) string { return "uV" })
	field(8, func(int) string { return "-32768" })
	field(8, func(int) string { return "32767" })
	field(8, func(int) string { return "-32768" })
	field(8, func(int) string { return "32767" })
	field(80, func(int) string { return "" })
	field(8, func(i int) string {
		if i == len(labels) {
			return fmt.Sprint(annotSamples)
		}
		return fmt.Sprint(sfreq)
	})
	field(32, func(int) string { return "" })
	require.Equal(t, 256*(ns+1), hdr.Len())
	_, err := w.Write(hdr.Bytes())
	require.NoError(t, err)

	for rec := 0; rec < nRecords; rec++ {
		var buf bytes.Buffer
		for c := range labels {
			for s := 0; s < sfreq; s++ {
				v := int16(data[c][rec*sfreq+s])
				buf.WriteByte(byte(uint16(v)))
				buf.WriteByte(byte(uint16(v) >> 8))
			}
		}
		tal := fmt.Sprintf("+%d\x14\x14\x00", rec)
		for _, a := range annotations {
			if a.Onset >= float64(rec) && a.Onset < float64(rec+1) {
				tal += fmt.Sprintf("+%g\x15%g\x14%s\x14\x00", a.Onset, a.Duration, a.Description)
			}
		}
		require.LessOrEqual(t, len(tal), 2*annotSamples)
		tal += strings.Repeat("\x00", 2*annotSamples-len(tal))
		buf.WriteString(tal)
		_, err := w.Write(buf.Bytes())
		require.NoError(t, err)
	}
}

// WriteFile writes an EDF+ recording to path, creating parent directories.
func WriteFile(t testing.TB, path string, labels []string, sfreq int, data [][]float64, annotations []Annotation) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	Write(t, f, labels, sfreq, data, annotations)
}

// Ramp returns channels × samples values base + 100·channel + sample%50.
func Ramp(channels, samples int, base float64) [][]float64 {
	data := make([][]float64, channels)
	for c := range data {
		data[c] = make([]float64, samples)
		for s := range data[c] {
			data[c][s] = base + float64(100*c+s%50)
		}
	}
	return data
}

// Noise returns channels × samples rounded Gaussian values with the given
// standard deviation, clipped to the int16 range.
func Noise(channels, samples int, std float64, seed uint64) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, seed))
	data := make([][]float64, channels)
	for c := range data {
		data[c] = make([]float64, samples)
		for s := range data[c] {
			v := math.Round(rng.NormFloat64() * std)
			data[c][s] = max(math.MinInt16, min(math.MaxInt16, v))
		}
	}
	return data
}
