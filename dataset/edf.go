// Package dataset loads EEG recordings and cuts them into labelled epochs.
//
// It reads EDF/EDF+ files as distributed by the PhysioNet EEG Motor
// Movement/Imagery (EEGBCI) dataset, relabels their run annotations, cuts
// event-locked epochs into a tensor.Dense3 and can generate synthetic
// motor-imagery-like epochs for tests and demos.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/mibench/mibench/pkg/errors"
)

const (
	edfHeaderSize     = 256
	edfSignalHeader   = 256
	annotationsLabel  = "EDF Annotations"
	talOnsetDelimiter = 0x15
	talTextDelimiter  = 0x14
)

// Annotation is one timed event of a recording (onset and duration in seconds).
type Annotation struct {
	Onset       float64
	Duration    float64
	Description string
}

// Raw is a continuous multichannel recording.
type Raw struct {
	// Labels holds one name per EEG channel, in Data row order.
	Labels []string
	// SFreq is the sampling frequency in Hz.
	SFreq float64
	// Data is channels × samples, in physical units.
	Data *mat.Dense
	// Annotations are sorted by onset.
	Annotations []Annotation
}

// NSamples returns the number of time samples.
func (r *Raw) NSamples() int {
	_, n := r.Data.Dims()
	return n
}

// Duration returns the recording length in seconds.
func (r *Raw) Duration() float64 {
	return float64(r.NSamples()) / r.SFreq
}

type edfSignal struct {
	label            string
	physMin, physMax float64
	digMin, digMax   float64
	samplesPerRecord int
}

func (s edfSignal) gain() float64 {
	return (s.physMax - s.physMin) / (s.digMax - s.digMin)
}

// ReadEDF parses an EDF or EDF+ stream. Data records are 16-bit little-endian
// integers scaled to physical units; an "EDF Annotations" signal, if present,
// is decoded into Annotations instead of a data channel. All data channels
// must share one sampling rate.
func ReadEDF(r io.Reader) (*Raw, error) {
	br := bufio.NewReader(r)
	header := make([]byte, edfHeaderSize)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, errors.Wrap(err, "edf: reading header")
	}

	nRecords, err := headerInt(header[236:244])
	if err != nil {
		return nil, errors.Wrap(err, "edf: number of data records")
	}
	recordDuration, err := headerFloat(header[244:252])
	if err != nil {
		return nil, errors.Wrap(err, "edf: record duration")
	}
	ns, err := headerInt(header[252:256])
	if err != nil {
		return nil, errors.Wrap(err, "edf: number of signals")
	}
	if ns <= 0 || nRecords <= 0 || recordDuration <= 0 {
		return nil, errors.NewValueError("ReadEDF", fmt.Sprintf("invalid header: %d signals, %d records, %g s", ns, nRecords, recordDuration))
	}

	sigHeader := make([]byte, ns*edfSignalHeader)
	if _, err := io.ReadFull(br, sigHeader); err != nil {
		return nil, errors.Wrap(err, "edf: reading signal headers")
	}
	signals, err := parseSignalHeaders(sigHeader, ns)
	if err != nil {
		return nil, err
	}

	annotIdx := -1
	var eeg []int
	for i, s := range signals {
		if s.label == annotationsLabel {
			annotIdx = i
			continue
		}
		eeg = append(eeg, i)
	}
	if len(eeg) == 0 {
		return nil, errors.NewValueError("ReadEDF", "no data channels")
	}
	perRecord := signals[eeg[0]].samplesPerRecord
	for _, i := range eeg {
		if signals[i].samplesPerRecord != perRecord {
			return nil, errors.NewValueError("ReadEDF", "channels with different sampling rates are not supported")
		}
	}

	raw := &Raw{
		Labels: make([]string, len(eeg)),
		SFreq:  float64(perRecord) / recordDuration,
		Data:   mat.NewDense(len(eeg), max(nRecords*perRecord, 1), nil),
	}
	for k, i := range eeg {
		raw.Labels[k] = signals[i].label
	}

	for rec := 0; rec < nRecords; rec++ {
		row := 0
		for i, s := range signals {
			buf := make([]byte, 2*s.samplesPerRecord)
			if _, err := io.ReadFull(br, buf); err != nil {
				return nil, errors.Wrapf(err, "edf: data record %d", rec)
			}
			if i == annotIdx {
				tals, err := parseTALs(buf)
				if err != nil {
					return nil, errors.Wrapf(err, "edf: annotations of record %d", rec)
				}
				raw.Annotations = append(raw.Annotations, tals...)
				continue
			}
			g := s.gain()
			for t := 0; t < s.samplesPerRecord; t++ {
				d := float64(int16(binary.LittleEndian.Uint16(buf[2*t:])))
				raw.Data.Set(row, rec*perRecord+t, (d-s.digMin)*g+s.physMin)
			}
			row++
		}
	}
	sortAnnotations(raw.Annotations)
	return raw, nil
}

func parseSignalHeaders(b []byte, ns int) ([]edfSignal, error) {
	// fields are stored column-wise: all labels, then all transducers, ...
	field := func(offset, width, i int) string {
		start := ns*offset + i*width
		return strings.TrimSpace(string(b[start : start+width]))
	}
	signals := make([]edfSignal, ns)
	for i := range signals {
		s := edfSignal{label: field(0, 16, i)}
		var err error
		vals := []*float64{&s.physMin, &s.physMax, &s.digMin, &s.digMax}
		for k, p := range vals {
			// label 16, transducer 80, physical dimension 8 precede the ranges
			if *p, err = strconv.ParseFloat(field(16+80+8+8*k, 8, i), 64); err != nil {
				return nil, errors.Wrapf(err, "edf: signal %d range", i)
			}
		}
		if s.digMax == s.digMin {
			return nil, errors.NewValueError("ReadEDF", fmt.Sprintf("signal %q has an empty digital range", s.label))
		}
		n, err := strconv.Atoi(field(16+80+8+32+80, 8, i))
		if err != nil || n <= 0 {
			return nil, errors.NewValueError("ReadEDF", fmt.Sprintf("signal %q: invalid samples per record", s.label))
		}
		s.samplesPerRecord = n
		signals[i] = s
	}
	return signals, nil
}

// parseTALs decodes Time-stamped Annotation Lists:
//
//	+onset[\x15duration]\x14text\x14[text\x14...]\x00
//
// TALs without text (record time keeping) are skipped.
func parseTALs(b []byte) ([]Annotation, error) {
	var out []Annotation
	for _, tal := range bytes.Split(b, []byte{0}) {
		if len(tal) == 0 {
			continue
		}
		parts := bytes.Split(tal, []byte{talTextDelimiter})
		timing := parts[0]
		var onsetStr, durStr []byte
		if i := bytes.IndexByte(timing, talOnsetDelimiter); i >= 0 {
			onsetStr, durStr = timing[:i], timing[i+1:]
		} else {
			onsetStr = timing
		}
		onset, err := strconv.ParseFloat(string(onsetStr), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "onset %q", onsetStr)
		}
		var duration float64
		if len(durStr) > 0 {
			if duration, err = strconv.ParseFloat(string(durStr), 64); err != nil {
				return nil, errors.Wrapf(err, "duration %q", durStr)
			}
		}
		for _, text := range parts[1:] {
			if len(text) == 0 {
				continue
			}
			out = append(out, Annotation{Onset: onset, Duration: duration, Description: string(text)})
		}
	}
	return out, nil
}

func headerInt(b []byte) (int, error) {
	return strconv.Atoi(strings.TrimSpace(string(b)))
}

func headerFloat(b []byte) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
}
