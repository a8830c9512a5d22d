package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/mibench/mibench/pkg/errors"
	"github.com/mibench/mibench/pkg/log"
)

// Event descriptions assigned to the T0/T1/T2 run annotations.
var (
	ExecutionMapping = map[string]string{"T0": "rest", "T1": "do/feet", "T2": "do/hands"}
	ImageryMapping   = map[string]string{"T0": "rest", "T1": "imagine/feet", "T2": "imagine/hands"}
)

// DefaultEventID maps the epoched event descriptions to their codes.
// Labels are code-1.
var DefaultEventID = map[string]int{
	"do/feet":       1,
	"do/hands":      2,
	"imagine/feet":  3,
	"imagine/hands": 4,
}

// EEGBCIPath returns the location of one run of the PhysioNet EEG Motor
// Movement/Imagery dataset below root, e.g. root/S001/S001R04.edf.
func EEGBCIPath(root string, subject, run int) string {
	dir := fmt.Sprintf("S%03d", subject)
	return filepath.Join(root, dir, fmt.Sprintf("%sR%02d.edf", dir, run))
}

// ReadEDFFile opens and parses an EDF file.
func ReadEDFFile(path string) (*Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	raw, err := ReadEDF(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return raw, nil
}

// LoadOptions configures LoadRuns.
type LoadOptions struct {
	Logger log.Logger
}

// LoadRuns reads, for every subject, the execution runs and the paired
// imagery runs, relabels their annotations with ExecutionMapping and
// ImageryMapping and concatenates everything into one recording.
// actionRuns and imageryRuns must have the same length.
func LoadRuns(root string, subjects, actionRuns, imageryRuns []int, opts LoadOptions) (*Raw, error) {
	if len(subjects) == 0 || len(actionRuns) == 0 {
		return nil, errors.NewValidationError("subjects/action_tasks", "must not be empty", nil)
	}
	if len(actionRuns) != len(imageryRuns) {
		return nil, errors.NewValidationError("imaginary_tasks", "must have as many runs as action_tasks", len(imageryRuns))
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLogger()
	}

	var runs []*Raw
	load := func(subject, run int, mapping map[string]string) error {
		path := EEGBCIPath(root, subject, run)
		raw, err := ReadEDFFile(path)
		if err != nil {
			return err
		}
		raw.Annotations = Relabel(raw.Annotations, mapping)
		logger.Debug("run loaded",
			log.PhaseKey, log.PhaseLoading,
			log.SubjectKey, subject,
			log.RunKey, run,
			log.ChannelsKey, len(raw.Labels),
			log.SamplesKey, raw.NSamples(),
		)
		runs = append(runs, raw)
		return nil
	}
	for _, subject := range subjects {
		for k := range actionRuns {
			if err := load(subject, actionRuns[k], ExecutionMapping); err != nil {
				return nil, err
			}
			if err := load(subject, imageryRuns[k], ImageryMapping); err != nil {
				return nil, err
			}
		}
	}
	return Concatenate(runs)
}

// Relabel rewrites annotation descriptions through mapping; annotations with
// unmapped descriptions are dropped.
func Relabel(annotations []Annotation, mapping map[string]string) []Annotation {
	out := make([]Annotation, 0, len(annotations))
	for _, a := range annotations {
		if desc, ok := mapping[a.Description]; ok {
			a.Description = desc
			out = append(out, a)
		}
	}
	return out
}

// Concatenate joins recordings in time. All recordings must have the same
// channels and sampling rate; annotation onsets are shifted accordingly.
func Concatenate(raws []*Raw) (*Raw, error) {
	if len(raws) == 0 {
		return nil, errors.NewModelError("Concatenate", "no recordings", errors.ErrEmptyData)
	}
	first := raws[0]
	total := 0
	for i, r := range raws {
		if r.SFreq != first.SFreq {
			return nil, errors.NewValueError("Concatenate", fmt.Sprintf("recording %d has sampling rate %g, expected %g", i, r.SFreq, first.SFreq))
		}
		if !sameLabels(r.Labels, first.Labels) {
			return nil, errors.NewValueError("Concatenate", fmt.Sprintf("recording %d has different channels", i))
		}
		total += r.NSamples()
	}

	out := &Raw{
		Labels: append([]string(nil), first.Labels...),
		SFreq:  first.SFreq,
		Data:   mat.NewDense(len(first.Labels), total, nil),
	}
	offset := 0
	for _, r := range raws {
		n := r.NSamples()
		out.Data.Slice(0, len(first.Labels), offset, offset+n).(*mat.Dense).Copy(r.Data)
		shift := float64(offset) / first.SFreq
		for _, a := range r.Annotations {
			a.Onset += shift
			out.Annotations = append(out.Annotations, a)
		}
		offset += n
	}
	sortAnnotations(out.Annotations)
	return out, nil
}

func sameLabels(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortAnnotations(a []Annotation) {
	sort.SliceStable(a, func(i, j int) bool { return a[i].Onset < a[j].Onset })
}

// StandardizeLabels normalizes EEGBCI channel names ("Fc5.", "Cz..",
// "Fp1.") to the 10-05 convention ("FC5", "Cz", "Fp1").
func StandardizeLabels(raw *Raw) {
	for i, label := range raw.Labels {
		name := strings.ToUpper(strings.TrimRight(label, "."))
		name = strings.ReplaceAll(name, "Z", "z")
		name = strings.ReplaceAll(name, "FP", "Fp")
		raw.Labels[i] = name
	}
}
