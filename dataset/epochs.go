package dataset

import (
	"fmt"
	"math"

	"github.com/mibench/mibench/core/tensor"
	"github.com/mibench/mibench/pkg/errors"
)

// Event is an annotation located on the sample grid.
type Event struct {
	Sample      int
	Code        int
	Description string
}

// Events converts the annotations whose description appears in eventID into
// sample-indexed events, in onset order.
func Events(raw *Raw, eventID map[string]int) []Event {
	var events []Event
	for _, a := range raw.Annotations {
		code, ok := eventID[a.Description]
		if !ok {
			continue
		}
		events = append(events, Event{
			Sample:      int(math.Round(a.Onset * raw.SFreq)),
			Code:        code,
			Description: a.Description,
		})
	}
	return events
}

// Epochs cuts a [tmin, tmax] second window (both ends included) around every
// event whose description is in eventID. Windows that cross the recording
// bounds are dropped. The label of an epoch is its event code minus one.
func Epochs(raw *Raw, events []Event, eventID map[string]int, tmin, tmax float64) (*tensor.Dense3, []int, error) {
	if tmax <= tmin {
		return nil, nil, errors.NewValidationError("tmax", fmt.Sprintf("must be greater than tmin (%g)", tmin), tmax)
	}
	offset := int(math.Round(tmin * raw.SFreq))
	length := int(math.Round((tmax-tmin)*raw.SFreq)) + 1
	nSamples := raw.NSamples()

	var kept []Event
	for _, ev := range events {
		if _, ok := eventID[ev.Description]; !ok {
			continue
		}
		start := ev.Sample + offset
		if start < 0 || start+length > nSamples {
			continue
		}
		kept = append(kept, ev)
	}
	if len(kept) == 0 {
		return nil, nil, errors.NewModelError("Epochs", "no event fits inside the recording", errors.ErrEmptyData)
	}

	channels := len(raw.Labels)
	X := tensor.New(len(kept), channels, length, nil)
	y := make([]int, len(kept))
	for i, ev := range kept {
		start := ev.Sample + offset
		for c := 0; c < channels; c++ {
			row := raw.Data.RawRowView(c)[start : start+length]
			for t, v := range row {
				X.Set(i, c, t, v)
			}
		}
		y[i] = eventID[ev.Description] - 1
	}
	return X, y, nil
}
