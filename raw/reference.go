package raw

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// AverageReference is the SetEEGReference argument for a common average
// reference.
const AverageReference = "average"

// SetEEGReference re-references every EEG channel in place.
//
// With the single argument "average", the mean across all EEG channels is
// subtracted at every sample. With channel names, the mean of those channels
// is subtracted instead. With no arguments the data is taken to be referenced
// already and is left untouched.
func (r *Raw) SetEEGReference(ref ...string) error {
	if len(ref) == 0 {
		r.Reference = "none"
		return nil
	}

	eeg := r.eegIndices()
	if len(eeg) == 0 {
		return fmt.Errorf("no EEG channels to re-reference")
	}

	var refIdx []int
	if len(ref) == 1 && ref[0] == AverageReference {
		refIdx = eeg
	} else {
		var missing []string
		for _, name := range ref {
			idx := r.ChannelIndex(name)
			if idx < 0 {
				missing = append(missing, name)
				continue
			}
			refIdx = append(refIdx, idx)
		}
		if len(missing) > 0 {
			return fmt.Errorf("reference channel(s) %s not found", strings.Join(missing, ", "))
		}
	}

	signal := r.referenceSignal(refIdx)
	for _, i := range eeg {
		floats.Sub(r.Data[i], signal)
	}

	r.Reference = strings.Join(ref, ",")

	return nil
}

// referenceSignal is the per-sample mean over the given channels.
func (r *Raw) referenceSignal(idx []int) []float64 {
	out := make([]float64, r.NSamples())
	for _, i := range idx {
		floats.Add(out, r.Data[i])
	}
	floats.Scale(1/float64(len(idx)), out)

	return out
}

func (r *Raw) eegIndices() []int {
	out := make([]int, 0, len(r.Channels))
	for i, c := range r.Channels {
		if c.Kind == KindEEG {
			out = append(out, i)
		}
	}

	return out
}
