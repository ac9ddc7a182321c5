package raw

import (
	"math"
	"strings"

	"github.com/carbocation/eegmisc/edf"
)

// ToEDF re-quantizes the recording to 16 bits so it can be written with
// edf.Write. EEG channels are stored in uV.
func (r *Raw) ToEDF() *edf.File {
	n := r.NSamples()

	// Whole-second records when the rate allows it; otherwise the recording
	// goes out as a single record.
	duration := 1.0
	perRecord := int(r.SFreq)
	if float64(perRecord) != r.SFreq || perRecord < 1 || n%perRecord != 0 {
		perRecord = n
		duration = float64(n) / r.SFreq
	}

	out := &edf.File{
		Header: edf.Header{
			Patient:        truncate(r.Subject, 80),
			Recording:      truncate(r.Description, 80),
			Start:          r.MeasDate,
			RecordDuration: duration,
		},
		Signals:     make([]edf.Signal, 0, len(r.Channels)),
		Annotations: append([]edf.Annotation(nil), r.Annotations...),
	}

	for i, c := range r.Channels {
		unit, scale := DisplayUnit(c)
		out.Signals = append(out.Signals, quantize(truncate(c.Name, 16), unit, scale, perRecord, r.Data[i]))
	}

	return out
}

func quantize(label, unit string, scale float64, perRecord int, data []float64) edf.Signal {
	physMin, physMax := math.Inf(1), math.Inf(-1)
	for _, v := range data {
		physMin = math.Min(physMin, v*scale)
		physMax = math.Max(physMax, v*scale)
	}

	// Whole numbers always fit the 8-character header fields.
	physMin, physMax = math.Floor(physMin), math.Ceil(physMax)
	if physMax <= physMin {
		physMax = physMin + 1
	}

	s := edf.Signal{
		Label:             label,
		PhysicalDimension: unit,
		PhysicalMin:       physMin,
		PhysicalMax:       physMax,
		DigitalMin:        math.MinInt16,
		DigitalMax:        math.MaxInt16,
		SamplesPerRecord:  perRecord,
		Digital:           make([]int32, len(data)),
	}

	gain := (physMax - physMin) / float64(s.DigitalMax-s.DigitalMin)
	for i, v := range data {
		d := math.Round((v*scale-physMin)/gain) + float64(s.DigitalMin)
		s.Digital[i] = int32(math.Max(float64(s.DigitalMin), math.Min(float64(s.DigitalMax), d)))
	}

	return s
}

func truncate(s string, width int) string {
	s = strings.TrimSpace(s)
	if len(s) > width {
		return s[:width]
	}

	return s
}
