// Package raw holds a continuous EEG recording in memory and implements the
// in-place operations applied to it after loading: renaming and dropping
// channels, binding electrode positions, and re-referencing.
package raw

import (
	"fmt"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/carbocation/eegmisc"
	"github.com/carbocation/eegmisc/edf"
	"github.com/carbocation/eegmisc/montage"
)

// Kind separates EEG channels, which take part in montages and referencing,
// from everything else.
type Kind string

const (
	KindEEG  Kind = "eeg"
	KindMisc Kind = "misc"
)

// Channel describes one row of Raw.Data. Loc is nil until a montage has been
// applied.
type Channel struct {
	Name string
	Kind Kind

	// OrigUnit is the physical dimension declared in the source file. Data is
	// always stored in volts.
	OrigUnit string

	Loc *montage.Position
}

// Raw is a fully loaded recording. Data is indexed [channel][sample] and is in
// volts.
type Raw struct {
	Channels []Channel
	Data     [][]float64
	SFreq    float64

	MeasDate    time.Time
	Subject     string
	Description string
	Annotations []edf.Annotation

	// Montage names the layout bound by SetMontage, if any.
	Montage string

	// Reference is empty until SetEEGReference is called, then holds
	// "average", "none", or the comma-joined reference channels.
	Reference string
}

// ReadEDF loads an EDF, EDF+ or BDF file from a local path or from gs://. The
// file may be compressed. client may be nil for local paths.
func ReadEDF(path string, client *storage.Client) (*Raw, error) {
	f, size, err := eegmisc.MaybeOpenFromGoogleStorage(path, client)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rc, dt, err := eegmisc.MaybeDecompress(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer rc.Close()

	// The stored size only describes the EDF itself when it isn't compressed.
	if dt != eegmisc.DataTypeNoCompression {
		log.Printf("Reading %s as %s\n", path, dt)
		size = -1
	}

	ef, err := edf.ReadSized(rc, size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	out, err := FromEDF(ef)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return out, nil
}

// FromEDF converts the data signals of f into a Raw. Annotation signals are
// decoded into Raw.Annotations rather than kept as channels. All data signals
// must share one sampling rate.
func FromEDF(f *edf.File) (*Raw, error) {
	signals := f.DataSignals()
	if len(signals) == 0 {
		return nil, fmt.Errorf("the file contains no data signals")
	}

	out := &Raw{
		SFreq:       f.SampleRate(signals[0]),
		MeasDate:    f.Start,
		Subject:     f.Patient,
		Description: f.Recording,
		Channels:    make([]Channel, 0, len(signals)),
		Data:        make([][]float64, 0, len(signals)),
		Annotations: append([]edf.Annotation(nil), f.Annotations...),
	}

	if out.SFreq <= 0 {
		return nil, fmt.Errorf("invalid sampling rate %v", out.SFreq)
	}

	seen := make(map[string]struct{}, len(signals))
	for _, s := range signals {
		if rate := f.SampleRate(s); rate != out.SFreq {
			return nil, fmt.Errorf("channel %s is sampled at %v Hz but %s is sampled at %v Hz; mixed rates are not supported", s.Label, rate, signals[0].Label, out.SFreq)
		}

		if _, exists := seen[s.Label]; exists {
			return nil, fmt.Errorf("channel name %s appears more than once", s.Label)
		}
		seen[s.Label] = struct{}{}

		scale := UnitScale(s.PhysicalDimension)
		data := s.Physical()
		for i := range data {
			data[i] *= scale
		}

		kind := KindEEG
		if !isVoltage(s.PhysicalDimension) {
			kind = KindMisc
		}

		out.Channels = append(out.Channels, Channel{
			Name:     s.Label,
			Kind:     kind,
			OrigUnit: s.PhysicalDimension,
		})
		out.Data = append(out.Data, data)
	}

	return out, nil
}

// UnitScale returns the factor that converts a physical dimension to volts.
// Unknown dimensions are left as-is.
func UnitScale(dimension string) float64 {
	switch strings.TrimSpace(dimension) {
	case "uV", "µV", "μV":
		return 1e-6
	case "mV":
		return 1e-3
	case "nV":
		return 1e-9
	}

	return 1
}

// isVoltage reports whether a physical dimension is a voltage. A blank
// dimension is treated as one, since many EEG writers leave it empty.
func isVoltage(dimension string) bool {
	switch strings.TrimSpace(dimension) {
	case "", "V", "uV", "µV", "μV", "mV", "nV":
		return true
	}

	return false
}

// NSamples is the number of samples in each channel.
func (r *Raw) NSamples() int {
	if len(r.Data) == 0 {
		return 0
	}

	return len(r.Data[0])
}

// Duration of the recording.
func (r *Raw) Duration() time.Duration {
	return time.Duration(float64(r.NSamples()) / r.SFreq * float64(time.Second))
}

// Times returns the time, in seconds, of every sample.
func (r *Raw) Times() []float64 {
	out := make([]float64, r.NSamples())
	for i := range out {
		out[i] = float64(i) / r.SFreq
	}

	return out
}

func (r *Raw) ChannelNames() []string {
	out := make([]string, len(r.Channels))
	for i, c := range r.Channels {
		out[i] = c.Name
	}

	return out
}

// ChannelIndex returns the position of the channel called name, or -1.
func (r *Raw) ChannelIndex(name string) int {
	for i, c := range r.Channels {
		if c.Name == name {
			return i
		}
	}

	return -1
}

// Copy returns a deep copy of r.
func (r *Raw) Copy() *Raw {
	out := *r

	out.Channels = make([]Channel, len(r.Channels))
	for i, c := range r.Channels {
		if c.Loc != nil {
			loc := *c.Loc
			c.Loc = &loc
		}
		out.Channels[i] = c
	}

	out.Data = make([][]float64, len(r.Data))
	for i, row := range r.Data {
		out.Data[i] = append([]float64(nil), row...)
	}

	out.Annotations = append([]edf.Annotation(nil), r.Annotations...)

	return &out
}

func (r *Raw) String() string {
	return fmt.Sprintf("<Raw | %d channels x %d samples (%.1f s) at %v Hz, montage %q, reference %q>",
		len(r.Channels), r.NSamples(), r.Duration().Seconds(), r.SFreq, r.Montage, r.Reference)
}
