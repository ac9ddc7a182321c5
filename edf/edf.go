// Package edf reads and writes European Data Format recordings, including the
// EDF+ annotation channel and 24-bit BDF files.
//
// See https://www.edfplus.info/specs/edf.html and
// https://www.edfplus.info/specs/edfplus.html
package edf

import (
	"strings"
	"time"
)

const (
	// AnnotationLabel is the signal label reserved by EDF+ for time-stamped
	// annotation lists.
	AnnotationLabel = "EDF Annotations"

	// BDFAnnotationLabel is the same signal in BDF+ files.
	BDFAnnotationLabel = "BDF Annotations"

	headerBytes       = 256
	signalHeaderBytes = 256
)

// Header holds the fixed 256-byte portion of an EDF header.
type Header struct {
	Version        string
	Patient        string
	Recording      string
	Start          time.Time
	HeaderBytes    int
	Reserved       string // "EDF+C", "EDF+D", "24BIT" or blank
	NumRecords     int
	RecordDuration float64 // seconds
	NumSignals     int

	// BDF files store 24-bit samples and begin with 0xFF instead of "0".
	BDF bool
}

// Plus reports whether the header declares EDF+.
func (h Header) Plus() bool {
	return strings.HasPrefix(h.Reserved, "EDF+")
}

// SampleRate returns the sampling frequency of s in Hz.
func (h Header) SampleRate(s Signal) float64 {
	if h.RecordDuration <= 0 {
		return 0
	}

	return float64(s.SamplesPerRecord) / h.RecordDuration
}

func (h Header) sampleWidth() int {
	if h.BDF {
		return 3
	}

	return 2
}

// Signal is one channel of an EDF file: its header fields and every digital
// sample, with all data records concatenated.
type Signal struct {
	Label             string
	Transducer        string
	PhysicalDimension string
	PhysicalMin       float64
	PhysicalMax       float64
	DigitalMin        int
	DigitalMax        int
	Prefiltering      string
	SamplesPerRecord  int
	Reserved          string

	Digital []int32
}

// IsAnnotation reports whether s is an EDF+ or BDF+ annotation signal.
func (s Signal) IsAnnotation() bool {
	switch strings.TrimSpace(s.Label) {
	case AnnotationLabel, BDFAnnotationLabel:
		return true
	}

	return false
}

// Gain and offset map a digital value d to a physical value gain*d + offset.
func (s Signal) scaling() (gain, offset float64) {
	gain = (s.PhysicalMax - s.PhysicalMin) / float64(s.DigitalMax-s.DigitalMin)
	offset = s.PhysicalMin - gain*float64(s.DigitalMin)

	return gain, offset
}

// Physical returns the samples of s converted to physical units.
func (s Signal) Physical() []float64 {
	gain, offset := s.scaling()

	out := make([]float64, len(s.Digital))
	for i, d := range s.Digital {
		out[i] = gain*float64(d) + offset
	}

	return out
}

// Annotation is one entry of an EDF+ time-stamped annotation list. Onset is
// in seconds relative to the start of the first data record.
type Annotation struct {
	Onset       float64
	Duration    float64
	Description string
}

// File is a fully materialized EDF recording.
type File struct {
	Header
	Signals     []Signal
	Annotations []Annotation
}

// DataSignals returns the signals that carry samples, skipping annotation
// signals.
func (f *File) DataSignals() []Signal {
	out := make([]Signal, 0, len(f.Signals))
	for _, s := range f.Signals {
		if s.IsAnnotation() {
			continue
		}
		out = append(out, s)
	}

	return out
}
