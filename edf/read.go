package edf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/carbocation/pfx"
)

const (
	// maxRecordBytes bounds one data record. A 256-channel BDF sampled at
	// 16 kHz needs about 12 MiB.
	maxRecordBytes = 1 << 25

	// maxPreallocSamples bounds the per-signal capacity reserved from the
	// header before any data has been read.
	maxPreallocSamples = 1 << 20
)

// Read parses an entire EDF, EDF+ or BDF recording from r, materializing every
// sample in memory.
func Read(r io.Reader) (*File, error) {
	return ReadSized(r, -1)
}

// ReadSized is Read for a stream of known length. When size is non-negative
// and the header states its record count, the header and data records must
// account for exactly size bytes.
func ReadSized(r io.Reader, size int64) (*File, error) {
	hdr, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	signals, err := readSignalHeaders(r, hdr.NumSignals)
	if err != nil {
		return nil, err
	}

	f := &File{Header: hdr, Signals: signals}

	recordSize, err := f.recordSize()
	if err != nil {
		return nil, err
	}

	if size >= 0 && f.NumRecords >= 0 {
		if expected := int64(f.HeaderBytes) + int64(f.NumRecords)*int64(recordSize); expected != size {
			return nil, fmt.Errorf("header describes %d bytes (%d records of %d bytes) but the file has %d", expected, f.NumRecords, recordSize, size)
		}
	}

	if err := f.readRecords(r, recordSize); err != nil {
		return nil, err
	}

	return f, nil
}

func readHeader(r io.Reader) (Header, error) {
	out := Header{}

	buf := make([]byte, headerBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return out, pfx.Err(fmt.Errorf("reading the fixed header: %w", err))
	}

	if buf[0] == 0xFF {
		out.BDF = true
		out.Version = strings.TrimSpace(string(buf[1:8]))
	} else {
		out.Version = strings.TrimSpace(string(buf[0:8]))
		if out.Version != "0" {
			return out, fmt.Errorf("unsupported EDF version %q", out.Version)
		}
	}

	out.Patient = strings.TrimSpace(string(buf[8:88]))
	out.Recording = strings.TrimSpace(string(buf[88:168]))

	start, err := parseStart(string(buf[168:176]), string(buf[176:184]))
	if err != nil {
		return out, err
	}
	out.Start = start

	if out.HeaderBytes, err = atoi("number of header bytes", buf[184:192]); err != nil {
		return out, err
	}
	out.Reserved = strings.TrimSpace(string(buf[192:236]))
	if out.NumRecords, err = atoi("number of data records", buf[236:244]); err != nil {
		return out, err
	}
	if out.RecordDuration, err = atof("data record duration", buf[244:252]); err != nil {
		return out, err
	}
	if out.NumSignals, err = atoi("number of signals", buf[252:256]); err != nil {
		return out, err
	}

	if out.NumSignals < 1 {
		return out, fmt.Errorf("header declares %d signals", out.NumSignals)
	}
	if out.NumRecords < -1 {
		return out, fmt.Errorf("header declares %d data records", out.NumRecords)
	}
	if expected := headerBytes + out.NumSignals*signalHeaderBytes; out.HeaderBytes != expected {
		return out, fmt.Errorf("header declares %d bytes but %d signals require %d", out.HeaderBytes, out.NumSignals, expected)
	}

	return out, nil
}

// parseStart decodes the dd.mm.yy and hh.mm.ss fields. Two-digit years 85-99
// are 19xx, all others 20xx.
func parseStart(date, clock string) (time.Time, error) {
	d, err := splitTriplet("start date", date)
	if err != nil {
		return time.Time{}, err
	}
	c, err := splitTriplet("start time", clock)
	if err != nil {
		return time.Time{}, err
	}

	year := 2000 + d[2]
	if d[2] >= 85 {
		year = 1900 + d[2]
	}

	if d[1] < 1 || d[1] > 12 || d[0] < 1 || d[0] > 31 || c[0] > 23 || c[1] > 59 || c[2] > 59 {
		return time.Time{}, fmt.Errorf("invalid start date/time %q %q", date, clock)
	}

	return time.Date(year, time.Month(d[1]), d[0], c[0], c[1], c[2], 0, time.UTC), nil
}

func splitTriplet(field, value string) ([3]int, error) {
	out := [3]int{}

	parts := strings.Split(strings.TrimSpace(value), ".")
	if len(parts) != 3 {
		return out, fmt.Errorf("%s %q is not of the form xx.xx.xx", field, value)
	}

	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return out, fmt.Errorf("%s %q is not of the form xx.xx.xx", field, value)
		}
		out[i] = v
	}

	return out, nil
}

func readSignalHeaders(r io.Reader, ns int) ([]Signal, error) {
	buf := make([]byte, ns*signalHeaderBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, pfx.Err(fmt.Errorf("reading %d signal headers: %w", ns, err))
	}

	// Each field is stored for all signals before the next field begins.
	cursor := 0
	next := func(width int) []string {
		out := make([]string, ns)
		for i := range out {
			out[i] = strings.TrimSpace(string(buf[cursor : cursor+width]))
			cursor += width
		}
		return out
	}

	labels := next(16)
	transducers := next(80)
	dims := next(8)
	physMins := next(8)
	physMaxs := next(8)
	digMins := next(8)
	digMaxs := next(8)
	prefilters := next(80)
	samples := next(8)
	reserved := next(32)

	signals := make([]Signal, ns)
	for i := range signals {
		s := Signal{
			Label:             labels[i],
			Transducer:        transducers[i],
			PhysicalDimension: dims[i],
			Prefiltering:      prefilters[i],
			Reserved:          reserved[i],
		}

		var err error
		if s.PhysicalMin, err = atof("physical minimum", []byte(physMins[i])); err != nil {
			return nil, fmt.Errorf("signal %d (%s): %w", i, s.Label, err)
		}
		if s.PhysicalMax, err = atof("physical maximum", []byte(physMaxs[i])); err != nil {
			return nil, fmt.Errorf("signal %d (%s): %w", i, s.Label, err)
		}
		if s.DigitalMin, err = atoi("digital minimum", []byte(digMins[i])); err != nil {
			return nil, fmt.Errorf("signal %d (%s): %w", i, s.Label, err)
		}
		if s.DigitalMax, err = atoi("digital maximum", []byte(digMaxs[i])); err != nil {
			return nil, fmt.Errorf("signal %d (%s): %w", i, s.Label, err)
		}
		if s.SamplesPerRecord, err = atoi("number of samples per record", []byte(samples[i])); err != nil {
			return nil, fmt.Errorf("signal %d (%s): %w", i, s.Label, err)
		}

		if s.SamplesPerRecord < 1 {
			return nil, fmt.Errorf("signal %d (%s) has %d samples per record", i, s.Label, s.SamplesPerRecord)
		}
		if !s.IsAnnotation() && s.DigitalMax <= s.DigitalMin {
			return nil, fmt.Errorf("signal %d (%s) has digital maximum %d <= digital minimum %d", i, s.Label, s.DigitalMax, s.DigitalMin)
		}

		signals[i] = s
	}

	return signals, nil
}

// recordSize is the number of bytes in one data record.
func (f *File) recordSize() (int, error) {
	width := f.sampleWidth()

	out := 0
	for i, s := range f.Signals {
		if s.SamplesPerRecord > maxRecordBytes/width {
			return 0, fmt.Errorf("signal %d (%s) declares %d samples per record", i, s.Label, s.SamplesPerRecord)
		}
		out += s.SamplesPerRecord * width
		if out > maxRecordBytes {
			return 0, fmt.Errorf("data records of %d or more bytes are not supported", out)
		}
	}

	return out, nil
}

func (f *File) readRecords(r io.Reader, recordSize int) error {
	width := f.sampleWidth()

	if f.NumRecords > 0 {
		for i, s := range f.Signals {
			if s.IsAnnotation() {
				continue
			}
			n := int64(s.SamplesPerRecord) * int64(f.NumRecords)
			if n > maxPreallocSamples {
				n = maxPreallocSamples
			}
			f.Signals[i].Digital = make([]int32, 0, int(n))
		}
	}

	var firstOnset float64
	record := make([]byte, recordSize)

	for i := 0; f.NumRecords < 0 || i < f.NumRecords; i++ {
		if _, err := io.ReadFull(r, record); err != nil {
			if f.NumRecords < 0 && errors.Is(err, io.EOF) {
				// Record count was unknown and we ended on a record boundary.
				f.NumRecords = i
				break
			}
			return pfx.Err(fmt.Errorf("reading data record %d: %w", i, err))
		}

		cursor := 0
		for j := range f.Signals {
			s := &f.Signals[j]
			chunk := record[cursor : cursor+s.SamplesPerRecord*width]
			cursor += len(chunk)

			if s.IsAnnotation() {
				onset, annots, err := parseTALs(chunk)
				if err != nil {
					return fmt.Errorf("data record %d: %w", i, err)
				}
				if i == 0 {
					firstOnset = onset
				}
				f.Annotations = append(f.Annotations, annots...)
				continue
			}

			s.Digital = appendSamples(s.Digital, chunk, width)
		}
	}

	// Onsets in the file are relative to the start time in the header; report
	// them relative to the first record so they line up with the samples.
	for i := range f.Annotations {
		f.Annotations[i].Onset -= firstOnset
	}

	return nil
}

func appendSamples(dst []int32, chunk []byte, width int) []int32 {
	if width == 3 {
		for k := 0; k+2 < len(chunk); k += 3 {
			v := int32(chunk[k]) | int32(chunk[k+1])<<8 | int32(int8(chunk[k+2]))<<16
			dst = append(dst, v)
		}
		return dst
	}

	for k := 0; k+1 < len(chunk); k += 2 {
		dst = append(dst, int32(int16(binary.LittleEndian.Uint16(chunk[k:]))))
	}

	return dst
}

func atoi(field string, value []byte) (int, error) {
	v, err := strconv.Atoi(string(bytes.TrimSpace(value)))
	if err != nil {
		return 0, fmt.Errorf("%s %q is not an integer", field, value)
	}

	return v, nil
}

func atof(field string, value []byte) (float64, error) {
	v, err := strconv.ParseFloat(string(bytes.TrimSpace(value)), 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number", field, value)
	}

	return v, nil
}
