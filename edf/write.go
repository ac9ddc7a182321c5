package edf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/carbocation/pfx"
)

// Write encodes f as a 16-bit EDF file. Any annotation signals in f.Signals
// are ignored; instead, if f.Annotations is non-empty, a fresh EDF+
// annotation signal is generated and the file is marked EDF+C.
func Write(w io.Writer, f *File) error {
	if f.BDF {
		return fmt.Errorf("writing 24-bit BDF files is not supported")
	}
	if f.RecordDuration <= 0 {
		return fmt.Errorf("record duration must be positive, got %v", f.RecordDuration)
	}

	signals := f.DataSignals()
	if len(signals) == 0 {
		return fmt.Errorf("no data signals to write")
	}

	nRecords, err := countRecords(signals)
	if err != nil {
		return err
	}

	hdr := f.Header
	hdr.NumRecords = nRecords

	var tals [][]byte
	if len(f.Annotations) > 0 {
		if nRecords == 0 {
			return fmt.Errorf("%d annotations but no data records to carry them", len(f.Annotations))
		}
		var annot Signal
		tals, annot = buildAnnotationRecords(f.Annotations, nRecords, f.RecordDuration)
		signals = append(signals, annot)
		hdr.Reserved = "EDF+C"
	}

	hdr.NumSignals = len(signals)
	hdr.HeaderBytes = headerBytes + hdr.NumSignals*signalHeaderBytes

	bw := bufio.NewWriter(w)

	if err := writeHeader(bw, hdr, signals); err != nil {
		return err
	}

	sample := make([]byte, 2)
	for rec := 0; rec < nRecords; rec++ {
		for _, s := range signals {
			if s.IsAnnotation() {
				block := make([]byte, 2*s.SamplesPerRecord)
				copy(block, tals[rec])
				if _, err := bw.Write(block); err != nil {
					return pfx.Err(err)
				}
				continue
			}

			for _, d := range s.Digital[rec*s.SamplesPerRecord : (rec+1)*s.SamplesPerRecord] {
				if d < math.MinInt16 || d > math.MaxInt16 {
					return fmt.Errorf("signal %s: digital value %d does not fit in 16 bits", s.Label, d)
				}
				binary.LittleEndian.PutUint16(sample, uint16(int16(d)))
				if _, err := bw.Write(sample); err != nil {
					return pfx.Err(err)
				}
			}
		}
	}

	return pfx.Err(bw.Flush())
}

func countRecords(signals []Signal) (int, error) {
	nRecords := -1
	for _, s := range signals {
		if s.SamplesPerRecord < 1 {
			return 0, fmt.Errorf("signal %s has %d samples per record", s.Label, s.SamplesPerRecord)
		}
		if len(s.Digital)%s.SamplesPerRecord != 0 {
			return 0, fmt.Errorf("signal %s has %d samples, which is not a whole number of %d-sample records", s.Label, len(s.Digital), s.SamplesPerRecord)
		}

		n := len(s.Digital) / s.SamplesPerRecord
		if nRecords >= 0 && n != nRecords {
			return 0, fmt.Errorf("signal %s spans %d records but earlier signals span %d", s.Label, n, nRecords)
		}
		nRecords = n
	}

	return nRecords, nil
}

// buildAnnotationRecords places every annotation in the record that contains
// its onset, after that record's time-keeping TAL.
func buildAnnotationRecords(annots []Annotation, nRecords int, duration float64) ([][]byte, Signal) {
	tals := make([][]byte, nRecords)
	for i := range tals {
		tals[i] = formatTAL(float64(i)*duration, 0)
	}

	for _, a := range annots {
		rec := int(math.Floor(a.Onset / duration))
		if rec < 0 {
			rec = 0
		}
		if rec >= nRecords {
			rec = nRecords - 1
		}
		tals[rec] = append(tals[rec], formatTAL(a.Onset, a.Duration, a.Description)...)
	}

	longest := 0
	for _, t := range tals {
		if len(t) > longest {
			longest = len(t)
		}
	}

	return tals, Signal{
		Label:            AnnotationLabel,
		PhysicalMin:      -1,
		PhysicalMax:      1,
		DigitalMin:       math.MinInt16,
		DigitalMax:       math.MaxInt16,
		SamplesPerRecord: (longest + 1) / 2,
	}
}

func writeHeader(w io.Writer, hdr Header, signals []Signal) error {
	fields := []struct {
		value string
		width int
	}{
		{"0", 8},
		{hdr.Patient, 80},
		{hdr.Recording, 80},
		{hdr.Start.Format("02.01.06"), 8},
		{hdr.Start.Format("15.04.05"), 8},
		{strconv.Itoa(hdr.HeaderBytes), 8},
		{hdr.Reserved, 44},
		{strconv.Itoa(hdr.NumRecords), 8},
		{formatNumber(hdr.RecordDuration), 8},
		{strconv.Itoa(hdr.NumSignals), 4},
	}

	for _, fld := range fields {
		if err := writeField(w, fld.value, fld.width); err != nil {
			return err
		}
	}

	perSignal := []struct {
		width int
		value func(Signal) string
	}{
		{16, func(s Signal) string { return s.Label }},
		{80, func(s Signal) string { return s.Transducer }},
		{8, func(s Signal) string { return s.PhysicalDimension }},
		{8, func(s Signal) string { return formatNumber(s.PhysicalMin) }},
		{8, func(s Signal) string { return formatNumber(s.PhysicalMax) }},
		{8, func(s Signal) string { return strconv.Itoa(s.DigitalMin) }},
		{8, func(s Signal) string { return strconv.Itoa(s.DigitalMax) }},
		{80, func(s Signal) string { return s.Prefiltering }},
		{8, func(s Signal) string { return strconv.Itoa(s.SamplesPerRecord) }},
		{32, func(s Signal) string { return s.Reserved }},
	}

	for _, fld := range perSignal {
		for _, s := range signals {
			if err := writeField(w, fld.value(s), fld.width); err != nil {
				return fmt.Errorf("signal %s: %w", s.Label, err)
			}
		}
	}

	return nil
}

// writeField writes value left-aligned and space padded to width bytes.
func writeField(w io.Writer, value string, width int) error {
	if len(value) > width {
		return fmt.Errorf("header value %q is longer than %d bytes", value, width)
	}

	buf := make([]byte, width)
	copy(buf, value)
	for i := len(value); i < width; i++ {
		buf[i] = ' '
	}

	_, err := w.Write(buf)
	return pfx.Err(err)
}

// formatNumber renders v in at most 8 characters, dropping decimal places as
// needed.
func formatNumber(v float64) string {
	out := strconv.FormatFloat(v, 'f', -1, 64)
	for prec := 7; len(out) > 8 && prec >= 0; prec-- {
		out = strconv.FormatFloat(v, 'f', prec, 64)
	}

	return out
}
