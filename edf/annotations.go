package edf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

const (
	talEnd       = 0x00
	talSeparator = 0x14
	talDuration  = 0x15
)

// parseTALs decodes the time-stamped annotation lists in one data record of an
// annotation signal. The first TAL of every record only keeps time: its onset
// is returned as the record onset and it is not reported as an annotation.
func parseTALs(chunk []byte) (float64, []Annotation, error) {
	var recordOnset float64
	var out []Annotation

	seenTimekeeping := false
	for _, tal := range bytes.Split(chunk, []byte{talEnd}) {
		if len(tal) == 0 {
			continue
		}

		fields := bytes.Split(tal, []byte{talSeparator})

		onset, duration, err := parseOnsetDuration(fields[0])
		if err != nil {
			return 0, nil, err
		}

		if !seenTimekeeping {
			seenTimekeeping = true
			recordOnset = onset
		}

		for _, text := range fields[1:] {
			if len(text) == 0 {
				continue
			}
			out = append(out, Annotation{
				Onset:       onset,
				Duration:    duration,
				Description: strings.TrimSpace(string(text)),
			})
		}
	}

	if !seenTimekeeping {
		return 0, nil, fmt.Errorf("annotation record has no time-keeping TAL")
	}

	return recordOnset, out, nil
}

func parseOnsetDuration(field []byte) (onset, duration float64, err error) {
	parts := bytes.SplitN(field, []byte{talDuration}, 2)

	if len(parts[0]) < 2 || (parts[0][0] != '+' && parts[0][0] != '-') {
		return 0, 0, fmt.Errorf("TAL onset %q must begin with + or -", parts[0])
	}

	onset, err = strconv.ParseFloat(string(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("TAL onset %q: %w", parts[0], err)
	}

	if len(parts) == 2 && len(parts[1]) > 0 {
		duration, err = strconv.ParseFloat(string(parts[1]), 64)
		if err != nil {
			return 0, 0, fmt.Errorf("TAL duration %q: %w", parts[1], err)
		}
	}

	return onset, duration, nil
}

// formatTAL encodes one TAL. An empty description yields a time-keeping TAL.
func formatTAL(onset, duration float64, descriptions ...string) []byte {
	var b bytes.Buffer

	if onset >= 0 {
		b.WriteByte('+')
	}
	b.WriteString(strconv.FormatFloat(onset, 'f', -1, 64))

	if duration > 0 {
		b.WriteByte(talDuration)
		b.WriteString(strconv.FormatFloat(duration, 'f', -1, 64))
	}

	b.WriteByte(talSeparator)
	if len(descriptions) == 0 {
		b.WriteByte(talSeparator)
	}
	for _, d := range descriptions {
		b.WriteString(d)
		b.WriteByte(talSeparator)
	}
	b.WriteByte(talEnd)

	return b.Bytes()
}
