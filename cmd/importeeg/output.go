package main

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/carbocation/eegmisc/raw"
	"github.com/gocarina/gocsv"
)

type positionRow struct {
	Name string  `csv:"name"`
	X    float64 `csv:"x"`
	Y    float64 `csv:"y"`
	Z    float64 `csv:"z"`
}

func tabWriter(w io.Writer) *gocsv.SafeCSVWriter {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	return gocsv.NewSafeCSVWriter(cw)
}

func writeDescription(w io.Writer, desc []raw.ChannelDescription) error {
	return gocsv.MarshalCSV(&desc, tabWriter(w))
}

// writePositions writes the channels that have a position, in channel order,
// in the same name,x,y,z layout that -montage-file accepts.
func writePositions(path string, r *raw.Raw) error {
	rows := make([]positionRow, 0, len(r.Channels))
	for _, c := range r.Channels {
		if c.Loc == nil {
			continue
		}
		rows = append(rows, positionRow{Name: c.Name, X: c.Loc.X, Y: c.Loc.Y, Z: c.Loc.Z})
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := gocsv.MarshalCSV(&rows, tabWriter(f)); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
