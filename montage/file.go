package montage

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/eegmisc"
	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

type electrodeRow struct {
	Name string  `csv:"name"`
	X    float64 `csv:"x"`
	Y    float64 `csv:"y"`
	Z    float64 `csv:"z"`
}

// FromFile reads a custom montage from a CSV or TSV file (local or gs://) with
// the header name,x,y,z and coordinates in meters. The delimiter is taken from
// the extension when it is .csv or .tsv, and sniffed otherwise.
func FromFile(path string, client *storage.Client) (*Montage, error) {
	f, _, err := eegmisc.MaybeOpenFromGoogleStorage(path, client)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fileBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return Parse(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), fileBytes, delimiterFor(path, fileBytes))
}

func delimiterFor(path string, fileBytes []byte) rune {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ','
	case ".tsv", ".txt":
		return '\t'
	}

	return eegmisc.DetermineDelimiter(fileBytes, ',')
}

// Parse decodes a name,x,y,z table delimited by comma.
func Parse(name string, fileBytes []byte, comma rune) (*Montage, error) {
	records := []*electrodeRow{}

	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = comma
		r.TrimLeadingSpace = true
		return r
	})

	if err := gocsv.UnmarshalBytes(fileBytes, &records); err != nil {
		return nil, pfx.Err(fmt.Errorf("montage %s: %w", name, err))
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("montage %s has no electrodes", name)
	}

	out := &Montage{Name: name, Electrodes: make([]Electrode, 0, len(records))}
	for i, r := range records {
		if r.Name == "" {
			return nil, fmt.Errorf("montage %s: electrode %d has no name", name, i+1)
		}
		out.Electrodes = append(out.Electrodes, Electrode{Name: r.Name, Position: Position{X: r.X, Y: r.Y, Z: r.Z}})
	}

	return out, nil
}
