package main

import (
	"archive/zip"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/carbocation/eegmisc/edf"
	"github.com/carbocation/eegmisc/montage"
	"github.com/carbocation/eegmisc/raw"
)

func writeFixture(t *testing.T, dir string) string {
	f := &edf.File{
		Header: edf.Header{
			Patient:        "X X X X",
			Recording:      "Startdate X X X X",
			Start:          time.Date(2009, 8, 12, 16, 15, 0, 0, time.UTC),
			RecordDuration: 1,
		},
	}

	for i, label := range []string{"Fp1.", "Cz..", "T9..", "T10.", "Oz.."} {
		s := edf.Signal{
			Label:             label,
			PhysicalDimension: "uV",
			PhysicalMin:       -8092,
			PhysicalMax:       8092,
			DigitalMin:        -8092,
			DigitalMax:        8092,
			SamplesPerRecord:  8,
			Digital:           make([]int32, 16),
		}
		for j := range s.Digital {
			s.Digital[j] = int32(100*i + 7*j)
		}
		f.Signals = append(f.Signals, s)
	}

	path := filepath.Join(dir, "S001R04.edf")
	out, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()

	if err := edf.Write(out, f); err != nil {
		t.Fatal(err)
	}

	return path
}

func defaultConfig(file string) config {
	return config{
		File:        file,
		Strip:       ".",
		MontageName: "easycap-M1",
		Drop:        splitList("T9,T10"),
		Reference:   splitList(raw.AverageReference),
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()

	cfg := defaultConfig(writeFixture(t, dir))
	cfg.PositionsOut = filepath.Join(dir, "positions.tsv")
	cfg.PNGOut = filepath.Join(dir, "plots.zip")
	cfg.EDFOut = filepath.Join(dir, "out.edf")

	if err := run(cfg); err != nil {
		t.Fatal(err)
	}

	// The positions file is itself a valid custom montage.
	m, err := montage.FromFile(cfg.PositionsOut, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Electrodes) != 3 {
		t.Fatalf("Expected 3 positioned channels, got %+v", m.Electrodes)
	}

	zr, err := zip.OpenReader(cfg.PNGOut)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	if len(zr.File) != 3 {
		t.Errorf("Expected 3 plots, got %d", len(zr.File))
	}

	back, err := raw.ReadEDF(cfg.EDFOut, nil)
	if err != nil {
		t.Fatal(err)
	}
	names := back.ChannelNames()
	if len(names) != 3 || names[0] != "Fp1" || names[1] != "Cz" || names[2] != "Oz" {
		t.Fatalf("Unexpected channels %v", names)
	}
}

func TestImportRecording(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir)

	r, err := raw.ReadEDF(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := importRecording(r, defaultConfig(path)); err != nil {
		t.Fatal(err)
	}

	for j := 0; j < r.NSamples(); j++ {
		sum := 0.0
		for i := range r.Data {
			sum += r.Data[i][j]
		}
		if math.Abs(sum) > 1e-15 {
			t.Fatalf("Channels sum to %g at sample %d after average referencing", sum, j)
		}
	}

	// A second pass over the same, already transformed, recording fails on
	// the drop step.
	if err := importRecording(r, defaultConfig(path)); err == nil {
		t.Fatal("Expected the second pass to fail")
	}
}

func TestImportRecordingWithoutDrop(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir)

	r, err := raw.ReadEDF(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	cfg := defaultConfig(path)
	cfg.Drop = nil
	if err := importRecording(r, cfg); err == nil {
		t.Fatal("Expected T9/T10 to have no position in easycap-M1")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" T9, T10 ,,")
	if len(got) != 2 || got[0] != "T9" || got[1] != "T10" {
		t.Fatalf("Got %q", got)
	}
	if splitList("") != nil {
		t.Fatal("Expected nil for an empty list")
	}
}

func TestChannelValues(t *testing.T) {
	for _, v := range []struct {
		Channel  raw.Channel
		Unit     string
		Expected float64
	}{
		{raw.Channel{Name: "Cz", Kind: raw.KindEEG, OrigUnit: "uV"}, "uV", 2},
		{raw.Channel{Name: "Temp", Kind: raw.KindMisc, OrigUnit: "degC"}, "degC", 2e-6},
	} {
		unit, vals := channelValues(v.Channel, []float64{2e-6})
		if unit != v.Unit {
			t.Errorf("%s: plotted in %s, expected %s", v.Channel.Name, unit, v.Unit)
		}
		if math.Abs(vals[0]-v.Expected) > 1e-12 {
			t.Errorf("%s: plotted %g, expected %g", v.Channel.Name, vals[0], v.Expected)
		}
	}
}
