package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/eegmisc"
	_ "github.com/carbocation/eegmisc/compileinfoprint"
	"github.com/carbocation/eegmisc/edf"
	"github.com/carbocation/eegmisc/montage"
	"github.com/carbocation/eegmisc/raw"
)

// Safe for concurrent use by multiple goroutines
var client *storage.Client

type config struct {
	File         string
	Strip        string
	MontageName  string
	MontageFile  string
	Drop         []string
	MatchCase    bool
	Reference    []string
	Describe     bool
	PositionsOut string
	PNGOut       string
	EDFOut       string
}

func main() {
	var cfg config
	var drop, ref string
	var listMontages bool

	flag.StringVar(&cfg.File, "file", "S001R04.edf", "EDF, EDF+ or BDF recording to load. May be gzip/zip/xz/bzip2 compressed and may be a gs:// path.")
	flag.StringVar(&cfg.Strip, "strip", ".", "Characters to strip from both ends of every channel name. Empty to leave names alone.")
	flag.StringVar(&cfg.MontageName, "montage", "easycap-M1", "Name of the built-in montage to apply (see -list-montages)")
	flag.StringVar(&cfg.MontageFile, "montage-file", "", "(Optional) CSV/TSV with columns name,x,y,z (meters). Overrides -montage.")
	flag.StringVar(&drop, "drop", "T9,T10", "Comma-delimited channels to drop before applying the montage. Empty to keep all.")
	flag.BoolVar(&cfg.MatchCase, "match-case", false, "Match channel names to montage electrodes case-sensitively?")
	flag.StringVar(&ref, "ref", raw.AverageReference, "EEG reference: 'average', 'none', or comma-delimited reference channels")
	flag.BoolVar(&cfg.Describe, "describe", false, "Print per-channel summary statistics to stdout?")
	flag.StringVar(&cfg.PositionsOut, "positions", "", "(Optional) Write channel positions to this TSV file")
	flag.StringVar(&cfg.PNGOut, "png", "", "(Optional) Write one waveform PNG per channel into this zip file")
	flag.StringVar(&cfg.EDFOut, "out", "", "(Optional) Write the transformed recording to this EDF file")
	flag.BoolVar(&listMontages, "list-montages", false, "List the built-in montages and exit")
	flag.Parse()

	if listMontages {
		for _, name := range montage.Names() {
			fmt.Println(name)
		}
		return
	}

	if cfg.File == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg.Drop = splitList(drop)
	if ref != "none" {
		cfg.Reference = splitList(ref)
	}

	// Initialize the Google Storage client only if we're pointing to Google
	// Storage paths.
	if strings.HasPrefix(cfg.File, "gs://") || strings.HasPrefix(cfg.MontageFile, "gs://") {
		var err error
		client, err = storage.NewClient(context.Background())
		if err != nil {
			log.Fatalln(err)
		}
	}

	if err := run(cfg); err != nil {
		log.Fatalln(err)
	}
}

func run(cfg config) error {
	log.Printf("Loading %s\n", cfg.File)
	r, err := raw.ReadEDF(cfg.File, client)
	if err != nil {
		return err
	}
	log.Println("Loaded", r)

	if err := importRecording(r, cfg); err != nil {
		return err
	}
	log.Println("Transformed", r)

	return writeOutputs(r, cfg)
}

// importRecording renames, drops, positions and re-references r in that order.
func importRecording(r *raw.Raw, cfg config) error {
	if cfg.Strip != "" {
		if err := r.RenameChannels(raw.StripChars(cfg.Strip)); err != nil {
			return err
		}
	}

	m, err := loadMontage(cfg)
	if err != nil {
		return err
	}

	if len(cfg.Drop) > 0 {
		if err := r.DropChannels(cfg.Drop...); err != nil {
			return err
		}
	}

	if err := r.SetMontage(m, cfg.MatchCase); err != nil {
		return err
	}

	return r.SetEEGReference(cfg.Reference...)
}

func loadMontage(cfg config) (*montage.Montage, error) {
	if cfg.MontageFile != "" {
		return montage.FromFile(eegmisc.ExpandHome(cfg.MontageFile), client)
	}

	return montage.Make(cfg.MontageName)
}

func writeOutputs(r *raw.Raw, cfg config) error {
	if cfg.Describe {
		desc, err := r.Describe()
		if err != nil {
			return err
		}
		if err := writeDescription(os.Stdout, desc); err != nil {
			return err
		}
	}

	if cfg.PositionsOut != "" {
		if err := writePositions(eegmisc.ExpandHome(cfg.PositionsOut), r); err != nil {
			return err
		}
		log.Printf("Wrote channel positions to %s\n", cfg.PositionsOut)
	}

	if cfg.PNGOut != "" {
		if err := writePNGZip(eegmisc.ExpandHome(cfg.PNGOut), r); err != nil {
			return err
		}
		log.Printf("Wrote %d channel plots to %s\n", len(r.Channels), cfg.PNGOut)
	}

	if cfg.EDFOut != "" {
		if err := writeEDF(eegmisc.ExpandHome(cfg.EDFOut), r); err != nil {
			return err
		}
		log.Printf("Wrote %s\n", cfg.EDFOut)
	}

	return nil
}

func writeEDF(path string, r *raw.Raw) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := edf.Write(f, r.ToEDF()); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}

	return f.Close()
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}

	return out
}
