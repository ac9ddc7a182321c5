package main

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/eegmisc/raw"
	"github.com/wcharczuk/go-chart/v2"
)

// writePNGZip renders every channel into its own PNG inside a zip file. EEG
// channels are drawn in microvolts, others in their own unit.
func writePNGZip(path string, r *raw.Raw) error {
	outFile, err := os.Create(path)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(outFile)

	prefix := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	times := r.Times()

	for i, c := range r.Channels {
		imgW, err := zw.Create(prefix + "_" + c.Name + ".png")
		if err != nil {
			outFile.Close()
			return err
		}

		unit, vals := channelValues(c, r.Data[i])
		if err := PlotChannel(imgW, c.Name, unit, times, vals); err != nil {
			outFile.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		outFile.Close()
		return err
	}

	return outFile.Close()
}

// channelValues converts a stored channel to the unit it is plotted in.
func channelValues(c raw.Channel, data []float64) (string, []float64) {
	unit, scale := raw.DisplayUnit(c)

	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = v * scale
	}

	return unit, out
}

func PlotChannel(w io.Writer, name, unit string, times, vals []float64) error {
	var chartRange chart.Range

	// go-chart can't scale a flat line, e.g., a channel that was itself the
	// reference.
	if yMin, yMax := floatRange(vals); yMin == yMax {
		chartRange = &chart.ContinuousRange{Min: yMin - 1, Max: yMax + 1}
	}

	graph := chart.Chart{
		Title:  name,
		Width:  1024,
		Height: 256,
		XAxis: chart.XAxis{
			Name: "Time (s)",
		},
		YAxis: chart.YAxis{
			Name:  unit,
			Range: chartRange,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    name,
				XValues: times,
				YValues: vals,
			},
		},
	}

	return graph.Render(chart.PNG, w)
}

func floatRange(vals []float64) (float64, float64) {
	if len(vals) == 0 {
		return 0, 0
	}

	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	return lo, hi
}
