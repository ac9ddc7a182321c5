package raw

import (
	"fmt"

	"github.com/carbocation/runningvariance"
	"github.com/montanaflynn/stats"
)

// ChannelDescription summarizes one channel. Values are in Unit, which is uV
// for EEG channels and the file's own unit otherwise.
type ChannelDescription struct {
	Index  int     `csv:"index"`
	Name   string  `csv:"name"`
	Kind   Kind    `csv:"type"`
	Unit   string  `csv:"unit"`
	Min    float64 `csv:"min"`
	Q1     float64 `csv:"q1"`
	Median float64 `csv:"median"`
	Q3     float64 `csv:"q3"`
	Max    float64 `csv:"max"`
	Mean   float64 `csv:"mean"`
	SD     float64 `csv:"sd"`
}

// Describe computes per-channel summary statistics.
func (r *Raw) Describe() ([]ChannelDescription, error) {
	out := make([]ChannelDescription, 0, len(r.Channels))

	for i, c := range r.Channels {
		unit, scale := DisplayUnit(c)

		vals := make([]float64, len(r.Data[i]))
		rs := runningvariance.NewRunningStat()
		for j, v := range r.Data[i] {
			vals[j] = v * scale
			rs.Push(vals[j])
		}

		desc := ChannelDescription{
			Index: i,
			Name:  c.Name,
			Kind:  c.Kind,
			Unit:  unit,
			Mean:  rs.Mean(),
			SD:    rs.StandardDeviation(),
		}

		var err error
		if desc.Min, err = stats.Min(vals); err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		if desc.Max, err = stats.Max(vals); err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}

		// Quartile needs a handful of points to split; tiny channels just use
		// the median for all three.
		if len(vals) >= 4 {
			q, err := stats.Quartile(vals)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", c.Name, err)
			}
			desc.Q1, desc.Median, desc.Q3 = q.Q1, q.Q2, q.Q3
		} else {
			if desc.Median, err = stats.Median(vals); err != nil {
				return nil, fmt.Errorf("%s: %w", c.Name, err)
			}
			desc.Q1, desc.Q3 = desc.Median, desc.Median
		}

		out = append(out, desc)
	}

	return out, nil
}

// DisplayUnit picks the unit a channel is reported in, and the factor that
// converts its stored value to that unit.
func DisplayUnit(c Channel) (string, float64) {
	if c.Kind == KindEEG {
		return "uV", 1e6
	}

	return c.OrigUnit, 1
}
