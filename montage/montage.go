// Package montage provides standard EEG electrode layouts and maps channel
// labels onto 3D scalp positions.
package montage

import (
	"bytes"
	"embed"
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
)

// HeadRadius is the radius, in meters, of the sphere onto which the built-in
// spherical layouts are projected.
const HeadRadius = 0.095

//go:embed lookups/*
var embeddedLookups embed.FS

// Position is a location in the head coordinate frame, in meters: +X towards
// the right preauricular point, +Y towards the nasion, +Z towards the vertex.
type Position struct {
	X float64
	Y float64
	Z float64
}

func (p Position) String() string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", p.X, p.Y, p.Z)
}

// Norm returns the distance of p from the origin.
func (p Position) Norm() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

type Electrode struct {
	Name string
	Position
}

// Montage is an ordered, named set of electrode positions.
type Montage struct {
	Name       string
	Electrodes []Electrode
}

// Names lists the built-in montages that Make understands.
func Names() []string {
	entries, err := embeddedLookups.ReadDir("lookups")
	if err != nil {
		return nil
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".tsv"))
	}
	sort.Strings(out)

	return out
}

// Make builds one of the built-in montages by name, e.g., "easycap-M1".
func Make(name string) (*Montage, error) {
	fileBytes, err := embeddedLookups.ReadFile("lookups/" + name + ".tsv")
	if err != nil {
		return nil, fmt.Errorf("unknown montage %q (known montages: %s)", name, strings.Join(Names(), ", "))
	}

	cr := csv.NewReader(bytes.NewReader(fileBytes))
	cr.Comma = '\t'
	entries, err := cr.ReadAll()
	if err != nil {
		return nil, pfx.Err(err)
	}

	out := &Montage{Name: name, Electrodes: make([]Electrode, 0, len(entries))}
	header := make(map[string]int)

	for i, v := range entries {
		if i == 0 {
			for key, col := range v {
				header[col] = key
			}
			continue
		}

		theta, err := strconv.ParseFloat(v[header["Theta"]], 64)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s line %d: %w", name, i+1, err))
		}
		phi, err := strconv.ParseFloat(v[header["Phi"]], 64)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s line %d: %w", name, i+1, err))
		}

		out.Electrodes = append(out.Electrodes, Electrode{
			Name:     v[header["Site"]],
			Position: SphericalToCartesian(HeadRadius, theta, phi),
		})
	}

	return out, nil
}

// SphericalToCartesian converts the EasyCap (theta, phi) convention, both in
// degrees, to Cartesian coordinates on a sphere of radius r. Theta is the
// signed angle from the vertex, negative over the left hemisphere; phi is the
// azimuth.
func SphericalToCartesian(r, thetaDeg, phiDeg float64) Position {
	theta := thetaDeg * math.Pi / 180
	phi := phiDeg * math.Pi / 180

	return Position{
		X: r * math.Cos(phi) * math.Sin(theta),
		Y: r * math.Sin(phi) * math.Sin(theta),
		Z: r * math.Cos(theta),
	}
}

// Positions returns the montage keyed by electrode name. When matchCase is
// false, keys are lower case, and electrodes whose names differ only by case
// are an error.
func (m *Montage) Positions(matchCase bool) (map[string]Position, error) {
	out := make(map[string]Position, len(m.Electrodes))

	for _, e := range m.Electrodes {
		key := e.Name
		if !matchCase {
			key = strings.ToLower(key)
		}

		if _, exists := out[key]; exists {
			if matchCase {
				return nil, fmt.Errorf("montage %s lists electrode %s more than once", m.Name, e.Name)
			}
			return nil, fmt.Errorf("montage %s has electrodes that differ only by case (%s); match case instead", m.Name, e.Name)
		}

		out[key] = e.Position
	}

	return out, nil
}

// Lookup finds the position of label in the montage.
func (m *Montage) Lookup(label string, matchCase bool) (Position, bool) {
	for _, e := range m.Electrodes {
		if e.Name == label || (!matchCase && strings.EqualFold(e.Name, label)) {
			return e.Position, true
		}
	}

	return Position{}, false
}
