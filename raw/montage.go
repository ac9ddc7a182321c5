package raw

import (
	"fmt"
	"strings"

	"github.com/carbocation/eegmisc/montage"
)

// SetMontage binds every EEG channel to its position in m. With matchCase
// false, labels are compared case-insensitively. If any EEG channel has no
// position in m, nothing changes and the error names all of them. A nil
// montage removes every position.
func (r *Raw) SetMontage(m *montage.Montage, matchCase bool) error {
	if m == nil {
		for i := range r.Channels {
			r.Channels[i].Loc = nil
		}
		r.Montage = ""
		return nil
	}

	positions, err := m.Positions(matchCase)
	if err != nil {
		return err
	}

	locs := make([]*montage.Position, len(r.Channels))
	var missing []string

	for i, c := range r.Channels {
		if c.Kind != KindEEG {
			continue
		}

		key := c.Name
		if !matchCase {
			key = strings.ToLower(key)
		}

		pos, exists := positions[key]
		if !exists {
			missing = append(missing, c.Name)
			continue
		}
		locs[i] = &pos
	}

	if len(missing) > 0 {
		return fmt.Errorf("montage %s is missing positions for %d channel(s): %s", m.Name, len(missing), strings.Join(missing, ", "))
	}

	for i := range r.Channels {
		r.Channels[i].Loc = locs[i]
	}
	r.Montage = m.Name

	return nil
}

// Positions returns the position of every channel that has one.
func (r *Raw) Positions() map[string]montage.Position {
	out := make(map[string]montage.Position)
	for _, c := range r.Channels {
		if c.Loc != nil {
			out[c.Name] = *c.Loc
		}
	}

	return out
}
