package raw

import (
	"fmt"
	"strings"
)

// StripChars returns a renamer that removes every leading and trailing rune
// found in cutset, e.g., StripChars(".") turns "Fp1." into "Fp1".
func StripChars(cutset string) func(string) string {
	return func(name string) string {
		return strings.Trim(name, cutset)
	}
}

// RenameChannels applies fn to every channel name. If the new names would be
// empty or not unique, nothing is renamed and an error is returned.
func (r *Raw) RenameChannels(fn func(string) string) error {
	renamed := make([]string, len(r.Channels))
	seen := make(map[string]string, len(r.Channels))

	for i, c := range r.Channels {
		name := fn(c.Name)
		if name == "" {
			return fmt.Errorf("renaming %q would leave the channel without a name", c.Name)
		}
		if prior, exists := seen[name]; exists {
			return fmt.Errorf("renaming %q and %q would both produce %q", prior, c.Name, name)
		}
		seen[name] = c.Name
		renamed[i] = name
	}

	for i := range r.Channels {
		r.Channels[i].Name = renamed[i]
	}

	return nil
}

// DropChannels removes the named channels. Every name must be present;
// otherwise nothing is removed and the error lists the missing names.
func (r *Raw) DropChannels(names ...string) error {
	drop := make(map[string]struct{}, len(names))
	var missing []string

	for _, name := range names {
		if r.ChannelIndex(name) < 0 {
			missing = append(missing, name)
			continue
		}
		drop[name] = struct{}{}
	}

	if len(missing) > 0 {
		return fmt.Errorf("channel(s) %s not found, nothing dropped", strings.Join(missing, ", "))
	}

	channels := r.Channels[:0]
	data := r.Data[:0]
	for i, c := range r.Channels {
		if _, exists := drop[c.Name]; exists {
			continue
		}
		channels = append(channels, c)
		data = append(data, r.Data[i])
	}

	// Let the dropped rows be collected.
	for i := len(data); i < len(r.Data); i++ {
		r.Data[i] = nil
	}

	r.Channels = channels
	r.Data = data

	return nil
}
