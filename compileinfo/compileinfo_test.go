package compileinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	z := &debug.BuildInfo{
		GoVersion: "go1.18",
		Path:      "github.com/carbocation/eegmisc/cmd/importeeg",
		Main:      debug.Module{Version: "v0.1.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2022-06-01T00:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	ci := fromBuildInfo(z)
	if ci.Commit != "abc123" || !ci.Modified || ci.Version != "v0.1.0" {
		t.Fatalf("Unexpected %+v", ci)
	}

	s := ci.String()
	for _, want := range []string{"importeeg v0.1.0", "go1.18", "abc123", "modified"} {
		if !strings.Contains(s, want) {
			t.Errorf("%q should contain %q", s, want)
		}
	}

	if s := (CompileInfo{}).String(); !strings.Contains(s, "unavailable") {
		t.Errorf("Unexpected banner for empty build info: %q", s)
	}
}
