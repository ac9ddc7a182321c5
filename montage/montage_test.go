package montage

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

// Channels of the PhysioNet EEG Motor Movement/Imagery recordings after their
// trailing dots are removed and T9/T10 are dropped.
var physionetChannels = []string{
	"Fc5", "Fc3", "Fc1", "Fcz", "Fc2", "Fc4", "Fc6",
	"C5", "C3", "C1", "Cz", "C2", "C4", "C6",
	"Cp5", "Cp3", "Cp1", "Cpz", "Cp2", "Cp4", "Cp6",
	"Fp1", "Fpz", "Fp2", "Af7", "Af3", "Afz", "Af4", "Af8",
	"F7", "F5", "F3", "F1", "Fz", "F2", "F4", "F6", "F8",
	"Ft7", "Ft8", "T7", "T8", "Tp7", "Tp8",
	"P7", "P5", "P3", "P1", "Pz", "P2", "P4", "P6", "P8",
	"Po7", "Po3", "Poz", "Po4", "Po8", "O1", "Oz", "O2", "Iz",
}

func TestMakeEasycapM1(t *testing.T) {
	m, err := Make("easycap-M1")
	if err != nil {
		t.Fatal(err)
	}

	if len(m.Electrodes) != 74 {
		t.Errorf("Expected 74 electrodes, got %d", len(m.Electrodes))
	}

	for _, e := range m.Electrodes {
		if r := e.Norm(); math.Abs(r-HeadRadius) > 1e-9 {
			t.Errorf("%s is %f m from the origin, expected %f", e.Name, r, HeadRadius)
		}
	}

	for _, ch := range physionetChannels {
		if _, ok := m.Lookup(ch, false); !ok {
			t.Errorf("%s is not in the montage", ch)
		}
	}

	for _, ch := range []string{"T9", "T10"} {
		if _, ok := m.Lookup(ch, false); ok {
			t.Errorf("%s should not be in the montage", ch)
		}
	}
}

func TestMakeUnknown(t *testing.T) {
	if _, err := Make("easycap-M99"); err == nil {
		t.Fatal("Expected an error for an unknown montage")
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 2 || names[0] != "easycap-M1" || names[1] != "standard_1020" {
		t.Fatalf("Unexpected catalog %v", names)
	}
}

func TestOrientation(t *testing.T) {
	m, err := Make("easycap-M1")
	if err != nil {
		t.Fatal(err)
	}

	for _, v := range []struct {
		Name      string
		Predicate func(Position) bool
	}{
		{"Cz", func(p Position) bool { return math.Abs(p.Z-HeadRadius) < 1e-9 }},
		{"T7", func(p Position) bool { return p.X < 0 && math.Abs(p.Y) < 1e-9 }},
		{"T8", func(p Position) bool { return p.X > 0 && math.Abs(p.Y) < 1e-9 }},
		{"Fpz", func(p Position) bool { return p.Y > 0 && math.Abs(p.X) < 1e-9 }},
		{"Oz", func(p Position) bool { return p.Y < 0 && math.Abs(p.X) < 1e-9 }},
		{"Fp1", func(p Position) bool { return p.X < 0 && p.Y > 0 }},
		{"O2", func(p Position) bool { return p.X > 0 && p.Y < 0 }},
		{"Iz", func(p Position) bool { return p.Z < 0 }},
	} {
		p, ok := m.Lookup(v.Name, true)
		if !ok {
			t.Fatalf("%s missing", v.Name)
		}
		if !v.Predicate(p) {
			t.Errorf("%s at %s is in the wrong place", v.Name, p)
		}
	}
}

func TestLookupCase(t *testing.T) {
	m, err := Make("easycap-M1")
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := m.Lookup("FCZ", true); ok {
		t.Error("Case-sensitive lookup of FCZ should fail")
	}
	if _, ok := m.Lookup("FCZ", false); !ok {
		t.Error("Case-insensitive lookup of FCZ should succeed")
	}
}

func TestPositionsCaseCollision(t *testing.T) {
	m := &Montage{Name: "dup", Electrodes: []Electrode{{Name: "Cz"}, {Name: "CZ"}}}

	if _, err := m.Positions(true); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Positions(false); err == nil {
		t.Fatal("Expected an error when names collide without case")
	}
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	for _, v := range []struct {
		File     string
		Contents string
	}{
		{"custom.csv", "name,x,y,z\nCz,0,0,0.09\nFpz,0,0.09,0\n"},
		{"custom.tsv", "name\tx\ty\tz\nCz\t0\t0\t0.09\nFpz\t0\t0.09\t0\n"},
	} {
		path := filepath.Join(dir, v.File)
		if err := os.WriteFile(path, []byte(v.Contents), 0644); err != nil {
			t.Fatal(err)
		}

		m, err := FromFile(path, nil)
		if err != nil {
			t.Fatalf("%s: %v", v.File, err)
		}

		if m.Name != "custom" || len(m.Electrodes) != 2 {
			t.Fatalf("%s: unexpected montage %+v", v.File, m)
		}

		p, ok := m.Lookup("fpz", false)
		if !ok || p.Y != 0.09 {
			t.Errorf("%s: Fpz at %v", v.File, p)
		}
	}
}
