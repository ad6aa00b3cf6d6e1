package peptide

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bigbio/quantmsio-go/schema"
)

func TestCleanPeptidoform(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"_PEPTIDE_", "PEPTIDE"},
		{"_(ac)PEPT(ox)IDE_", "(Acetyl)PEPT(Oxidation)IDE"},
		{"_PEPT(ph)IDE_", "PEPT(Phospho)IDE"},
		{"PEPTIDE", "PEPTIDE"},
	}
	for _, tc := range cases {
		if got := CleanPeptidoform(tc.in); got != tc.want {
			t.Errorf("CleanPeptidoform(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseSequenceAndPositions(t *testing.T) {
	p, err := Parse("_(ac)PEPTM(ox)IDE_")
	if err != nil {
		t.Fatal(err)
	}
	if p.Sequence != "PEPTMIDE" {
		t.Fatalf("Sequence = %q, want PEPTMIDE", p.Sequence)
	}

	want := []schema.Modification{
		{
			Name:      "Acetyl",
			Accession: "UNIMOD:1",
			Positions: []schema.ModPosition{{Position: "N-term.0"}},
		},
		{
			Name:      "Oxidation",
			Accession: "UNIMOD:35",
			Positions: []schema.ModPosition{{Position: "M.5"}},
		},
	}
	if diff := cmp.Diff(want, p.Modifications()); diff != "" {
		t.Errorf("Modifications mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNestedSpecificity(t *testing.T) {
	p, err := Parse("PEPTM(Oxidation (M))IDE")
	if err != nil {
		t.Fatal(err)
	}
	mods := p.Modifications()
	if len(mods) != 1 || mods[0].Name != "Oxidation" {
		t.Fatalf("mods = %+v, want single Oxidation", mods)
	}
	if mods[0].Positions[0].Position != "M.5" {
		t.Errorf("position = %q, want M.5", mods[0].Positions[0].Position)
	}
}

func TestParseCTerminal(t *testing.T) {
	p, err := Parse("PEPTIDE.(Amidated)")
	if err != nil {
		t.Fatal(err)
	}
	mods := p.Modifications()
	if len(mods) != 1 {
		t.Fatalf("mods = %+v, want one", mods)
	}
	if mods[0].Positions[0].Position != "C-term.8" {
		t.Errorf("position = %q, want C-term.8", mods[0].Positions[0].Position)
	}
}

func TestParseRepeatedModificationGrouped(t *testing.T) {
	p, err := Parse("M(ox)PM(ox)K")
	if err != nil {
		t.Fatal(err)
	}
	mods := p.Modifications()
	if len(mods) != 1 {
		t.Fatalf("expected one grouped modification, got %d", len(mods))
	}
	var positions []string
	for _, pos := range mods[0].Positions {
		positions = append(positions, pos.Position)
	}
	want := []string{"M.1", "M.3"}
	if diff := cmp.Diff(want, positions); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "_", "PEPT(IDE", "PEPT1DE", "(ox)"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", in)
		}
	}
}

func TestMZUnmodified(t *testing.T) {
	p, err := Parse("PEPTIDE")
	if err != nil {
		t.Fatal(err)
	}
	mz, err := p.MZ(2)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(mz-400.68726) > 0.001 {
		t.Errorf("MZ = %f, want ~400.68726", mz)
	}
}

func TestMZModifiedShiftsByModMass(t *testing.T) {
	plain, err := Parse("PEPTIDE")
	if err != nil {
		t.Fatal(err)
	}
	modded, err := Parse("PEPT(Phospho)IDE")
	if err != nil {
		t.Fatal(err)
	}
	mzPlain, _ := plain.MZ(1)
	mzMod, err := modded.MZ(1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs((mzMod-mzPlain)-79.966331) > 0.0001 {
		t.Errorf("mass shift = %f, want 79.966331", mzMod-mzPlain)
	}
}

func TestCacheCalculatedMZ(t *testing.T) {
	c := NewCache()
	if got := c.CalculatedMZ("PEPTIDE", 2); math.Abs(float64(got)-400.68726) > 0.001 {
		t.Errorf("CalculatedMZ = %f, want ~400.68726", got)
	}
	// malformed input resolves to zero, also from the failure cache
	for i := 0; i < 2; i++ {
		if got := c.CalculatedMZ("PEPT(IDE", 2); got != 0 {
			t.Errorf("CalculatedMZ on malformed input = %f, want 0", got)
		}
	}
	if got := c.CalculatedMZ("PEPT(UnknownMod)IDE", 2); got != 0 {
		t.Errorf("CalculatedMZ with unknown mod = %f, want 0", got)
	}
}

func TestCacheModificationsUnknownName(t *testing.T) {
	c := NewCache()
	mods := c.Modifications("PEPT(UnknownMod)IDE")
	if len(mods) != 1 {
		t.Fatalf("mods = %+v, want one entry", mods)
	}
	if mods[0].Accession != "" {
		t.Errorf("accession = %q, want empty for unknown name", mods[0].Accession)
	}
}
