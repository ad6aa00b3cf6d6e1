package maxquant

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/go-cmp/cmp"

	"github.com/bigbio/quantmsio-go/schema"
	"github.com/bigbio/quantmsio-go/sdrf"
	"github.com/bigbio/quantmsio-go/tabular"
)

func newChunk(t *testing.T, cols map[string][]string) *tabular.Chunk {
	t.Helper()
	names := make([]string, 0, len(cols))
	for n := range cols {
		names = append(names, n)
	}
	c := tabular.New(names)
	for n, vs := range cols {
		if err := c.SetColumn(n, vs); err != nil {
			t.Fatal(err)
		}
	}
	return c
}

func columnByName(t *testing.T, rec arrow.RecordBatch, s *arrow.Schema, name string) arrow.Array {
	t.Helper()
	indices := s.FieldIndices(name)
	if len(indices) != 1 {
		t.Fatalf("field %q not found in schema", name)
	}
	return rec.Column(indices[0])
}

func TestPSMWorkerBasicRow(t *testing.T) {
	mem := memory.NewGoAllocator()
	tr := &psmTransform{mem: mem}
	w := tr.NewWorker()

	chunk := newChunk(t, map[string][]string{
		"Sequence":          {"PEPTIDE"},
		"Modified sequence": {"_PEPT(ph)IDE_"},
		"Charge":            {"2"},
		"m/z":               {"440.67"},
		"Retention time":    {"10.5"},
		"Scan number":       {"2211"},
		"Raw file":          {"run01.raw"},
		"Proteins":          {"P12345;Q67890"},
		"Reverse":           {"+"},
		"PEP":               {"0.001"},
		"Score":             {"105.3"},
		"Fragmentation":     {"HCD"},
	})

	rec, err := w.Process(chunk)
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Release()

	if got := columnByName(t, rec, schema.PSMSchema, "is_decoy").(*array.Int32).Value(0); got != 1 {
		t.Errorf("is_decoy = %d, want 1", got)
	}
	if got := columnByName(t, rec, schema.PSMSchema, "rt").(*array.Float32).Value(0); got != 630 {
		t.Errorf("rt = %f, want 630 (minutes converted to seconds)", got)
	}
	if got := columnByName(t, rec, schema.PSMSchema, "precursor_charge").(*array.Int32).Value(0); got != 2 {
		t.Errorf("precursor_charge = %d, want 2", got)
	}

	// theoretical m/z of PEPT(Phospho)IDE at 2+
	mz := columnByName(t, rec, schema.PSMSchema, "calculated_mz").(*array.Float32).Value(0)
	if math.Abs(float64(mz)-440.67042) > 0.001 {
		t.Errorf("calculated_mz = %f, want ~440.67042", mz)
	}

	accessions := columnByName(t, rec, schema.PSMSchema, "protein_accessions").(*array.List)
	values := accessions.ListValues().(*array.String)
	start, end := accessions.ValueOffsets(0)
	var got []string
	for i := start; i < end; i++ {
		got = append(got, values.Value(int(i)))
	}
	if diff := cmp.Diff([]string{"P12345", "Q67890"}, got); diff != "" {
		t.Errorf("protein_accessions mismatch (-want +got):\n%s", diff)
	}
}

func TestPSMWorkerUnparseablePeptidoform(t *testing.T) {
	mem := memory.NewGoAllocator()
	w := (&psmTransform{mem: mem}).NewWorker()

	chunk := newChunk(t, map[string][]string{
		"Modified sequence": {"_PEPT(IDE_"},
		"Charge":            {"2"},
	})

	rec, err := w.Process(chunk)
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Release()

	if got := columnByName(t, rec, schema.PSMSchema, "calculated_mz").(*array.Float32).Value(0); got != 0 {
		t.Errorf("calculated_mz = %f, want 0 for unparseable peptidoform", got)
	}
	mods := columnByName(t, rec, schema.PSMSchema, "modifications").(*array.List)
	if !mods.IsNull(0) {
		t.Error("modifications should be null for unparseable peptidoform")
	}
}

func TestPSMWorkerMissingColumnsDefaultToEmpty(t *testing.T) {
	mem := memory.NewGoAllocator()
	w := (&psmTransform{mem: mem}).NewWorker()

	chunk := newChunk(t, map[string][]string{
		"Sequence": {"PEPTIDE", "SEQVENCE"},
	})

	rec, err := w.Process(chunk)
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Release()

	refs := columnByName(t, rec, schema.PSMSchema, "reference_file_name").(*array.String)
	for i := 0; i < refs.Len(); i++ {
		if refs.IsNull(i) || refs.Value(i) != "" {
			t.Errorf("row %d: reference_file_name should be empty string, not null", i)
		}
	}
	if got := columnByName(t, rec, schema.PSMSchema, "is_decoy").(*array.Int32).Value(0); got != 0 {
		t.Errorf("is_decoy default = %d, want 0", got)
	}
}

func TestPSMWorkerSpectralArrays(t *testing.T) {
	mem := memory.NewGoAllocator()
	w := (&psmTransform{spectralData: true, mem: mem}).NewWorker()

	chunk := newChunk(t, map[string][]string{
		"Modified sequence": {"_PEPTIDE_"},
		"Charge":            {"2"},
		"Masses":            {"100.1;200.2;300.3"},
		"Intensities":       {"10;20;30"},
		"Number of matches": {"3"},
		"Matches":           {"y1;y2(2+);b3"},
	})

	rec, err := w.Process(chunk)
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Release()

	mzs := columnByName(t, rec, schema.PSMSchema, "mz_array").(*array.List)
	if mzs.IsNull(0) {
		t.Fatal("mz_array should not be null in spectral-data mode")
	}
	start, end := mzs.ValueOffsets(0)
	if end-start != 3 {
		t.Errorf("mz_array has %d values, want 3", end-start)
	}

	charges := columnByName(t, rec, schema.PSMSchema, "charge_array").(*array.List)
	cvals := charges.ListValues().(*array.Int32)
	cs, _ := charges.ValueOffsets(0)
	want := []int32{1, 2, 1}
	for i, wv := range want {
		if got := cvals.Value(int(cs) + i); got != wv {
			t.Errorf("charge_array[%d] = %d, want %d", i, got, wv)
		}
	}

	types := columnByName(t, rec, schema.PSMSchema, "ion_type_array").(*array.List)
	tvals := types.ListValues().(*array.String)
	ts, _ := types.ValueOffsets(0)
	if got := tvals.Value(int(ts) + 1); got != "y2" {
		t.Errorf("ion_type_array[1] = %q, want y2 (charge suffix stripped)", got)
	}
}

func TestPSMWorkerBadNumericValue(t *testing.T) {
	mem := memory.NewGoAllocator()
	w := (&psmTransform{mem: mem}).NewWorker()

	chunk := newChunk(t, map[string][]string{
		"Charge": {"not-a-number"},
	})

	if _, err := w.Process(chunk); err == nil {
		t.Fatal("expected coercion error")
	}
}

func TestFeatureWorkerUniqueAndQValue(t *testing.T) {
	mem := memory.NewGoAllocator()
	tr := &featureTransform{
		qvalues: map[string]float32{"P12345": 0.01, "Q67890": 0.002},
		mem:     mem,
	}
	w := tr.NewWorker()

	chunk := newChunk(t, map[string][]string{
		"Modified sequence": {"_PEPTIDE_", "_SEQVENCE_"},
		"Charge":            {"2", "3"},
		"Proteins":          {"P12345", "P12345;Q67890"},
		"Leading proteins":  {"P12345", "Q67890;P12345"},
		"Intensity":         {"1000", ""},
		"Raw file":          {"run01.raw", "run01.raw"},
	})

	rec, err := w.Process(chunk)
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Release()

	unique := columnByName(t, rec, schema.FeatureSchema, "unique").(*array.Int32)
	if unique.Value(0) != 1 || unique.Value(1) != 0 {
		t.Errorf("unique = [%d %d], want [1 0]", unique.Value(0), unique.Value(1))
	}

	proteins := columnByName(t, rec, schema.FeatureSchema, "protein_accessions").(*array.List)
	pvals := proteins.ListValues().(*array.String)
	s1, e1 := proteins.ValueOffsets(1)
	if e1-s1 != 2 || pvals.Value(int(s1)) != "Q67890" || pvals.Value(int(s1+1)) != "P12345" {
		t.Errorf("row 1 protein_accessions entries %d..%d, want [Q67890 P12345]", s1, e1)
	}

	qv := columnByName(t, rec, schema.FeatureSchema, "pg_global_qvalue").(*array.Float32)
	if qv.Value(0) != 0.01 {
		t.Errorf("row 0 pg_global_qvalue = %f, want 0.01", qv.Value(0))
	}
	if qv.Value(1) != 0.002 {
		t.Errorf("row 1 pg_global_qvalue = %f, want min 0.002", qv.Value(1))
	}

	// label-free: row 0 gets one intensity entry, row 1 (empty intensity) none
	intensities := columnByName(t, rec, schema.FeatureSchema, "intensities").(*array.List)
	s0, e0 := intensities.ValueOffsets(0)
	if e0-s0 != 1 {
		t.Errorf("row 0 has %d intensity entries, want 1", e0-s0)
	}
	if !intensities.IsNull(1) {
		s1, e1 := intensities.ValueOffsets(1)
		if e1-s1 != 0 {
			t.Errorf("row 1 has %d intensity entries, want 0", e1-s1)
		}
	}
}

func TestFeatureWorkerRTWindowConversion(t *testing.T) {
	mem := memory.NewGoAllocator()
	w := (&featureTransform{mem: mem}).NewWorker()

	chunk := newChunk(t, map[string][]string{
		"Modified sequence":                {"_PEPTIDE_"},
		"Charge":                           {"2"},
		"Retention time":                   {"10"},
		"Calibrated retention time start":  {"9.5"},
		"Calibrated retention time finish": {"10.5"},
	})

	rec, err := w.Process(chunk)
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Release()

	for name, want := range map[string]float32{"rt": 600, "rt_start": 570, "rt_stop": 630} {
		if got := columnByName(t, rec, schema.FeatureSchema, name).(*array.Float32).Value(0); got != want {
			t.Errorf("%s = %f, want %f", name, got, want)
		}
	}
}

func writeTSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildProteinSampleMapEndToEnd(t *testing.T) {
	dir := t.TempDir()
	evidence := writeTSV(t, dir, "evidence.txt",
		"Raw file\tProtein group IDs\tIntensity\n"+
			"R1\t5;7\t100\n"+
			"R1\t5\t50\n")
	sdrfPath := writeTSV(t, dir, "design.sdrf.tsv",
		"source name\tcomment[data file]\tcomment[label]\n"+
			"sample-R1\tR1.raw\tlabel free sample\n")

	resolver, err := sdrf.Load(sdrfPath)
	if err != nil {
		t.Fatal(err)
	}

	m, err := BuildProteinSampleMap(evidence, resolver)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string][]string{
		"5": {"sample-R1"},
		"7": {"sample-R1"},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("protein to sample map mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildStandardizedIntensities(t *testing.T) {
	dir := t.TempDir()
	evidence := writeTSV(t, dir, "evidence.txt",
		"Sequence\tProtein group IDs\tIntensity\n"+
			"PEPTIDEA\t5\t10\n"+
			"PEPTIDEA\t5\t15\n"+
			"PEPTIDEB\t5\t30\n"+
			"PEPTIDEC\t5\t\n")

	m, err := BuildStandardizedIntensities(evidence)
	if err != nil {
		t.Fatal(err)
	}
	std, ok := m["5"]
	if !ok {
		t.Fatal("group 5 missing")
	}
	if std.Total != 55 {
		t.Errorf("total = %f, want 55", std.Total)
	}
	if std.Top3 != 55 {
		t.Errorf("top3 = %f, want 55 (A=25 + B=30)", std.Top3)
	}
}

func TestBuildQValueMap(t *testing.T) {
	dir := t.TempDir()
	pg := writeTSV(t, dir, "proteinGroups.txt",
		"Majority protein IDs\tQ-value\n"+
			"P12345;Q67890\t0.01\n"+
			"A00001\t\n")

	m, err := BuildQValueMap(pg)
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 2 {
		t.Fatalf("map has %d entries, want 2", len(m))
	}
	if m["P12345"] != 0.01 || m["Q67890"] != 0.01 {
		t.Errorf("map = %v", m)
	}
}

func TestAllocatePeptides(t *testing.T) {
	cases := []struct {
		name     string
		proteins []string
		total    int32
		want     []schema.PeptideCount
	}{
		{
			"single protein takes all",
			[]string{"P1"}, 10,
			[]schema.PeptideCount{{ProteinName: "P1", PeptideCount: 10}},
		},
		{
			"anchor gets 60 percent",
			[]string{"P1", "P2", "P3"}, 10,
			[]schema.PeptideCount{
				{ProteinName: "P1", PeptideCount: 6},
				{ProteinName: "P2", PeptideCount: 2},
				{ProteinName: "P3", PeptideCount: 2},
			},
		},
		{
			"uneven remainder favors earlier proteins",
			[]string{"P1", "P2", "P3"}, 11,
			[]schema.PeptideCount{
				{ProteinName: "P1", PeptideCount: 6},
				{ProteinName: "P2", PeptideCount: 3},
				{ProteinName: "P3", PeptideCount: 2},
			},
		},
		{
			"anchor floor of one and zero counts omitted",
			[]string{"P1", "P2"}, 1,
			[]schema.PeptideCount{{ProteinName: "P1", PeptideCount: 1}},
		},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, allocatePeptides(tc.proteins, tc.total)); diff != "" {
			t.Errorf("%s: mismatch (-want +got):\n%s", tc.name, diff)
		}
	}
}

func TestPGWorkerRow(t *testing.T) {
	mem := memory.NewGoAllocator()
	tr := &pgTransform{
		proteinSamples: map[string][]string{"5": {"sample-R1"}},
		mem:            mem,
	}
	w := tr.NewWorker()

	chunk := newChunk(t, map[string][]string{
		"Protein IDs":           {"P12345;Q67890", "DECOY1"},
		"Majority protein IDs":  {"P12345", ""},
		"id":                    {"5", "9"},
		"Reverse":               {"", "+"},
		"Potential contaminant": {"", ""},
		"Intensity":             {"5000", "10"},
		"LFQ intensity A":       {"4000", "0"},
		"Peptides":              {"10", "2"},
		"Unique peptides":       {"4", "2"},
	})

	rec, err := w.Process(chunk)
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Release()

	decoys := columnByName(t, rec, schema.PGSchema, "is_decoy").(*array.Int32)
	if decoys.Value(0) != 0 || decoys.Value(1) != 1 {
		t.Errorf("is_decoy = [%d %d], want [0 1]", decoys.Value(0), decoys.Value(1))
	}

	anchors := columnByName(t, rec, schema.PGSchema, "anchor_protein").(*array.String)
	if anchors.Value(0) != "P12345" {
		t.Errorf("anchor = %q, want P12345 (first majority protein)", anchors.Value(0))
	}
	// majority column present but empty: no anchor, no accession fallback
	if !anchors.IsNull(1) {
		t.Errorf("anchor = %q for empty majority cell, want null", anchors.Value(1))
	}

	// group 5 is sample-mapped: general intensity replicated to its sample
	intensities := columnByName(t, rec, schema.PGSchema, "intensities").(*array.List)
	s0, e0 := intensities.ValueOffsets(0)
	if e0-s0 != 1 {
		t.Errorf("row 0 has %d intensity entries, want 1", e0-s0)
	}
	// group 9 has no sample mapping: no sample-specific intensities
	s1, e1 := intensities.ValueOffsets(1)
	if e1-s1 != 0 {
		t.Errorf("row 1 has %d intensity entries, want 0", e1-s1)
	}

	peptides := columnByName(t, rec, schema.PGSchema, "peptides").(*array.List)
	ps, pe := peptides.ValueOffsets(0)
	if pe-ps != 2 {
		t.Errorf("row 0 peptide allocation has %d entries, want 2", pe-ps)
	}
}

func TestPGWorkerAnchorFallbackWithoutMajorityColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	w := (&pgTransform{mem: mem}).NewWorker()

	chunk := newChunk(t, map[string][]string{
		"Protein IDs": {"P12345;Q67890"},
		"id":          {"1"},
	})

	rec, err := w.Process(chunk)
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Release()

	anchors := columnByName(t, rec, schema.PGSchema, "anchor_protein").(*array.String)
	if anchors.Value(0) != "P12345" {
		t.Errorf("anchor = %q, want first accession P12345", anchors.Value(0))
	}
}
