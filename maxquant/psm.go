package maxquant

import (
	"regexp"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/bigbio/quantmsio-go/chunked"
	"github.com/bigbio/quantmsio-go/peptide"
	"github.com/bigbio/quantmsio-go/schema"
	"github.com/bigbio/quantmsio-go/tabular"
)

// matchChargeRE extracts the charge from an ion annotation like "y7(2+)".
var matchChargeRE = regexp.MustCompile(`\((\d+)\+\)`)

// psmTransform converts msms.txt chunks to PSM records.
type psmTransform struct {
	spectralData bool
	mem          memory.Allocator
}

func (t *psmTransform) Name() string          { return "maxquant-psm" }
func (t *psmTransform) Schema() *arrow.Schema { return schema.PSMSchema }

func (t *psmTransform) NewWorker() chunked.Worker {
	return &psmWorker{t: t, cache: peptide.NewCache()}
}

type psmWorker struct {
	t     *psmTransform
	cache *peptide.Cache
}

func (w *psmWorker) Process(chunk *tabular.Chunk) (arrow.RecordBatch, error) {
	chunk.Rename(psmColumnMap)
	avail := chunk.Available()

	b := schema.NewPSMBuilder(w.t.mem)
	defer b.Release()

	for i := 0; i < chunk.NumRows(); i++ {
		r := schema.PSM{
			Sequence:          chunk.Get("sequence", i),
			Peptidoform:       chunk.Get("peptidoform", i),
			ReferenceFileName: chunk.Get("reference_file_name", i),
			Scan:              chunk.Get("scan", i),
			IsDecoy:           schema.FlagToInt32(chunk.Get("is_decoy", i)),
		}

		charge, err := schema.Int32("precursor_charge", chunk.Get("precursor_charge", i))
		if err != nil {
			return nil, err
		}
		r.PrecursorCharge = charge
		r.CalculatedMZ = w.cache.CalculatedMZ(r.Peptidoform, int(charge))
		r.Modifications = w.cache.Modifications(r.Peptidoform)

		if r.ObservedMZ, err = schema.Float32("observed_mz", chunk.Get("observed_mz", i)); err != nil {
			return nil, err
		}
		if r.PosteriorErrorProbability, err = schema.OptFloat32(
			"posterior_error_probability", chunk.Get("posterior_error_probability", i)); err != nil {
			return nil, err
		}

		rt, err := schema.OptFloat32("rt", chunk.Get("rt", i))
		if err != nil {
			return nil, err
		}
		r.RT = schema.MinutesToSeconds(rt)

		if r.IonMobility, err = schema.OptFloat32("ion_mobility", chunk.Get("ion_mobility", i)); err != nil {
			return nil, err
		}

		r.ProteinAccessions = tabular.SplitList(chunk.Get("protein_accessions", i))

		if r.AdditionalScores, err = extractScores(chunk, i, avail, scoreFields); err != nil {
			return nil, err
		}
		r.CVParams = extractCVParams(chunk, i, avail, psmCVColumns)

		if w.t.spectralData {
			if err := fillSpectralArrays(&r, chunk, i, avail); err != nil {
				return nil, err
			}
		}

		b.Append(r)
	}

	return b.NewRecordBatch(), nil
}

// extractScores pulls the named numeric columns into additional_scores,
// skipping empty cells.
func extractScores(chunk *tabular.Chunk, row int, avail map[string]bool, fields []string) ([]schema.ScoreEntry, error) {
	var scores []schema.ScoreEntry
	for _, field := range fields {
		if !avail[field] {
			continue
		}
		v, err := schema.OptFloat32(field, chunk.Get(field, row))
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		scores = append(scores, schema.ScoreEntry{Name: field, Value: *v})
	}
	return scores, nil
}

// extractCVParams carries verbatim instrument columns into cv_params.
func extractCVParams(chunk *tabular.Chunk, row int, avail map[string]bool, columns []string) []schema.CVParam {
	var params []schema.CVParam
	for _, col := range columns {
		if !avail[col] {
			continue
		}
		v := chunk.Get(col, row)
		if v == "" {
			continue
		}
		params = append(params, schema.CVParam{Name: col, Value: v})
	}
	return params
}

// fillSpectralArrays parses the semicolon-joined peak columns of msms.txt
// into the raw spectral array fields.
func fillSpectralArrays(r *schema.PSM, chunk *tabular.Chunk, row int, avail map[string]bool) error {
	var err error
	if r.MZArray, err = splitFloat32List("mz_array", chunk.Get("mz_array", row)); err != nil {
		return err
	}
	if r.IntensityArray, err = splitFloat32List("intensity_array", chunk.Get("intensity_array", row)); err != nil {
		return err
	}
	if avail["number_peaks"] {
		n, err := schema.Int32("number_peaks", chunk.Get("number_peaks", row))
		if err != nil {
			return err
		}
		r.NumberPeaks = &n
	}
	if avail["Matches"] {
		r.ChargeArray, r.IonTypeArray = parseMatches(chunk.Get("Matches", row))
	}
	return nil
}

func splitFloat32List(field, v string) ([]float32, error) {
	parts := tabular.SplitList(v)
	if len(parts) == 0 {
		return nil, nil
	}
	out := make([]float32, 0, len(parts))
	for _, p := range parts {
		f, err := schema.Float32(field, p)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// parseMatches splits the Matches annotation column into parallel charge and
// ion type arrays. An ion without an explicit charge suffix is 1+.
func parseMatches(v string) ([]int32, []string) {
	ions := tabular.SplitList(v)
	if len(ions) == 0 {
		return nil, nil
	}
	charges := make([]int32, 0, len(ions))
	types := make([]string, 0, len(ions))
	for _, ion := range ions {
		charge := int32(1)
		if m := matchChargeRE.FindStringSubmatch(ion); m != nil {
			c, err := schema.Int32("Matches", m[1])
			if err == nil {
				charge = c
			}
			ion = strings.TrimSpace(matchChargeRE.ReplaceAllString(ion, ""))
		}
		charges = append(charges, charge)
		types = append(types, ion)
	}
	return charges, types
}
