package maxquant

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/bigbio/quantmsio-go/chunked"
	"github.com/bigbio/quantmsio-go/peptide"
	"github.com/bigbio/quantmsio-go/schema"
	"github.com/bigbio/quantmsio-go/sdrf"
	"github.com/bigbio/quantmsio-go/tabular"
)

// featureTransform converts evidence.txt chunks to feature records.
type featureTransform struct {
	resolver *sdrf.Resolver
	qvalues  map[string]float32
	mem      memory.Allocator
}

func (t *featureTransform) Name() string          { return "maxquant-feature" }
func (t *featureTransform) Schema() *arrow.Schema { return schema.FeatureSchema }

func (t *featureTransform) NewWorker() chunked.Worker {
	return &featureWorker{t: t, cache: peptide.NewCache()}
}

type featureWorker struct {
	t     *featureTransform
	cache *peptide.Cache
}

func (w *featureWorker) Process(chunk *tabular.Chunk) (arrow.RecordBatch, error) {
	chunk.Rename(featureColumnMap)
	avail := chunk.Available()

	b := schema.NewFeatureBuilder(w.t.mem)
	defer b.Release()

	exp := w.t.resolver.Experiment()

	for i := 0; i < chunk.NumRows(); i++ {
		r := schema.Feature{
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

		for _, f := range []struct {
			name string
			dst  **float32
		}{
			{"rt", &r.RT},
			{"rt_start", &r.RTStart},
			{"rt_stop", &r.RTStop},
		} {
			v, err := schema.OptFloat32(f.name, chunk.Get(f.name, i))
			if err != nil {
				return nil, err
			}
			*f.dst = schema.MinutesToSeconds(v)
		}

		if r.IonMobility, err = schema.OptFloat32("ion_mobility", chunk.Get("ion_mobility", i)); err != nil {
			return nil, err
		}

		r.ProteinAccessions = tabular.SplitList(chunk.Get("protein_accessions", i))
		r.PGAccessions = tabular.SplitList(chunk.Get("pg_accessions", i))
		r.GGNames = tabular.SplitList(chunk.Get("gg_names", i))
		if len(r.PGAccessions) == 1 {
			r.Unique = 1
		}

		r.PGGlobalQValue = w.minQValue(r.PGAccessions)

		if r.AdditionalScores, err = extractScores(chunk, i, avail, scoreFields); err != nil {
			return nil, err
		}
		r.CVParams = extractCVParams(chunk, i, avail, featureCVColumns)

		if r.Intensities, r.AdditionalIntensities, err = w.structureIntensities(chunk, i, avail, exp, r.ReferenceFileName); err != nil {
			return nil, err
		}

		b.Append(r)
	}

	return b.NewRecordBatch(), nil
}

// minQValue returns the smallest mapped q-value across a feature's protein
// accessions, or nil when none are mapped.
func (w *featureWorker) minQValue(accessions []string) *float32 {
	if len(w.t.qvalues) == 0 {
		return nil
	}
	var min *float32
	for _, acc := range accessions {
		q, ok := w.t.qvalues[acc]
		if !ok {
			continue
		}
		if min == nil || q < *min {
			v := q
			min = &v
		}
	}
	return min
}

// structureIntensities builds the per-sample intensity entries. Multiplexed
// designs emit one entry per reporter channel with a positive intensity;
// label-free designs emit a single entry from the general intensity column.
func (w *featureWorker) structureIntensities(
	chunk *tabular.Chunk,
	row int,
	avail map[string]bool,
	exp sdrf.Experiment,
	referenceFile string,
) ([]schema.IntensityEntry, []schema.AdditionalIntensity, error) {
	if exp.Kind == sdrf.Multiplexed {
		return w.structureReporterIntensities(chunk, row, avail, exp.Channels, referenceFile)
	}

	v, err := schema.OptFloat32("intensity", chunk.Get("intensity", row))
	if err != nil {
		return nil, nil, err
	}
	if v == nil || *v <= 0 {
		return nil, nil, nil
	}
	entry := schema.IntensityEntry{
		SampleAccession: w.t.resolver.ResolveSample(referenceFile, ""),
		Channel:         w.t.resolver.ResolveChannel(referenceFile),
		Intensity:       *v,
	}
	return []schema.IntensityEntry{entry}, nil, nil
}

// structureReporterIntensities reads the "Reporter intensity N" column
// family. MaxQuant numbers reporters from 0 or 1 depending on version; both
// are tried. Corrected reporter intensities go to additional_intensities
// under the source column name.
func (w *featureWorker) structureReporterIntensities(
	chunk *tabular.Chunk,
	row int,
	avail map[string]bool,
	channels []string,
	referenceFile string,
) ([]schema.IntensityEntry, []schema.AdditionalIntensity, error) {
	var intensities []schema.IntensityEntry
	var additional []schema.AdditionalIntensity

	for i, channel := range channels {
		var reporterCol string
		for _, candidate := range []string{
			fmt.Sprintf("Reporter intensity %d", i),
			fmt.Sprintf("Reporter intensity %d", i+1),
		} {
			if avail[candidate] {
				reporterCol = candidate
				break
			}
		}
		if reporterCol == "" {
			continue
		}

		v, err := schema.OptFloat32(reporterCol, chunk.Get(reporterCol, row))
		if err != nil {
			return nil, nil, err
		}
		if v == nil || *v <= 0 {
			continue
		}

		sample := w.t.resolver.ResolveSample(referenceFile, channel)
		intensities = append(intensities, schema.IntensityEntry{
			SampleAccession: sample,
			Channel:         channel,
			Intensity:       *v,
		})

		correctedCol := "Reporter intensity corrected" + reporterCol[len("Reporter intensity"):]
		if avail[correctedCol] {
			cv, err := schema.OptFloat32(correctedCol, chunk.Get(correctedCol, row))
			if err != nil {
				return nil, nil, err
			}
			if cv != nil {
				additional = append(additional, schema.AdditionalIntensity{
					SampleAccession: sample,
					Channel:         channel,
					Intensities: []schema.IntensityValue{
						{Name: correctedCol, Value: *cv},
					},
				})
			}
		}
	}

	return intensities, additional, nil
}
