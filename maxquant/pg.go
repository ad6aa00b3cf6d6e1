package maxquant

import (
	"math"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/bigbio/quantmsio-go/chunked"
	"github.com/bigbio/quantmsio-go/intensity"
	"github.com/bigbio/quantmsio-go/schema"
	"github.com/bigbio/quantmsio-go/sdrf"
	"github.com/bigbio/quantmsio-go/tabular"
)

// labelFreeChannel is the channel marker used when the SDRF records no
// channel for a sample.
const labelFreeChannel = "label free sample"

// pgTransform converts proteinGroups.txt chunks to protein-group records.
// The protein-to-sample and standardized-intensity maps are built once by
// the coordinator and read concurrently by all workers.
type pgTransform struct {
	resolver       *sdrf.Resolver
	proteinSamples map[string][]string
	standardized   map[string]StandardizedIntensity
	mem            memory.Allocator
}

func (t *pgTransform) Name() string          { return "maxquant-pg" }
func (t *pgTransform) Schema() *arrow.Schema { return schema.PGSchema }

func (t *pgTransform) NewWorker() chunked.Worker { return &pgWorker{t: t} }

type pgWorker struct {
	t *pgTransform
}

// intensityColumns are the sample-specific column families of
// proteinGroups.txt, discovered once per chunk.
type intensityColumns struct {
	lfq  []string
	ibaq []string
}

func findIntensityColumns(chunk *tabular.Chunk) intensityColumns {
	var cols intensityColumns
	for _, n := range chunk.Names() {
		switch {
		case strings.HasPrefix(n, "LFQ intensity "):
			cols.lfq = append(cols.lfq, n)
		case strings.HasPrefix(n, "iBAQ ") && n != "iBAQ":
			cols.ibaq = append(cols.ibaq, n)
		}
	}
	return cols
}

func (w *pgWorker) Process(chunk *tabular.Chunk) (arrow.RecordBatch, error) {
	chunk.Rename(pgColumnMap)
	avail := chunk.Available()
	cols := findIntensityColumns(chunk)

	b := schema.NewPGBuilder(w.t.mem)
	defer b.Release()

	for i := 0; i < chunk.NumRows(); i++ {
		r := schema.ProteinGroup{
			PGAccessions: tabular.SplitList(chunk.Get("pg_accessions", i)),
			PGNames:      tabular.SplitList(chunk.Get("pg_names", i)),
			GGAccessions: tabular.SplitList(chunk.Get("gg_accessions", i)),
			IsDecoy:      schema.FlagToInt32(chunk.Get("is_decoy", i)),
			Contaminant:  schema.FlagToInt32(chunk.Get("contaminant", i)),
		}

		groupID := chunk.Get("id", i)
		samples := w.t.proteinSamples[groupID]

		var err error
		r.ReferenceFileName, err = w.structureIntensities(&r, chunk, i, avail, cols, samples, groupID)
		if err != nil {
			return nil, err
		}

		total, err := w.peptideTotal(chunk, i, avail)
		if err != nil {
			return nil, err
		}
		r.Peptides = allocatePeptides(r.PGAccessions, total)

		r.AnchorProtein = anchorProtein(chunk, i, avail, r.PGAccessions)

		uniqueCount, err := countOrDefault(chunk, i, avail, "peptide_count_unique")
		if err != nil {
			return nil, err
		}
		totalCount, err := countOrDefault(chunk, i, avail, "peptide_count_total")
		if err != nil {
			return nil, err
		}
		r.PeptideCounts = schema.SequenceCounts{Unique: uniqueCount, Total: totalCount}
		r.FeatureCounts = schema.SequenceCounts{Unique: uniqueCount, Total: totalCount}

		if r.AdditionalScores, err = extractScores(chunk, i, avail, pgScoreFields); err != nil {
			return nil, err
		}

		b.Append(r)
	}

	return b.NewRecordBatch(), nil
}

// structureIntensities fills the intensity structures of one protein group
// and returns the reference file name derived from its most intense sample.
// Groups with no sample mapping yield no sample-specific intensities.
func (w *pgWorker) structureIntensities(
	r *schema.ProteinGroup,
	chunk *tabular.Chunk,
	row int,
	avail map[string]bool,
	cols intensityColumns,
	samples []string,
	groupID string,
) (string, error) {
	referenceFile := "proteinGroups.txt"

	general, err := schema.OptFloat32("Intensity", chunk.Get("Intensity", row))
	if err != nil {
		return "", err
	}

	if len(samples) > 0 && general != nil && *general > 0 {
		maxIntensity := float32(0)
		for _, sample := range samples {
			r.Intensities = append(r.Intensities, schema.IntensityEntry{
				SampleAccession: sample,
				Channel:         w.channelFor(sample),
				Intensity:       *general,
			})
			if *general > maxIntensity {
				maxIntensity = *general
				if f := w.t.resolver.ReferenceFileForSample(sample); f != "" {
					referenceFile = f
				}
			}
		}
	}

	for _, sample := range samples {
		channel := w.channelFor(sample)

		for _, col := range cols.lfq {
			v, err := schema.OptFloat32(col, chunk.Get(col, row))
			if err != nil {
				return "", err
			}
			if v != nil && *v > 0 {
				r.AdditionalIntensities = append(r.AdditionalIntensities,
					additionalIntensity(col, *v, sample, channel))
				break
			}
		}

		if avail["iBAQ"] {
			v, err := schema.OptFloat32("iBAQ", chunk.Get("iBAQ", row))
			if err != nil {
				return "", err
			}
			if v != nil {
				r.AdditionalIntensities = append(r.AdditionalIntensities,
					additionalIntensity("iBAQ", *v, sample, channel))
			}
		}
		for _, col := range cols.ibaq {
			v, err := schema.OptFloat32(col, chunk.Get(col, row))
			if err != nil {
				return "", err
			}
			if v != nil && *v > 0 {
				r.AdditionalIntensities = append(r.AdditionalIntensities,
					additionalIntensity(col, *v, sample, channel))
				break
			}
		}
	}

	if std, ok := w.t.standardized[groupID]; ok && !(math.IsNaN(std.Total) && math.IsNaN(std.Top3)) {
		sample := referenceFile
		channel := labelFreeChannel
		if len(samples) > 0 {
			sample = samples[0]
			channel = w.channelFor(sample)
		}
		r.AdditionalIntensities = append(r.AdditionalIntensities,
			intensity.StandardizedEntry(sample, channel, std.Total, std.Top3))
	}

	return referenceFile, nil
}

func (w *pgWorker) channelFor(sample string) string {
	if c := w.t.resolver.ChannelForSample(sample); c != "" {
		return c
	}
	return labelFreeChannel
}

func additionalIntensity(name string, value float32, sample, channel string) schema.AdditionalIntensity {
	return schema.AdditionalIntensity{
		SampleAccession: sample,
		Channel:         channel,
		Intensities:     []schema.IntensityValue{{Name: name, Value: value}},
	}
}

// peptideTotal returns the first positive count among the peptide count
// columns, defaulting to 1.
func (w *pgWorker) peptideTotal(chunk *tabular.Chunk, row int, avail map[string]bool) (int32, error) {
	for _, col := range []string{"peptide_count_total", "peptide_count_razor_unique", "peptide_count_unique"} {
		if !avail[col] {
			continue
		}
		v := chunk.Get(col, row)
		if v == "" {
			continue
		}
		n, err := schema.Int32(col, v)
		if err != nil {
			return 0, err
		}
		if n > 0 {
			return n, nil
		}
	}
	return 1, nil
}

func countOrDefault(chunk *tabular.Chunk, row int, avail map[string]bool, col string) (int32, error) {
	if !avail[col] || chunk.Get(col, row) == "" {
		return 1, nil
	}
	return schema.Int32(col, chunk.Get(col, row))
}

// allocatePeptides distributes a group's total peptide count across its
// proteins. The anchor protein receives max(1, 60%) of the total; the
// remainder is split evenly, with the first remainder-mod-others proteins
// receiving one extra. Zero allocations are omitted.
func allocatePeptides(proteins []string, total int32) []schema.PeptideCount {
	if len(proteins) == 0 {
		return nil
	}
	if len(proteins) == 1 {
		return []schema.PeptideCount{{ProteinName: proteins[0], PeptideCount: total}}
	}

	main := int32(float64(total) * 0.6)
	if main < 1 {
		main = 1
	}
	remaining := total - main
	others := int32(len(proteins) - 1)

	out := []schema.PeptideCount{{ProteinName: proteins[0], PeptideCount: main}}
	for i := int32(1); i < int32(len(proteins)); i++ {
		var count int32
		if others > 0 && remaining > 0 {
			count = remaining / others
			if i <= remaining%others {
				count++
			}
		}
		if count > 0 {
			out = append(out, schema.PeptideCount{ProteinName: proteins[i], PeptideCount: count})
		}
	}
	return out
}

// anchorProtein picks the first majority protein id. The accession
// fallback applies only when the majority column itself is absent; an
// empty majority cell yields no anchor.
func anchorProtein(chunk *tabular.Chunk, row int, avail map[string]bool, accessions []string) *string {
	if avail["Majority protein IDs"] {
		if ids := tabular.SplitList(chunk.Get("Majority protein IDs", row)); len(ids) > 0 {
			return &ids[0]
		}
		return nil
	}
	if len(accessions) > 0 {
		return &accessions[0]
	}
	return nil
}
