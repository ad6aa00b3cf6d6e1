package maxquant

import (
	"log"
	"sort"

	"github.com/bigbio/quantmsio-go/chunked"
	"github.com/bigbio/quantmsio-go/intensity"
	"github.com/bigbio/quantmsio-go/schema"
	"github.com/bigbio/quantmsio-go/sdrf"
	"github.com/bigbio/quantmsio-go/tabular"
)

// evidenceScanChunkSize bounds memory during the sequential evidence scans
// that run before the parallel pass.
const evidenceScanChunkSize = 500000

// BuildProteinSampleMap streams evidence.txt and maps every protein group id
// to the sorted set of sample accessions it was observed in. Built once and
// shared read-only by all workers.
func BuildProteinSampleMap(evidencePath string, resolver *sdrf.Resolver) (map[string][]string, error) {
	sets := make(map[string]map[string]bool)
	totalRows := 0

	err := chunked.ReadChunks(evidencePath, evidenceScanChunkSize, '\t', func(chunk *tabular.Chunk) error {
		for i := 0; i < chunk.NumRows(); i++ {
			rawFile := chunk.Get("Raw file", i)
			groupIDs := chunk.Get("Protein group IDs", i)
			if rawFile == "" || groupIDs == "" {
				continue
			}
			sample := resolver.ResolveSample(rawFile, "")
			for _, id := range tabular.SplitList(groupIDs) {
				set, ok := sets[id]
				if !ok {
					set = make(map[string]bool)
					sets[id] = set
				}
				set[sample] = true
			}
			totalRows++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string, len(sets))
	for id, set := range sets {
		samples := make([]string, 0, len(set))
		for s := range set {
			samples = append(samples, s)
		}
		sort.Strings(samples)
		out[id] = samples
	}

	log.Printf("built protein to sample mapping for %d protein groups from %d evidence rows",
		len(out), totalRows)
	return out, nil
}

// StandardizedIntensity carries the precomputed protein-level metrics for
// one protein group.
type StandardizedIntensity struct {
	Total float64
	Top3  float64
}

// BuildStandardizedIntensities streams evidence.txt and precomputes
// total_all_peptides_intensity and top3_intensity per protein group, so the
// parallel pass never touches evidence data.
func BuildStandardizedIntensities(evidencePath string) (map[string]StandardizedIntensity, error) {
	type acc struct {
		sequences   []string
		intensities []float64
	}
	groups := make(map[string]*acc)

	err := chunked.ReadChunks(evidencePath, evidenceScanChunkSize, '\t', func(chunk *tabular.Chunk) error {
		for i := 0; i < chunk.NumRows(); i++ {
			groupIDs := chunk.Get("Protein group IDs", i)
			if groupIDs == "" {
				continue
			}
			v, err := schema.OptFloat32("Intensity", chunk.Get("Intensity", i))
			if err != nil || v == nil || *v <= 0 {
				continue
			}
			seq := chunk.Get("Sequence", i)
			for _, id := range tabular.SplitList(groupIDs) {
				g, ok := groups[id]
				if !ok {
					g = &acc{}
					groups[id] = g
				}
				g.sequences = append(g.sequences, seq)
				g.intensities = append(g.intensities, float64(*v))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]StandardizedIntensity, len(groups))
	for id, g := range groups {
		out[id] = StandardizedIntensity{
			Total: intensity.TotalAllPeptides(g.intensities),
			Top3:  intensity.Top3Peptide(g.sequences, g.intensities),
		}
	}

	log.Printf("calculated standardized intensities for %d protein groups", len(out))
	return out, nil
}

// BuildQValueMap streams proteinGroups.txt and maps each majority protein id
// to its group's q-value, for the feature pipeline's pg_global_qvalue.
func BuildQValueMap(proteinGroupsPath string) (map[string]float32, error) {
	out := make(map[string]float32)

	err := chunked.ReadChunks(proteinGroupsPath, evidenceScanChunkSize, '\t', func(chunk *tabular.Chunk) error {
		for i := 0; i < chunk.NumRows(); i++ {
			q, err := schema.OptFloat32("Q-value", chunk.Get("Q-value", i))
			if err != nil || q == nil {
				continue
			}
			for _, id := range tabular.SplitList(chunk.Get("Majority protein IDs", i)) {
				out[id] = *q
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("built q-value mapping for %d proteins", len(out))
	return out, nil
}
