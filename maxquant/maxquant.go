package maxquant

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/bigbio/quantmsio-go/chunked"
	"github.com/bigbio/quantmsio-go/sdrf"
)

// Options configures the MaxQuant pipelines.
type Options struct {
	// SDRFPath is the experiment design file; empty disables sample and
	// channel resolution.
	SDRFPath string
	// ProteinGroupsPath overrides the proteinGroups.txt used for the feature
	// pipeline's q-value map; by default a proteinGroups.txt next to the
	// evidence file is used when present.
	ProteinGroupsPath string
	ChunkSize         int
	Workers           int
	// MemoryLimitGB is advisory; it is logged to guide chunk-size choice.
	MemoryLimitGB float64
	// SpectralData enables parsing of raw peak arrays from msms.txt.
	SpectralData bool
	// StandardizedIntensities enables the evidence-derived
	// total_all_peptides_intensity and top3_intensity metrics on PG output.
	StandardizedIntensities bool
	Mem                     memory.Allocator
}

func (o *Options) fill() {
	if o.Mem == nil {
		o.Mem = memory.NewGoAllocator()
	}
	if o.MemoryLimitGB > 0 {
		log.Printf("memory budget: %.1f GB (advisory)", o.MemoryLimitGB)
	}
}

func (o *Options) loadSDRF() (*sdrf.Resolver, error) {
	if o.SDRFPath == "" {
		return nil, nil
	}
	resolver, err := sdrf.Load(o.SDRFPath)
	if err != nil {
		return nil, err
	}
	exp := resolver.Experiment()
	log.Printf("experiment type: %s (%d channels)", exp.Kind, len(exp.Channels))
	return resolver, nil
}

func (o *Options) chunkedOptions() chunked.Options {
	return chunked.Options{
		ChunkSize: o.ChunkSize,
		Workers:   o.Workers,
		Mem:       o.Mem,
	}
}

// ProcessPSMFile converts msms.txt to a PSM parquet file.
func ProcessPSMFile(msmsPath, outputPath string, opts Options) error {
	opts.fill()
	if opts.SpectralData {
		log.Printf("loading spectra information")
	}
	t := &psmTransform{spectralData: opts.SpectralData, mem: opts.Mem}
	return chunked.Process(msmsPath, outputPath, t, opts.chunkedOptions())
}

// ProcessFeatureFile converts evidence.txt to a feature parquet file. When a
// proteinGroups.txt is available the feature rows carry the group's minimum
// q-value in pg_global_qvalue.
func ProcessFeatureFile(evidencePath, outputPath string, opts Options) error {
	opts.fill()

	resolver, err := opts.loadSDRF()
	if err != nil {
		return err
	}

	pgPath := opts.ProteinGroupsPath
	if pgPath == "" {
		sibling := filepath.Join(filepath.Dir(evidencePath), "proteinGroups.txt")
		if _, err := os.Stat(sibling); err == nil {
			pgPath = sibling
		}
	}

	var qvalues map[string]float32
	if pgPath != "" {
		if qvalues, err = BuildQValueMap(pgPath); err != nil {
			return fmt.Errorf("cannot build q-value map: %w", err)
		}
	}

	t := &featureTransform{resolver: resolver, qvalues: qvalues, mem: opts.Mem}
	return chunked.Process(evidencePath, outputPath, t, opts.chunkedOptions())
}

// ProcessPGFile converts proteinGroups.txt to a protein-group parquet file.
// evidencePath feeds the protein-to-sample mapping and, when enabled, the
// standardized intensity metrics; both are built once before the parallel
// pass.
func ProcessPGFile(proteinGroupsPath, outputPath, evidencePath string, opts Options) error {
	opts.fill()

	resolver, err := opts.loadSDRF()
	if err != nil {
		return err
	}

	var proteinSamples map[string][]string
	if evidencePath != "" {
		if proteinSamples, err = BuildProteinSampleMap(evidencePath, resolver); err != nil {
			return fmt.Errorf("cannot build protein to sample mapping: %w", err)
		}
	}

	var standardized map[string]StandardizedIntensity
	if opts.StandardizedIntensities {
		if evidencePath == "" {
			return fmt.Errorf("standardized intensities require an evidence file")
		}
		if standardized, err = BuildStandardizedIntensities(evidencePath); err != nil {
			return fmt.Errorf("cannot build standardized intensities: %w", err)
		}
	}

	t := &pgTransform{
		resolver:       resolver,
		proteinSamples: proteinSamples,
		standardized:   standardized,
		mem:            opts.Mem,
	}
	return chunked.Process(proteinGroupsPath, outputPath, t, opts.chunkedOptions())
}
