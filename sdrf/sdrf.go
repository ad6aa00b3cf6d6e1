// Package sdrf resolves sample accessions and labeling channels from an
// SDRF experiment design file.
package sdrf

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bigbio/quantmsio-go/chunked"
	"github.com/bigbio/quantmsio-go/tabular"
)

// ExperimentKind distinguishes label-free from multiplexed designs.
type ExperimentKind int

const (
	LabelFree ExperimentKind = iota
	Multiplexed
)

func (k ExperimentKind) String() string {
	if k == Multiplexed {
		return "multiplexed"
	}
	return "LFQ"
}

// Experiment summarizes the design read from the SDRF: its kind and, for
// multiplexed designs, the sorted list of labeling channels.
type Experiment struct {
	Kind     ExperimentKind
	Channels []string
}

// Resolver maps raw file references to sample accessions and channels. A
// nil Resolver is valid and resolves everything to its fallback.
type Resolver struct {
	experiment Experiment

	// label-free: fileKey -> sample / channel
	// multiplexed: "fileKey-channel" -> sample
	sampleByKey     map[string]string
	channelByFile   map[string]string
	channelBySample map[string]string
	fileBySample    map[string]string
}

// FileKey normalizes a raw file reference to the stem before the first dot,
// the form SDRF rows are keyed by.
func FileKey(referenceFile string) string {
	if i := strings.Index(referenceFile, "."); i >= 0 {
		return referenceFile[:i]
	}
	return referenceFile
}

// Load reads an SDRF file. The source name, data file and label columns are
// matched case-insensitively.
func Load(path string) (*Resolver, error) {
	r := &Resolver{
		sampleByKey:     make(map[string]string),
		channelByFile:   make(map[string]string),
		channelBySample: make(map[string]string),
		fileBySample:    make(map[string]string),
	}

	channelSet := make(map[string]bool)

	err := chunked.ReadChunks(path, 0, '\t', func(chunk *tabular.Chunk) error {
		var sourceCol, fileCol, labelCol string
		for _, n := range chunk.Names() {
			switch strings.ToLower(n) {
			case "source name":
				sourceCol = n
			case "comment[data file]":
				fileCol = n
			case "comment[label]":
				labelCol = n
			}
		}
		if sourceCol == "" || fileCol == "" {
			return fmt.Errorf("missing source name or data file column")
		}

		for i := 0; i < chunk.NumRows(); i++ {
			sample := strings.TrimSpace(chunk.Get(sourceCol, i))
			fileKey := FileKey(strings.TrimSpace(chunk.Get(fileCol, i)))
			if sample == "" || fileKey == "" {
				continue
			}
			var label string
			if labelCol != "" {
				label = strings.TrimSpace(chunk.Get(labelCol, i))
			}

			upper := strings.ToUpper(label)
			if strings.Contains(upper, "TMT") || strings.Contains(upper, "ITRAQ") {
				channelSet[label] = true
				r.sampleByKey[fileKey+"-"+label] = sample
			} else {
				r.sampleByKey[fileKey] = sample
				if label != "" {
					r.channelByFile[fileKey] = label
				}
			}
			if label != "" {
				r.channelBySample[sample] = label
			}
			r.fileBySample[sample] = fileKey
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cannot load SDRF %s: %w", path, err)
	}

	if len(channelSet) > 0 {
		r.experiment.Kind = Multiplexed
		for c := range channelSet {
			r.experiment.Channels = append(r.experiment.Channels, c)
		}
		sort.Strings(r.experiment.Channels)
	}

	return r, nil
}

// Experiment returns the design summary. A nil resolver is label-free.
func (r *Resolver) Experiment() Experiment {
	if r == nil {
		return Experiment{}
	}
	return r.experiment
}

// ResolveSample maps a raw file reference, and the channel for multiplexed
// designs, to a sample accession. Unmapped references resolve to the raw
// file name itself.
func (r *Resolver) ResolveSample(referenceFile, channel string) string {
	if r == nil {
		return referenceFile
	}
	fileKey := FileKey(referenceFile)
	if r.experiment.Kind == Multiplexed && channel != "" {
		if s, ok := r.sampleByKey[fileKey+"-"+channel]; ok {
			return s
		}
		return referenceFile
	}
	if s, ok := r.sampleByKey[fileKey]; ok {
		return s
	}
	return referenceFile
}

// ResolveChannel returns the channel recorded for a raw file in a
// label-free design, or "" when none is known.
func (r *Resolver) ResolveChannel(referenceFile string) string {
	if r == nil {
		return ""
	}
	return r.channelByFile[FileKey(referenceFile)]
}

// ChannelForSample returns the label recorded for a sample accession, or ""
// when the sample is unknown or unlabeled.
func (r *Resolver) ChannelForSample(sample string) string {
	if r == nil {
		return ""
	}
	return r.channelBySample[sample]
}

// ReferenceFileForSample returns the file key a sample was acquired in, or
// "" when the sample is unknown.
func (r *Resolver) ReferenceFileForSample(sample string) string {
	if r == nil {
		return ""
	}
	return r.fileBySample[sample]
}
