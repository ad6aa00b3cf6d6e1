// Package schema defines the fixed quantms.io output schemas (PSM, Feature,
// Protein Group), the Go record types that carry one row of each kind, and
// the builders that serialize records into arrow record batches. The field
// set, order, and types of each schema are a compatibility contract with
// downstream consumers and must not change.
package schema

// ScoreEntry is a named auxiliary score attached to a record.
type ScoreEntry struct {
	Name  string
	Value float32
}

// CVParam is a controlled-vocabulary parameter captured from the source file.
type CVParam struct {
	Name  string
	Value string
}

// ModPosition locates one occurrence of a modification on a peptide.
// Position is a label of the form "<residue>.<index>" with 1-based indices,
// or the terminal sentinels "N-term.0" and "C-term.<len+1>".
type ModPosition struct {
	Position string
	Scores   []ScoreEntry
}

// Modification is a named modification with all positions it occurs at.
type Modification struct {
	Name      string
	Accession string
	Positions []ModPosition
}

// IntensityEntry is one per-sample, per-channel quantification value.
type IntensityEntry struct {
	SampleAccession string
	Channel         string
	Intensity       float32
}

// IntensityValue is a named intensity inside an AdditionalIntensity slot.
type IntensityValue struct {
	Name  string
	Value float32
}

// AdditionalIntensity is the open-ended extension slot for per-sample
// intensity variants (corrected reporter intensities, LFQ, iBAQ,
// total_all_peptides_intensity, top3_intensity).
type AdditionalIntensity struct {
	SampleAccession string
	Channel         string
	Intensities     []IntensityValue
}

// PeptideCount allocates a peptide count to one protein of a group.
type PeptideCount struct {
	ProteinName  string
	PeptideCount int32
}

// PSM is one peptide-spectrum match row.
type PSM struct {
	Sequence                  string
	Peptidoform               string
	Modifications             []Modification
	PrecursorCharge           int32
	PosteriorErrorProbability *float32
	IsDecoy                   int32
	CalculatedMZ              float32
	ObservedMZ                float32
	AdditionalScores          []ScoreEntry
	ProteinAccessions         []string
	ReferenceFileName         string
	Scan                      string
	RT                        *float32
	IonMobility               *float32
	CVParams                  []CVParam
	NumberPeaks               *int32
	MZArray                   []float32
	IntensityArray            []float32
	ChargeArray               []int32
	IonTypeArray              []string
	IonMobilityArray          []float32
}

// Feature is one quantified peptide-level row.
type Feature struct {
	Sequence                  string
	Peptidoform               string
	Modifications             []Modification
	PrecursorCharge           int32
	PosteriorErrorProbability *float32
	IsDecoy                   int32
	CalculatedMZ              float32
	ObservedMZ                float32
	AdditionalScores          []ScoreEntry
	ProteinAccessions         []string
	PGAccessions              []string
	GGNames                   []string
	AnchorProtein             *string
	Unique                    int32
	PGGlobalQValue            *float32
	Intensities               []IntensityEntry
	AdditionalIntensities     []AdditionalIntensity
	ReferenceFileName         string
	Scan                      string
	RT                        *float32
	RTStart                   *float32
	RTStop                    *float32
	PredictedRT               *float32
	IonMobility               *float32
	StartIonMobility          *float32
	StopIonMobility           *float32
	CVParams                  []CVParam
}

// SequenceCounts summarizes distinct and total sequences behind a group.
type SequenceCounts struct {
	Unique int32
	Total  int32
}

// ProteinGroup is one inferred protein-group row.
type ProteinGroup struct {
	PGAccessions          []string
	PGNames               []string
	GGAccessions          []string
	ReferenceFileName     string
	AnchorProtein         *string
	IsDecoy               int32
	Contaminant           int32
	Peptides              []PeptideCount
	PeptideCounts         SequenceCounts
	FeatureCounts         SequenceCounts
	Intensities           []IntensityEntry
	AdditionalIntensities []AdditionalIntensity
	AdditionalScores      []ScoreEntry
}
