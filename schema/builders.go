package schema

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

func fieldBuilder(b *array.RecordBuilder, s *arrow.Schema, name string) array.Builder {
	idx := s.FieldIndices(name)
	if len(idx) != 1 {
		panic("schema: unknown field " + name)
	}
	return b.Field(idx[0])
}

func appendString(fb array.Builder, v string) {
	fb.(*array.StringBuilder).Append(v)
}

func appendOptString(fb array.Builder, v *string) {
	sb := fb.(*array.StringBuilder)
	if v == nil {
		sb.AppendNull()
		return
	}
	sb.Append(*v)
}

func appendInt32(fb array.Builder, v int32) {
	fb.(*array.Int32Builder).Append(v)
}

func appendOptInt32(fb array.Builder, v *int32) {
	ib := fb.(*array.Int32Builder)
	if v == nil {
		ib.AppendNull()
		return
	}
	ib.Append(*v)
}

func appendFloat32(fb array.Builder, v float32) {
	fb.(*array.Float32Builder).Append(v)
}

func appendOptFloat32(fb array.Builder, v *float32) {
	flb := fb.(*array.Float32Builder)
	if v == nil {
		flb.AppendNull()
		return
	}
	flb.Append(*v)
}

// appendStringList appends vs as a list value. A nil slice becomes null when
// the field is nullable, otherwise an empty list.
func appendStringList(fb array.Builder, vs []string, nullable bool) {
	lb := fb.(*array.ListBuilder)
	if vs == nil && nullable {
		lb.AppendNull()
		return
	}
	lb.Append(true)
	vb := lb.ValueBuilder().(*array.StringBuilder)
	for _, v := range vs {
		vb.Append(v)
	}
}

func appendFloat32List(fb array.Builder, vs []float32, nullable bool) {
	lb := fb.(*array.ListBuilder)
	if vs == nil && nullable {
		lb.AppendNull()
		return
	}
	lb.Append(true)
	vb := lb.ValueBuilder().(*array.Float32Builder)
	for _, v := range vs {
		vb.Append(v)
	}
}

func appendInt32List(fb array.Builder, vs []int32, nullable bool) {
	lb := fb.(*array.ListBuilder)
	if vs == nil && nullable {
		lb.AppendNull()
		return
	}
	lb.Append(true)
	vb := lb.ValueBuilder().(*array.Int32Builder)
	for _, v := range vs {
		vb.Append(v)
	}
}

func appendScoreEntries(vb *array.StructBuilder, scores []ScoreEntry) {
	for _, s := range scores {
		vb.Append(true)
		vb.FieldBuilder(0).(*array.StringBuilder).Append(s.Name)
		vb.FieldBuilder(1).(*array.Float32Builder).Append(s.Value)
	}
}

func appendScores(fb array.Builder, scores []ScoreEntry) {
	lb := fb.(*array.ListBuilder)
	if scores == nil {
		lb.AppendNull()
		return
	}
	lb.Append(true)
	appendScoreEntries(lb.ValueBuilder().(*array.StructBuilder), scores)
}

func appendCVParams(fb array.Builder, params []CVParam) {
	lb := fb.(*array.ListBuilder)
	if params == nil {
		lb.AppendNull()
		return
	}
	lb.Append(true)
	vb := lb.ValueBuilder().(*array.StructBuilder)
	for _, p := range params {
		vb.Append(true)
		vb.FieldBuilder(0).(*array.StringBuilder).Append(p.Name)
		vb.FieldBuilder(1).(*array.StringBuilder).Append(p.Value)
	}
}

func appendModifications(fb array.Builder, mods []Modification) {
	lb := fb.(*array.ListBuilder)
	if mods == nil {
		lb.AppendNull()
		return
	}
	lb.Append(true)
	vb := lb.ValueBuilder().(*array.StructBuilder)
	for _, m := range mods {
		vb.Append(true)
		vb.FieldBuilder(0).(*array.StringBuilder).Append(m.Name)
		vb.FieldBuilder(1).(*array.StringBuilder).Append(m.Accession)
		plb := vb.FieldBuilder(2).(*array.ListBuilder)
		plb.Append(true)
		pb := plb.ValueBuilder().(*array.StructBuilder)
		for _, pos := range m.Positions {
			pb.Append(true)
			pb.FieldBuilder(0).(*array.StringBuilder).Append(pos.Position)
			slb := pb.FieldBuilder(1).(*array.ListBuilder)
			if pos.Scores == nil {
				slb.AppendNull()
				continue
			}
			slb.Append(true)
			appendScoreEntries(slb.ValueBuilder().(*array.StructBuilder), pos.Scores)
		}
	}
}

func appendIntensities(fb array.Builder, entries []IntensityEntry) {
	lb := fb.(*array.ListBuilder)
	lb.Append(true)
	vb := lb.ValueBuilder().(*array.StructBuilder)
	for _, e := range entries {
		vb.Append(true)
		vb.FieldBuilder(0).(*array.StringBuilder).Append(e.SampleAccession)
		cb := vb.FieldBuilder(1).(*array.StringBuilder)
		if e.Channel == "" {
			cb.AppendNull()
		} else {
			cb.Append(e.Channel)
		}
		vb.FieldBuilder(2).(*array.Float32Builder).Append(e.Intensity)
	}
}

func appendAdditionalIntensities(fb array.Builder, entries []AdditionalIntensity, nullable bool) {
	lb := fb.(*array.ListBuilder)
	if entries == nil && nullable {
		lb.AppendNull()
		return
	}
	lb.Append(true)
	vb := lb.ValueBuilder().(*array.StructBuilder)
	for _, e := range entries {
		vb.Append(true)
		vb.FieldBuilder(0).(*array.StringBuilder).Append(e.SampleAccession)
		cb := vb.FieldBuilder(1).(*array.StringBuilder)
		if e.Channel == "" {
			cb.AppendNull()
		} else {
			cb.Append(e.Channel)
		}
		ilb := vb.FieldBuilder(2).(*array.ListBuilder)
		ilb.Append(true)
		ib := ilb.ValueBuilder().(*array.StructBuilder)
		for _, v := range e.Intensities {
			ib.Append(true)
			ib.FieldBuilder(0).(*array.StringBuilder).Append(v.Name)
			ib.FieldBuilder(1).(*array.Float32Builder).Append(v.Value)
		}
	}
}

// PSMBuilder accumulates PSM records into an arrow record batch.
type PSMBuilder struct {
	b *array.RecordBuilder
}

func NewPSMBuilder(mem memory.Allocator) *PSMBuilder {
	return &PSMBuilder{b: array.NewRecordBuilder(mem, PSMSchema)}
}

func (pb *PSMBuilder) Append(r PSM) {
	b, s := pb.b, PSMSchema
	appendString(fieldBuilder(b, s, "sequence"), r.Sequence)
	appendString(fieldBuilder(b, s, "peptidoform"), r.Peptidoform)
	appendModifications(fieldBuilder(b, s, "modifications"), r.Modifications)
	appendInt32(fieldBuilder(b, s, "precursor_charge"), r.PrecursorCharge)
	appendOptFloat32(fieldBuilder(b, s, "posterior_error_probability"), r.PosteriorErrorProbability)
	appendInt32(fieldBuilder(b, s, "is_decoy"), r.IsDecoy)
	appendFloat32(fieldBuilder(b, s, "calculated_mz"), r.CalculatedMZ)
	appendFloat32(fieldBuilder(b, s, "observed_mz"), r.ObservedMZ)
	appendScores(fieldBuilder(b, s, "additional_scores"), r.AdditionalScores)
	appendStringList(fieldBuilder(b, s, "protein_accessions"), r.ProteinAccessions, false)
	appendString(fieldBuilder(b, s, "reference_file_name"), r.ReferenceFileName)
	appendString(fieldBuilder(b, s, "scan"), r.Scan)
	appendOptFloat32(fieldBuilder(b, s, "rt"), r.RT)
	appendOptFloat32(fieldBuilder(b, s, "ion_mobility"), r.IonMobility)
	appendCVParams(fieldBuilder(b, s, "cv_params"), r.CVParams)
	appendOptInt32(fieldBuilder(b, s, "number_peaks"), r.NumberPeaks)
	appendFloat32List(fieldBuilder(b, s, "mz_array"), r.MZArray, true)
	appendFloat32List(fieldBuilder(b, s, "intensity_array"), r.IntensityArray, true)
	appendInt32List(fieldBuilder(b, s, "charge_array"), r.ChargeArray, true)
	appendStringList(fieldBuilder(b, s, "ion_type_array"), r.IonTypeArray, true)
	appendFloat32List(fieldBuilder(b, s, "ion_mobility_array"), r.IonMobilityArray, true)
}

func (pb *PSMBuilder) NewRecordBatch() arrow.RecordBatch { return pb.b.NewRecordBatch() }

func (pb *PSMBuilder) Release() { pb.b.Release() }

// FeatureBuilder accumulates Feature records into an arrow record batch.
type FeatureBuilder struct {
	b *array.RecordBuilder
}

func NewFeatureBuilder(mem memory.Allocator) *FeatureBuilder {
	return &FeatureBuilder{b: array.NewRecordBuilder(mem, FeatureSchema)}
}

func (fb *FeatureBuilder) Append(r Feature) {
	b, s := fb.b, FeatureSchema
	appendString(fieldBuilder(b, s, "sequence"), r.Sequence)
	appendString(fieldBuilder(b, s, "peptidoform"), r.Peptidoform)
	appendModifications(fieldBuilder(b, s, "modifications"), r.Modifications)
	appendInt32(fieldBuilder(b, s, "precursor_charge"), r.PrecursorCharge)
	appendOptFloat32(fieldBuilder(b, s, "posterior_error_probability"), r.PosteriorErrorProbability)
	appendInt32(fieldBuilder(b, s, "is_decoy"), r.IsDecoy)
	appendFloat32(fieldBuilder(b, s, "calculated_mz"), r.CalculatedMZ)
	appendFloat32(fieldBuilder(b, s, "observed_mz"), r.ObservedMZ)
	appendScores(fieldBuilder(b, s, "additional_scores"), r.AdditionalScores)
	appendStringList(fieldBuilder(b, s, "protein_accessions"), r.ProteinAccessions, false)
	appendStringList(fieldBuilder(b, s, "pg_accessions"), r.PGAccessions, false)
	appendStringList(fieldBuilder(b, s, "gg_names"), r.GGNames, false)
	appendOptString(fieldBuilder(b, s, "anchor_protein"), r.AnchorProtein)
	appendInt32(fieldBuilder(b, s, "unique"), r.Unique)
	appendOptFloat32(fieldBuilder(b, s, "pg_global_qvalue"), r.PGGlobalQValue)
	appendIntensities(fieldBuilder(b, s, "intensities"), r.Intensities)
	appendAdditionalIntensities(fieldBuilder(b, s, "additional_intensities"), r.AdditionalIntensities, true)
	appendString(fieldBuilder(b, s, "reference_file_name"), r.ReferenceFileName)
	appendString(fieldBuilder(b, s, "scan"), r.Scan)
	appendOptFloat32(fieldBuilder(b, s, "rt"), r.RT)
	appendOptFloat32(fieldBuilder(b, s, "rt_start"), r.RTStart)
	appendOptFloat32(fieldBuilder(b, s, "rt_stop"), r.RTStop)
	appendOptFloat32(fieldBuilder(b, s, "predicted_rt"), r.PredictedRT)
	appendOptFloat32(fieldBuilder(b, s, "ion_mobility"), r.IonMobility)
	appendOptFloat32(fieldBuilder(b, s, "start_ion_mobility"), r.StartIonMobility)
	appendOptFloat32(fieldBuilder(b, s, "stop_ion_mobility"), r.StopIonMobility)
	appendCVParams(fieldBuilder(b, s, "cv_params"), r.CVParams)
}

func (fb *FeatureBuilder) NewRecordBatch() arrow.RecordBatch { return fb.b.NewRecordBatch() }

func (fb *FeatureBuilder) Release() { fb.b.Release() }

// PGBuilder accumulates ProteinGroup records into an arrow record batch.
type PGBuilder struct {
	b *array.RecordBuilder
}

func NewPGBuilder(mem memory.Allocator) *PGBuilder {
	return &PGBuilder{b: array.NewRecordBuilder(mem, PGSchema)}
}

func (gb *PGBuilder) Append(r ProteinGroup) {
	b, s := gb.b, PGSchema
	appendStringList(fieldBuilder(b, s, "pg_accessions"), r.PGAccessions, false)
	appendStringList(fieldBuilder(b, s, "pg_names"), r.PGNames, false)
	appendStringList(fieldBuilder(b, s, "gg_accessions"), r.GGAccessions, false)
	appendString(fieldBuilder(b, s, "reference_file_name"), r.ReferenceFileName)
	appendOptString(fieldBuilder(b, s, "anchor_protein"), r.AnchorProtein)
	appendInt32(fieldBuilder(b, s, "is_decoy"), r.IsDecoy)
	appendInt32(fieldBuilder(b, s, "contaminant"), r.Contaminant)

	plb := fieldBuilder(b, s, "peptides").(*array.ListBuilder)
	plb.Append(true)
	pvb := plb.ValueBuilder().(*array.StructBuilder)
	for _, p := range r.Peptides {
		pvb.Append(true)
		pvb.FieldBuilder(0).(*array.StringBuilder).Append(p.ProteinName)
		pvb.FieldBuilder(1).(*array.Int32Builder).Append(p.PeptideCount)
	}

	pcb := fieldBuilder(b, s, "peptide_counts").(*array.StructBuilder)
	pcb.Append(true)
	pcb.FieldBuilder(0).(*array.Int32Builder).Append(r.PeptideCounts.Unique)
	pcb.FieldBuilder(1).(*array.Int32Builder).Append(r.PeptideCounts.Total)

	fcb := fieldBuilder(b, s, "feature_counts").(*array.StructBuilder)
	fcb.Append(true)
	fcb.FieldBuilder(0).(*array.Int32Builder).Append(r.FeatureCounts.Unique)
	fcb.FieldBuilder(1).(*array.Int32Builder).Append(r.FeatureCounts.Total)

	appendIntensities(fieldBuilder(b, s, "intensities"), r.Intensities)
	appendAdditionalIntensities(fieldBuilder(b, s, "additional_intensities"), r.AdditionalIntensities, false)
	appendScores(fieldBuilder(b, s, "additional_scores"), r.AdditionalScores)
}

func (gb *PGBuilder) NewRecordBatch() arrow.RecordBatch { return gb.b.NewRecordBatch() }

func (gb *PGBuilder) Release() { gb.b.Release() }
