package schema

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// Nested field types shared by more than one record kind.
var (
	scoreEntryType = arrow.StructOf(
		arrow.Field{Name: "score_name", Type: arrow.BinaryTypes.String},
		arrow.Field{Name: "score_value", Type: arrow.PrimitiveTypes.Float32},
	)

	cvParamType = arrow.StructOf(
		arrow.Field{Name: "cv_name", Type: arrow.BinaryTypes.String},
		arrow.Field{Name: "cv_value", Type: arrow.BinaryTypes.String},
	)

	modPositionType = arrow.StructOf(
		arrow.Field{Name: "position", Type: arrow.BinaryTypes.String},
		arrow.Field{Name: "scores", Type: arrow.ListOf(scoreEntryType), Nullable: true},
	)

	modificationType = arrow.StructOf(
		arrow.Field{Name: "name", Type: arrow.BinaryTypes.String},
		arrow.Field{Name: "accession", Type: arrow.BinaryTypes.String},
		arrow.Field{Name: "positions", Type: arrow.ListOf(modPositionType)},
	)

	intensityType = arrow.StructOf(
		arrow.Field{Name: "sample_accession", Type: arrow.BinaryTypes.String},
		arrow.Field{Name: "channel", Type: arrow.BinaryTypes.String, Nullable: true},
		arrow.Field{Name: "intensity", Type: arrow.PrimitiveTypes.Float32},
	)

	intensityValueType = arrow.StructOf(
		arrow.Field{Name: "intensity_name", Type: arrow.BinaryTypes.String},
		arrow.Field{Name: "intensity_value", Type: arrow.PrimitiveTypes.Float32},
	)

	additionalIntensityType = arrow.StructOf(
		arrow.Field{Name: "sample_accession", Type: arrow.BinaryTypes.String},
		arrow.Field{Name: "channel", Type: arrow.BinaryTypes.String, Nullable: true},
		arrow.Field{Name: "intensities", Type: arrow.ListOf(intensityValueType)},
	)

	peptideCountType = arrow.StructOf(
		arrow.Field{Name: "protein_name", Type: arrow.BinaryTypes.String},
		arrow.Field{Name: "peptide_count", Type: arrow.PrimitiveTypes.Int32},
	)
)

// PSMSchema is the fixed output schema for peptide-spectrum match files.
var PSMSchema = arrow.NewSchema([]arrow.Field{
	{Name: "sequence", Type: arrow.BinaryTypes.String},
	{Name: "peptidoform", Type: arrow.BinaryTypes.String},
	{Name: "modifications", Type: arrow.ListOf(modificationType), Nullable: true},
	{Name: "precursor_charge", Type: arrow.PrimitiveTypes.Int32},
	{Name: "posterior_error_probability", Type: arrow.PrimitiveTypes.Float32, Nullable: true},
	{Name: "is_decoy", Type: arrow.PrimitiveTypes.Int32},
	{Name: "calculated_mz", Type: arrow.PrimitiveTypes.Float32},
	{Name: "observed_mz", Type: arrow.PrimitiveTypes.Float32},
	{Name: "additional_scores", Type: arrow.ListOf(scoreEntryType), Nullable: true},
	{Name: "protein_accessions", Type: arrow.ListOf(arrow.BinaryTypes.String)},
	{Name: "reference_file_name", Type: arrow.BinaryTypes.String},
	{Name: "scan", Type: arrow.BinaryTypes.String},
	{Name: "rt", Type: arrow.PrimitiveTypes.Float32, Nullable: true},
	{Name: "ion_mobility", Type: arrow.PrimitiveTypes.Float32, Nullable: true},
	{Name: "cv_params", Type: arrow.ListOf(cvParamType), Nullable: true},
	{Name: "number_peaks", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	{Name: "mz_array", Type: arrow.ListOf(arrow.PrimitiveTypes.Float32), Nullable: true},
	{Name: "intensity_array", Type: arrow.ListOf(arrow.PrimitiveTypes.Float32), Nullable: true},
	{Name: "charge_array", Type: arrow.ListOf(arrow.PrimitiveTypes.Int32), Nullable: true},
	{Name: "ion_type_array", Type: arrow.ListOf(arrow.BinaryTypes.String), Nullable: true},
	{Name: "ion_mobility_array", Type: arrow.ListOf(arrow.PrimitiveTypes.Float32), Nullable: true},
}, nil)

// FeatureSchema is the fixed output schema for quantified peptide features.
var FeatureSchema = arrow.NewSchema([]arrow.Field{
	{Name: "sequence", Type: arrow.BinaryTypes.String},
	{Name: "peptidoform", Type: arrow.BinaryTypes.String},
	{Name: "modifications", Type: arrow.ListOf(modificationType), Nullable: true},
	{Name: "precursor_charge", Type: arrow.PrimitiveTypes.Int32},
	{Name: "posterior_error_probability", Type: arrow.PrimitiveTypes.Float32, Nullable: true},
	{Name: "is_decoy", Type: arrow.PrimitiveTypes.Int32},
	{Name: "calculated_mz", Type: arrow.PrimitiveTypes.Float32},
	{Name: "observed_mz", Type: arrow.PrimitiveTypes.Float32},
	{Name: "additional_scores", Type: arrow.ListOf(scoreEntryType), Nullable: true},
	{Name: "protein_accessions", Type: arrow.ListOf(arrow.BinaryTypes.String)},
	{Name: "pg_accessions", Type: arrow.ListOf(arrow.BinaryTypes.String)},
	{Name: "gg_names", Type: arrow.ListOf(arrow.BinaryTypes.String)},
	{Name: "anchor_protein", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "unique", Type: arrow.PrimitiveTypes.Int32},
	{Name: "pg_global_qvalue", Type: arrow.PrimitiveTypes.Float32, Nullable: true},
	{Name: "intensities", Type: arrow.ListOf(intensityType)},
	{Name: "additional_intensities", Type: arrow.ListOf(additionalIntensityType), Nullable: true},
	{Name: "reference_file_name", Type: arrow.BinaryTypes.String},
	{Name: "scan", Type: arrow.BinaryTypes.String},
	{Name: "rt", Type: arrow.PrimitiveTypes.Float32, Nullable: true},
	{Name: "rt_start", Type: arrow.PrimitiveTypes.Float32, Nullable: true},
	{Name: "rt_stop", Type: arrow.PrimitiveTypes.Float32, Nullable: true},
	{Name: "predicted_rt", Type: arrow.PrimitiveTypes.Float32, Nullable: true},
	{Name: "ion_mobility", Type: arrow.PrimitiveTypes.Float32, Nullable: true},
	{Name: "start_ion_mobility", Type: arrow.PrimitiveTypes.Float32, Nullable: true},
	{Name: "stop_ion_mobility", Type: arrow.PrimitiveTypes.Float32, Nullable: true},
	{Name: "cv_params", Type: arrow.ListOf(cvParamType), Nullable: true},
}, nil)

// PGSchema is the fixed output schema for protein-group files.
var PGSchema = arrow.NewSchema([]arrow.Field{
	{Name: "pg_accessions", Type: arrow.ListOf(arrow.BinaryTypes.String)},
	{Name: "pg_names", Type: arrow.ListOf(arrow.BinaryTypes.String)},
	{Name: "gg_accessions", Type: arrow.ListOf(arrow.BinaryTypes.String)},
	{Name: "reference_file_name", Type: arrow.BinaryTypes.String},
	{Name: "anchor_protein", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "is_decoy", Type: arrow.PrimitiveTypes.Int32},
	{Name: "contaminant", Type: arrow.PrimitiveTypes.Int32},
	{Name: "peptides", Type: arrow.ListOf(peptideCountType)},
	{Name: "peptide_counts", Type: arrow.StructOf(
		arrow.Field{Name: "unique_sequences", Type: arrow.PrimitiveTypes.Int32},
		arrow.Field{Name: "total_sequences", Type: arrow.PrimitiveTypes.Int32},
	)},
	{Name: "feature_counts", Type: arrow.StructOf(
		arrow.Field{Name: "unique_features", Type: arrow.PrimitiveTypes.Int32},
		arrow.Field{Name: "total_features", Type: arrow.PrimitiveTypes.Int32},
	)},
	{Name: "intensities", Type: arrow.ListOf(intensityType)},
	{Name: "additional_intensities", Type: arrow.ListOf(additionalIntensityType)},
	{Name: "additional_scores", Type: arrow.ListOf(scoreEntryType), Nullable: true},
}, nil)

// FieldSpec describes one schema field for consumers that need the ordered
// field contract without depending on arrow types directly.
type FieldSpec struct {
	Name     string
	Type     arrow.DataType
	Nullable bool
}

// Fields returns the ordered field specification of a schema.
func Fields(s *arrow.Schema) []FieldSpec {
	specs := make([]FieldSpec, 0, s.NumFields())
	for _, f := range s.Fields() {
		specs = append(specs, FieldSpec{Name: f.Name, Type: f.Type, Nullable: f.Nullable})
	}
	return specs
}
