// Package maxquant converts MaxQuant output tables (msms.txt, evidence.txt,
// proteinGroups.txt) into PSM, feature and protein-group parquet files.
package maxquant

// psmColumnMap renames msms.txt columns to canonical PSM field names.
// Columns absent from the file are left to schema defaults.
var psmColumnMap = map[string]string{
	"Sequence":          "sequence",
	"Modified sequence": "peptidoform",
	"Charge":            "precursor_charge",
	"m/z":               "observed_mz",
	"Retention time":    "rt",
	"Scan number":       "scan",
	"Raw file":          "reference_file_name",
	"Proteins":          "protein_accessions",
	"Reverse":           "is_decoy",
	"PEP":               "posterior_error_probability",
	"Score":             "andromeda_score",
	"Delta score":       "andromeda_delta_score",
	"PIF":               "parent_ion_fraction",
	"Masses":            "mz_array",
	"Intensities":       "intensity_array",
	"Number of matches": "number_peaks",
	"1/K0":              "ion_mobility",
}

// featureColumnMap renames evidence.txt columns to canonical feature field
// names.
var featureColumnMap = map[string]string{
	"Sequence":                         "sequence",
	"Modified sequence":                "peptidoform",
	"Charge":                           "precursor_charge",
	"m/z":                              "observed_mz",
	"Retention time":                   "rt",
	"Calibrated retention time start":  "rt_start",
	"Calibrated retention time finish": "rt_stop",
	"MS/MS scan number":                "scan",
	"Raw file":                         "reference_file_name",
	"Proteins":                         "pg_accessions",
	"Leading proteins":                 "protein_accessions",
	"Gene names":                       "gg_names",
	"Reverse":                          "is_decoy",
	"PEP":                              "posterior_error_probability",
	"Score":                            "andromeda_score",
	"Delta score":                      "andromeda_delta_score",
	"PIF":                              "parent_ion_fraction",
	"Intensity":                        "intensity",
	"1/K0":                             "ion_mobility",
}

// pgColumnMap renames proteinGroups.txt columns to canonical protein-group
// field names. "Majority protein IDs" and "id" keep their source names; the
// pipeline reads them directly.
var pgColumnMap = map[string]string{
	"Protein IDs":             "pg_accessions",
	"Protein names":           "pg_names",
	"Gene names":              "gg_accessions",
	"Reverse":                 "is_decoy",
	"Potential contaminant":   "contaminant",
	"Score":                   "andromeda_score",
	"Sequence coverage [%]":   "sequence_coverage",
	"Mol. weight [kDa]":       "molecular_weight",
	"MS/MS count":             "msms_count",
	"Number of proteins":      "number_of_proteins",
	"Peptides":                "peptide_count_total",
	"Razor + unique peptides": "peptide_count_razor_unique",
	"Unique peptides":         "peptide_count_unique",
}

// psmCVColumns are msms.txt columns carried verbatim into cv_params.
var psmCVColumns = []string{"Fragmentation", "Mass analyzer", "Type"}

// featureCVColumns are evidence.txt columns carried verbatim into cv_params.
var featureCVColumns = []string{"Type"}

// scoreFields is the ordered set of renamed numeric columns extracted into
// additional_scores for PSM and feature records.
var scoreFields = []string{
	"andromeda_score",
	"andromeda_delta_score",
	"parent_ion_fraction",
}

// pgScoreFields is the renamed numeric columns extracted into a protein
// group's additional_scores.
var pgScoreFields = []string{
	"andromeda_score",
	"sequence_coverage",
	"molecular_weight",
	"msms_count",
	"number_of_proteins",
	"peptide_count_total",
	"peptide_count_razor_unique",
	"peptide_count_unique",
}
