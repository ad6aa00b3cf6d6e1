package peptide

// ModDefinition describes a named modification with its UniMod accession and
// monoisotopic mass shift.
type ModDefinition struct {
	Accession string
	Mass      float64
}

// modDefinitions maps modification names, as they appear in peptidoform
// notation after abbreviation expansion, to their UniMod entries.
var modDefinitions = map[string]ModDefinition{
	"Acetyl":          {Accession: "UNIMOD:1", Mass: 42.010565},
	"Amidated":        {Accession: "UNIMOD:2", Mass: -0.984016},
	"Carbamidomethyl": {Accession: "UNIMOD:4", Mass: 57.021464},
	"Carbamyl":        {Accession: "UNIMOD:5", Mass: 43.005814},
	"Deamidated":      {Accession: "UNIMOD:7", Mass: 0.984016},
	"Phospho":         {Accession: "UNIMOD:21", Mass: 79.966331},
	"Dehydrated":      {Accession: "UNIMOD:23", Mass: -18.010565},
	"Gln->pyro-Glu":   {Accession: "UNIMOD:28", Mass: -17.026549},
	"Glu->pyro-Glu":   {Accession: "UNIMOD:27", Mass: -18.010565},
	"Methyl":          {Accession: "UNIMOD:34", Mass: 14.01565},
	"Oxidation":       {Accession: "UNIMOD:35", Mass: 15.994915},
	"Dimethyl":        {Accession: "UNIMOD:36", Mass: 28.0313},
	"Trimethyl":       {Accession: "UNIMOD:37", Mass: 42.04695},
	"Methylthio":      {Accession: "UNIMOD:39", Mass: 45.987721},
	"Sulfo":           {Accession: "UNIMOD:40", Mass: 79.956815},
	"GlyGly":          {Accession: "UNIMOD:121", Mass: 114.042927},
	"Sumo":            {Accession: "UNIMOD:2137", Mass: 484.228162},
	"iTRAQ4plex":      {Accession: "UNIMOD:214", Mass: 144.102063},
	"iTRAQ8plex":      {Accession: "UNIMOD:730", Mass: 304.205360},
	"TMT6plex":        {Accession: "UNIMOD:737", Mass: 229.162932},
	"TMT10plex":       {Accession: "UNIMOD:737", Mass: 229.162932},
	"TMT11plex":       {Accession: "UNIMOD:737", Mass: 229.162932},
	"TMTpro":          {Accession: "UNIMOD:2016", Mass: 304.207146},
	"TMT16plex":       {Accession: "UNIMOD:2016", Mass: 304.207146},
}

// abbreviations maps MaxQuant short modification codes to canonical names.
var abbreviations = map[string]string{
	"ac":  "Acetyl",
	"ox":  "Oxidation",
	"me":  "Methyl",
	"ph":  "Phospho",
	"de":  "Deamidated",
	"cam": "Carbamidomethyl",
	"dim": "Dimethyl",
	"tri": "Trimethyl",
	"ub":  "GlyGly",
	"su":  "Sumo",
}

// LookupMod returns the definition for a modification name.
func LookupMod(name string) (ModDefinition, bool) {
	def, ok := modDefinitions[name]
	return def, ok
}
