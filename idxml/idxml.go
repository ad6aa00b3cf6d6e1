// Package idxml converts OpenMS identification XML (idXML) into the
// standardized PSM representation, optionally attaching peak arrays
// from a matching mzML file.
package idxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/net/html/charset"

	"github.com/bigbio/quantmsio-go/chunked"
	"github.com/bigbio/quantmsio-go/mzml"
	"github.com/bigbio/quantmsio-go/peptide"
	"github.com/bigbio/quantmsio-go/pqio"
	"github.com/bigbio/quantmsio-go/schema"
)

// ErrNoIdentifications means the file parsed but contains no
// PeptideIdentification elements.
var ErrNoIdentifications = errors.New("idxml: no peptide identifications")

type idXMLContent struct {
	XMLName xml.Name            `xml:"IdXML"`
	Runs    []identificationRun `xml:"IdentificationRun"`
}

type identificationRun struct {
	SearchEngine           string                  `xml:"search_engine,attr"`
	ProteinIdentification  proteinIdentification   `xml:"ProteinIdentification"`
	PeptideIdentifications []peptideIdentification `xml:"PeptideIdentification"`
}

type proteinIdentification struct {
	Hits []proteinHit `xml:"ProteinHit"`
}

type proteinHit struct {
	ID        string `xml:"id,attr"`
	Accession string `xml:"accession,attr"`
}

type peptideIdentification struct {
	ScoreType         string       `xml:"score_type,attr"`
	MZ                float32      `xml:"MZ,attr"`
	RT                float32      `xml:"RT,attr"`
	SpectrumReference string       `xml:"spectrum_reference,attr"`
	Hits              []peptideHit `xml:"PeptideHit"`
}

type peptideHit struct {
	Score       float32     `xml:"score,attr"`
	Sequence    string      `xml:"sequence,attr"`
	Charge      int32       `xml:"charge,attr"`
	ProteinRefs string      `xml:"protein_refs,attr"`
	UserParams  []userParam `xml:"UserParam"`
}

type userParam struct {
	Type  string `xml:"type,attr"`
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// File is a parsed idXML document with protein references resolved.
type File struct {
	content  idXMLContent
	accByRef map[string]string
}

// Read parses idXML content from r.
func Read(r io.Reader) (*File, error) {
	var f File
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel
	if err := d.Decode(&f.content); err != nil {
		return nil, err
	}
	f.accByRef = make(map[string]string)
	for _, run := range f.content.Runs {
		for _, h := range run.ProteinIdentification.Hits {
			f.accByRef[h.ID] = h.Accession
		}
	}
	return &f, nil
}

// Open reads and parses the idXML file at path.
func Open(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, &chunked.InputReadError{Path: path, Err: err}
	}
	defer fh.Close()
	f, err := Read(fh)
	if err != nil {
		return nil, fmt.Errorf("idxml: %s: %w", path, err)
	}
	return f, nil
}

// NumIdentifications returns the number of PeptideIdentification
// elements across all runs.
func (f *File) NumIdentifications() int {
	n := 0
	for _, run := range f.content.Runs {
		n += len(run.PeptideIdentifications)
	}
	return n
}

// accessions resolves the space-separated protein_refs attribute against
// the ProteinHit table. Unresolvable references are kept verbatim so a
// malformed file still yields a usable row.
func (f *File) accessions(refs string) []string {
	out := []string{}
	for _, ref := range strings.Fields(refs) {
		if acc, ok := f.accByRef[ref]; ok {
			out = append(out, acc)
		} else {
			out = append(out, ref)
		}
	}
	return out
}

// plainSequence strips parenthesized modification groups and terminal
// markers from an OpenMS peptidoform, leaving the bare residue string.
func plainSequence(peptidoform string) string {
	var b strings.Builder
	depth := 0
	for _, r := range peptidoform {
		switch {
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		}
	}
	return b.String()
}

const pepScoreType = "Posterior Error Probability"

// PSMs converts every peptide hit into a PSM row. The reference file
// name is recorded on each row; peptidoform parsing goes through cache.
func (f *File) PSMs(referenceFileName string, cache *peptide.Cache) []schema.PSM {
	var rows []schema.PSM
	for _, run := range f.content.Runs {
		for _, ident := range run.PeptideIdentifications {
			scan := mzml.ScanNumber(ident.SpectrumReference)
			if scan == "" {
				scan = ident.SpectrumReference
			}
			for _, hit := range ident.Hits {
				peptidoform := peptide.CleanPeptidoform(hit.Sequence)
				sequence := plainSequence(peptidoform)
				if parsed, err := cache.Parse(peptidoform); err == nil {
					sequence = parsed.Sequence
				}
				rt := ident.RT
				r := schema.PSM{
					Sequence:          sequence,
					Peptidoform:       peptidoform,
					Modifications:     cache.Modifications(peptidoform),
					PrecursorCharge:   hit.Charge,
					IsDecoy:           0,
					CalculatedMZ:      cache.CalculatedMZ(peptidoform, int(hit.Charge)),
					ObservedMZ:        ident.MZ,
					ProteinAccessions: f.accessions(hit.ProteinRefs),
					ReferenceFileName: referenceFileName,
					Scan:              scan,
					RT:                &rt,
				}
				if ident.ScoreType == pepScoreType {
					pep := hit.Score
					r.PosteriorErrorProbability = &pep
				} else {
					r.AdditionalScores = append(r.AdditionalScores, schema.ScoreEntry{
						Name:  ident.ScoreType,
						Value: hit.Score,
					})
				}
				for _, up := range hit.UserParams {
					switch {
					case up.Name == "target_decoy":
						if up.Value == "decoy" {
							r.IsDecoy = 1
						}
					case strings.HasPrefix(up.Name, pepScoreType):
						if v, err := strconv.ParseFloat(up.Value, 32); err == nil {
							pep := float32(v)
							r.PosteriorErrorProbability = &pep
						}
					case up.Type == "float" || up.Type == "int":
						if v, err := strconv.ParseFloat(up.Value, 32); err == nil {
							r.AdditionalScores = append(r.AdditionalScores, schema.ScoreEntry{
								Name:  up.Name,
								Value: float32(v),
							})
						}
					}
				}
				rows = append(rows, r)
			}
		}
	}
	return rows
}

// attachSpectra fills the peak arrays of each row from the mzML
// spectrum with the matching scan number. Rows without a matching
// spectrum are left untouched.
func attachSpectra(rows []schema.PSM, spectra *mzml.File) {
	for i := range rows {
		sp, err := spectra.Spectrum(rows[i].Scan)
		if err != nil {
			continue
		}
		rows[i].MZArray = sp.MZ
		rows[i].IntensityArray = sp.Intensity
		n := int32(len(sp.MZ))
		rows[i].NumberPeaks = &n
	}
}

// ProcessIdXMLFile converts an idXML file into a PSM parquet file.
// When spectralData is set, mzmlPath names the spectral file whose peak
// arrays are attached by scan number.
func ProcessIdXMLFile(idxmlPath, outputPath, mzmlPath string, spectralData bool, mem memory.Allocator) error {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	log.Printf("processing: %s", idxmlPath)

	f, err := Open(idxmlPath)
	if err != nil {
		return err
	}
	if f.NumIdentifications() == 0 {
		return fmt.Errorf("%w: %s", ErrNoIdentifications, idxmlPath)
	}

	base := filepath.Base(idxmlPath)
	referenceFileName := strings.TrimSuffix(base, filepath.Ext(base))

	rows := f.PSMs(referenceFileName, peptide.NewCache())
	if spectralData && mzmlPath != "" {
		spectra, err := mzml.Open(mzmlPath)
		if err != nil {
			return &chunked.InputReadError{Path: mzmlPath, Err: err}
		}
		attachSpectra(rows, spectra)
	}

	pb := schema.NewPSMBuilder(mem)
	defer pb.Release()
	for _, r := range rows {
		pb.Append(r)
	}
	rec := pb.NewRecordBatch()
	defer rec.Release()
	if err := pqio.WriteRecordBatch(outputPath, rec, mem); err != nil {
		return err
	}
	log.Printf("written: %s (%d rows)", outputPath, len(rows))
	return nil
}
