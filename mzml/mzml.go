// Package mzml reads the subset of mzML needed to attach spectra to
// identification records: the spectrum list with its binary peak data,
// indexed by native scan number.
package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"

	"golang.org/x/net/html/charset"
)

var (
	// ErrUnknownScan means the requested scan number is not in the file.
	ErrUnknownScan = errors.New("mzml: unknown scan")
	// ErrUnsupportedCompression means the binary data uses a compression
	// scheme other than none or zlib (e.g. MS-Numpress).
	ErrUnsupportedCompression = errors.New("mzml: unsupported compression")
)

// The decoder skips the optional indexedmzML wrapper, so the root we
// decode is always mzML itself.
type mzMLContent struct {
	XMLName      xml.Name   `xml:"mzML"`
	SpectrumList []spectrum `xml:"run>spectrumList>spectrum"`
}

type spectrum struct {
	Index              int               `xml:"index,attr"`
	ID                 string            `xml:"id,attr"`
	DefaultArrayLength int               `xml:"defaultArrayLength,attr"`
	BinaryDataArray    []binaryDataArray `xml:"binaryDataArrayList>binaryDataArray"`
}

type binaryDataArray struct {
	CvPar  []cvParam `xml:"cvParam"`
	Binary string    `xml:"binary"`
}

type cvParam struct {
	Accession string `xml:"accession,attr"`
	Name      string `xml:"name,attr"`
	Value     string `xml:"value,attr"`
}

// Spectrum holds the decoded peak arrays of one scan.
type Spectrum struct {
	MZ        []float32
	Intensity []float32
}

// File is an in-memory mzML spectrum index keyed by native scan number.
type File struct {
	content mzMLContent
	byScan  map[string]int
}

var scanNumberRE = regexp.MustCompile(`scan=(\d+)`)

// ScanNumber extracts the native scan number from a spectrum identifier
// like "controllerType=0 controllerNumber=1 scan=4657". It returns ""
// when no scan number is present.
func ScanNumber(spectrumID string) string {
	m := scanNumberRE.FindStringSubmatch(spectrumID)
	if m == nil {
		return ""
	}
	return m[1]
}

// Read parses mzML content from r and indexes its spectra.
func Read(r io.Reader) (*File, error) {
	var f File
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel

	// Skip over an indexedmzML wrapper when present and decode the
	// mzML element itself.
	for {
		t, err := d.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if se, ok := t.(xml.StartElement); ok && se.Name.Local == "mzML" {
			if err := d.DecodeElement(&f.content, &se); err != nil {
				return nil, err
			}
		}
	}

	f.byScan = make(map[string]int, len(f.content.SpectrumList))
	for i, s := range f.content.SpectrumList {
		if num := ScanNumber(s.ID); num != "" {
			f.byScan[num] = i
		}
	}
	return &f, nil
}

// Open reads and indexes the mzML file at path.
func Open(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	f, err := Read(fh)
	if err != nil {
		return nil, fmt.Errorf("mzml: %s: %w", path, err)
	}
	return f, nil
}

// NumSpectra returns the number of spectra in the file.
func (f *File) NumSpectra() int {
	return len(f.content.SpectrumList)
}

// Spectrum decodes and returns the peak arrays of the spectrum with the
// given native scan number.
func (f *File) Spectrum(scan string) (Spectrum, error) {
	var sp Spectrum
	i, ok := f.byScan[scan]
	if !ok {
		return sp, fmt.Errorf("%w: %s", ErrUnknownScan, scan)
	}
	src := f.content.SpectrumList[i]
	for _, b := range src.BinaryDataArray {
		vals, isMZ, isIntensity, err := decodeArray(&b)
		if err != nil {
			return sp, fmt.Errorf("mzml: scan %s: %w", scan, err)
		}
		switch {
		case isMZ:
			sp.MZ = vals
		case isIntensity:
			sp.Intensity = vals
		}
	}
	return sp, nil
}

// CV terms for compression: MS:1000574 zlib, MS:1000576 none, the
// MS:10023xx / MS:10027xx family is MS-Numpress and unsupported.
// Array types: MS:1000514 m/z, MS:1000515 intensity.
// Value types: MS:1000521 32-bit float, MS:1000523 64-bit float.
func decodeArray(b *binaryDataArray) (vals []float32, isMZ, isIntensity bool, err error) {
	zlibCompressed := false
	bits64 := false
	for _, cv := range b.CvPar {
		switch cv.Accession {
		case "MS:1000574":
			zlibCompressed = true
		case "MS:1000514":
			isMZ = true
		case "MS:1000515":
			isIntensity = true
		case "MS:1000523":
			bits64 = true
		case "MS:1002312", "MS:1002313", "MS:1002314",
			"MS:1002746", "MS:1002747", "MS:1002748":
			return nil, false, false, fmt.Errorf("%w: %s", ErrUnsupportedCompression, cv.Accession)
		}
	}
	if !isMZ && !isIntensity {
		return nil, false, false, nil
	}

	data, err := base64.StdEncoding.DecodeString(b.Binary)
	if err != nil {
		return nil, false, false, err
	}
	if zlibCompressed {
		z, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, false, false, err
		}
		defer z.Close()
		data, err = io.ReadAll(z)
		if err != nil {
			return nil, false, false, err
		}
	}

	if bits64 {
		vals = make([]float32, len(data)/8)
		for i := range vals {
			bits := binary.LittleEndian.Uint64(data[i*8:])
			vals[i] = float32(math.Float64frombits(bits))
		}
	} else {
		vals = make([]float32, len(data)/4)
		for i := range vals {
			bits := binary.LittleEndian.Uint32(data[i*4:])
			vals[i] = math.Float32frombits(bits)
		}
	}
	return vals, isMZ, isIntensity, nil
}
