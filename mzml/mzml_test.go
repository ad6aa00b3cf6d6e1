package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"testing"
)

func encode32(vals []float32) string {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func encode64Zlib(vals []float64) string {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	var z bytes.Buffer
	w := zlib.NewWriter(&z)
	w.Write(buf)
	w.Close()
	return base64.StdEncoding.EncodeToString(z.Bytes())
}

func testDocument() string {
	mz := encode64Zlib([]float64{100.25, 200.5, 300.75})
	intens := encode32([]float32{10, 20, 30})
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<indexedmzML xmlns="http://psi.hupo.org/ms/mzml">
 <mzML version="1.1.0">
  <run id="run1">
   <spectrumList count="1">
    <spectrum index="0" id="controllerType=0 controllerNumber=1 scan=42" defaultArrayLength="3">
     <binaryDataArrayList count="2">
      <binaryDataArray>
       <cvParam accession="MS:1000514" name="m/z array"/>
       <cvParam accession="MS:1000523" name="64-bit float"/>
       <cvParam accession="MS:1000574" name="zlib compression"/>
       <binary>%s</binary>
      </binaryDataArray>
      <binaryDataArray>
       <cvParam accession="MS:1000515" name="intensity array"/>
       <cvParam accession="MS:1000521" name="32-bit float"/>
       <cvParam accession="MS:1000576" name="no compression"/>
       <binary>%s</binary>
      </binaryDataArray>
     </binaryDataArrayList>
    </spectrum>
   </spectrumList>
  </run>
 </mzML>
</indexedmzML>`, mz, intens)
}

func TestReadAndSpectrum(t *testing.T) {
	f, err := Read(strings.NewReader(testDocument()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f.NumSpectra() != 1 {
		t.Fatalf("NumSpectra: %d, should be 1", f.NumSpectra())
	}
	sp, err := f.Spectrum("42")
	if err != nil {
		t.Fatalf("Spectrum: %v", err)
	}
	if len(sp.MZ) != 3 || len(sp.Intensity) != 3 {
		t.Fatalf("peak arrays: %d mz, %d intensity, should be 3 each", len(sp.MZ), len(sp.Intensity))
	}
	if sp.MZ[0] < 100.24 || sp.MZ[0] > 100.26 {
		t.Errorf("mz[0]: %v, should be 100.25", sp.MZ[0])
	}
	if sp.Intensity[2] != 30 {
		t.Errorf("intensity[2]: %v, should be 30", sp.Intensity[2])
	}
}

func TestSpectrumUnknownScan(t *testing.T) {
	f, err := Read(strings.NewReader(testDocument()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if _, err := f.Spectrum("999"); err == nil {
		t.Errorf("Spectrum: no error for unknown scan")
	}
}

func TestScanNumber(t *testing.T) {
	if got := ScanNumber("controllerType=0 controllerNumber=1 scan=4657"); got != "4657" {
		t.Errorf("ScanNumber: %q, should be 4657", got)
	}
	if got := ScanNumber("file=sourceFile"); got != "" {
		t.Errorf("ScanNumber: %q, should be empty", got)
	}
}
