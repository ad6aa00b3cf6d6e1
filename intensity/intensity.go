// Package intensity aggregates peptide intensities into standardized
// protein-level metrics.
package intensity

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/bigbio/quantmsio-go/schema"
)

// TotalAllPeptides sums all valid peptide intensities. NaN and negative
// values are ignored. Returns NaN when the input is empty or holds no valid
// values.
func TotalAllPeptides(intensities []float64) float64 {
	valid := intensities[:0:0]
	for _, v := range intensities {
		if math.IsNaN(v) || v < 0 {
			continue
		}
		valid = append(valid, v)
	}
	if len(valid) == 0 {
		return math.NaN()
	}
	return floats.Sum(valid)
}

// Top3Peptide sums the three most intense peptides, aggregating all
// peptidoforms of the same sequence first. With fewer than three peptides
// it returns the sum of all of them. Returns NaN when no valid pair exists
// or the slices differ in length.
func Top3Peptide(sequences []string, intensities []float64) float64 {
	if len(sequences) == 0 || len(sequences) != len(intensities) {
		return math.NaN()
	}

	totals := make(map[string]float64)
	for i, seq := range sequences {
		v := intensities[i]
		if math.IsNaN(v) || v < 0 {
			continue
		}
		totals[seq] += v
	}
	if len(totals) == 0 {
		return math.NaN()
	}

	values := make([]float64, 0, len(totals))
	for _, v := range totals {
		values = append(values, v)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(values)))
	if len(values) > 3 {
		values = values[:3]
	}
	return floats.Sum(values)
}

// StandardizedEntry builds the additional_intensities entry carrying the
// standardized protein metrics for one sample and channel.
func StandardizedEntry(sampleAccession, channel string, total, top3 float64) schema.AdditionalIntensity {
	return schema.AdditionalIntensity{
		SampleAccession: sampleAccession,
		Channel:         channel,
		Intensities: []schema.IntensityValue{
			{Name: "total_all_peptides_intensity", Value: float32(total)},
			{Name: "top3_intensity", Value: float32(top3)},
		},
	}
}
