package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bigbio/quantmsio-go/idxml"
	"github.com/bigbio/quantmsio-go/maxquant"
)

var (
	// Flags for convert subcommands
	inputFile               string
	outputFile              string
	sdrfFile                string
	proteinGroupsFile       string
	evidenceFile            string
	mzmlFile                string
	chunkSize               int
	workers                 int
	memoryGB                float64
	spectralData            bool
	standardizedIntensities bool
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert search-engine output to quantms.io parquet",
}

var convertMaxquantPSMCmd = &cobra.Command{
	Use:   "maxquant-psm",
	Short: "Convert MaxQuant msms.txt to a PSM parquet file",
	Long: `Convert MaxQuant msms.txt to a PSM parquet file.

Examples:
  # Basic conversion
  quantmsio convert maxquant-psm --in msms.txt --out psm.parquet

  # Include raw peak arrays from the Masses/Intensities/Matches columns
  quantmsio convert maxquant-psm --in msms.txt --out psm.parquet --spectral-data`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInput(inputFile); err != nil {
			return err
		}
		return maxquant.ProcessPSMFile(inputFile, outputFile, maxquantOptions())
	},
}

var convertMaxquantFeatureCmd = &cobra.Command{
	Use:   "maxquant-feature",
	Short: "Convert MaxQuant evidence.txt to a feature parquet file",
	Long: `Convert MaxQuant evidence.txt to a feature parquet file.

Sample and channel assignment comes from the SDRF experiment design.
When a proteinGroups.txt sits next to the evidence file (or is named
with --protein-groups), each feature carries its group's minimum
q-value.

Example:
  quantmsio convert maxquant-feature --in evidence.txt --sdrf design.sdrf.tsv --out feature.parquet`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInput(inputFile); err != nil {
			return err
		}
		return maxquant.ProcessFeatureFile(inputFile, outputFile, maxquantOptions())
	},
}

var convertMaxquantPGCmd = &cobra.Command{
	Use:   "maxquant-pg",
	Short: "Convert MaxQuant proteinGroups.txt to a protein-group parquet file",
	Long: `Convert MaxQuant proteinGroups.txt to a protein-group parquet file.

The evidence file feeds the protein-to-sample mapping and, with
--standardized-intensities, the total_all_peptides_intensity and
top3_intensity metrics.

Example:
  quantmsio convert maxquant-pg --in proteinGroups.txt --evidence evidence.txt --sdrf design.sdrf.tsv --out pg.parquet`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInput(inputFile); err != nil {
			return err
		}
		return maxquant.ProcessPGFile(inputFile, outputFile, evidenceFile, maxquantOptions())
	},
}

var convertIdXMLCmd = &cobra.Command{
	Use:   "idxml",
	Short: "Convert an OpenMS idXML file to a PSM parquet file",
	Long: `Convert an OpenMS idXML identification file to a PSM parquet file.

With --spectral-data and --mzml, peak arrays from the matching mzML
spectra are attached by scan number.

Example:
  quantmsio convert idxml --in run1.idXML --mzml run1.mzML --spectral-data --out psm.parquet`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInput(inputFile); err != nil {
			return err
		}
		return idxml.ProcessIdXMLFile(inputFile, outputFile, mzmlFile, spectralData, nil)
	},
}

func maxquantOptions() maxquant.Options {
	return maxquant.Options{
		SDRFPath:                sdrfFile,
		ProteinGroupsPath:       proteinGroupsFile,
		ChunkSize:               chunkSize,
		Workers:                 workers,
		MemoryLimitGB:           memoryGB,
		SpectralData:            spectralData,
		StandardizedIntensities: standardizedIntensities,
	}
}

func requireInput(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", path)
	}
	return nil
}

func init() {
	convertCmd.AddCommand(convertMaxquantPSMCmd)
	convertCmd.AddCommand(convertMaxquantFeatureCmd)
	convertCmd.AddCommand(convertMaxquantPGCmd)
	convertCmd.AddCommand(convertIdXMLCmd)

	for _, c := range []*cobra.Command{
		convertMaxquantPSMCmd, convertMaxquantFeatureCmd, convertMaxquantPGCmd,
	} {
		c.Flags().StringVarP(&inputFile, "in", "i", "", "Input file path (required)")
		c.Flags().StringVarP(&outputFile, "out", "o", "", "Output parquet file (required)")
		c.Flags().StringVar(&sdrfFile, "sdrf", "", "SDRF experiment design file")
		c.Flags().IntVar(&chunkSize, "chunk-size", 0, "Rows per chunk (0 = default)")
		c.Flags().IntVar(&workers, "workers", 0, "Number of worker goroutines (0 = NumCPU+1)")
		c.Flags().Float64Var(&memoryGB, "memory-gb", 0, "Advisory memory budget in GB")
		c.MarkFlagRequired("in")
		c.MarkFlagRequired("out")
	}
	convertMaxquantPSMCmd.Flags().BoolVar(&spectralData, "spectral-data", false, "Include raw peak arrays in the output")
	convertMaxquantFeatureCmd.Flags().StringVar(&proteinGroupsFile, "protein-groups", "", "proteinGroups.txt for the q-value map (default: sibling of evidence)")
	convertMaxquantPGCmd.Flags().StringVar(&evidenceFile, "evidence", "", "evidence.txt for protein-to-sample mapping")
	convertMaxquantPGCmd.Flags().BoolVar(&standardizedIntensities, "standardized-intensities", false, "Attach evidence-derived intensity metrics (requires --evidence)")

	convertIdXMLCmd.Flags().StringVarP(&inputFile, "in", "i", "", "Input idXML file (required)")
	convertIdXMLCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output parquet file (required)")
	convertIdXMLCmd.Flags().StringVar(&mzmlFile, "mzml", "", "mzML file with the matching spectra")
	convertIdXMLCmd.Flags().BoolVar(&spectralData, "spectral-data", false, "Attach peak arrays from the mzML file")
	convertIdXMLCmd.MarkFlagRequired("in")
	convertIdXMLCmd.MarkFlagRequired("out")
}
