// Package cmd provides CLI command implementations
package cmd

import (
	"log"
	"time"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quantmsio",
	Short: "quantmsio - search-engine output to quantms.io parquet",
	Long: `quantmsio converts proteomics search-engine outputs (MaxQuant msms.txt,
evidence.txt, proteinGroups.txt, and OpenMS idXML) into the standardized
quantms.io parquet representation.

Large tab-delimited inputs are processed in chunks by a parallel worker
pool and merged into a single parquet file in input order.`,
	Version: "0.1.0",
}

func Execute() error {
	start := time.Now()
	err := rootCmd.Execute()
	if err == nil {
		log.Printf("total execution time: %s", time.Since(start))
	}
	return err
}

func init() {
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(statCmd)
}
