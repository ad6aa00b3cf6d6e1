package cmd

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/spf13/cobra"

	"github.com/bigbio/quantmsio-go/pqio"
	"github.com/bigbio/quantmsio-go/schema"
)

var mergeKind string

var mergeCmd = &cobra.Command{
	Use:   "merge [files...]",
	Short: "Merge parquet files of one record kind into a single file",
	Long: `Merge parquet files of one record kind (psm, feature, or pg) into a
single parquet file, preserving input order.

Example:
  quantmsio merge --kind psm --out all.psm.parquet run1.parquet run2.parquet`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := schemaForKind(mergeKind)
		if err != nil {
			return err
		}
		return pqio.MergeFiles(outputFile, args, s, memory.NewGoAllocator())
	},
}

func schemaForKind(kind string) (*arrow.Schema, error) {
	switch kind {
	case "psm":
		return schema.PSMSchema, nil
	case "feature":
		return schema.FeatureSchema, nil
	case "pg":
		return schema.PGSchema, nil
	}
	return nil, fmt.Errorf("invalid record kind %q, must be psm, feature, or pg", kind)
}

func init() {
	mergeCmd.Flags().StringVar(&mergeKind, "kind", "", "Record kind: psm, feature, or pg (required)")
	mergeCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output parquet file (required)")
	mergeCmd.MarkFlagRequired("kind")
	mergeCmd.MarkFlagRequired("out")
}
