package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bigbio/quantmsio-go/pqio"
)

var statCmd = &cobra.Command{
	Use:   "stat [file]",
	Short: "Print summary statistics of a quantms.io parquet file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := pqio.Stat(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("File:       %s\n", args[0])
		fmt.Printf("Rows:       %d\n", stats.Rows)
		fmt.Printf("Row groups: %d\n", stats.RowGroups)
		fmt.Printf("Columns:    %d\n", stats.Columns)
		fmt.Printf("Size:       %d bytes\n", stats.FileSize)
		fmt.Println("Fields:")
		for _, name := range stats.ColumnNames {
			fmt.Printf("  %s\n", name)
		}
		return nil
	},
}
