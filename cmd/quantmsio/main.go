// quantmsio - proteomics search-engine output conversion tool
package main

import (
	"fmt"
	"os"

	"github.com/bigbio/quantmsio-go/cmd/quantmsio/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
