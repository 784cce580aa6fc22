// Command invoicerctl runs maintenance tasks against the invoicer database:
// schema migrations, demo data seeding, due subscription listings and one-off
// billing job runs.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
