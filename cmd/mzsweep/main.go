// mzsweep - isotope pattern feature detection for LC-MS runs
package main

import (
	"fmt"
	"os"

	"github.com/mzsweep/mzsweep/cmd/mzsweep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
