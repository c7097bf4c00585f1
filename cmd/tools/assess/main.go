// cmd/tools/assess/main.go
//
// assess runs the assessment engine against local files without a broker or
// database. Results are printed as JSON.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
