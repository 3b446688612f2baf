package main

import (
	"os"

	"github.com/toolbelt/plumbing-estimator/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
