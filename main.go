package main

import (
	"os"

	"github.com/adityakp21/chargegrid/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
