package main

import (
	"fmt"
	"os"
)

// Version information
const (
	Version = "0.1.0"
	Name    = "SpecTable-Engine"
)

func main() {
	fmt.Printf("%s v%s\n", Name, Version)
	fmt.Println("FITS table extraction and CSV export engine")
	fmt.Println("Use cmd/spectable for the command-line interface")
	os.Exit(0)
}
