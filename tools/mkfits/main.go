// Command mkfits generates synthetic spectral containers for manual
// testing and load generation.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/VanDung-dev/SpecTable-Engine/fitstest"
)

func main() {
	var (
		out     = flag.String("out", "spectrum.fits", "output path, or a directory with -count")
		extName = flag.String("extname", "SPEC", "extension name")
		rows    = flag.Int("rows", 1176, "record count")
		count   = flag.Int("count", 1, "number of containers to generate")
	)
	flag.Parse()

	if *count <= 1 {
		if err := fitstest.WriteTable(*out, *extName, fitstest.SpectrumCols(*rows)); err != nil {
			log.Fatalf("failed to write %s: %v", *out, err)
		}
		fmt.Println(*out)
		return
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Fatalf("failed to create %s: %v", *out, err)
	}
	for i := 0; i < *count; i++ {
		path := filepath.Join(*out, fmt.Sprintf("spectrum_%03d.fits", i))
		if err := fitstest.WriteTable(path, *extName, fitstest.SpectrumCols(*rows)); err != nil {
			log.Fatalf("failed to write %s: %v", path, err)
		}
		fmt.Println(path)
	}
}
