package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/VanDung-dev/SpecTable-Engine/export"
	"github.com/VanDung-dev/SpecTable-Engine/fits"
	"github.com/VanDung-dev/SpecTable-Engine/table"
	"github.com/VanDung-dev/SpecTable-Engine/tree"
)

// Result summarizes one completed run.
type Result struct {
	Path   string
	Dest   string
	Rows   int64
	Fields int
	Took   time.Duration
}

// Recorder observes the outcome of each pipeline stage. Implementations
// must be safe for concurrent use; ConvertBatch calls them from every
// worker.
type Recorder interface {
	ContainerOpened()
	OpenFailed()
	TableNotFound()
	TableMaterialized(rows int64, took time.Duration)
	TableExported(rows int64, took time.Duration)
	ExportFailed(took time.Duration)
}

// Pipeline converts containers to delimited text using one table hint.
// A Pipeline is stateless across runs and safe to use from multiple
// goroutines.
type Pipeline struct {
	hint tree.Hint
	log  zerolog.Logger
	rec  Recorder
}

// New creates a pipeline locating tables under the given hint.
func New(hint tree.Hint, log zerolog.Logger) *Pipeline {
	return &Pipeline{hint: hint, log: log}
}

// WithRecorder attaches a stage recorder and returns the pipeline.
func (p *Pipeline) WithRecorder(rec Recorder) *Pipeline {
	p.rec = rec
	return p
}

// Lookup opens the container and returns the lazy reference the hint
// points at, without materializing it. Useful for schema inspection.
func (p *Pipeline) Lookup(path string) (*table.Ref, error) {
	t, err := fits.Open(path)
	if err != nil {
		if p.rec != nil {
			p.rec.OpenFailed()
		}
		return nil, err
	}
	if p.rec != nil {
		p.rec.ContainerOpened()
	}
	ref, err := tree.FindTable(t, p.hint)
	if err != nil {
		if p.rec != nil && errors.Is(err, tree.ErrNoTable) {
			p.rec.TableNotFound()
		}
		p.log.Warn().Str("path", path).Err(err).Msg("no table found")
		return nil, err
	}
	return ref, nil
}

// Convert runs the full sequence for one container and writes the CSV
// to dest. An empty dest derives the name from the container path.
func (p *Pipeline) Convert(path, dest string) (*Result, error) {
	start := time.Now()

	ref, err := p.Lookup(path)
	if err != nil {
		return nil, err
	}
	p.log.Debug().
		Str("path", path).
		Int64("rows", ref.Rows()).
		Int("fields", len(ref.Schema())).
		Msg("table located")

	readStart := time.Now()
	tbl, err := ref.Materialize()
	if err != nil {
		return nil, fmt.Errorf("failed to materialize table: %w", err)
	}
	defer tbl.Release()
	if p.rec != nil {
		p.rec.TableMaterialized(tbl.NumRows(), time.Since(readStart))
	}

	if dest == "" {
		dest = DeriveDest(path, "")
	}
	writeStart := time.Now()
	written, err := export.WriteCSV(tbl, dest)
	if err != nil {
		if p.rec != nil {
			p.rec.ExportFailed(time.Since(writeStart))
		}
		return nil, err
	}
	if p.rec != nil {
		p.rec.TableExported(tbl.NumRows(), time.Since(writeStart))
	}

	res := &Result{
		Path:   path,
		Dest:   written,
		Rows:   tbl.NumRows(),
		Fields: tbl.NumCols(),
		Took:   time.Since(start),
	}
	p.log.Info().
		Str("path", path).
		Str("dest", written).
		Int64("rows", res.Rows).
		Dur("took", res.Took).
		Msg("table exported")
	return res, nil
}

// DeriveDest maps a container path to its CSV destination, optionally
// relocated into outDir.
func DeriveDest(path, outDir string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	base += ".csv"
	if outDir == "" {
		return filepath.Join(filepath.Dir(path), base)
	}
	return filepath.Join(outDir, base)
}
