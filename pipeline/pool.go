package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// BatchResult is the outcome for one container in a batch run.
type BatchResult struct {
	Path string
	Dest string
	Rows int64
	Err  error
	Took time.Duration
}

// BatchStats aggregates a finished batch.
type BatchStats struct {
	Converted int64
	Failed    int64
}

// ConvertBatch runs the pipeline over many containers with a fixed
// worker pool. Each container is an independent run; a failing file is
// reported in its result and does not abort the batch. Results come
// back in completion order. Cancelling ctx stops dispatching new work.
func (p *Pipeline) ConvertBatch(ctx context.Context, paths []string, outDir string, workers int) ([]BatchResult, BatchStats) {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	jobs := make(chan string)
	results := make(chan BatchResult, len(paths))
	var stats BatchStats

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				start := time.Now()
				res, err := p.Convert(path, DeriveDest(path, outDir))
				out := BatchResult{Path: path, Err: err, Took: time.Since(start)}
				if err != nil {
					atomic.AddInt64(&stats.Failed, 1)
				} else {
					out.Dest = res.Dest
					out.Rows = res.Rows
					atomic.AddInt64(&stats.Converted, 1)
				}
				results <- out
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range paths {
			select {
			case <-ctx.Done():
				return
			case jobs <- path:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var out []BatchResult
	for r := range results {
		out = append(out, r)
	}
	return out, stats
}
