package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"golang.org/x/time/rate"
)

// BatchOpts contains configuration for running many jobs.
type BatchOpts struct {
	NumWorkers   int     // Concurrent jobs (default: 2, capped by the supervisor's slots)
	RateLimit    float64 // Job starts per second (default: 1)
	ManifestPath string  // Optional JSON summary written when the batch ends
}

// BatchItemResult is the outcome of one request in a batch.
type BatchItemResult struct {
	Index   int        `json:"index"`
	Request JobRequest `json:"request"`
	JobID   string     `json:"job_id,omitempty"`
	Success bool       `json:"success"`
	Error   string     `json:"error,omitempty"`
}

// BatchResult summarizes a batch. Results are in completion order.
type BatchResult struct {
	Total        int               `json:"total"`
	Succeeded    int               `json:"succeeded"`
	Failed       int               `json:"failed"`
	Results      []BatchItemResult `json:"results"`
	ManifestPath string            `json:"-"`
}

type batchItem struct {
	index int
	req   JobRequest
}

// Batch runs reqs through the supervisor with a worker pool, pacing job starts
// with a rate limiter. A failed item never stops the others.
func (s *Supervisor) Batch(ctx context.Context, reqs []JobRequest, opts BatchOpts) (*BatchResult, error) {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 2
	}
	if opts.NumWorkers > cap(s.slots) {
		opts.NumWorkers = cap(s.slots)
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1.0
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	items := make(chan batchItem, len(reqs))
	results := make(chan BatchItemResult, len(reqs))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go s.batchWorker(ctx, &wg, limiter, items, results)
	}

	for i, req := range reqs {
		items <- batchItem{index: i, req: req}
	}
	close(items)

	go func() {
		wg.Wait()
		close(results)
	}()

	result := &BatchResult{Total: len(reqs), Results: make([]BatchItemResult, 0, len(reqs))}
	for res := range results {
		result.Results = append(result.Results, res)
		if res.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	if opts.ManifestPath != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return result, fmt.Errorf("failed to marshal manifest: %w", err)
		}
		if err := os.WriteFile(opts.ManifestPath, data, 0644); err != nil {
			return result, fmt.Errorf("batch completed but failed to write manifest: %w", err)
		}
		result.ManifestPath = opts.ManifestPath
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// batchWorker starts and waits on jobs from items until it is drained.
func (s *Supervisor) batchWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	items <-chan batchItem,
	results chan<- BatchItemResult,
) {
	defer wg.Done()

	for item := range items {
		res := BatchItemResult{Index: item.index, Request: item.req}

		if err := limiter.Wait(ctx); err != nil {
			res.Error = err.Error()
			results <- res
			continue
		}

		job, err := s.Start(ctx, item.req)
		if err != nil {
			res.Error = err.Error()
			results <- res
			continue
		}
		res.JobID = job.ID

		if err := job.Wait(ctx); err != nil {
			res.Error = err.Error()
		} else {
			res.Success = true
		}
		results <- res
	}
}
