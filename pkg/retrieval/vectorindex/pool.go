package vectorindex

import (
	"runtime"
	"sync"
)

// ParallelProcess fans work out across a fixed pool of workers, each
// claiming a contiguous range of items, and collects results in
// unspecified order. It operates on a shared read-only slice rather than
// handing each worker its own copy of the data, avoiding the cost of
// fanning a full database snapshot out to every worker by message.
func ParallelProcess[T any, R any](items []T, workers int, fn func(T) (R, bool)) []R {
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}
	if workers <= 1 {
		return processRange(items, fn)
	}

	chunk := (len(items) + workers - 1) / workers
	results := make([][]R, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= len(items) {
			continue
		}
		if end > len(items) {
			end = len(items)
		}
		wg.Add(1)
		go func(idx int, rangeItems []T) {
			defer wg.Done()
			results[idx] = processRange(rangeItems, fn)
		}(w, items[start:end])
	}
	wg.Wait()

	var out []R
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

func processRange[T any, R any](items []T, fn func(T) (R, bool)) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		if r, ok := fn(item); ok {
			out = append(out, r)
		}
	}
	return out
}
