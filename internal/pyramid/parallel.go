// parallel.go abstracts the "data-parallel-for over image rows" scheduling
// model spec.md §5 calls for: a guided schedule (larger chunks early,
// smaller chunks late) over a work-stealing pool, with no cross-row
// dependencies. It generalizes the teacher's per-row goroutine+WaitGroup
// pattern (pkg/stdimg.SeparableGaussianBlur's horizontal/vertical passes,
// one goroutine per row) into a bounded worker pool so a million-row tile
// doesn't spawn a million goroutines.
package pyramid

import (
	"runtime"
	"sync"
)

// ParallelRows calls fn(y) for every y in [y0, y1), across a bounded pool of
// workers, partitioned with a guided schedule. A purely serial
// implementation (calling fn in order on one goroutine) would also be
// conforming per spec.md §5; this implementation chooses to parallelize
// because the kernels have no cross-row data dependencies.
func ParallelRows(y0, y1 int, fn func(y int)) {
	n := y1 - y0
	if n <= 0 {
		return
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for y := y0; y < y1; y++ {
			fn(y)
		}
		return
	}

	next := y0
	var mu sync.Mutex
	remaining := n

	// Guided schedule: each claimed chunk is a fraction of what's left,
	// floored at a minimum of 1 row, so early chunks are large (good
	// amortization of dispatch overhead) and late chunks are small (good
	// load balance as workers drain the queue).
	claim := func() (int, int, bool) {
		mu.Lock()
		defer mu.Unlock()
		if remaining <= 0 {
			return 0, 0, false
		}
		chunk := remaining / (4 * workers)
		if chunk < 1 {
			chunk = 1
		}
		if chunk > remaining {
			chunk = remaining
		}
		start := next
		next += chunk
		remaining -= chunk
		return start, start + chunk, true
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				start, end, ok := claim()
				if !ok {
					return
				}
				for y := start; y < end; y++ {
					fn(y)
				}
			}
		}()
	}
	wg.Wait()
}
