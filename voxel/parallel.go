package voxel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// workerOverride caps parallelRange's worker count when positive; set via
// SetWorkers (cmd/deconvolve-cli wires this to its planner.workers config
// entry). Zero means "use runtime.NumCPU()".
var workerOverride int64

// SetWorkers caps the number of goroutines parallelRange fans out to. n<=0
// reverts to runtime.NumCPU().
func SetWorkers(n int) {
	atomic.StoreInt64(&workerOverride, int64(n))
}

// parallelRange splits [0,n) across runtime.NumCPU() workers (or the
// positive SetWorkers override) and calls fn
// once per worker with its half-open [lo,hi) slice of the range, the same
// per-core work-splitting shape
// AldrinSalazar-mrislicesto3d/pkg/reconstruction.Reconstructor.GetVolumeData
// uses to divide slices across cores. Workers only ever write their own
// output range, so no locking is needed across the fan-out.
func parallelRange(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}

	workers := runtime.NumCPU()
	if override := int(atomic.LoadInt64(&workerOverride)); override > 0 {
		workers = override
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= n {
			break
		}
		hi := lo + chunk
		if hi > n {
			hi = n
		}

		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
