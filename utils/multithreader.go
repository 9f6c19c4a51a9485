package utils

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// NumCPU returns the number of logical cores available for kernel fan-out. The CPU topology
// reported by cpuid is preferred; if it could not be detected, runtime.NumCPU is used.
func NumCPU() int {
	if n := cpuid.CPU.LogicalCores; n > 0 && n <= runtime.NumCPU() {
		return n
	}

	return runtime.NumCPU()
}

// Multithreads an operation on a range of integers
//
// should be run sequentially, not in a separate thread
// designed for use by tensor kernels in their mass calculations. Every index is given to exactly
// one call of 'f', so 'f' may write to anything owned by its index without locking
//
// the range includes 'start' and excludes 'end'
//  - MultiThread does nothing if end ≤ start
// 'f' is the function that should be run for each value in the range
// 'opsPerThread' is the number of operations that each goroutine will handle before requesting another set
// 'threadsPerCPU' is the number of goroutines created for each CPU
func MultiThread(start, end int, f func(int), opsPerThread, threadsPerCPU int) {
	if end <= start {
		return
	}

	if opsPerThread < 1 {
		opsPerThread = 1
	}

	numThreads := NumCPU() * threadsPerCPU
	if max := (end - start + opsPerThread - 1) / opsPerThread; numThreads > max {
		numThreads = max
	}

	// not worth the goroutines
	if numThreads <= 1 {
		for i := start; i < end; i++ {
			f(i)
		}
		return
	}

	index := start
	var indexMux sync.Mutex

	var wg sync.WaitGroup

	wg.Add(numThreads)
	for thread := 0; thread < numThreads; thread++ {
		go func() {
			defer wg.Done()

			for {
				indexMux.Lock()
				if index >= end {
					indexMux.Unlock()
					break
				}

				i := index
				index += opsPerThread
				indexMux.Unlock()

				e := i + opsPerThread
				if e > end {
					e = end
				}

				for ; i < e; i++ {
					f(i)
				}
			}
		}()
	}

	wg.Wait()
}
