package parallel

import "runtime"

import "github.com/klauspost/cpuid/v2"

var threads int

func init() {
	threads = cpuid.CPU.LogicalCores
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
}

// Threads reports the number of goroutines ForEach callers should use.
func Threads() int {
	return threads
}

// SetThreads overrides the detected thread count. n <= 0 restores detection.
func SetThreads(n int) {
	if n <= 0 {
		n = cpuid.CPU.LogicalCores
		if n <= 0 {
			n = runtime.NumCPU()
		}
	}
	threads = n
}
