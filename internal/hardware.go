package internal

import "runtime"

// DefaultThreads is one training worker per logical core.
func DefaultThreads() int {
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}
