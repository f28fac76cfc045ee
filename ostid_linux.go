//go:build linux

package threadcore

import (
	"golang.org/x/sys/unix"
)

// osThreadID returns the kernel thread id of the calling thread.
// Meaningful as a stable identity only while the goroutine is locked to
// its OS thread.
func osThreadID() uint64 {
	return uint64(unix.Gettid())
}
