//go:build windows

package threadcore

import (
	"golang.org/x/sys/windows"
)

// osThreadID returns the Win32 thread id of the calling thread.
// Meaningful as a stable identity only while the goroutine is locked to
// its OS thread.
func osThreadID() uint64 {
	return uint64(windows.GetCurrentThreadId())
}
