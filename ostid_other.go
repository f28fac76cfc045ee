//go:build !linux && !windows

package threadcore

// osThreadID returns 0: this platform exposes no cheap, stable thread id.
// Callers treat 0 as "unavailable"; see [TLS.OSThreadID].
func osThreadID() uint64 {
	return 0
}
