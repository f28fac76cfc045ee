package threadcore

import (
	"strings"
	"testing"
)

// Test_sentinelErrors tests that each sentinel carries the package prefix
// and a distinct message, since callers match them with errors.Is and log
// the text verbatim.
func Test_sentinelErrors(t *testing.T) {
	t.Parallel()

	sentinels := [...]error{
		ErrNilRole,
		ErrNilRoleLoop,
		ErrNilBarrier,
		ErrNilTask,
		ErrInvalidSlotCapacity,
	}

	seen := make(map[string]bool, len(sentinels))
	for _, err := range sentinels {
		msg := err.Error()
		if !strings.HasPrefix(msg, "threadcore: ") {
			t.Errorf("sentinel %q missing package prefix", msg)
		}
		if seen[msg] {
			t.Errorf("duplicate sentinel message %q", msg)
		}
		seen[msg] = true
	}
}
