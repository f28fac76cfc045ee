package threadcore

import "github.com/joeycumines/logiface"

// workerFields stamps the identification fields common to every worker
// lifecycle event. Nil-safe: with logging disabled b is nil and every
// chained call is a no-op, matching logiface's builder semantics.
func workerFields[E logiface.Event](b *logiface.Builder[E], coreID uint64, tls *TLS) *logiface.Builder[E] {
	return b.
		Uint64("core", coreID).
		Int("thread", tls.Index()).
		Stringer("role", tls.Role())
}
