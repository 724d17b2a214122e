package fetch

// BreakerStates exposes the per-host breaker states for tests.
func BreakerStates(b *BreakerFetcher) map[string]string {
	return b.breakerStates()
}
