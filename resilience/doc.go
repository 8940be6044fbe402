// Package resilience retries operations that fail with transient errors.
//
// Retry runs a function until it succeeds, the context ends, or the
// configured number of attempts is used up. Backoff grows exponentially
// between attempts and is capped by MaxBackoff:
//
//	cfg := resilience.DefaultRetryConfig()
//	err := resilience.RetryFunc(ctx, cfg, func() error {
//		return store.Put(ctx, name, data)
//	})
//
// By default only errors flagged as retryable by the errors package are
// retried, so a malformed request fails on the first attempt.
package resilience
