// Package retry provides exponential backoff and retry logic for transient
// failures while fetching images.
//
// Do runs an operation until it succeeds, returns a non-retryable error, runs
// out of attempts, or the context is cancelled:
//
//	cfg := retry.FromConfig(appConfig.Retry, log)
//	err := retry.Do(ctx, func() error {
//		return fetchOnce(ctx, url)
//	}, cfg)
//
// Errors of type *errors.Error are retried according to their ErrorType;
// context errors are never retried.
package retry
