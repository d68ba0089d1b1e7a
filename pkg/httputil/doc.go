// Package httputil provides retry helpers for clients of remote HTTP APIs.
//
// # Retry
//
// [Backoff.Retry] repeats a call while it fails with an error wrapped by
// [Retryable], doubling the delay after each attempt:
//
//	err := httputil.DefaultBackoff.Retry(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
//
// Callers decide what is transient. The prompt client retries rate limits
// (429) and server errors (5xx) and fails at once on everything else.
//
// Defaults:
//
//   - Attempts: 3, including the first call
//   - Initial delay: 1 second
package httputil
