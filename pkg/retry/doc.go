// Package retry provides backoff and retry logic for transient failures while
// talking to a sync primary.
//
// The sync driver sizes each round from the checkpoint store's retry budget:
//
//	cfg := retry.ForBudget(ctx, store.RetryBudget(), log)
//	batch, err := retry.DoWithResult(func() (*replication.Batch, error) {
//		return source.PullFrames(ctx, req)
//	}, cfg)
//
// A budget of N allows N retries after the first attempt. Errors typed by the
// errors package are retried only when their kind is retryable (network and
// server errors); checkpoint, auth and apply errors fail immediately. Context
// cancellation stops the loop, including while waiting between attempts.
//
// ByErrorType swaps the delay strategy per error kind, so a refused connection
// backs off faster than an overloaded primary.
package retry
