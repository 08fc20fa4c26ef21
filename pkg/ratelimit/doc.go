// Package ratelimit paces requests a replica sends to its primary.
//
// A sync round that keeps receiving "more frames" chains pulls back to back,
// and failed pulls are retried. PullLimiter caps the sustained pull rate with
// a token bucket so neither path can flood the primary. The primary may also
// ask the replica to back off, which PullLimiter honours before the next
// token is handed out.
//
// Usage:
//
//	// 120 pulls per minute with bursts of 10
//	limiter := ratelimit.NewPullLimiter(120, 10)
//
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // ctx cancelled
//	}
//	// pull frames
package ratelimit
