package replication

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	errs "libsqlsync/pkg/errors"
	"libsqlsync/pkg/logger"
	"libsqlsync/pkg/ratelimit"
	"libsqlsync/pkg/retry"
)

// ErrInvalidBatch is returned when the primary sends frames that do not
// continue from the durable marker
var ErrInvalidBatch = errors.New("invalid frame batch")

// Options configures a Syncer
type Options struct {
	// Backoff chooses retry delays per error kind; nil uses retry.NewErrorTypeBackoff
	Backoff *retry.ErrorTypeBackoff
	// MaxRounds caps the rounds of one SyncOnce call (0 means until caught up)
	MaxRounds int
	// Limiter paces pulls, including retries; nil means unlimited
	Limiter ratelimit.Limiter
	Logger  logger.Logger
}

// Result summarizes one SyncOnce call
type Result struct {
	Rounds        int
	FramesApplied int
	StartFrame    uint32
	EndFrame      uint32
}

// Syncer pulls frames from the primary, applies them and records progress
type Syncer struct {
	checkpoint Checkpointer
	source     FrameSource
	applier    FrameApplier
	backoff    *retry.ErrorTypeBackoff
	maxRounds  int
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// New creates a Syncer
func New(cp Checkpointer, source FrameSource, applier FrameApplier, opts *Options) *Syncer {
	if opts == nil {
		opts = &Options{}
	}
	backoff := opts.Backoff
	if backoff == nil {
		backoff = retry.NewErrorTypeBackoff()
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	return &Syncer{
		checkpoint: cp,
		source:     source,
		applier:    applier,
		backoff:    backoff,
		maxRounds:  opts.MaxRounds,
		limiter:    opts.Limiter,
		logger:     log.WithFields(map[string]interface{}{"component": "syncer", "endpoint": cp.Endpoint()}),
	}
}

// SyncOnce runs rounds until the primary reports no more frames, a round
// fails, or MaxRounds is reached. The result is valid even on error.
func (s *Syncer) SyncOnce(ctx context.Context) (*Result, error) {
	res := &Result{StartFrame: s.checkpoint.CurrentMarker()}
	res.EndFrame = res.StartFrame

	for s.maxRounds == 0 || res.Rounds < s.maxRounds {
		batch, err := s.round(ctx)
		res.EndFrame = s.checkpoint.CurrentMarker()
		if err != nil {
			return res, err
		}
		if batch.Empty() {
			break
		}
		res.Rounds++
		res.FramesApplied += len(batch.Frames)
		if !batch.More {
			break
		}
	}

	return res, nil
}

// round performs one pull/apply/advance cycle. The checkpoint moves only
// after the applier has made the batch durable.
func (s *Syncer) round(ctx context.Context) (*Batch, error) {
	roundID := uuid.NewString()
	after := s.checkpoint.CurrentMarker()
	token, _ := s.checkpoint.Credential()
	log := s.logger.WithField("round_id", roundID)

	req := PullRequest{
		Endpoint:   s.checkpoint.Endpoint(),
		AuthToken:  token,
		AfterFrame: after,
	}

	cfg := retry.ByErrorType(retry.ForBudget(ctx, s.checkpoint.RetryBudget(), log), s.backoff)
	backoff := &hintedBackoff{BackoffStrategy: cfg.Backoff}
	cfg.Backoff = backoff
	batch, err := retry.DoWithResult(func() (*Batch, error) {
		return s.pull(ctx, req, backoff, log)
	}, cfg)
	if err != nil {
		err = fmt.Errorf("pull frames after %d: %w", after, err)
		logger.LogSyncRound(log, roundID, after, after, 0, err)
		return nil, err
	}

	if batch.Empty() {
		log.DebugWithFields("Replica is up to date", map[string]interface{}{"after_frame": after})
		return batch, nil
	}

	if err := validateBatch(after, batch); err != nil {
		logger.LogSyncRound(log, roundID, after, after, len(batch.Frames), err)
		return nil, err
	}

	if err := s.applier.ApplyFrames(ctx, batch); err != nil {
		err = errs.New(errs.ErrorTypeApply, "apply frames", err)
		logger.LogSyncRound(log, roundID, after, after, len(batch.Frames), err)
		return nil, err
	}

	if err := s.checkpoint.AdvanceMarker(batch.LastFrameNo); err != nil {
		err = fmt.Errorf("record frame %d: %w", batch.LastFrameNo, err)
		logger.LogSyncRound(log, roundID, after, after, len(batch.Frames), err)
		return nil, err
	}

	logger.LogSyncRound(log, roundID, after, batch.LastFrameNo, len(batch.Frames), nil)
	return batch, nil
}

// pull waits for the limiter and performs one request. A throttle reply
// delays the next retry by at least the hinted duration and, when the
// limiter supports it, holds back every later pull as well.
func (s *Syncer) pull(ctx context.Context, req PullRequest, backoff *hintedBackoff, log logger.Logger) (*Batch, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	batch, err := s.source.PullFrames(ctx, req)
	if err != nil {
		var throttle *ThrottleError
		if errors.As(err, &throttle) {
			log.WarnWithFields("Primary throttled pulls", map[string]interface{}{
				"retry_after": throttle.RetryAfter,
			})
			backoff.hint = throttle.RetryAfter
			if t, ok := s.limiter.(interface{ Throttle(time.Duration) }); ok {
				t.Throttle(throttle.RetryAfter)
			}
		}
		return nil, err
	}
	return batch, nil
}

// hintedBackoff waits at least as long as the last throttle hint
type hintedBackoff struct {
	retry.BackoffStrategy
	hint time.Duration
}

func (b *hintedBackoff) NextDelay(attempt int) time.Duration {
	delay := max(b.BackoffStrategy.NextDelay(attempt), b.hint)
	b.hint = 0
	return delay
}

func (b *hintedBackoff) Reset() {
	b.hint = 0
	b.BackoffStrategy.Reset()
}

// validateBatch checks frames are ascending, start after the marker and end at LastFrameNo
func validateBatch(after uint32, batch *Batch) error {
	prev := after
	for i, f := range batch.Frames {
		if f.FrameNo <= prev {
			return fmt.Errorf("%w: frame %d at position %d does not follow frame %d", ErrInvalidBatch, f.FrameNo, i, prev)
		}
		prev = f.FrameNo
	}
	if batch.LastFrameNo != prev {
		return fmt.Errorf("%w: last frame is %d but batch ends at %d", ErrInvalidBatch, batch.LastFrameNo, prev)
	}
	return nil
}

// Run syncs immediately and then every interval until ctx is cancelled.
// Failed syncs are logged and retried on the next tick.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("sync interval must be positive, got %s", interval)
	}

	logger.LogComponentStart("syncer", map[string]interface{}{
		"interval":     interval,
		"retry_budget": s.checkpoint.RetryBudget(),
		"from_frame":   s.checkpoint.CurrentMarker(),
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := s.SyncOnce(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			s.logger.WithError(err).WarnWithFields("Sync failed, will retry next interval", map[string]interface{}{
				"durable_frame": res.EndFrame,
			})
		case err == nil && res.FramesApplied > 0:
			s.logger.InfoWithFields("Sync completed", map[string]interface{}{
				"rounds":      res.Rounds,
				"frames":      res.FramesApplied,
				"start_frame": res.StartFrame,
				"end_frame":   res.EndFrame,
			})
		}

		select {
		case <-ctx.Done():
			logger.LogComponentStop("syncer", "context cancelled")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
