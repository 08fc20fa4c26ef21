package replication

import (
	"context"
	"fmt"
	"time"
)

// Frame is one replication log entry as delivered by the primary
type Frame struct {
	FrameNo uint32
	Data    []byte
}

// Batch is a contiguous run of frames returned by one pull
type Batch struct {
	Frames []Frame
	// LastFrameNo is the highest frame number in Frames
	LastFrameNo uint32
	// More reports whether the primary has frames beyond LastFrameNo
	More bool
}

// Empty reports whether the batch carries no frames
func (b *Batch) Empty() bool {
	return b == nil || len(b.Frames) == 0
}

// PullRequest asks the primary for frames after AfterFrame
type PullRequest struct {
	Endpoint   string
	AuthToken  string
	AfterFrame uint32
}

// FrameSource fetches frames from the primary
type FrameSource interface {
	PullFrames(ctx context.Context, req PullRequest) (*Batch, error)
}

// FrameApplier writes frames into the local database. It must return only
// once the frames are durable.
type FrameApplier interface {
	ApplyFrames(ctx context.Context, batch *Batch) error
}

// Checkpointer records sync progress; *checkpoint.Store implements it
type Checkpointer interface {
	CurrentMarker() uint32
	AdvanceMarker(frameNo uint32) error
	RetryBudget() int
	Endpoint() string
	Credential() (string, bool)
}

// ThrottleError is returned by a FrameSource when the primary asks the
// replica to slow down. RetryAfter is the primary's hint, 0 if none.
type ThrottleError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ThrottleError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("primary throttled pulls for %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("primary throttled pulls: %v", e.Err)
}

func (e *ThrottleError) Unwrap() error {
	return e.Err
}
