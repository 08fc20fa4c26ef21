// Package replication drives pull-based synchronization of a local replica
// against its primary.
//
// A Syncer repeats rounds of pull, apply and advance:
//
//	FrameSource.PullFrames  -> frames after the durable marker
//	FrameApplier.ApplyFrames -> frames are on stable storage locally
//	Checkpointer.AdvanceMarker -> marker moves to the batch's last frame
//
// The wire protocol and the frame format belong to the FrameSource and
// FrameApplier implementations. Pulls are retried up to the checkpoint's
// retry budget; apply and checkpoint failures end the sync immediately so the
// next sync starts again from the last durable marker.
package replication
