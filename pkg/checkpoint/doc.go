// Package checkpoint tracks how far a local replica has durably caught up with
// its remote primary.
//
// A Store owns the sidecar file "<database>-info", a single JSON record:
//
//	{"max_frame_no": 4711}
//
// The record is loaded when the store is opened and replaced on every
// AdvanceMarker call by writing a temporary file in the same directory,
// fsyncing it, renaming it over the sidecar and fsyncing the directory. The
// in-memory marker only changes once that sequence has completed, so the
// value reported by CurrentMarker never runs ahead of what a restarted process
// would read back from disk.
//
// Two policies are configurable through Options:
//   - MissingFile: a missing sidecar is a load error (MissingFileFail, the
//     default) or the start of a first sync at frame 0 (MissingFileZero).
//   - Regression: an advance below the current marker is written as given
//     (RegressionAllow, the default) or refused (RegressionReject).
//
// Usage:
//
//	store, err := checkpoint.New("libsql://primary.example.com", token, "/data/app.db", nil)
//	if err != nil {
//	    return err // errors.IsCheckpointLoad(err)
//	}
//	// ... apply frames up to 512 durably ...
//	if err := store.AdvanceMarker(512); err != nil {
//	    return err // errors.IsCheckpointPersist(err); marker is unchanged
//	}
package checkpoint
