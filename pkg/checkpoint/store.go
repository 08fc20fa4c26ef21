package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync/atomic"

	"libsqlsync/pkg/config"
	errs "libsqlsync/pkg/errors"
	"libsqlsync/pkg/logger"
)

// DefaultRetryBudget is the number of retries a sync round gets by default
const DefaultRetryBudget = config.DefaultMaxRetries

// ErrInvalidArgument is wrapped by New for unusable constructor inputs
var ErrInvalidArgument = errors.New("invalid argument")

// MissingFilePolicy decides what a missing sidecar means when opening a store
type MissingFilePolicy int

const (
	// MissingFileFail refuses to open without a sidecar
	MissingFileFail MissingFilePolicy = iota
	// MissingFileZero starts at frame 0; the sidecar is created on the first advance
	MissingFileZero
)

func (p MissingFilePolicy) String() string {
	if p == MissingFileZero {
		return config.MissingFileZero
	}
	return config.MissingFileFail
}

// RegressionPolicy decides how AdvanceMarker treats a frame below the current marker
type RegressionPolicy int

const (
	// RegressionAllow persists whatever frame the caller reports
	RegressionAllow RegressionPolicy = iota
	// RegressionReject refuses the advance with a marker regression error
	RegressionReject
)

func (p RegressionPolicy) String() string {
	if p == RegressionReject {
		return config.RegressionReject
	}
	return config.RegressionAllow
}

// Options configures a Store
type Options struct {
	// RetryBudget is the retry cap handed to the sync driver; must be >= 0
	RetryBudget int
	MissingFile MissingFilePolicy
	Regression  RegressionPolicy
	Logger      logger.Logger
}

// DefaultOptions returns fail-fast, regression-tolerant options with a budget of 5
func DefaultOptions() *Options {
	return &Options{
		RetryBudget: DefaultRetryBudget,
		MissingFile: MissingFileFail,
		Regression:  RegressionAllow,
	}
}

// OptionsFromConfig maps loaded configuration onto store options
func OptionsFromConfig(cfg *config.Config) (*Options, error) {
	opts := DefaultOptions()
	opts.RetryBudget = cfg.Sync.MaxRetries

	switch cfg.Checkpoint.MissingFile {
	case config.MissingFileFail, "":
		opts.MissingFile = MissingFileFail
	case config.MissingFileZero:
		opts.MissingFile = MissingFileZero
	default:
		return nil, fmt.Errorf("%w: unknown missing_file policy %q", ErrInvalidArgument, cfg.Checkpoint.MissingFile)
	}

	switch cfg.Checkpoint.Regression {
	case config.RegressionAllow, "":
		opts.Regression = RegressionAllow
	case config.RegressionReject:
		opts.Regression = RegressionReject
	default:
		return nil, fmt.Errorf("%w: unknown regression policy %q", ErrInvalidArgument, cfg.Checkpoint.Regression)
	}

	return opts, nil
}

// Store persists the durable frame marker of one local database.
//
// AdvanceMarker must not be called concurrently; CurrentMarker is safe to
// call from any goroutine.
type Store struct {
	endpoint     string
	credential   string
	retryBudget  int
	metadataPath string
	missingFile  MissingFilePolicy
	regression   RegressionPolicy

	marker atomic.Uint32
	// unsynced is a frame whose sidecar was renamed into place but whose
	// directory fsync failed; the file may already hold it
	unsynced uint32

	fs     fileSystem
	logger logger.Logger
}

// New opens the checkpoint store for the database at databasePath.
// An empty credential means the endpoint needs none.
func New(endpoint, credential, databasePath string, opts *Options) (*Store, error) {
	return open(endpoint, credential, databasePath, opts, osFS{})
}

func open(endpoint, credential, databasePath string, opts *Options, fsys fileSystem) (*Store, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if endpoint == "" {
		return nil, fmt.Errorf("%w: sync endpoint is empty", ErrInvalidArgument)
	}
	if databasePath == "" {
		return nil, fmt.Errorf("%w: database path is empty", ErrInvalidArgument)
	}
	if opts.RetryBudget < 0 {
		return nil, fmt.Errorf("%w: retry budget %d is negative", ErrInvalidArgument, opts.RetryBudget)
	}

	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	s := &Store{
		endpoint:     endpoint,
		credential:   credential,
		retryBudget:  opts.RetryBudget,
		metadataPath: MetadataPathFor(databasePath),
		missingFile:  opts.MissingFile,
		regression:   opts.Regression,
		fs:           fsys,
		logger:       log.WithField("component", "checkpoint"),
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := s.fs.ReadFile(s.metadataPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && s.missingFile == MissingFileZero {
			s.logger.InfoWithFields("No checkpoint found, starting from frame 0", map[string]interface{}{
				"path": s.metadataPath,
			})
			return nil
		}
		return errs.CheckpointLoadError(s.metadataPath, "read", err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return errs.CheckpointLoadError(s.metadataPath, "parse", err)
	}
	s.marker.Store(rec.MaxFrameNo)

	s.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"path":         s.metadataPath,
		"max_frame_no": rec.MaxFrameNo,
	})
	return nil
}

// CurrentMarker returns the last frame number known to be durably applied
func (s *Store) CurrentMarker() uint32 {
	return s.marker.Load()
}

// RetryBudget returns the maximum number of retries for one sync round
func (s *Store) RetryBudget() int {
	return s.retryBudget
}

// Endpoint returns the remote sync endpoint
func (s *Store) Endpoint() string {
	return s.endpoint
}

// Credential returns the bearer credential and whether one was configured
func (s *Store) Credential() (string, bool) {
	return s.credential, s.credential != ""
}

// MetadataPath returns the sidecar file path
func (s *Store) MetadataPath() string {
	return s.metadataPath
}

// AdvanceMarker records frameNo as durably applied. The sidecar is replaced
// atomically and the in-memory marker changes only after the replacement is
// on stable storage; on error the marker keeps its previous value.
func (s *Store) AdvanceMarker(frameNo uint32) error {
	current := s.marker.Load()
	if s.regression == RegressionReject {
		floor := max(current, s.unsynced)
		if frameNo < floor {
			return errs.MarkerRegressionError(s.metadataPath, floor, frameNo)
		}
	}

	renamed, err := s.persist(frameNo)
	if err != nil {
		if renamed {
			s.unsynced = frameNo
		}
		s.logger.WithError(err).WarnWithFields("Checkpoint not persisted", map[string]interface{}{
			"path":         s.metadataPath,
			"max_frame_no": current,
			"requested":    frameNo,
		})
		return err
	}

	s.unsynced = 0
	s.marker.Store(frameNo)
	logger.LogCheckpointAdvance(s.logger, s.metadataPath, current, frameNo)
	return nil
}

// persist replaces the sidecar with a record for frameNo: temp file, fsync,
// rename, fsync of the parent directory. renamed reports whether the new
// sidecar replaced the old one, even when an error is returned.
func (s *Store) persist(frameNo uint32) (renamed bool, err error) {
	data, err := encodeRecord(frameNo)
	if err != nil {
		return false, errs.CheckpointPersistError(s.metadataPath, "encode", err)
	}

	dir := filepath.Dir(s.metadataPath)
	tmp, err := s.fs.CreateTemp(dir, filepath.Base(s.metadataPath)+".tmp-*")
	if err != nil {
		return false, errs.CheckpointPersistError(s.metadataPath, "create temp", err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = s.fs.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return false, errs.CheckpointPersistError(s.metadataPath, "write", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return false, errs.CheckpointPersistError(s.metadataPath, "chmod", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return false, errs.CheckpointPersistError(s.metadataPath, "fsync", err)
	}
	if err := tmp.Close(); err != nil {
		return false, errs.CheckpointPersistError(s.metadataPath, "close", err)
	}

	if err := s.fs.Rename(tmpPath, s.metadataPath); err != nil {
		return false, errs.CheckpointPersistError(s.metadataPath, "rename", err)
	}
	committed = true

	if err := s.fs.SyncDir(dir); err != nil {
		return true, errs.CheckpointPersistError(s.metadataPath, "fsync dir", err)
	}
	return true, nil
}
