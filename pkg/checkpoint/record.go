package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	errs "libsqlsync/pkg/errors"
)

// MetadataSuffix is appended to the database path to name the sidecar file
const MetadataSuffix = "-info"

// Record is the on-disk shape of the sidecar file
type Record struct {
	MaxFrameNo uint32 `json:"max_frame_no"`
}

// MetadataPathFor returns the sidecar path for a local database file
func MetadataPathFor(databasePath string) string {
	return databasePath + MetadataSuffix
}

var errMissingFrameNo = errors.New(`record has no "max_frame_no" field`)

func encodeRecord(frameNo uint32) ([]byte, error) {
	return json.Marshal(Record{MaxFrameNo: frameNo})
}

// decodeRecord parses a sidecar record. Unknown fields are ignored; the
// frame number must be present and fit in 32 unsigned bits.
func decodeRecord(data []byte) (Record, error) {
	var raw struct {
		MaxFrameNo *uint32 `json:"max_frame_no"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, fmt.Errorf("malformed record: %w", err)
	}
	if raw.MaxFrameNo == nil {
		return Record{}, errMissingFrameNo
	}
	return Record{MaxFrameNo: *raw.MaxFrameNo}, nil
}

// ReadRecord loads the sidecar at path without opening a Store
func ReadRecord(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, errs.CheckpointLoadError(path, "read", err)
	}
	rec, err := decodeRecord(data)
	if err != nil {
		return Record{}, errs.CheckpointLoadError(path, "parse", err)
	}
	return rec, nil
}
