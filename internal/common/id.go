package common

import (
	"strings"

	"github.com/google/uuid"
)

// NewRunID generates a unique run ID with the "run_" prefix.
// Format: run_<uuid>
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// NewBatchID generates the id shared by every snapshot one fetch stores.
// Format: batch_<uuid>
func NewBatchID() string {
	return "batch_" + uuid.New().String()
}

// NewSnapshotKey generates a snapshot key for a fetched document.
// Format: snap_<kind>_<uuid>
func NewSnapshotKey(kind string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = "doc"
	}
	return "snap_" + kind + "_" + uuid.New().String()
}
