package core

import (
	"github.com/eleven-am/prpflow/internal/domain"
)

// Result is what every workflow returns: the dispatcher's task result plus
// the persistence side effects the workflow performed.
type Result struct {
	*domain.TaskResult

	DocumentName string      `json:"document_name,omitempty"`
	VersionID    string      `json:"version_id,omitempty"`
	Checksum     string      `json:"checksum,omitempty"`
	ExecutionID  string      `json:"execution_id,omitempty"`
	Attempts     int         `json:"attempts"`
	Rollback     *Rollback   `json:"rollback,omitempty"`
	Comparison   *Comparison `json:"comparison,omitempty"`
}

// Rollback reports what happened when a failed execution tried to restore
// the last known-good snapshot.
type Rollback struct {
	Attempted bool   `json:"attempted"`
	Restored  bool   `json:"restored"`
	VersionID string `json:"version_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Comparison lists how validation checks changed since the previous run.
// Every current check lands in exactly one of NewFailures, Resolved,
// Unchanged or Added; Removed holds previous checks that were not run again.
type Comparison struct {
	PreviousVersionID string   `json:"previous_version_id,omitempty"`
	NewFailures       []string `json:"new_failures"`
	Resolved          []string `json:"resolved"`
	Unchanged         []string `json:"unchanged"`
	Added             []string `json:"added"`
	Removed           []string `json:"removed"`
}
