package domain

import (
	"time"

	"github.com/eleven-am/prpflow/internal/xjson"
	"github.com/google/uuid"
)

type ExecutionStatus string

const (
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusFailure ExecutionStatus = "failure"
	ExecutionStatusPartial ExecutionStatus = "partial"
)

func (s ExecutionStatus) Valid() bool {
	switch s {
	case ExecutionStatusSuccess, ExecutionStatusFailure, ExecutionStatusPartial:
		return true
	default:
		return false
	}
}

// ExecutionState is what a caller hands to the history log; the log assigns
// the identifier and timestamp.
type ExecutionState struct {
	Status    ExecutionStatus        `json:"status"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	VersionID string                 `json:"version_id,omitempty"`
}

type ExecutionRecord struct {
	ExecutionID  string                 `json:"execution_id"`
	DocumentName string                 `json:"document_name"`
	Status       ExecutionStatus        `json:"status"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
	VersionID    string                 `json:"version_id,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
	Sequence     int64                  `json:"sequence"`
}

func NewExecutionRecord(documentName string, state ExecutionState, sequence int64) (*ExecutionRecord, error) {
	if err := ValidateDocumentName(documentName); err != nil {
		return nil, err
	}
	if !state.Status.Valid() {
		return nil, NewValidationError("status", "must be success, failure or partial")
	}

	return &ExecutionRecord{
		ExecutionID:  uuid.New().String(),
		DocumentName: documentName,
		Status:       state.Status,
		Payload:      CloneMetadata(state.Payload),
		VersionID:    state.VersionID,
		Timestamp:    time.Now().UTC(),
		Sequence:     sequence,
	}, nil
}

func (r *ExecutionRecord) ToBytes() ([]byte, error) {
	return xjson.Marshal(r)
}

func ExecutionRecordFromBytes(data []byte) (*ExecutionRecord, error) {
	var record ExecutionRecord
	if err := xjson.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}
