package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/eleven-am/prpflow/internal/xjson"
	"github.com/google/uuid"
)

// Snapshot is an immutable, checksummed copy of a document's content.
type Snapshot struct {
	VersionID    string                 `json:"version_id"`
	DocumentName string                 `json:"document_name"`
	Content      string                 `json:"content"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
	Checksum     string                 `json:"checksum"`
	Sequence     int64                  `json:"sequence"`
}

type VersionSummary struct {
	VersionID    string                 `json:"version_id"`
	DocumentName string                 `json:"document_name"`
	Timestamp    time.Time              `json:"timestamp"`
	Checksum     string                 `json:"checksum"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	Size         int                    `json:"size"`
	Sequence     int64                  `json:"sequence"`
}

// Checksum is the lowercase hex SHA-256 digest of content.
func Checksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func NewSnapshot(documentName, content string, metadata map[string]interface{}, sequence int64) (*Snapshot, error) {
	if err := ValidateDocumentName(documentName); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		VersionID:    id.String(),
		DocumentName: documentName,
		Content:      content,
		Metadata:     CloneMetadata(metadata),
		Timestamp:    time.Now().UTC(),
		Checksum:     Checksum(content),
		Sequence:     sequence,
	}, nil
}

func (s *Snapshot) Verify() error {
	actual := Checksum(s.Content)
	if actual != s.Checksum {
		return &IntegrityError{
			DocumentName: s.DocumentName,
			VersionID:    s.VersionID,
			Expected:     s.Checksum,
			Actual:       actual,
		}
	}
	return nil
}

func (s *Snapshot) Summary() VersionSummary {
	return VersionSummary{
		VersionID:    s.VersionID,
		DocumentName: s.DocumentName,
		Timestamp:    s.Timestamp,
		Checksum:     s.Checksum,
		Metadata:     CloneMetadata(s.Metadata),
		Size:         len(s.Content),
		Sequence:     s.Sequence,
	}
}

// snapshotRecord is the stored form of a Snapshot. Content is kept as bytes
// so documents that are not valid UTF-8 survive encoding unchanged.
type snapshotRecord struct {
	VersionID    string                 `json:"version_id"`
	DocumentName string                 `json:"document_name"`
	Content      []byte                 `json:"content"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
	Checksum     string                 `json:"checksum"`
	Sequence     int64                  `json:"sequence"`
}

func (s *Snapshot) ToBytes() ([]byte, error) {
	return xjson.Marshal(snapshotRecord{
		VersionID:    s.VersionID,
		DocumentName: s.DocumentName,
		Content:      []byte(s.Content),
		Metadata:     s.Metadata,
		Timestamp:    s.Timestamp,
		Checksum:     s.Checksum,
		Sequence:     s.Sequence,
	})
}

func SnapshotFromBytes(data []byte) (*Snapshot, error) {
	var record snapshotRecord
	if err := xjson.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &Snapshot{
		VersionID:    record.VersionID,
		DocumentName: record.DocumentName,
		Content:      string(record.Content),
		Metadata:     record.Metadata,
		Timestamp:    record.Timestamp,
		Checksum:     record.Checksum,
		Sequence:     record.Sequence,
	}, nil
}

func ValidateDocumentName(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("document_name", "cannot be empty")
	}
	return nil
}

func CloneMetadata(metadata map[string]interface{}) map[string]interface{} {
	if metadata == nil {
		return nil
	}
	clone := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		clone[k] = v
	}
	return clone
}
