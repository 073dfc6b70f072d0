package domain

import "time"

type EventType string

const (
	EventVersionSaved    EventType = "version_saved"
	EventVersionRestored EventType = "version_restored"
)

type VersionEvent struct {
	Type         EventType              `json:"event_type"`
	DocumentName string                 `json:"document_name"`
	VersionID    string                 `json:"version_id"`
	Checksum     string                 `json:"checksum"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt   time.Time              `json:"occurred_at"`
}

func NewVersionEvent(eventType EventType, snapshot *Snapshot) VersionEvent {
	return VersionEvent{
		Type:         eventType,
		DocumentName: snapshot.DocumentName,
		VersionID:    snapshot.VersionID,
		Checksum:     snapshot.Checksum,
		Metadata:     CloneMetadata(snapshot.Metadata),
		OccurredAt:   time.Now().UTC(),
	}
}

// ComponentEvent is what a worker reports back through the mediator while it
// runs a task.
type ComponentEvent struct {
	Sender     string                 `json:"sender"`
	Event      string                 `json:"event"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}
