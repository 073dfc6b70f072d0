package domain

import (
	"fmt"
	"net/url"
)

const (
	SnapshotPrefix      = "snapshot:"
	SnapshotIndexPrefix = "snapshot_idx:"
	HistoryPrefix       = "history:"
	SequencePrefix      = "sequence:"

	SnapshotSequence = "snapshots"
	HistorySequence  = "history"
)

func escapeName(name string) string {
	return url.QueryEscape(name)
}

// SnapshotDocumentPrefix is the scan prefix for every snapshot of one document.
func SnapshotDocumentPrefix(documentName string) string {
	return fmt.Sprintf("%s%s:", SnapshotPrefix, escapeName(documentName))
}

func SnapshotKey(documentName string, sequence int64) string {
	return fmt.Sprintf("%s%020d", SnapshotDocumentPrefix(documentName), sequence)
}

func SnapshotIndexKey(versionID string) string {
	return SnapshotIndexPrefix + versionID
}

func HistoryDocumentPrefix(documentName string) string {
	return fmt.Sprintf("%s%s:", HistoryPrefix, escapeName(documentName))
}

func HistoryKey(documentName string, sequence int64) string {
	return fmt.Sprintf("%s%020d", HistoryDocumentPrefix(documentName), sequence)
}

func SequenceKey(name string) string {
	return SequencePrefix + name
}
