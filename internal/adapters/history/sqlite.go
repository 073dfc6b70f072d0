package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
	"github.com/eleven-am/prpflow/internal/xjson"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ ports.HistoryStore = (*SQLiteStore)(nil)

func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, domain.NewStorageError(domain.StorageErrUnavailable, "open", path, err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, domain.NewStorageError(domain.StorageErrUnavailable, "open", path, err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = FULL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, domain.NewStorageError(domain.StorageErrUnavailable, "pragma", p, err)
		}
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger.With("component", "history", "backend", "sqlite"),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS executions (
			seq           INTEGER PRIMARY KEY AUTOINCREMENT,
			execution_id  TEXT    NOT NULL UNIQUE,
			document_name TEXT    NOT NULL,
			status        TEXT    NOT NULL,
			payload       TEXT,
			version_id    TEXT,
			created_at    TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_executions_document ON executions(document_name, seq);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return domain.NewStorageError(domain.StorageErrUnavailable, "migrate", "executions", err)
	}
	return nil
}

func (s *SQLiteStore) SaveExecutionState(ctx context.Context, documentName string, state domain.ExecutionState) (string, error) {
	if err := domain.ValidateDocumentName(documentName); err != nil {
		return "", err
	}
	if !state.Status.Valid() {
		return "", domain.NewValidationError("status", "must be success, failure or partial")
	}

	payload, err := xjson.Marshal(state.Payload)
	if err != nil {
		return "", domain.NewValidationError("payload", err.Error())
	}

	executionID := uuid.New().String()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO executions (execution_id, document_name, status, payload, version_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		executionID, documentName, string(state.Status), string(payload), state.VersionID,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		s.logger.Error("failed to append execution record", "document_name", documentName, "error", err)
		return "", domain.NewStorageError(domain.StorageErrWrite, "insert", documentName, err)
	}

	return executionID, nil
}

func (s *SQLiteStore) GetExecutionHistory(ctx context.Context, documentName string) ([]domain.ExecutionRecord, error) {
	if err := domain.ValidateDocumentName(documentName); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, execution_id, status, payload, version_id, created_at
		 FROM executions WHERE document_name = ? ORDER BY seq DESC`, documentName)
	if err != nil {
		return nil, domain.NewStorageError(domain.StorageErrRead, "query", documentName, err)
	}
	defer rows.Close()

	records := make([]domain.ExecutionRecord, 0)
	for rows.Next() {
		var (
			record    domain.ExecutionRecord
			status    string
			payload   sql.NullString
			versionID sql.NullString
			createdAt string
		)
		if err := rows.Scan(&record.Sequence, &record.ExecutionID, &status, &payload, &versionID, &createdAt); err != nil {
			return nil, domain.NewStorageError(domain.StorageErrRead, "scan", documentName, err)
		}

		record.DocumentName = documentName
		record.Status = domain.ExecutionStatus(status)
		record.VersionID = versionID.String
		if payload.Valid && payload.String != "" && payload.String != "null" {
			if err := xjson.Unmarshal([]byte(payload.String), &record.Payload); err != nil {
				return nil, domain.NewStorageError(domain.StorageErrCorrupted, "decode", record.ExecutionID, err)
			}
		}
		record.Timestamp, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, domain.NewStorageError(domain.StorageErrCorrupted, "decode", record.ExecutionID, fmt.Errorf("created_at: %w", err))
		}

		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError(domain.StorageErrRead, "rows", documentName, err)
	}
	return records, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
