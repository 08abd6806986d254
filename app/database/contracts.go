package database

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type TxQueries interface {
	GetSchemaVersion(ctx context.Context) (int32, error)
	SetSchemaVersion(ctx context.Context, version int32) error

	GetSettings(ctx context.Context) (Setting, error)
	UpdateSettings(ctx context.Context, arg UpdateSettingsParams) error

	ListWhitelistEntries(ctx context.Context) ([]WhitelistEntry, error)
	AddWhitelistEntry(ctx context.Context, arg AddWhitelistEntryParams) (bool, error)
	RemoveWhitelistEntry(ctx context.Context, uid string) (bool, error)
	HasWhitelistEntry(ctx context.Context, uid string) (bool, error)

	GetDetection(ctx context.Context, videoID string) (Detection, error)
	UpsertDetection(ctx context.Context, arg UpsertDetectionParams) error
	DeleteExpiredDetections(ctx context.Context, before time.Time) (int64, error)

	GetTranscription(ctx context.Context, videoID string) (Transcription, error)
	UpsertTranscription(ctx context.Context, arg UpsertTranscriptionParams) error
	DeleteExpiredTranscriptions(ctx context.Context, before time.Time) (int64, error)

	WithTx(tx *sql.Tx) *Queries
}

type TxTransactor interface {
	Transaction(ctx context.Context, callback func(ctx context.Context, tx *sql.Tx, qtx TxQueries) error) error
}
