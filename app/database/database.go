package database

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}

	// modernc sqlite serializes writes through a single connection anyway
	db.SetMaxOpenConns(1)

	return db, nil
}

type Setting struct {
	EnableExtension          bool `json:"enable_extension"`
	RestrictedMode           bool `json:"restricted_mode"`
	AutoSkipAd               bool `json:"auto_skip_ad"`
	EnableAudioTranscription bool `json:"enable_audio_transcription"`
	WhitelistEnabled         bool `json:"whitelist_enabled"`
}

type UpdateSettingsParams = Setting

type WhitelistEntry struct {
	UID         string
	DisplayName string
	AddedAt     time.Time
}

type AddWhitelistEntryParams struct {
	UID         string
	DisplayName string
	AddedAt     time.Time
}

type Detection struct {
	VideoID    string
	Payload    []byte
	ComputedAt time.Time
}

type UpsertDetectionParams struct {
	VideoID    string
	Payload    []byte
	ComputedAt time.Time
}

type Transcription struct {
	VideoID   string
	Payload   []byte
	CreatedAt time.Time
}

type UpsertTranscriptionParams struct {
	VideoID   string
	Payload   []byte
	CreatedAt time.Time
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

func (q *Queries) GetSchemaVersion(ctx context.Context) (int32, error) {
	var version int32

	row := q.db.QueryRowContext(ctx, `SELECT version FROM schema_version WHERE id = 1`)
	if err := row.Scan(&version); err != nil {
		return 0, err
	}

	return version, nil
}

func (q *Queries) SetSchemaVersion(ctx context.Context, version int32) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO schema_version (id, version) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET version = excluded.version
	`, version)

	return err
}

func (q *Queries) GetSettings(ctx context.Context) (Setting, error) {
	var result Setting

	row := q.db.QueryRowContext(ctx, `
		SELECT enable_extension, restricted_mode, auto_skip_ad, enable_audio_transcription, whitelist_enabled
		FROM settings WHERE id = 1
	`)
	if err := row.Scan(
		&result.EnableExtension,
		&result.RestrictedMode,
		&result.AutoSkipAd,
		&result.EnableAudioTranscription,
		&result.WhitelistEnabled,
	); err != nil {
		return Setting{}, err //nolint:exhaustruct
	}

	return result, nil
}

func (q *Queries) UpdateSettings(ctx context.Context, arg UpdateSettingsParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE settings
		SET enable_extension = ?, restricted_mode = ?, auto_skip_ad = ?, enable_audio_transcription = ?, whitelist_enabled = ?
		WHERE id = 1
	`, arg.EnableExtension, arg.RestrictedMode, arg.AutoSkipAd, arg.EnableAudioTranscription, arg.WhitelistEnabled)

	return err
}

func (q *Queries) ListWhitelistEntries(ctx context.Context) ([]WhitelistEntry, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT uid, display_name, added_at FROM whitelist ORDER BY added_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []WhitelistEntry

	for rows.Next() {
		var entry WhitelistEntry
		var addedAt int64

		if err := rows.Scan(&entry.UID, &entry.DisplayName, &addedAt); err != nil {
			return nil, err
		}

		entry.AddedAt = time.Unix(addedAt, 0)
		result = append(result, entry)
	}

	return result, rows.Err()
}

func (q *Queries) AddWhitelistEntry(ctx context.Context, arg AddWhitelistEntryParams) (bool, error) {
	result, err := q.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO whitelist (uid, display_name, added_at) VALUES (?, ?, ?)
	`, arg.UID, arg.DisplayName, arg.AddedAt.Unix())
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (q *Queries) RemoveWhitelistEntry(ctx context.Context, uid string) (bool, error) {
	result, err := q.db.ExecContext(ctx, `DELETE FROM whitelist WHERE uid = ?`, uid)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (q *Queries) HasWhitelistEntry(ctx context.Context, uid string) (bool, error) {
	var count int

	row := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM whitelist WHERE uid = ?`, uid)
	if err := row.Scan(&count); err != nil {
		return false, err
	}

	return count > 0, nil
}

func (q *Queries) GetDetection(ctx context.Context, videoID string) (Detection, error) {
	var result Detection
	var computedAt int64

	row := q.db.QueryRowContext(ctx, `
		SELECT video_id, payload, computed_at FROM detection_cache WHERE video_id = ?
	`, videoID)
	if err := row.Scan(&result.VideoID, &result.Payload, &computedAt); err != nil {
		return Detection{}, err //nolint:exhaustruct
	}

	result.ComputedAt = time.Unix(computedAt, 0)

	return result, nil
}

func (q *Queries) UpsertDetection(ctx context.Context, arg UpsertDetectionParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO detection_cache (video_id, payload, computed_at) VALUES (?, ?, ?)
		ON CONFLICT (video_id) DO UPDATE SET payload = excluded.payload, computed_at = excluded.computed_at
	`, arg.VideoID, arg.Payload, arg.ComputedAt.Unix())

	return err
}

func (q *Queries) DeleteExpiredDetections(ctx context.Context, before time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, `DELETE FROM detection_cache WHERE computed_at < ?`, before.Unix())
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (q *Queries) GetTranscription(ctx context.Context, videoID string) (Transcription, error) {
	var result Transcription
	var createdAt int64

	row := q.db.QueryRowContext(ctx, `
		SELECT video_id, payload, created_at FROM transcription_cache WHERE video_id = ?
	`, videoID)
	if err := row.Scan(&result.VideoID, &result.Payload, &createdAt); err != nil {
		return Transcription{}, err //nolint:exhaustruct
	}

	result.CreatedAt = time.Unix(createdAt, 0)

	return result, nil
}

func (q *Queries) UpsertTranscription(ctx context.Context, arg UpsertTranscriptionParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO transcription_cache (video_id, payload, created_at) VALUES (?, ?, ?)
		ON CONFLICT (video_id) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at
	`, arg.VideoID, arg.Payload, arg.CreatedAt.Unix())

	return err
}

func (q *Queries) DeleteExpiredTranscriptions(ctx context.Context, before time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, `DELETE FROM transcription_cache WHERE created_at < ?`, before.Unix())
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
