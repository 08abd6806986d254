package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/stretchr/testify/require"
)

func newTestQueries(t *testing.T) *Queries {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(context.Background(), Schema)
	require.NoError(t, err)

	return New(db)
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	queries := newTestQueries(t)
	ctx := context.Background()

	initial, err := queries.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, true, initial.EnableExtension)
	assert.Equal(t, false, initial.RestrictedMode)

	initial.AutoSkipAd = true
	initial.RestrictedMode = true
	require.NoError(t, queries.UpdateSettings(ctx, initial))

	updated, err := queries.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, initial, updated)
}

func TestWhitelistLifecycle(t *testing.T) {
	queries := newTestQueries(t)
	ctx := context.Background()

	added, err := queries.AddWhitelistEntry(ctx, AddWhitelistEntryParams{
		UID:         "12345",
		DisplayName: "某UP主",
		AddedAt:     time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, true, added)

	// duplicate insert is ignored
	added, err = queries.AddWhitelistEntry(ctx, AddWhitelistEntryParams{
		UID:         "12345",
		DisplayName: "某UP主",
		AddedAt:     time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, false, added)

	has, err := queries.HasWhitelistEntry(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, true, has)

	entries, err := queries.ListWhitelistEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "某UP主", entries[0].DisplayName)

	removed, err := queries.RemoveWhitelistEntry(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, true, removed)

	removed, err = queries.RemoveWhitelistEntry(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, false, removed)
}

func TestDetectionCacheQueries(t *testing.T) {
	queries := newTestQueries(t)
	ctx := context.Background()

	_, err := queries.GetDetection(ctx, "BV1missing")
	require.True(t, errors.Is(err, sql.ErrNoRows))

	computedAt := time.Now().Truncate(time.Second)

	require.NoError(t, queries.UpsertDetection(ctx, UpsertDetectionParams{
		VideoID:    "BV1test",
		Payload:    []byte(`{"adExists":true}`),
		ComputedAt: computedAt,
	}))

	row, err := queries.GetDetection(ctx, "BV1test")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"adExists":true}`), row.Payload)
	require.True(t, row.ComputedAt.Equal(computedAt))

	// upsert replaces wholesale
	require.NoError(t, queries.UpsertDetection(ctx, UpsertDetectionParams{
		VideoID:    "BV1test",
		Payload:    []byte(`{"adExists":false}`),
		ComputedAt: computedAt,
	}))

	row, err = queries.GetDetection(ctx, "BV1test")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"adExists":false}`), row.Payload)

	deleted, err := queries.DeleteExpiredDetections(ctx, computedAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = queries.GetDetection(ctx, "BV1test")
	require.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestSchemaVersionRoundTrip(t *testing.T) {
	queries := newTestQueries(t)
	ctx := context.Background()

	_, err := queries.GetSchemaVersion(ctx)
	require.True(t, errors.Is(err, sql.ErrNoRows))

	require.NoError(t, queries.SetSchemaVersion(ctx, 1))

	version, err := queries.GetSchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), version)
}
