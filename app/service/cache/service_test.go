package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"videoadguard/app/database"
	"videoadguard/app/dto"

	"github.com/jellydator/ttlcache/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, database.TxQueries) {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(context.Background(), database.Schema)
	require.NoError(t, err)

	queries := database.New(db)
	ttl := 24 * time.Hour

	return &Service{
		cfg:     nil,
		queries: queries,
		memory:  ttlcache.New[string, dto.DetectionResult](ttlcache.WithTTL[string, dto.DetectionResult](ttl)),
		ttl:     ttl,
	}, queries
}

func testResult(videoID string, computedAt time.Time) dto.DetectionResult {
	return dto.DetectionResult{
		VideoID:      videoID,
		AdExists:     true,
		ProductNames: []string{"某商品"},
		Intervals: []dto.AdTimeInterval{
			{StartSeconds: 30, EndSeconds: 70},
		},
		IsConfident: true,
		ComputedAt:  computedAt,
	}
}

func TestCacheRoundTrip(t *testing.T) {
	service, queries := newTestService(t)
	ctx := context.Background()

	stored := testResult("BV1test", time.Now().Truncate(time.Second))
	require.NoError(t, service.Put(ctx, stored))

	got, ok := service.Get(ctx, "BV1test")
	require.True(t, ok)
	assert.Equal(t, stored, got)

	// a fresh memory layer still finds the persisted entry
	cold := &Service{
		cfg:     nil,
		queries: queries,
		memory:  ttlcache.New[string, dto.DetectionResult](),
		ttl:     service.ttl,
	}

	got, ok = cold.Get(ctx, "BV1test")
	require.True(t, ok)
	assert.Equal(t, stored.VideoID, got.VideoID)
	assert.Equal(t, stored.Intervals, got.Intervals)
	assert.True(t, got.IsConfident)
}

func TestCacheMiss(t *testing.T) {
	service, _ := newTestService(t)

	_, ok := service.Get(context.Background(), "BV1missing")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	service, queries := newTestService(t)
	ctx := context.Background()

	// bypass the memory layer, persist an entry past its time-to-live
	expired := testResult("BV1old", time.Now().Add(-25*time.Hour))
	require.NoError(t, queries.UpsertDetection(ctx, database.UpsertDetectionParams{
		VideoID:    expired.VideoID,
		Payload:    []byte(`{"video_id":"BV1old","ad_exists":true}`),
		ComputedAt: expired.ComputedAt,
	}))

	_, ok := service.Get(ctx, "BV1old")
	assert.False(t, ok)

	require.NoError(t, service.EvictExpired(ctx))

	_, err := queries.GetDetection(ctx, "BV1old")
	assert.Error(t, err)
}
