package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"videoadguard/app/config"
	"videoadguard/app/database"
	"videoadguard/app/dto"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rofleksey/meg"
	"github.com/samber/do"
	"github.com/samber/oops"
)

// Service is the detection result cache. Lookups hit memory first, the
// sqlite layer keeps results across restarts.
type Service struct {
	cfg     *config.Config
	queries database.TxQueries
	memory  *ttlcache.Cache[string, dto.DetectionResult]
	ttl     time.Duration
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)
	ttl := time.Duration(cfg.Detector.CacheTTLHours) * time.Hour

	memory := ttlcache.New[string, dto.DetectionResult](
		ttlcache.WithTTL[string, dto.DetectionResult](ttl),
	)
	go memory.Start()

	return &Service{
		cfg:     cfg,
		queries: do.MustInvoke[database.TxQueries](di),
		memory:  memory,
		ttl:     ttl,
	}, nil
}

// Get returns a previous detection for the video, or false when absent or
// expired.
func (s *Service) Get(ctx context.Context, videoID string) (dto.DetectionResult, bool) {
	if item := s.memory.Get(videoID); item != nil {
		return item.Value(), true
	}

	row, err := s.queries.GetDetection(ctx, videoID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.WarnContext(ctx, "Detection cache lookup failed",
				slog.String("videoId", videoID),
				slog.Any("error", err),
			)
		}

		return dto.DetectionResult{}, false //nolint:exhaustruct
	}

	remaining := time.Until(row.ComputedAt.Add(s.ttl))
	if remaining <= 0 {
		return dto.DetectionResult{}, false //nolint:exhaustruct
	}

	var result dto.DetectionResult
	if err := json.Unmarshal(row.Payload, &result); err != nil {
		slog.WarnContext(ctx, "Detection cache entry corrupted",
			slog.String("videoId", videoID),
			slog.Any("error", err),
		)

		return dto.DetectionResult{}, false //nolint:exhaustruct
	}

	s.memory.Set(videoID, result, remaining)

	return result, true
}

// Put stores a detection result, replacing any previous entry wholesale.
func (s *Service) Put(ctx context.Context, result dto.DetectionResult) error {
	s.memory.Set(result.VideoID, result, s.ttl)

	payload, err := json.Marshal(result)
	if err != nil {
		return oops.Errorf("marshal result: %w", err)
	}

	err = s.queries.UpsertDetection(ctx, database.UpsertDetectionParams{
		VideoID:    result.VideoID,
		Payload:    payload,
		ComputedAt: result.ComputedAt,
	})
	if err != nil {
		return oops.Errorf("UpsertDetection: %w", err)
	}

	return nil
}

// EvictExpired deletes persisted entries past their time-to-live.
func (s *Service) EvictExpired(ctx context.Context) error {
	before := time.Now().Add(-s.ttl)

	deleted, err := s.queries.DeleteExpiredDetections(ctx, before)
	if err != nil {
		return oops.Errorf("DeleteExpiredDetections: %w", err)
	}

	transcriptions, err := s.queries.DeleteExpiredTranscriptions(ctx, before)
	if err != nil {
		return oops.Errorf("DeleteExpiredTranscriptions: %w", err)
	}

	if deleted > 0 || transcriptions > 0 {
		slog.InfoContext(ctx, "Evicted expired cache entries",
			slog.Int64("detections", deleted),
			slog.Int64("transcriptions", transcriptions),
		)
	}

	return nil
}

func (s *Service) RunEvictionLoop(ctx context.Context) {
	meg.RunTicker(ctx, time.Hour, func() {
		if err := s.EvictExpired(ctx); err != nil {
			slog.ErrorContext(ctx, "Cache eviction failed",
				slog.Any("error", err),
			)
		}
	})
}
