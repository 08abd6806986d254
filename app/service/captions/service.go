package captions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"videoadguard/app/client/bilibili"
	"videoadguard/app/client/transcribe"
	"videoadguard/app/config"
	"videoadguard/app/database"
	"videoadguard/app/dto"

	"github.com/samber/do"
	"github.com/samber/oops"
)

// ErrNoCaptions is returned when a video has no official subtitles and
// transcription is unavailable or disabled.
var ErrNoCaptions = errors.New("captions: no captions available")

type Service struct {
	cfg              *config.Config
	bilibiliClient   *bilibili.Client
	transcribeClient *transcribe.Client
	queries          database.TxQueries
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		cfg:              do.MustInvoke[*config.Config](di),
		bilibiliClient:   do.MustInvoke[*bilibili.Client](di),
		transcribeClient: do.MustInvoke[*transcribe.Client](di),
		queries:          do.MustInvoke[database.TxQueries](di),
	}, nil
}

// Resolve produces the caption track detection runs on. Official subtitles
// win; audio transcription is the fallback when the caller allows it.
func (s *Service) Resolve(ctx context.Context, video *bilibili.VideoInfo, allowTranscription bool) ([]dto.CaptionEntry, error) {
	official, err := s.fetchOfficial(ctx, video)
	if err != nil {
		slog.WarnContext(ctx, "Official subtitle fetch failed, falling back",
			slog.String("videoId", video.Bvid),
			slog.Any("error", err),
		)
	}

	if len(official) > 0 {
		return normalizeCaptions(official), nil
	}

	if !allowTranscription {
		return nil, ErrNoCaptions
	}

	transcribed, err := s.transcribeAudio(ctx, video)
	if err != nil {
		return nil, err
	}

	if len(transcribed) == 0 {
		return nil, ErrNoCaptions
	}

	return normalizeCaptions(transcribed), nil
}

func (s *Service) fetchOfficial(ctx context.Context, video *bilibili.VideoInfo) ([]dto.CaptionEntry, error) {
	playerInfo, err := s.bilibiliClient.GetPlayerInfo(ctx, video.Bvid, video.Cid)
	if err != nil {
		return nil, oops.Errorf("GetPlayerInfo: %w", err)
	}

	track, ok := pickSubtitleTrack(playerInfo.Subtitle.Subtitles)
	if !ok {
		return nil, nil
	}

	result, err := s.bilibiliClient.GetCaptions(ctx, track.SubtitleURL)
	if err != nil {
		return nil, oops.Errorf("GetCaptions: %w", err)
	}

	return result, nil
}

func (s *Service) transcribeAudio(ctx context.Context, video *bilibili.VideoInfo) ([]dto.CaptionEntry, error) {
	cached, err := s.queries.GetTranscription(ctx, video.Bvid)
	if err == nil {
		var entries []dto.CaptionEntry
		if err := json.Unmarshal(cached.Payload, &entries); err == nil {
			slog.DebugContext(ctx, "Transcription cache hit",
				slog.String("videoId", video.Bvid),
			)

			return entries, nil
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		slog.WarnContext(ctx, "Transcription cache lookup failed",
			slog.String("videoId", video.Bvid),
			slog.Any("error", err),
		)
	}

	playURL, err := s.bilibiliClient.GetPlayURL(ctx, video.Bvid, video.Cid)
	if err != nil {
		return nil, oops.Errorf("GetPlayURL: %w", err)
	}

	stream, ok := bilibili.LowestBandwidthAudio(playURL.Dash.Audio)
	if !ok {
		return nil, ErrNoCaptions
	}

	audio, mime, err := s.bilibiliClient.DownloadAudio(ctx, stream.BaseURL, s.cfg.Transcribe.MaxAudioBytes)
	if err != nil {
		if errors.Is(err, bilibili.ErrAudioTooLarge) {
			return nil, oops.Wrapf(transcribe.ErrAudioTooLarge, "DownloadAudio")
		}

		return nil, oops.Errorf("DownloadAudio: %w", err)
	}

	entries, err := s.transcribeClient.Transcribe(ctx, audio, mime)
	if err != nil {
		return nil, oops.Errorf("Transcribe: %w", err)
	}

	s.storeTranscription(ctx, video.Bvid, entries)

	return entries, nil
}

func (s *Service) storeTranscription(ctx context.Context, videoID string, entries []dto.CaptionEntry) {
	payload, err := json.Marshal(entries)
	if err != nil {
		return
	}

	err = s.queries.UpsertTranscription(ctx, database.UpsertTranscriptionParams{
		VideoID:   videoID,
		Payload:   payload,
		CreatedAt: time.Now(),
	})
	if err != nil {
		slog.WarnContext(ctx, "Failed to cache transcription",
			slog.String("videoId", videoID),
			slog.Any("error", err),
		)
	}
}
