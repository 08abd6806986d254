package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"videoadguard/app/api"
	"videoadguard/app/client/bilibili"
	"videoadguard/app/client/llm"
	"videoadguard/app/client/transcribe"
	"videoadguard/app/config"
	"videoadguard/app/database"
	"videoadguard/app/dto"
	"videoadguard/app/service/cache"
	"videoadguard/app/service/captions"
	"videoadguard/app/service/classify"
	"videoadguard/app/service/player"
	"videoadguard/app/service/pubsub"
	"videoadguard/app/service/settings"
	"videoadguard/app/service/whitelist"

	"github.com/samber/do"
)

// Service sequences the full detection pipeline per navigation event:
// settings and whitelist gates, cache short-circuit, caption resolution,
// classification, normalization and presentation.
type Service struct {
	cfg              *config.Config
	bilibiliClient   *bilibili.Client
	captionsService  *captions.Service
	classifyService  *classify.Service
	cacheService     *cache.Service
	settingsService  *settings.Service
	whitelistService *whitelist.Service
	playerService    *player.Service
	pubSubService    *pubsub.Service

	runSeq atomic.Int64

	mu       sync.Mutex
	current  map[string]string
	tokens   map[string]int64
	statuses map[string]string
}

func New(di *do.Injector) (*Service, error) {
	return &Service{ //nolint:exhaustruct
		cfg:              do.MustInvoke[*config.Config](di),
		bilibiliClient:   do.MustInvoke[*bilibili.Client](di),
		captionsService:  do.MustInvoke[*captions.Service](di),
		classifyService:  do.MustInvoke[*classify.Service](di),
		cacheService:     do.MustInvoke[*cache.Service](di),
		settingsService:  do.MustInvoke[*settings.Service](di),
		whitelistService: do.MustInvoke[*whitelist.Service](di),
		playerService:    do.MustInvoke[*player.Service](di),
		pubSubService:    do.MustInvoke[*pubsub.Service](di),
		current:          make(map[string]string),
		tokens:           make(map[string]int64),
		statuses:         make(map[string]string),
	}, nil
}

// HandleNavigation reacts to a page navigation. Analysis only re-runs when
// the resolved video identity actually changes, query-string churn on the
// same video is ignored.
func (s *Service) HandleNavigation(ctx context.Context, playerID, rawURL string) {
	videoID := resolveVideoID(rawURL)

	s.mu.Lock()
	if s.current[playerID] == videoID && videoID != "" {
		s.mu.Unlock()
		return
	}
	s.current[playerID] = videoID
	token := s.runSeq.Add(1)
	s.tokens[playerID] = token
	s.mu.Unlock()

	s.playerService.Reset(playerID)

	if videoID == "" {
		s.setStatus(playerID, token, "非视频页面")
		return
	}

	s.run(ctx, playerID, videoID, token)
}

// Forget drops all per-player state, invoked when a page disconnects.
func (s *Service) Forget(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.current, playerID)
	delete(s.tokens, playerID)
	delete(s.statuses, playerID)
}

// Status returns the human-readable outcome of the player's last run.
func (s *Service) Status(playerID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.statuses[playerID]
}

func (s *Service) Statuses() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[string]string, len(s.statuses))
	for playerID, status := range s.statuses {
		result[playerID] = status
	}

	return result
}

func (s *Service) stale(playerID string, token int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tokens[playerID] != token
}

// setStatus records the run outcome unless a newer run superseded this one,
// and pushes it to the page.
func (s *Service) setStatus(playerID string, token int64, status string) {
	s.mu.Lock()

	if s.tokens[playerID] != token {
		s.mu.Unlock()
		return
	}

	s.statuses[playerID] = status
	s.mu.Unlock()

	s.pubSubService.Publish(fmt.Sprintf(dto.PlayerChannelFormat, playerID), &api.WsMessage{ //nolint:exhaustruct
		Event: "status",
		Data:  status,
	})
}

//nolint:cyclop,funlen
func (s *Service) run(ctx context.Context, playerID, videoID string, token int64) {
	slogger := slog.With(
		slog.String("playerId", playerID),
		slog.String("videoId", videoID),
	)
	slogger.InfoContext(ctx, "Starting detection run")

	s.setStatus(playerID, token, "正在分析...")

	appSettings, err := s.settingsService.Get(ctx)
	if err != nil {
		slogger.ErrorContext(ctx, "Failed to read settings", slog.Any("error", err))
		s.fail(playerID, token, "分析失败：设置读取失败")

		return
	}

	if !appSettings.EnableExtension {
		s.setStatus(playerID, token, "检测已禁用")
		return
	}

	if err := s.cacheService.EvictExpired(ctx); err != nil {
		slogger.WarnContext(ctx, "Cache eviction failed", slog.Any("error", err))
	}

	if cached, ok := s.cacheService.Get(ctx, videoID); ok {
		slogger.InfoContext(ctx, "Detection cache hit")

		// the uploader may have been whitelisted after the result was cached
		if cached.AdExists && s.whitelisted(ctx, appSettings, cached.OwnerUID, slogger) {
			s.setStatus(playerID, token, "UP主在白名单中，跳过检测")
			return
		}

		s.present(playerID, token, cached, appSettings)

		return
	}

	videoInfo, err := s.bilibiliClient.GetVideoInfo(ctx, videoID)
	if err != nil {
		slogger.ErrorContext(ctx, "Failed to fetch video info", slog.Any("error", err))
		s.fail(playerID, token, "分析失败：获取视频信息失败")

		return
	}

	ownerUID := uidString(videoInfo.Owner.Mid)

	if s.whitelisted(ctx, appSettings, ownerUID, slogger) {
		s.setStatus(playerID, token, "UP主在白名单中，跳过检测")
		return
	}

	topComment, err := s.bilibiliClient.GetTopComment(ctx, videoInfo.Aid)
	if err != nil {
		// the pinned comment is advisory input, continue without it
		slogger.WarnContext(ctx, "Failed to fetch top comment", slog.Any("error", err))
		topComment = nil
	}

	hasCommerceLinks := topComment != nil && len(topComment.Links) > 0

	if appSettings.RestrictedMode && !hasCommerceLinks {
		slogger.InfoContext(ctx, "No commerce link in top comment, skipping model call")
		s.storeAndPresent(ctx, playerID, token, negativeResult(videoID, ownerUID), appSettings, slogger)

		return
	}

	captionEntries, err := s.captionsService.Resolve(ctx, videoInfo, appSettings.EnableAudioTranscription)
	if err != nil {
		switch {
		case errors.Is(err, captions.ErrNoCaptions):
			s.fail(playerID, token, "无可用字幕，无法分析")
		case errors.Is(err, transcribe.ErrNoAPIKey):
			s.fail(playerID, token, "未设置语音识别API密钥")
		case errors.Is(err, transcribe.ErrAudioTooLarge):
			s.fail(playerID, token, "音频过大，无法转写")
		default:
			slogger.ErrorContext(ctx, "Caption resolution failed", slog.Any("error", err))
			s.fail(playerID, token, "分析失败：字幕获取失败")
		}

		return
	}

	judgment, err := s.classifyService.Classify(ctx, classify.Input{
		Title:        videoInfo.Title,
		TopComment:   topComment,
		Captions:     captionEntries,
		ProductHints: productHints(topComment),
		Restricted:   appSettings.RestrictedMode && hasCommerceLinks,
	})
	if err != nil {
		switch {
		case errors.Is(err, llm.ErrNoAPIKey):
			s.fail(playerID, token, "未设置API密钥")
		case errors.Is(err, classify.ErrParseFailed), errors.Is(err, classify.ErrSchemaInvalid):
			slogger.ErrorContext(ctx, "Model response rejected", slog.Any("error", err))
			s.fail(playerID, token, "分析失败：AI返回数据格式错误")
		default:
			slogger.ErrorContext(ctx, "Classification failed", slog.Any("error", err))
			s.fail(playerID, token, "分析失败：AI请求失败")
		}

		return
	}

	result := buildResult(videoID, ownerUID, judgment, captionEntries, float64(videoInfo.Duration), s.cfg.Detector)

	s.storeAndPresent(ctx, playerID, token, result, appSettings, slogger)
}

func (s *Service) storeAndPresent(
	ctx context.Context,
	playerID string,
	token int64,
	result dto.DetectionResult,
	appSettings database.Setting,
	slogger *slog.Logger,
) {
	if err := s.cacheService.Put(ctx, result); err != nil {
		slogger.WarnContext(ctx, "Failed to cache detection result", slog.Any("error", err))
	}

	s.present(playerID, token, result, appSettings)
}

// present applies a detection outcome to the page unless the run went stale.
func (s *Service) present(playerID string, token int64, result dto.DetectionResult, appSettings database.Setting) {
	if s.stale(playerID, token) {
		slog.Debug("Discarding stale detection result",
			slog.String("playerId", playerID),
			slog.String("videoId", result.VideoID),
		)

		return
	}

	if !result.AdExists || len(result.Intervals) == 0 {
		s.setStatus(playerID, token, "无广告内容")
		return
	}

	s.setStatus(playerID, token, summarize(result.Intervals))

	if err := s.playerService.Present(playerID, result.VideoID, result.Intervals); err != nil {
		slog.Warn("Failed to present intervals",
			slog.String("playerId", playerID),
			slog.Any("error", err),
		)

		return
	}

	if appSettings.AutoSkipAd && result.IsConfident {
		if err := s.playerService.ArmAutoSkip(playerID); err != nil {
			slog.Warn("Failed to arm auto-skip",
				slog.String("playerId", playerID),
				slog.Any("error", err),
			)
		}
	}
}

// whitelisted reports whether detection is exempted for the uploader. Lookup
// failures do not block analysis.
func (s *Service) whitelisted(ctx context.Context, appSettings database.Setting, ownerUID string, slogger *slog.Logger) bool {
	if !appSettings.WhitelistEnabled || ownerUID == "" {
		return false
	}

	result, err := s.whitelistService.Has(ctx, ownerUID)
	if err != nil {
		slogger.WarnContext(ctx, "Whitelist lookup failed", slog.Any("error", err))
		return false
	}

	return result
}

// fail records a failure status and guarantees no partial skip state stays
// armed against outdated intervals.
func (s *Service) fail(playerID string, token int64, status string) {
	s.playerService.Reset(playerID)
	s.setStatus(playerID, token, status)
}
