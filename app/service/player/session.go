package player

import (
	"log/slog"
	"sync"

	"videoadguard/app/dto"

	"golang.org/x/time/rate"
)

type sessionParams struct {
	videoID         string
	intervals       []dto.AdTimeInterval
	playback        PlaybackSurface
	presentation    PresentationSurface
	limiter         *rate.Limiter
	prerollSeconds  float64
	seekEpsilon     float64
	manualTolerance float64
}

// session owns the skip state for one analyzed video on one page. It is
// rebuilt from scratch whenever the video identity changes or detection
// re-runs, so stale listeners never outlive their intervals.
type session struct {
	videoID         string
	intervals       []dto.AdTimeInterval
	playback        PlaybackSurface
	presentation    PresentationSurface
	limiter         *rate.Limiter
	prerollSeconds  float64
	seekEpsilon     float64
	manualTolerance float64

	mu             sync.Mutex
	skipped        map[int]struct{}
	notified       map[int]struct{}
	noticeInterval int
	detach         func()
}

func newSession(params sessionParams) *session {
	return &session{
		videoID:         params.videoID,
		intervals:       params.intervals,
		playback:        params.playback,
		presentation:    params.presentation,
		limiter:         params.limiter,
		prerollSeconds:  params.prerollSeconds,
		seekEpsilon:     params.seekEpsilon,
		manualTolerance: params.manualTolerance,
		skipped:         make(map[int]struct{}),
		notified:        make(map[int]struct{}),
		noticeInterval:  -1,
		detach:          nil,
	}
}

// present mounts the markers and the manual skip button. Safe to call more
// than once, affordances are replaced rather than duplicated.
func (s *session) present() {
	duration := s.playback.Duration()
	if duration <= 0 {
		slog.Warn("Player reported no duration, skipping markers",
			slog.String("videoId", s.videoID),
		)
	} else {
		s.presentation.HideMarkers()
		s.presentation.ShowMarkers(markersFor(s.intervals, duration))
	}

	s.presentation.HideSkipButton()
	s.presentation.ShowSkipButton()
}

// armAutoSkip attaches the time watcher. A second call is a no-op while the
// watcher is still attached.
func (s *session) armAutoSkip() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detach != nil || len(s.intervals) == 0 {
		return
	}

	s.detach = s.playback.OnTimeChanged(s.handleTime)
}

func (s *session) handleTime(seconds float64) {
	if !s.limiter.Allow() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, interval := range s.intervals {
		if _, done := s.skipped[i]; done {
			continue
		}

		switch {
		case seconds >= interval.StartSeconds && seconds < interval.EndSeconds:
			s.skipped[i] = struct{}{}

			if s.noticeInterval == i {
				s.noticeInterval = -1
				s.presentation.HideNotice()
			}

			target := interval.EndSeconds + s.seekEpsilon
			if duration := s.playback.Duration(); duration > 0 && target > duration {
				target = duration
			}

			slog.Debug("Auto-skipping ad segment",
				slog.String("videoId", s.videoID),
				slog.Float64("from", seconds),
				slog.Float64("to", target),
			)

			s.playback.Seek(target)

		case seconds >= interval.StartSeconds-s.prerollSeconds && seconds < interval.StartSeconds:
			if _, seen := s.notified[i]; seen {
				continue
			}

			s.notified[i] = struct{}{}
			s.noticeInterval = i
			s.presentation.ShowNotice(interval.StartSeconds - seconds)
		}
	}

	if len(s.skipped) == len(s.intervals) {
		s.detachLocked()
	}
}

// dismissNotice suppresses the auto-skip for the interval the visible notice
// refers to. The segment plays through, no seek happens.
func (s *session) dismissNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.noticeInterval < 0 {
		return
	}

	s.skipped[s.noticeInterval] = struct{}{}
	s.noticeInterval = -1
	s.presentation.HideNotice()

	if len(s.skipped) == len(s.intervals) {
		s.detachLocked()
	}
}

// manualSkip jumps past the segment the playhead is currently in. Activates
// slightly before the segment start so a just-in-time click still lands.
func (s *session) manualSkip() {
	now := s.playback.CurrentTime()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, interval := range s.intervals {
		if now >= interval.StartSeconds-s.manualTolerance && now < interval.EndSeconds {
			s.playback.Seek(interval.EndSeconds)
			return
		}
	}
}

func (s *session) detachLocked() {
	if s.detach == nil {
		return
	}

	detach := s.detach
	s.detach = nil
	detach()
}

// teardown detaches the watcher and unmounts every affordance.
func (s *session) teardown() {
	s.mu.Lock()
	s.detachLocked()
	s.noticeInterval = -1
	s.mu.Unlock()

	s.presentation.HideNotice()
	s.presentation.HideMarkers()
	s.presentation.HideSkipButton()
}

func markersFor(intervals []dto.AdTimeInterval, duration float64) []dto.AdMarker {
	result := make([]dto.AdMarker, 0, len(intervals))

	for _, interval := range intervals {
		start := interval.StartSeconds / duration * 100
		width := interval.Duration() / duration * 100

		if start > 100 {
			continue
		}
		if start+width > 100 {
			width = 100 - start
		}

		result = append(result, dto.AdMarker{
			StartPercent: start,
			WidthPercent: width,
		})
	}

	return result
}
