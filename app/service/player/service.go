package player

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"videoadguard/app/config"
	"videoadguard/app/dto"

	"github.com/samber/do"
	"golang.org/x/time/rate"
)

// ErrNotRegistered is returned when no page with the given player id is
// currently connected.
var ErrNotRegistered = errors.New("player: not registered")

type registration struct {
	playback     PlaybackSurface
	presentation PresentationSurface
	session      *session
}

// Service drives the skip affordances of every connected page. One
// registration per page, one session per analyzed video.
type Service struct {
	cfg *config.Config

	mu      sync.Mutex
	players map[string]*registration
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		cfg:     do.MustInvoke[*config.Config](di),
		mu:      sync.Mutex{},
		players: make(map[string]*registration),
	}, nil
}

// Register attaches the surfaces of a newly connected page.
func (s *Service) Register(playerID string, playback PlaybackSurface, presentation PresentationSurface) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.players[playerID]; ok && prev.session != nil {
		prev.session.teardown()
	}

	s.players[playerID] = &registration{
		playback:     playback,
		presentation: presentation,
		session:      nil,
	}

	slog.Info("Player registered",
		slog.String("playerId", playerID),
	)
}

// Unregister tears down the page's session and forgets its surfaces.
func (s *Service) Unregister(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reg, ok := s.players[playerID]; ok && reg.session != nil {
		reg.session.teardown()
	}

	delete(s.players, playerID)

	slog.Info("Player unregistered",
		slog.String("playerId", playerID),
	)
}

// Present replaces the page's session with one for the given intervals and
// mounts the markers and manual skip button.
func (s *Service) Present(playerID, videoID string, intervals []dto.AdTimeInterval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.players[playerID]
	if !ok {
		return ErrNotRegistered
	}

	if reg.session != nil {
		reg.session.teardown()
	}

	reg.session = newSession(sessionParams{
		videoID:         videoID,
		intervals:       intervals,
		playback:        reg.playback,
		presentation:    reg.presentation,
		limiter:         rate.NewLimiter(rate.Every(time.Duration(s.cfg.Detector.WatchIntervalSeconds*float64(time.Second))), 1),
		prerollSeconds:  s.cfg.Detector.PrerollSeconds,
		seekEpsilon:     s.cfg.Detector.SeekEpsilon,
		manualTolerance: s.cfg.Detector.ManualToleranceSeconds,
	})
	reg.session.present()

	return nil
}

// ArmAutoSkip starts the time watcher for the page's current session.
func (s *Service) ArmAutoSkip(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.players[playerID]
	if !ok {
		return ErrNotRegistered
	}

	if reg.session == nil {
		return nil
	}

	reg.session.armAutoSkip()

	return nil
}

// Reset tears down the page's session. Invoked before every new analysis and
// on navigation away from the current video.
func (s *Service) Reset(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.players[playerID]
	if !ok || reg.session == nil {
		return
	}

	reg.session.teardown()
	reg.session = nil
}

// HandleSkipClick reacts to the manual skip button.
func (s *Service) HandleSkipClick(playerID string) {
	if session := s.sessionOf(playerID); session != nil {
		session.manualSkip()
	}
}

// HandleNoticeDismiss suppresses the upcoming auto-skip the visible notice
// refers to.
func (s *Service) HandleNoticeDismiss(playerID string) {
	if session := s.sessionOf(playerID); session != nil {
		session.dismissNotice()
	}
}

func (s *Service) sessionOf(playerID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reg, ok := s.players[playerID]; ok {
		return reg.session
	}

	return nil
}
