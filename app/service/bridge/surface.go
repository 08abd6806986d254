package bridge

import (
	"fmt"
	"sync"
	"sync/atomic"

	"videoadguard/app/api"
	"videoadguard/app/dto"
	"videoadguard/app/service/player"

	"github.com/elliotchance/pie/v2"
)

var (
	_ player.PlaybackSurface     = (*pageSurface)(nil)
	_ player.PresentationSurface = (*pageSurface)(nil)
)

// pageSurface adapts one websocket connection to the playback and
// presentation contracts. Reads come from connection-local state, writes
// become outbound frames.
type pageSurface struct {
	handler *ConnectionHandler

	mu             sync.Mutex
	buttonVisible  bool
	markersVisible bool
	noticeVisible  bool
}

func (s *pageSurface) CurrentTime() float64 {
	return s.handler.getTime()
}

func (s *pageSurface) Duration() float64 {
	return s.handler.getDuration()
}

func (s *pageSurface) Seek(seconds float64) {
	s.handler.writeMessage(&api.WsMessage{ //nolint:exhaustruct
		Event: "seek",
		Data:  api.SeekData{Seconds: seconds},
	})
}

func (s *pageSurface) OnTimeChanged(callback func(seconds float64)) func() {
	var detached atomic.Bool

	sub := s.handler.pubSub.Subscribe(fmt.Sprintf(dto.PlayerTimeChannelFormat, s.handler.playerID), func(data any) {
		if detached.Load() {
			return
		}

		msg, ok := data.(*api.WsMessage)
		if !ok {
			return
		}

		seconds, ok := msg.Data.(float64)
		if !ok {
			return
		}

		callback(seconds)
	})

	// unsubscribing from inside a delivery would deadlock the bus, so the
	// actual unsubscribe is deferred to its own goroutine
	return func() {
		if detached.Swap(true) {
			return
		}

		go s.handler.pubSub.Unsubscribe(sub)
	}
}

func (s *pageSurface) ShowSkipButton() {
	s.setVisible(&s.buttonVisible, true)
	s.sendVisible("skip_button", true)
}

func (s *pageSurface) HideSkipButton() {
	s.setVisible(&s.buttonVisible, false)
	s.sendVisible("skip_button", false)
}

func (s *pageSurface) SkipButtonVisible() bool {
	return s.visible(&s.buttonVisible)
}

func (s *pageSurface) ShowMarkers(markers []dto.AdMarker) {
	s.setVisible(&s.markersVisible, true)

	s.handler.writeMessage(&api.WsMessage{ //nolint:exhaustruct
		Event: "markers",
		Data: pie.Map(markers, func(marker dto.AdMarker) api.Marker {
			return api.Marker{
				StartPercent: marker.StartPercent,
				WidthPercent: marker.WidthPercent,
			}
		}),
	})
}

func (s *pageSurface) HideMarkers() {
	s.setVisible(&s.markersVisible, false)

	s.handler.writeMessage(&api.WsMessage{ //nolint:exhaustruct
		Event: "markers",
		Data:  []api.Marker{},
	})
}

func (s *pageSurface) MarkersVisible() bool {
	return s.visible(&s.markersVisible)
}

func (s *pageSurface) ShowNotice(secondsLeft float64) {
	s.setVisible(&s.noticeVisible, true)

	s.handler.writeMessage(&api.WsMessage{ //nolint:exhaustruct
		Event: "notice",
		Data:  api.NoticeData{SecondsLeft: secondsLeft},
	})
}

func (s *pageSurface) HideNotice() {
	s.setVisible(&s.noticeVisible, false)
	s.sendVisible("notice_hide", false)
}

func (s *pageSurface) NoticeVisible() bool {
	return s.visible(&s.noticeVisible)
}

func (s *pageSurface) setVisible(field *bool, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	*field = value
}

func (s *pageSurface) visible(field *bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return *field
}

func (s *pageSurface) sendVisible(event string, visible bool) {
	s.handler.writeMessage(&api.WsMessage{ //nolint:exhaustruct
		Event: event,
		Data:  api.VisibleData{Visible: visible},
	})
}
