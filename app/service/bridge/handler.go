package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"videoadguard/app/api"
	"videoadguard/app/dto"
	"videoadguard/app/service/detect"
	"videoadguard/app/service/player"
	"videoadguard/app/service/pubsub"

	"github.com/gofiber/contrib/websocket"
	"github.com/jellydator/ttlcache/v3"
)

var pingMsg = []byte("ping")

// clientMessage is a frame sent by the page script.
type clientMessage struct {
	Event    string  `json:"event"`
	Url      string  `json:"url,omitempty"`
	Seconds  float64 `json:"seconds,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

type ConnectionHandler struct {
	conn          *websocket.Conn
	playerID      string
	pubSub        *pubsub.Service
	playerService *player.Service
	detectService *detect.Service
	writeChan     chan api.IdMessage
	ctx           context.Context
	cancel        context.CancelFunc

	stateMu     sync.Mutex
	currentTime float64
	duration    float64
}

func (h *ConnectionHandler) Handle() {
	defer h.cleanup()

	surface := &pageSurface{handler: h} //nolint:exhaustruct
	h.playerService.Register(h.playerID, surface, surface)

	sub := h.pubSub.Subscribe(fmt.Sprintf(dto.PlayerChannelFormat, h.playerID), func(data any) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("Panic in subscription handler", slog.Any("error", err))
			}
		}()

		idMsg, ok := data.(api.IdMessage)
		if !ok {
			slog.Error("Failed to cast pubsub message to IdMessage",
				slog.Any("data", data),
			)
			return
		}

		h.writeMessage(idMsg)
	})
	defer h.pubSub.Unsubscribe(sub)

	h.startWriter()
	h.runReader()
}

func (h *ConnectionHandler) writeMessage(msg api.IdMessage) bool {
	select {
	case <-h.ctx.Done():
		return false
	case h.writeChan <- msg:
	default:
		slog.Warn("Write channel full, dropping message")
	}

	return true
}

func (h *ConnectionHandler) startWriter() {
	go h.writerLoop()
}

func (h *ConnectionHandler) writerLoop() {
	idCache := ttlcache.New[string, struct{}]()
	go idCache.Start()
	defer idCache.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case data, ok := <-h.writeChan:
			// cleanup closes the channel, a zero-value receive here must not
			// reach GetId
			if !ok {
				return
			}

			id := data.GetId()

			if id != "" && idCache.Has(id) {
				continue
			}

			idCache.Set(id, struct{}{}, time.Minute)

			_ = h.conn.SetWriteDeadline(time.Now().Add(1 * time.Minute))
			_ = h.conn.WriteJSON(data)
		}
	}
}

func (h *ConnectionHandler) runReader() {
	for {
		_ = h.conn.SetReadDeadline(time.Now().Add(1 * time.Minute))

		_, msg, err := h.conn.ReadMessage()
		if err != nil {
			return
		}

		if bytes.Equal(msg, pingMsg) {
			if !h.writeMessage(&api.WsMessage{ //nolint:exhaustruct
				Event: "pong",
			}) {
				return
			}

			continue
		}

		var parsed clientMessage
		if err := json.Unmarshal(msg, &parsed); err != nil {
			slog.Warn("Failed to parse client message",
				slog.String("playerId", h.playerID),
				slog.Any("error", err),
			)

			continue
		}

		h.dispatch(parsed)
	}
}

func (h *ConnectionHandler) dispatch(msg clientMessage) {
	switch msg.Event {
	case "navigate":
		h.setDuration(msg.Duration)

		// analysis is slow, keep the reader pumping
		go h.detectService.HandleNavigation(h.ctx, h.playerID, msg.Url)

	case "time":
		h.setTime(msg.Seconds)
		h.pubSub.Publish(fmt.Sprintf(dto.PlayerTimeChannelFormat, h.playerID), &api.WsMessage{ //nolint:exhaustruct
			Event: "time",
			Data:  msg.Seconds,
		})

	case "duration":
		h.setDuration(msg.Seconds)

	case "skip_click":
		h.playerService.HandleSkipClick(h.playerID)

	case "notice_dismiss":
		h.playerService.HandleNoticeDismiss(h.playerID)

	default:
		slog.Warn("Unknown client event",
			slog.String("playerId", h.playerID),
			slog.String("event", msg.Event),
		)
	}
}

func (h *ConnectionHandler) setTime(seconds float64) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()

	h.currentTime = seconds
}

func (h *ConnectionHandler) getTime() float64 {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()

	return h.currentTime
}

func (h *ConnectionHandler) setDuration(seconds float64) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()

	if seconds > 0 {
		h.duration = seconds
	}
}

func (h *ConnectionHandler) getDuration() float64 {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()

	return h.duration
}

// cleanup stops the writer via context cancellation. The write channel is
// never closed: a concurrent writeMessage racing a close could panic on send.
func (h *ConnectionHandler) cleanup() {
	h.cancel()
	h.playerService.Unregister(h.playerID)
	h.detectService.Forget(h.playerID)
}
