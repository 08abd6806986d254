package bridge

import (
	"context"
	"fmt"
	"sync/atomic"

	"videoadguard/app/api"
	"videoadguard/app/service/detect"
	"videoadguard/app/service/player"
	"videoadguard/app/service/pubsub"

	"github.com/gofiber/contrib/websocket"
	"github.com/samber/do"
)

// Service accepts websocket connections from the browser side and turns each
// one into a registered playback and presentation surface.
type Service struct {
	pubSubService *pubsub.Service
	playerService *player.Service
	detectService *detect.Service

	connSeq atomic.Int64
}

func New(di *do.Injector) (*Service, error) {
	return &Service{ //nolint:exhaustruct
		pubSubService: do.MustInvoke[*pubsub.Service](di),
		playerService: do.MustInvoke[*player.Service](di),
		detectService: do.MustInvoke[*detect.Service](di),
	}, nil
}

func (s *Service) NewHandler(conn *websocket.Conn) *ConnectionHandler {
	playerID := conn.Query("playerId")
	if playerID == "" {
		playerID = fmt.Sprintf("player-%d", s.connSeq.Add(1))
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &ConnectionHandler{ //nolint:exhaustruct
		conn:          conn,
		playerID:      playerID,
		pubSub:        s.pubSubService,
		playerService: s.playerService,
		detectService: s.detectService,
		writeChan:     make(chan api.IdMessage, 16),
		ctx:           ctx,
		cancel:        cancel,
	}
}
