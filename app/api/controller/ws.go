package controller

import (
	"videoadguard/app/service/bridge"

	"github.com/gofiber/contrib/websocket"
	"github.com/samber/do"
)

type WS struct {
	bridgeService *bridge.Service
}

func NewWS(di *do.Injector) *WS {
	return &WS{
		bridgeService: do.MustInvoke[*bridge.Service](di),
	}
}

func (c *WS) Handle(conn *websocket.Conn) {
	handler := c.bridgeService.NewHandler(conn)
	handler.Handle()
}
