package controller

import (
	"github.com/gofiber/fiber/v2"
	"go.szostok.io/version"
)

type healthResponse struct {
	Version   string `json:"version"`
	BuildDate string `json:"buildDate"`
}

func (s *Server) Health(ctx *fiber.Ctx) error {
	info := version.Get()

	return ctx.JSON(healthResponse{
		Version:   info.Version,
		BuildDate: info.BuildDate,
	})
}
