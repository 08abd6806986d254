package controller

import (
	"github.com/gofiber/fiber/v2"
)

type statusResponse struct {
	Status string `json:"status"`
}

// Status reports the last detection outcome, either for one player or for
// every connected page.
func (s *Server) Status(ctx *fiber.Ctx) error {
	if playerID := ctx.Query("playerId"); playerID != "" {
		return ctx.JSON(statusResponse{
			Status: s.detectService.Status(playerID),
		})
	}

	return ctx.JSON(s.detectService.Statuses())
}
