// nolint: wrapcheck
package controller

import (
	"net/http"

	"videoadguard/app/database"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/oops"
)

func (s *Server) GetSettings(ctx *fiber.Ctx) error {
	result, err := s.settingsService.Get(ctx.UserContext())
	if err != nil {
		return oops.Errorf("settingsService.Get: %w", err)
	}

	return ctx.JSON(result)
}

func (s *Server) UpdateSettings(ctx *fiber.Ctx) error {
	var body database.Setting
	if err := ctx.BodyParser(&body); err != nil {
		return oops.
			With("status_code", http.StatusBadRequest).
			Public("invalid request body").
			Errorf("BodyParser: %w", err)
	}

	if err := s.settingsService.Update(ctx.UserContext(), body); err != nil {
		return oops.Errorf("settingsService.Update: %w", err)
	}

	return ctx.JSON(body)
}
