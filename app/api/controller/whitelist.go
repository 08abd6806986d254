// nolint: wrapcheck
package controller

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/oops"
)

type addWhitelistRequest struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
}

func (s *Server) ListWhitelist(ctx *fiber.Ctx) error {
	entries, err := s.whitelistService.List(ctx.UserContext())
	if err != nil {
		return oops.Errorf("whitelistService.List: %w", err)
	}

	return ctx.JSON(entries)
}

func (s *Server) AddWhitelist(ctx *fiber.Ctx) error {
	var body addWhitelistRequest
	if err := ctx.BodyParser(&body); err != nil {
		return oops.
			With("status_code", http.StatusBadRequest).
			Public("invalid request body").
			Errorf("BodyParser: %w", err)
	}

	body.UID = strings.TrimSpace(body.UID)
	if body.UID == "" {
		return oops.
			With("status_code", http.StatusBadRequest).
			Public("uid is required").
			Errorf("empty uid")
	}

	added, err := s.whitelistService.Add(ctx.UserContext(), body.UID, body.DisplayName)
	if err != nil {
		return oops.Errorf("whitelistService.Add: %w", err)
	}

	if !added {
		return oops.
			With("status_code", http.StatusConflict).
			Public("uploader is already whitelisted").
			Errorf("duplicate whitelist entry: %s", body.UID)
	}

	return ctx.SendStatus(http.StatusCreated)
}

func (s *Server) RemoveWhitelist(ctx *fiber.Ctx) error {
	uid := ctx.Params("uid")

	removed, err := s.whitelistService.Remove(ctx.UserContext(), uid)
	if err != nil {
		return oops.Errorf("whitelistService.Remove: %w", err)
	}

	if !removed {
		return oops.
			With("status_code", http.StatusNotFound).
			Public("uploader is not whitelisted").
			Errorf("whitelist entry not found: %s", uid)
	}

	return ctx.SendStatus(http.StatusNoContent)
}
