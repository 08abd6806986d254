package util

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type ContextKey string

func (c ContextKey) String() string {
	return "videoadguard_" + string(c)
}

var FiberContextKey = ContextKey("fiber")
var IpContextKey ContextKey = "ip"

func InjectFiberIntoContext(ctx context.Context, c *fiber.Ctx) context.Context {
	return context.WithValue(ctx, FiberContextKey, c)
}

func GetFiberFromContext(ctx context.Context) *fiber.Ctx {
	return ctx.Value(FiberContextKey).(*fiber.Ctx) //nolint:forcetypeassert
}
