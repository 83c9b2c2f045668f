package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kifaa-platform/kifaa/internal/auth"
)

// RegisterAuthRoutes wires authentication endpoints. Login and refresh are
// public; logout needs a verified token to know whose version to bump.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/refresh", h.Refresh)
}

// RegisterLogoutRoute wires the authenticated logout endpoint.
func RegisterLogoutRoute(r fiber.Router, h *auth.Handler) {
	r.Post("/auth/logout", h.Logout)
}
