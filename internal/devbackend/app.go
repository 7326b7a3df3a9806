// Package devbackend is a runnable reference implementation of the
// marketplace backend used by integration tests and local development. It
// is not the production service.
package devbackend

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp wires the devbackend routes onto a Fiber application. Errors are
// rendered as {"error": message} so the client can surface the
// server-supplied explanation.
func NewApp(repo Repository, secret string, tokenTTL time.Duration, logger *slog.Logger) *fiber.App {
	tokens := NewTokenIssuer(secret, tokenTTL)
	svc := NewService(repo, tokens)
	h := NewHandler(svc, tokens)

	app := fiber.New(fiber.Config{
		AppName:      "SokoniDevBackend",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "internal error"
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
				message = fe.Message
			}
			if code >= fiber.StatusInternalServerError {
				logger.Error("request failed", "path", c.Path(), "error", err)
			}
			return c.Status(code).JSON(fiber.Map{"error": message})
		},
	})

	app.Use(recover.New())

	v1 := app.Group("/v1")

	authGroup := v1.Group("/auth")
	authGroup.Post("/register", h.Register)
	authGroup.Post("/login", h.Login)
	authGroup.Post("/google", h.GoogleAuth)

	authed := BearerAuth(tokens)
	v1.Get("/me", authed, h.Me)
	v1.Post("/me/verify-identity", authed, h.VerifyIdentity)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	return app
}
