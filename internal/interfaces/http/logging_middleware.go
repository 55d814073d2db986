package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-core/pkg/logger"
)

// RequestLogger registra método, ruta, estado, latencia y organización de cada petición.
func RequestLogger(log *logger.Logger) fiber.Handler {
	log = log.Named("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		org, _ := c.Locals(LocalOrgID).(string)
		evt := log.Info()
		if status >= fiber.StatusInternalServerError {
			evt = log.Error().Err(err)
		}
		evt.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("org_id", org).
			Msg("request")
		return err
	}
}
