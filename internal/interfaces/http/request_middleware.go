package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/Proyectos-api/pkg/logger"
)

// HeaderRequestID header de correlación de peticiones.
const HeaderRequestID = "X-Request-ID"

// RequestLogger asigna un request id (o respeta el entrante), guarda un sublogger en el
// contexto de la petición y registra método, ruta, status y duración.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqID := c.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(HeaderRequestID, reqID)

		sub := log.With().Str("request_id", reqID).Str("host", c.Hostname()).Logger()
		c.SetUserContext(sub.WithContext(c.UserContext()))

		err := c.Next()
		if err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		ev := sub.Info()
		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			ev = sub.Error()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Str("schema", string(GetNamespace(c))).
			Msg("request")
		return nil
	}
}
