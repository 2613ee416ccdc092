package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/julianstephens/growthtrack/internal/logger"
)

// requestLogger logs each request once its status is known. Handler errors are
// rendered here so the logged status matches the response.
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		keyvals := []interface{}{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", time.Since(start),
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("HTTP request", keyvals...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("HTTP request", keyvals...)
		default:
			logger.Debug("HTTP request", keyvals...)
		}
		return nil
	}
}
