package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billy-api/pkg/logger"
)

// HTTPObserver recibe la duración de cada petición (métricas).
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// RequestLogger registra cada petición con zerolog: Info 2xx/3xx, Warn 4xx, Error 5xx.
func RequestLogger(log *logger.Logger) fiber.Handler {
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

		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		if err != nil {
			ev = ev.Err(err)
		} else if internal, ok := c.Locals(localError).(error); ok {
			ev = ev.Err(internal)
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Str("ip", c.IP()).
			Str("user_id", GetUserID(c)).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
		return err
	}
}

// Metrics observa método, ruta registrada y status de cada petición.
// Se usa la ruta (/api/ventas/:id) y no el path para acotar la cardinalidad.
func Metrics(obs HTTPObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		route := "unmatched"
		if r := c.Route(); r != nil && r.Path != "/" {
			route = r.Path
		}
		obs.ObserveHTTP(c.Method(), route, status, time.Since(start))
		return err
	}
}
