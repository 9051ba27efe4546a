package rest

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// NewServer builds the echo instance with middleware, error handling and routes.
func NewServer(h *Handlers, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewErrorHandler(logger)

	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())

	RegisterRoutes(e, h)
	return e
}

func RegisterRoutes(e *echo.Echo, h *Handlers) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api/booking")
	g.POST("/addSchedule", h.AddSchedule)
	g.GET("/getSchedule/:teacher_id", h.GetSchedule)
	g.GET("/getBookableSlot/:teacher_id", h.GetBookableSlots)
	g.POST("/book", h.Book)
	g.GET("/getBookingList", h.GetBookingList)
	g.POST("/cancel/:booking_id", h.Cancel)
	g.POST("/generateBookableSlot", h.GenerateBookableSlots)
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}

			switch {
			case v.Status >= 500:
				logger.Error("HTTP request", append(fields, zap.Error(v.Error))...)
			case v.Status >= 400:
				logger.Warn("HTTP request", append(fields, zap.NamedError("reason", v.Error))...)
			default:
				logger.Info("HTTP request", fields...)
			}
			return nil
		},
	})
}
