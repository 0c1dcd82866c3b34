// Package httpserver sirve el overlay, el websocket, los assets, el webhook
// de EventSub y la API de introspección.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alertBot/internal/domain"
	"alertBot/internal/usecase/rules"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 500
)

type overlayHandler interface {
	HandleWebSocket(c echo.Context) error
}

// webhookHandler es nil cuando EventSub no está configurado.
type webhookHandler interface {
	HandleEventSub(c echo.Context) error
}

type ruleLister interface {
	List(ctx context.Context) ([]rules.RuleDTO, error)
}

type notificationLister interface {
	ListNotifications(ctx context.Context, limit int) ([]*domain.Notification, error)
}

type Config struct {
	Addr      string
	AudioDir  string
	ImagesDir string
	Page      []byte
}

type Deps struct {
	Overlay       overlayHandler
	Webhook       webhookHandler
	Rules         ruleLister
	Notifications notificationLister
}

type Server struct {
	echo      *echo.Echo
	cfg       Config
	deps      Deps
	startTime time.Time
}

func New(cfg Config, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				slog.Warn("http: request", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Debug("http: request", attrs...)
			return nil
		},
	}))

	s := &Server{echo: e, cfg: cfg, deps: deps, startTime: time.Now()}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo.GET("/", s.handleOverlayPage)
	if s.deps.Overlay != nil {
		s.echo.GET("/ws/overlay", s.deps.Overlay.HandleWebSocket)
	}
	if s.cfg.AudioDir != "" {
		s.echo.Static("/audio", s.cfg.AudioDir)
	}
	if s.cfg.ImagesDir != "" {
		s.echo.Static("/images", s.cfg.ImagesDir)
	}

	if s.deps.Webhook != nil {
		s.echo.POST("/webhooks/eventsub", s.deps.Webhook.HandleEventSub)
	}

	api := s.echo.Group("/api")
	api.GET("/rules", s.handleRules)
	api.GET("/notifications", s.handleNotifications)
}

// Handler se usa en tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start bloquea hasta que el server se cierra. Un Shutdown no es error.
func (s *Server) Start() error {
	slog.Info("http: listening", "addr", s.cfg.Addr)
	if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleOverlayPage(c echo.Context) error {
	if len(s.cfg.Page) == 0 {
		return c.NoContent(http.StatusNotFound)
	}
	return c.HTMLBlob(http.StatusOK, s.cfg.Page)
}

func (s *Server) handleRules(c echo.Context) error {
	if s.deps.Rules == nil {
		return c.JSON(http.StatusOK, []rules.RuleDTO{})
	}
	list, err := s.deps.Rules.List(c.Request().Context())
	if err != nil {
		slog.Error("http: list rules", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not list rules")
	}
	return c.JSON(http.StatusOK, list)
}

type notificationDTO struct {
	ID        int64             `json:"id"`
	Type      string            `json:"type"`
	Username  string            `json:"username"`
	Amount    float64           `json:"amount"`
	Message   string            `json:"message,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func (s *Server) handleNotifications(c echo.Context) error {
	limit := defaultNotificationLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(n, maxNotificationLimit)
	}

	out := []notificationDTO{}
	if s.deps.Notifications == nil {
		return c.JSON(http.StatusOK, out)
	}

	list, err := s.deps.Notifications.ListNotifications(c.Request().Context(), limit)
	if err != nil {
		slog.Error("http: list notifications", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not list notifications")
	}
	for _, n := range list {
		if n == nil {
			continue
		}
		out = append(out, notificationDTO{
			ID:        n.ID,
			Type:      string(n.Type),
			Username:  n.Username,
			Amount:    n.Amount,
			Message:   n.Message,
			Metadata:  n.Metadata,
			CreatedAt: n.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}
