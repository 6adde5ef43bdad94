// Пакет aiplan предоставляет HTTP сервер редактора форматированного текста. Сервер держит открытые сессии
// редактора в памяти, применяет к ним именованные команды и рассылает изменения документов подписчикам.
//
// Основные возможности:
//   - API сессий редактора: создание, загрузка документа, выделение, команды и история версий.
//   - Вебсокет с изменениями документа сессии.
//   - MCP сервер для работы агентов с документами.
//   - Метрики Prometheus и периодическая очистка неактивных сессий.
package aiplan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/config"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/cronmanager"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/attrs"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/mcp"
	store "github.com/aisa-it/aiplan-editor/internal/aiplan/memory-store"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/notifications"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type Services struct {
	cfg     *config.Config
	version string

	registry *attrs.Registry
	sessions *store.SessionStore
	hub      *notifications.ChangeHub
	cron     *cronmanager.CronManager

	prom    *prometheus.Registry
	metrics *editorMetrics
}

// NewServices собирает зависимости сервера из конфигурации.
func NewServices(cfg *config.Config, version string) (*Services, error) {
	registry, err := attrs.NewDefaultRegistry(cfg.AttrConfig())
	if err != nil {
		return nil, fmt.Errorf("build attribute registry: %w", err)
	}

	hub := notifications.NewChangeHub(cfg.NotifyDebounce())
	sessions := store.NewSessionStore(registry, hub, store.Options{
		TTL:          cfg.SessionTTL(),
		MaxSessions:  cfg.MaxSessions,
		HistoryDepth: cfg.HistoryDepth,
	})

	prom := prometheus.NewRegistry()
	metrics, err := newEditorMetrics(prom, sessions)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	return &Services{
		cfg:      cfg,
		version:  version,
		registry: registry,
		sessions: sessions,
		hub:      hub,
		cron:     cronmanager.NewCronManager(cronmanager.EditorJobs(sessions, cfg.SessionsCleanSchedule)),
		prom:     prom,
		metrics:  metrics,
	}, nil
}

// ServerHeader middleware adds a `Server` header to the response.
func ServerHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderServer, "AIPlan-Editor")
		return next(c)
	}
}

// Echo HTTP сервер со всеми маршрутами.
func (s *Services) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		// Ignore 404
		if code == http.StatusNotFound {
			c.NoContent(http.StatusNotFound)
			return
		}
		if code != http.StatusRequestEntityTooLarge {
			slog.Error("Unhandled error in endpoint", "url", c.Request().URL, "err", err)
		}
		EErrorMsgStatus(c, nil, code)
	}

	// Global middlewares
	e.Use(ServerHeader)
	e.Use(middleware.Recover())
	corsConfig := middleware.CORSConfig{AllowCredentials: true}
	if s.cfg.WebURL != nil {
		corsConfig.AllowOrigins = []string{s.cfg.WebURL.Scheme + "://" + s.cfg.WebURL.Host}
	}
	e.Use(middleware.CORSWithConfig(corsConfig))
	e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		// JSON обертка документа занимает место сверх самого документа
		Limit: fmt.Sprintf("%dK", (2*s.cfg.MaxDocumentBytes+1023)/1024),
	}))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:     5,
		MinLength: 2048,
		Skipper: func(c echo.Context) bool {
			return strings.HasSuffix(c.Path(), "/ws/") ||
				strings.HasSuffix(c.Path(), "/mcp/")
		},
	}))
	if s.cfg.MetricsEnable {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace:  "aiplan",
			Subsystem:  "editor_http",
			Registerer: s.prom,
		}))
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: s.prom}))
	}
	e.Pre(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/metrics"
		},
	}))

	e.Validator = NewRequestValidator()

	apiGroup := e.Group("/api/")
	s.AddEditorServices(apiGroup.Group("editor/"))

	if s.cfg.MCPEnable {
		apiGroup.Any("editor/mcp/",
			mcp.NewMCPServer(s.sessions, s.registry, s.version),
			mcp.TokenMiddleware(s.cfg.MCPToken),
		)
	}

	// Version endpoint
	apiGroup.GET("version/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"version": s.version,
			"mcp":     s.cfg.MCPEnable,
			"metrics": s.cfg.MetricsEnable,
		})
	})

	// Health endpoint
	apiGroup.GET("_health/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	return e
}

// Server запускает HTTP сервер и планировщик задач до отмены ctx.
func Server(ctx context.Context, cfg *config.Config, version string) error {
	s, err := NewServices(cfg, version)
	if err != nil {
		return err
	}
	if err := s.cron.LoadJobs(); err != nil {
		return fmt.Errorf("load cron jobs: %w", err)
	}
	e := s.Echo()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Start editor server", "addr", cfg.HTTPAddr)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server fail: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s.cron.Start()
		<-ctx.Done()
		s.cron.Stop()
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down gracefully, press Ctrl+C again to force")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
