// Package api реализует отладочный HTTP-интерфейс сцены: управление часами,
// состояние объектов и их история. Все обращения к сцене идут через её очередь команд.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/rewind/internal/clock"
	"github.com/annel0/rewind/internal/logging"
	"github.com/annel0/rewind/internal/middleware"
	"github.com/annel0/rewind/internal/observability"
	"github.com/annel0/rewind/internal/world"
)

const defaultRequestTimeout = 2 * time.Second

// Config содержит конфигурацию для REST сервера
type Config struct {
	Addr  string       // адрес для запуска сервера
	Scene *world.Scene // сцена, которой управляем
	// Registry реестр метрик; nil отключает /metrics и HTTP-метрики
	Registry *prometheus.Registry
	// Rewind метрики истории для /api/stats, может быть nil
	Rewind         *observability.RewindMetrics
	EnableTracing  bool
	ServiceName    string
	RequestTimeout time.Duration
}

// Server отладочный REST сервер
type Server struct {
	cfg     Config
	router  *gin.Engine
	http    *http.Server
	scene   *world.Scene
	metrics *ServerMetrics
	stream  *streamHub
	log     *logging.Logger
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewServer создает сервер и настраивает маршруты
func NewServer(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8088"
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "rewindd"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	router := gin.New()        // без стандартного logger
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	if cfg.EnableTracing {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}
	router.Use(middleware.NewRequestLogger(logging.GetAPILogger()).Handler())
	if cfg.Registry != nil {
		router.Use(middleware.NewPrometheusMiddleware("rewind_api", cfg.Registry, "/metrics", "/health", "/api/stream").Handler())
		middleware.RegisterMetricsEndpoint(router, cfg.Registry)
	}

	s := &Server{
		cfg:     cfg,
		router:  router,
		scene:   cfg.Scene,
		metrics: NewServerMetrics(),
		log:     logging.GetAPILogger(),
	}
	s.stream = newStreamHub(cfg.Scene.Clock(), s.log)
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	api.GET("/stats", s.handleStats)

	clk := api.Group("/clock")
	{
		clk.GET("", s.handleClockState)
		clk.POST("/rewind/start", s.clockAction("rewind.start", (*clock.Clock).StartRewind))
		clk.POST("/rewind/stop", s.clockAction("rewind.stop", (*clock.Clock).StopRewind))
		clk.POST("/fast-forward/start", s.clockAction("fast_forward.start", (*clock.Clock).StartFastForward))
		clk.POST("/fast-forward/stop", s.clockAction("fast_forward.stop", (*clock.Clock).StopFastForward))
		clk.POST("/scrub/toggle", s.clockAction("scrub.toggle", (*clock.Clock).ToggleScrub))
		clk.POST("/visualization/toggle", s.clockAction("visualization.toggle", (*clock.Clock).ToggleVisualization))
		clk.POST("/speed/:preset", s.handleSetSpeed)
	}

	ents := api.Group("/entities")
	{
		ents.GET("", s.handleListEntities)
		ents.GET("/:id", s.handleGetEntity)
		ents.GET("/:id/timeline", s.handleGetTimeline)
		ents.POST("/:id/participation", s.handleSetParticipation)
	}

	api.GET("/stream", s.handleStream)
	api.GET("/logging", s.handleListLogLevels)
	api.PUT("/logging/:component", s.handleSetLogLevel)
}

// Handler возвращает http.Handler со всеми маршрутами
func (s *Server) Handler() http.Handler { return s.router }

// Start запускает сервер и блокируется до остановки
func (s *Server) Start() error {
	s.log.Info("🌐 REST API слушает %s", s.cfg.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop дожидается завершения текущих запросов
func (s *Server) Stop(ctx context.Context) error {
	s.stream.close()
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.log.Info("🛑 REST API остановлен")
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
}

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: message, Data: data})
}

// fail переводит ошибку в HTTP-статус
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, world.ErrEntityNotFound), errors.Is(err, logging.ErrUnknownComponent):
		status = http.StatusNotFound
	case errors.Is(err, clock.ErrUnknownSpeed), errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, world.ErrSceneClosed):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= http.StatusInternalServerError {
		s.log.Warn("⚠️ %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, GenericResponse{Success: false, Message: err.Error()})
}
