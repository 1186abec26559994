package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/annel0/rewind/internal/api"
	"github.com/annel0/rewind/internal/clock"
	"github.com/annel0/rewind/internal/config"
	"github.com/annel0/rewind/internal/eventbus"
	"github.com/annel0/rewind/internal/logging"
	"github.com/annel0/rewind/internal/observability"
	"github.com/annel0/rewind/internal/vec"
	"github.com/annel0/rewind/internal/world"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $REWIND_CONFIG)")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("rewindd"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка загрузки конфигурации: %v", err)
		os.Exit(1)
	}
	logging.Info("⏪ Запуск rewindd: %d персонажей, %d ящиков, %d тиков/с, история %gс",
		cfg.Scene.Characters, cfg.Scene.Props, cfg.Scene.TickRate, cfg.Clock.MaxRewindSeconds)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === ТЕЛЕМЕТРИЯ ===
	shutdownTelemetry, err := observability.InitTelemetry(ctx, observability.TelemetryConfig{
		Enabled:     cfg.Server.EnableTelemetry,
		ServiceName: cfg.Server.ServiceName,
	})
	if err != nil {
		logging.Error("❌ Ошибка инициализации OpenTelemetry: %v", err)
		os.Exit(1)
	}

	var (
		registry *prometheus.Registry
		metrics  *observability.RewindMetrics
	)
	if cfg.Server.EnableMetrics {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = observability.NewRewindMetrics(registry)
	}

	// === СЦЕНА ===
	clk := clock.New(cfg.ClockOptions())
	busLogger := eventbus.StartLoggingListener(clk.Bus())
	defer busLogger.Unsubscribe()

	var exporter *eventbus.MetricsExporter
	if registry != nil {
		exporter = eventbus.NewMetricsExporter(clk.Bus(), registry, 5*time.Second)
		exporter.Start()
		defer exporter.Stop()
	}

	scene := world.New(clk, world.Options{
		TickRate: cfg.Scene.TickRate,
		Seed:     cfg.Scene.Seed,
		Timeline: cfg.TimelineOptions(),
		Metrics:  metrics,
	})
	populate(scene, cfg)

	sceneDone := make(chan error, 1)
	go func() { sceneDone <- scene.Run(ctx) }()

	// === REST API ===
	gin.SetMode(gin.ReleaseMode)
	server := api.NewServer(api.Config{
		Addr:          cfg.Server.HTTPAddr,
		Scene:         scene,
		Registry:      registry,
		Rewind:        metrics,
		EnableTracing: cfg.Server.EnableTelemetry,
		ServiceName:   cfg.Server.ServiceName,
	})
	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start() }()

	logging.Info("✅ Сцена запущена")
	logging.Info("   ❤️  Health check: http://localhost%s/health", cfg.Server.HTTPAddr)
	logging.Info("   💡 curl -X POST http://localhost%s/api/clock/rewind/start", cfg.Server.HTTPAddr)

	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал, завершение работы...")
	case err := <-serverErr:
		if err != nil {
			logging.Error("❌ REST API упал: %v", err)
		}
		stop()
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	if err := <-sceneDone; err != nil {
		logging.Warn("⚠️ Сцена завершилась с ошибкой: %v", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки OpenTelemetry: %v", err)
	}

	logging.Info("👋 rewindd остановлен")
}

// populate расставляет персонажей по кругу и роняет ящики над центром
func populate(scene *world.Scene, cfg *config.Config) {
	for i := 0; i < cfg.Scene.Characters; i++ {
		angle := 2 * math.Pi * float64(i) / float64(max(cfg.Scene.Characters, 1))
		loc := vec.Vec3{600 * math.Cos(angle), 600 * math.Sin(angle), 0}
		name := fmt.Sprintf("character-%d", i+1)
		scene.AddCharacter(cfg.ControllerConfig(name, cfg.Rewind.Characters), loc)
	}
	for i := 0; i < cfg.Scene.Props; i++ {
		loc := vec.Vec3{float64(i%3-1) * 120, float64(i/3) * 120, 400 + float64(i)*150}
		name := fmt.Sprintf("crate-%d", i+1)
		e := scene.AddProp(cfg.ControllerConfig(name, cfg.Rewind.Props), loc, 80)
		// Закрутка при падении
		e.Prop.Body().SetAngularVelocity(vec.Vec3{0.3 * float64(i%2), 0.5, 0})
	}
}
