package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/annel0/rewind/internal/clock"
	"github.com/annel0/rewind/internal/rewind"
	"github.com/annel0/rewind/internal/snapshot"
	"github.com/annel0/rewind/internal/timeline"
)

// MinSampleInterval нижняя граница интервала записи, секунды
const MinSampleInterval = 1e-3

// Config корневая структура конфигурации приложения.
// Читается один раз при старте, перезагрузка на лету не поддерживается.
type Config struct {
	Clock    ClockConfig    `yaml:"clock"`
	Rewind   RewindConfig   `yaml:"rewind"`
	Timeline TimelineConfig `yaml:"timeline"`
	Scene    SceneConfig    `yaml:"scene"`
	Server   ServerConfig   `yaml:"server"`
}

type ClockConfig struct {
	MaxRewindSeconds float64       `yaml:"max_rewind_seconds" env:"REWIND_MAX_SECONDS"`
	Speeds           clock.Presets `yaml:"speeds"`
}

// RewindProfile настройки записи для группы объектов
type RewindProfile struct {
	SampleIntervalSeconds     float64 `yaml:"sample_interval_seconds"`
	TrackMotion               bool    `yaml:"track_motion"`
	PauseAnimationDuringScrub bool    `yaml:"pause_animation_during_scrub"`
}

type RewindConfig struct {
	Characters        RewindProfile `yaml:"characters"`
	Props             RewindProfile `yaml:"props"`
	ByteCeiling       int           `yaml:"byte_ceiling" env:"REWIND_BYTE_CEILING"`
	MotionByteCeiling int           `yaml:"motion_byte_ceiling" env:"REWIND_MOTION_BYTE_CEILING"`
}

type TimelineConfig struct {
	SecondsPerMarker  float64 `yaml:"seconds_per_marker"`
	MinMarkerDistance float64 `yaml:"min_marker_distance"`
}

type SceneConfig struct {
	TickRate   int   `yaml:"tick_rate" env:"REWIND_TICK_RATE"`
	Characters int   `yaml:"characters" env:"REWIND_CHARACTERS"`
	Props      int   `yaml:"props" env:"REWIND_PROPS"`
	Seed       int64 `yaml:"seed" env:"REWIND_SEED"`
}

type ServerConfig struct {
	HTTPAddr        string `yaml:"http_addr" env:"REWIND_HTTP_ADDR"`
	EnableMetrics   bool   `yaml:"enable_metrics" env:"REWIND_METRICS"`
	EnableTelemetry bool   `yaml:"enable_telemetry" env:"REWIND_TELEMETRY"`
	ServiceName     string `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
}

// Default возвращает конфигурацию демо-сцены
func Default() *Config {
	return &Config{
		Clock: ClockConfig{
			MaxRewindSeconds: clock.DefaultOptions().MaxRewindSeconds,
			Speeds:           clock.DefaultPresets(),
		},
		Rewind: RewindConfig{
			Characters: RewindProfile{
				SampleIntervalSeconds:     snapshot.DefaultSampleInterval,
				TrackMotion:               true,
				PauseAnimationDuringScrub: true,
			},
			Props: RewindProfile{
				SampleIntervalSeconds: snapshot.DefaultSampleInterval,
			},
			ByteCeiling:       snapshot.DefaultByteCeiling,
			MotionByteCeiling: snapshot.DefaultMotionByteCeiling,
		},
		Timeline: TimelineConfig{
			SecondsPerMarker:  timeline.DefaultSecondsPerMarker,
			MinMarkerDistance: timeline.DefaultMinMarkerDistance,
		},
		Scene: SceneConfig{
			TickRate:   60,
			Characters: 4,
			Props:      8,
			Seed:       1,
		},
		Server: ServerConfig{
			HTTPAddr:      ":8088",
			EnableMetrics: true,
			ServiceName:   "rewindd",
		},
	}
}

// Load читает YAML файл конфигурации поверх значений по умолчанию,
// затем применяет переменные окружения.
// Если path == "", пытается прочитать путь из ENV REWIND_CONFIG; без файла берутся дефолты.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("REWIND_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate подтягивает значения к допустимым границам.
// Ошибку возвращает только то, что исправить нельзя.
func (c *Config) Validate() error {
	def := Default()

	if c.Clock.MaxRewindSeconds <= 0 {
		c.Clock.MaxRewindSeconds = def.Clock.MaxRewindSeconds
	}
	clampInterval(&c.Rewind.Characters)
	clampInterval(&c.Rewind.Props)
	if c.Rewind.ByteCeiling <= 0 {
		c.Rewind.ByteCeiling = def.Rewind.ByteCeiling
	}
	if c.Rewind.MotionByteCeiling <= 0 {
		c.Rewind.MotionByteCeiling = def.Rewind.MotionByteCeiling
	}

	if c.Timeline.SecondsPerMarker <= 0 {
		c.Timeline.SecondsPerMarker = def.Timeline.SecondsPerMarker
	}
	if c.Timeline.MinMarkerDistance < 0 {
		c.Timeline.MinMarkerDistance = 0
	}

	if c.Scene.TickRate <= 0 {
		c.Scene.TickRate = def.Scene.TickRate
	}
	if c.Scene.Characters < 0 || c.Scene.Props < 0 {
		return errors.New("scene: negative entity count")
	}

	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = def.Server.HTTPAddr
	}
	if c.Server.ServiceName == "" {
		c.Server.ServiceName = def.Server.ServiceName
	}
	return nil
}

func clampInterval(p *RewindProfile) {
	if p.SampleIntervalSeconds < MinSampleInterval {
		p.SampleIntervalSeconds = MinSampleInterval
	}
}

// ClockOptions собирает параметры часов
func (c *Config) ClockOptions() clock.Options {
	return clock.Options{
		MaxRewindSeconds: c.Clock.MaxRewindSeconds,
		Presets:          c.Clock.Speeds,
	}
}

// ControllerConfig возвращает параметры контроллера для профиля
func (c *Config) ControllerConfig(name string, p RewindProfile) rewind.Config {
	return rewind.Config{
		Name:                      name,
		SampleInterval:            p.SampleIntervalSeconds,
		TrackMotion:               p.TrackMotion,
		PauseAnimationDuringScrub: p.PauseAnimationDuringScrub,
		ByteCeiling:               c.Rewind.ByteCeiling,
		MotionByteCeiling:         c.Rewind.MotionByteCeiling,
	}
}

// TimelineOptions возвращает параметры визуализатора
func (c *Config) TimelineOptions() timeline.Config {
	return timeline.Config{
		SecondsPerMarker:  c.Timeline.SecondsPerMarker,
		MinMarkerDistance: c.Timeline.MinMarkerDistance,
	}
}
