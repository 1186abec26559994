// Package timeline строит маркеры вдоль записанной истории объекта
// и отладочную полилинию прошлого и будущего относительно курсора.
package timeline

import (
	"math/rand/v2"

	"github.com/annel0/rewind/internal/snapshot"
	"github.com/annel0/rewind/internal/vec"
)

const (
	DefaultSecondsPerMarker  = 0.5
	DefaultMinMarkerDistance = 30.0
	// допуск сравнения маркеров при поиске неизменившегося начала
	markerTolerance = 1e-4
)

// Config параметры визуализации
type Config struct {
	SecondsPerMarker  float64
	MinMarkerDistance float64
}

// DefaultConfig возвращает маркер раз в полсекунды не ближе 30 единиц
func DefaultConfig() Config {
	return Config{
		SecondsPerMarker:  DefaultSecondsPerMarker,
		MinMarkerDistance: DefaultMinMarkerDistance,
	}
}

// Color отладочный цвет объекта
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// RandomColor выбирает яркий случайный цвет
func RandomColor(rng *rand.Rand) Color {
	c := Color{R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256))}
	// Один канал всегда насыщен, чтобы маркеры были видны
	switch rng.IntN(3) {
	case 0:
		c.R = 255
	case 1:
		c.G = 255
	default:
		c.B = 255
	}
	return c
}

// Visualizer поддерживает маркеры в соответствии с историей
type Visualizer struct {
	cfg        Config
	renderer   MarkerRenderer
	color      Color
	lastUpdate float64
}

// New создаёт визуализатор
func New(renderer MarkerRenderer, cfg Config, color Color) *Visualizer {
	if cfg.SecondsPerMarker <= 0 {
		cfg.SecondsPerMarker = DefaultSecondsPerMarker
	}
	if cfg.MinMarkerDistance < 0 {
		cfg.MinMarkerDistance = 0
	}
	return &Visualizer{cfg: cfg, renderer: renderer, color: color}
}

// Color возвращает цвет маркеров
func (v *Visualizer) Color() Color { return v.color }

// Renderer возвращает набор маркеров
func (v *Visualizer) Renderer() MarkerRenderer { return v.renderer }

// Clear убирает все маркеры
func (v *Visualizer) Clear() {
	v.renderer.Clear()
	v.lastUpdate = 0
}

// Update перестраивает маркеры не чаще раза в SecondsPerMarker.
// Возвращает true, если маркеры пересчитывались.
func (v *Visualizer) Update(view snapshot.View, now float64) bool {
	count := v.renderer.Count()
	if view.Len() == 0 {
		if count > 0 {
			v.renderer.Clear()
		}
		return false
	}

	if now-v.lastUpdate < v.cfg.SecondsPerMarker {
		return false
	}
	v.lastUpdate = now

	markers := BuildMarkers(view, v.cfg.SecondsPerMarker, v.cfg.MinMarkerDistance)

	// Пропускаем совпадающее начало, обычно меняется только хвост
	i := 0
	for ; i < len(markers) && i < count; i++ {
		cur, _ := v.renderer.Marker(i)
		if !cur.Equals(markers[i], markerTolerance) {
			break
		}
	}

	updated := false
	for ; i < len(markers); i++ {
		if i < count {
			v.renderer.Update(i, markers[i])
			updated = true
		} else {
			v.renderer.Add(markers[i])
		}
	}
	if updated {
		v.renderer.MarkDirty()
	}

	for j := count - 1; j >= len(markers); j-- {
		v.renderer.Remove(j)
	}
	return true
}

// BuildMarkers выбирает записи для маркеров: первая и последняя всегда,
// промежуточные не чаще secondsPerMarker и дальше minDistance от предыдущего маркера.
// Каждый маркер, кроме последнего, смотрит на следующий.
func BuildMarkers(view snapshot.View, secondsPerMarker, minDistance float64) []vec.Transform {
	n := view.Len()
	markers := make([]vec.Transform, 0, 8)
	threshold := minDistance * minDistance

	accrued := 0.0
	for i := 0; i < n; i++ {
		s, _ := view.At(i)
		edge := i == 0 || i == n-1

		accrued += s.Elapsed
		if accrued < secondsPerMarker && !edge {
			continue
		}
		accrued = 0

		add := edge
		if !add {
			last := markers[len(markers)-1]
			add = vec.DistSquared(last.Location, s.Transform.Location) > threshold
		}
		if add {
			markers = append(markers, s.Transform)
		}
	}

	for i := 0; i+1 < len(markers); i++ {
		markers[i].Rotation = vec.LookAt(markers[i].Location, markers[i+1].Location)
	}
	return markers
}
