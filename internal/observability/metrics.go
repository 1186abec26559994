package observability

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/rewind/internal/snapshot"
)

const namespace = "rewind"

// RewindMetrics собирает метрики истории и операций со временем.
// Один экземпляр разделяется всеми хранилищами сцены.
type RewindMetrics struct {
	recorded      prometheus.Counter
	evicted       prometheus.Counter
	trimmed       prometheus.Counter
	clamped       prometheus.Counter
	manipulations *prometheus.CounterVec
	stored        prometheus.Gauge
	rate          prometheus.Gauge
	tickDuration  prometheus.Histogram

	// зеркало счётчиков для /api/stats
	recordedTotal atomic.Uint64
	evictedTotal  atomic.Uint64
	trimmedTotal  atomic.Uint64
}

var _ snapshot.Observer = (*RewindMetrics)(nil)

// NewRewindMetrics создаёт метрики и регистрирует их в reg
func NewRewindMetrics(reg prometheus.Registerer) *RewindMetrics {
	m := &RewindMetrics{
		recorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_recorded_total",
			Help:      "Число записанных сэмплов.",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_evicted_total",
			Help:      "Число вытесненных старых сэмплов.",
		}),
		trimmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_trimmed_total",
			Help:      "Число сэмплов, отброшенных при обрезке будущего.",
		}),
		clamped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capacity_clamped_total",
			Help:      "Сколько раз ёмкость истории была ограничена потолком памяти.",
		}),
		manipulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manipulations_total",
			Help:      "Операции со временем по виду и фазе.",
		}, []string{"kind", "phase"}),
		stored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored_samples",
			Help:      "Сэмплов в памяти по всей сцене.",
		}),
		rate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clock_rate",
			Help:      "Текущий множитель скорости времени.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Длительность одного тика сцены.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		}),
	}
	m.rate.Set(1)

	reg.MustRegister(m.recorded, m.evicted, m.trimmed, m.clamped,
		m.manipulations, m.stored, m.rate, m.tickDuration)
	return m
}

func (m *RewindMetrics) SampleRecorded() {
	m.recorded.Inc()
	m.recordedTotal.Add(1)
}

func (m *RewindMetrics) SamplesEvicted(n int) {
	m.evicted.Add(float64(n))
	m.evictedTotal.Add(uint64(n))
}

func (m *RewindMetrics) SamplesTrimmed(n int) {
	m.trimmed.Add(float64(n))
	m.trimmedTotal.Add(uint64(n))
}

func (m *RewindMetrics) CapacityClamped() { m.clamped.Inc() }

// ManipulationEvent учитывает начало или конец операции: kind = rewind|fast_forward|scrub
func (m *RewindMetrics) ManipulationEvent(kind, phase string) {
	m.manipulations.WithLabelValues(kind, phase).Inc()
}

// SetStoredSamples обновляет общее число сэмплов в памяти
func (m *RewindMetrics) SetStoredSamples(n int) { m.stored.Set(float64(n)) }

// SetRate обновляет множитель скорости
func (m *RewindMetrics) SetRate(rate float64) { m.rate.Set(rate) }

// ObserveTick учитывает длительность тика
func (m *RewindMetrics) ObserveTick(d time.Duration) { m.tickDuration.Observe(d.Seconds()) }

// Totals накопленные счётчики истории
type Totals struct {
	Recorded uint64 `json:"recorded"`
	Evicted  uint64 `json:"evicted"`
	Trimmed  uint64 `json:"trimmed"`
}

// Totals возвращает счётчики; безопасно из любой горутины
func (m *RewindMetrics) Totals() Totals {
	return Totals{
		Recorded: m.recordedTotal.Load(),
		Evicted:  m.evictedTotal.Load(),
		Trimmed:  m.trimmedTotal.Load(),
	}
}
