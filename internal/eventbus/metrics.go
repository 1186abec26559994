package eventbus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StatsProvider источник счётчиков для экспортера.
type StatsProvider interface {
	Metrics() Stats
}

// MetricsExporter периодически переносит Stats шины в Prometheus.
type MetricsExporter struct {
	bus      StatsProvider
	interval time.Duration
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	published   prometheus.Counter
	consumed    prometheus.Counter
	subscribers prometheus.Gauge
}

// NewMetricsExporter создаёт экспортер и регистрирует метрики в reg.
func NewMetricsExporter(bus StatsProvider, reg prometheus.Registerer, interval time.Duration) *MetricsExporter {
	if interval <= 0 {
		interval = time.Second
	}
	me := &MetricsExporter{
		bus:      bus,
		interval: interval,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_published_total",
			Help:      "Общее число опубликованных событий.",
		}),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_consumed_total",
			Help:      "Общее число доставок событий подписчикам.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventbus",
			Name:      "subscribers",
			Help:      "Текущее число подписчиков.",
		}),
	}
	reg.MustRegister(me.published, me.consumed, me.subscribers)
	return me
}

// Start запускает обновление метрик в отдельной горутине.
func (m *MetricsExporter) Start() {
	go m.loop()
}

// Stop останавливает обновление метрик и ждёт завершения цикла.
func (m *MetricsExporter) Stop() {
	m.stopOnce.Do(func() {
		close(m.quit)
		<-m.done
	})
}

func (m *MetricsExporter) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	defer close(m.done)

	var prev Stats
	for {
		select {
		case <-ticker.C:
			prev = m.collect(prev)
		case <-m.quit:
			m.collect(prev)
			return
		}
	}
}

// collect добавляет к счётчикам приращение с прошлого опроса.
func (m *MetricsExporter) collect(prev Stats) Stats {
	stats := m.bus.Metrics()
	if d := stats.Published - prev.Published; d > 0 {
		m.published.Add(float64(d))
	}
	if d := stats.Consumed - prev.Consumed; d > 0 {
		m.consumed.Add(float64(d))
	}
	m.subscribers.Set(float64(stats.Subscribers))
	return stats
}
