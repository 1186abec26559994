package eventbus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	evA EventType = "test.a"
	evB EventType = "test.b"
)

func TestPublishIsSynchronous(t *testing.T) {
	bus := New("clock")

	var got []*Envelope
	bus.Subscribe(Filter{}, func(ev *Envelope) { got = append(got, ev) })

	ev := bus.Emit(evA)

	require.Len(t, got, 1, "событие доставлено до возврата из Publish")
	assert.Same(t, ev, got[0])
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "clock", ev.Source)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestFilter(t *testing.T) {
	bus := New("clock")

	var onlyA, onlyOther int
	bus.Subscribe(Filter{Types: []EventType{evA}}, func(*Envelope) { onlyA++ })
	bus.Subscribe(Filter{Sources: []string{"other"}}, func(*Envelope) { onlyOther++ })

	bus.Emit(evA)
	bus.Emit(evB)
	bus.Publish(&Envelope{EventType: evB, Source: "other"})

	assert.Equal(t, 1, onlyA)
	assert.Equal(t, 1, onlyOther)
}

func TestUnsubscribe(t *testing.T) {
	bus := New("clock")

	calls := 0
	sub := bus.On(evA, func() { calls++ })
	bus.Emit(evA)
	sub.Unsubscribe()
	sub.Unsubscribe()
	bus.Emit(evA)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Metrics().Subscribers)
}

func TestReentrantHandlers(t *testing.T) {
	bus := New("clock")

	var second Subscription
	secondCalls := 0
	nested := 0

	// Первый из сработавших обработчиков отписывает другого и публикует вложенное событие
	bus.On(evA, func() {
		if second != nil {
			second.Unsubscribe()
			second = nil
		}
		bus.Emit(evB)
	})
	second = bus.On(evA, func() {
		if second != nil {
			second.Unsubscribe()
			second = nil
		}
		secondCalls++
	})
	bus.On(evB, func() { nested++ })

	bus.Emit(evA)

	assert.LessOrEqual(t, secondCalls, 1)
	assert.GreaterOrEqual(t, nested, 1)
	stats := bus.Metrics()
	assert.GreaterOrEqual(t, stats.Published, uint64(2))
}

func TestMetricsExporter(t *testing.T) {
	bus := New("clock")
	bus.On(evA, func() {})

	reg := prometheus.NewRegistry()
	exp := NewMetricsExporter(bus, reg, 10*time.Millisecond)

	bus.Emit(evA)
	bus.Emit(evB)

	exp.Start()
	exp.Stop()
	exp.Stop()

	assert.Equal(t, 2.0, testutil.ToFloat64(exp.published))
	assert.Equal(t, 1.0, testutil.ToFloat64(exp.consumed))
	assert.Equal(t, 1.0, testutil.ToFloat64(exp.subscribers))
}
