package eventbus

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// EventType тип события (clock.rewind.started, rewind.manipulation.completed…)
type EventType string

// Envelope описывает контейнер события.
type Envelope struct {
	ID        string            // Уникальный идентификатор (UUID).
	Timestamp time.Time         // Время создания события (UTC).
	Source    string            // Имя источника (clock, имя объекта).
	EventType EventType         // Тип события.
	Metadata  map[string]string // Произвольные метаданные.
}

// Filter позволяет подписаться только на нужные события.
type Filter struct {
	Types   []EventType // Если пусто — все типы.
	Sources []string    // Если пусто — все источники.
}

// Subscription возвращается при подписке; позволяет отписаться.
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события. Вызывается синхронно в горутине издателя.
type Handler func(ev *Envelope)

// Stats агрегированные метрики шины.
type Stats struct {
	Published   uint64 `json:"published"`
	Consumed    uint64 `json:"consumed"`
	Subscribers int    `json:"subscribers"`
}

// EventBus определяет абстракцию шины событий.
type EventBus interface {
	Publish(ev *Envelope)
	Subscribe(f Filter, h Handler) Subscription
	Metrics() Stats
}

// Bus синхронная шина: Publish возвращается только после того,
// как все подписчики обработали событие. Порядок доставки между подписчиками не определён.
type Bus struct {
	source string

	mu          sync.RWMutex
	subscribers map[int]subscriber
	nextID      int

	published atomic.Uint64
	consumed  atomic.Uint64
}

type subscriber struct {
	filter  Filter
	handler Handler
}

var _ EventBus = (*Bus)(nil)

// New создаёт шину; source подставляется в события без источника.
func New(source string) *Bus {
	return &Bus{
		source:      source,
		subscribers: make(map[int]subscriber),
	}
}

// Publish доставляет событие всем подходящим подписчикам.
// Обработчик может публиковать события и отписываться во время доставки.
func (b *Bus) Publish(ev *Envelope) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if ev.Source == "" {
		ev.Source = b.source
	}
	b.published.Add(1)

	b.mu.RLock()
	ids := make([]int, 0, len(b.subscribers))
	for id, sub := range b.subscribers {
		if matchFilter(ev, sub.filter) {
			ids = append(ids, id)
		}
	}
	b.mu.RUnlock()

	for _, id := range ids {
		// Подписчик мог отписаться, пока обрабатывались предыдущие
		b.mu.RLock()
		sub, ok := b.subscribers[id]
		b.mu.RUnlock()
		if !ok {
			continue
		}
		sub.handler(ev)
		b.consumed.Add(1)
	}
}

// Emit публикует событие без метаданных.
func (b *Bus) Emit(t EventType) *Envelope {
	ev := &Envelope{EventType: t}
	b.Publish(ev)
	return ev
}

// Subscribe регистрирует обработчик.
func (b *Bus) Subscribe(f Filter, h Handler) Subscription {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = subscriber{filter: f, handler: h}
	b.mu.Unlock()

	return &busSub{bus: b, id: id}
}

// On подписывает обработчик без аргументов на один тип события.
func (b *Bus) On(t EventType, fn func()) Subscription {
	return b.Subscribe(Filter{Types: []EventType{t}}, func(*Envelope) { fn() })
}

// Metrics возвращает счётчики шины.
func (b *Bus) Metrics() Stats {
	b.mu.RLock()
	n := len(b.subscribers)
	b.mu.RUnlock()
	return Stats{
		Published:   b.published.Load(),
		Consumed:    b.consumed.Load(),
		Subscribers: n,
	}
}

func matchFilter(ev *Envelope, f Filter) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if t == ev.EventType {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Sources) > 0 {
		for _, s := range f.Sources {
			if s == ev.Source {
				return true
			}
		}
		return false
	}
	return true
}

type busSub struct {
	bus  *Bus
	id   int
	once sync.Once
}

func (s *busSub) Unsubscribe() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subscribers, s.id)
		s.bus.mu.Unlock()
	})
}
