// Package world содержит демо-сцену: персонажи и физические предметы, история
// которых пишется контроллерами перемотки, и цикл тиков, владеющий ими всеми.
package world

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/rewind/internal/clock"
	"github.com/annel0/rewind/internal/entity"
	"github.com/annel0/rewind/internal/eventbus"
	"github.com/annel0/rewind/internal/logging"
	"github.com/annel0/rewind/internal/observability"
	"github.com/annel0/rewind/internal/rewind"
	"github.com/annel0/rewind/internal/timeline"
	"github.com/annel0/rewind/internal/util"
	"github.com/annel0/rewind/internal/vec"
)

var (
	ErrEntityNotFound = errors.New("entity not found")
	ErrSceneClosed    = errors.New("scene closed")
)

const commandQueueSize = 64

// Options параметры сцены
type Options struct {
	TickRate int
	Seed     int64
	Timeline timeline.Config
	// Metrics может быть nil
	Metrics *observability.RewindMetrics
}

// Stats сводка по сцене
type Stats struct {
	Ticks          uint64      `json:"ticks"`
	Time           float64     `json:"time"`
	Entities       int         `json:"entities"`
	StoredSamples  int         `json:"stored_samples"`
	Manipulated    int         `json:"manipulated"`
	Clock          clock.State `json:"clock"`
	PendingQueries int         `json:"pending_queries"`
}

type command struct {
	ctx   context.Context
	fn    func(*Scene) error
	reply chan error
}

// Scene владеет часами и всеми объектами. Методы без контекста
// вызываются только из цикла сцены; другие горутины пользуются Do и Query.
type Scene struct {
	clock *clock.Clock
	opts  Options
	log   *logging.Logger
	noise *util.Noise
	rng   *rand.Rand

	entities map[uuid.UUID]*Entity
	order    []*Entity
	subs     []eventbus.Subscription

	commands  chan command
	done      chan struct{}
	closeOnce sync.Once

	now   float64
	ticks uint64
}

// New создаёт пустую сцену вокруг часов
func New(clk *clock.Clock, opts Options) *Scene {
	if opts.TickRate <= 0 {
		opts.TickRate = 60
	}
	seed := uint64(opts.Seed)
	s := &Scene{
		clock:    clk,
		opts:     opts,
		log:      logging.GetSceneLogger(),
		noise:    util.NewNoise(opts.Seed),
		rng:      rand.New(rand.NewPCG(seed, seed+1)),
		entities: make(map[uuid.UUID]*Entity),
		commands: make(chan command, commandQueueSize),
		done:     make(chan struct{}),
	}

	s.subs = append(s.subs,
		clk.Subscribe(eventbus.Filter{Types: []eventbus.EventType{clock.EventVisualizationDisabled}}, func(*eventbus.Envelope) {
			for _, e := range s.order {
				e.Visualizer.Clear()
			}
		}),
	)
	if opts.Metrics != nil {
		m := opts.Metrics
		m.SetRate(clk.Rate())
		s.subs = append(s.subs,
			clk.Subscribe(eventbus.Filter{Types: []eventbus.EventType{clock.EventRateChanged}}, func(*eventbus.Envelope) {
				m.SetRate(clk.Rate())
			}),
		)
	}
	return s
}

// Clock возвращает часы сцены
func (s *Scene) Clock() *clock.Clock { return s.clock }

// Now время сцены в секундах
func (s *Scene) Now() float64 { return s.now }

// AddCharacter добавляет персонажа с блужданием по шуму
func (s *Scene) AddCharacter(cfg rewind.Config, location vec.Vec3) *Entity {
	ch := NewCharacter(cfg.Name, location)
	opts := []rewind.Option{rewind.WithMovement(ch), rewind.WithAnimation(ch)}
	e := s.add(KindCharacter, cfg, ch, opts)

	e.Character = ch
	e.brain = entity.NewBrain(s.rng.Uint64(), s.noise, ch.Location())
	ch.bindManipulation(e.Controller.IsTimeBeingManipulated)
	e.subs = append(e.subs,
		e.Controller.On(rewind.EventManipulationStarted, ch.updateCamera),
		e.Controller.On(rewind.EventManipulationCompleted, ch.updateCamera),
	)
	return e
}

// AddProp добавляет физический ящик с ребром size
func (s *Scene) AddProp(cfg rewind.Config, location vec.Vec3, size float64) *Entity {
	p := NewProp(cfg.Name, location, size)
	e := s.add(KindProp, cfg, p, []rewind.Option{rewind.WithPhysicsBody(p.Body())})
	e.Prop = p
	return e
}

func (s *Scene) add(kind Kind, cfg rewind.Config, actor rewind.Actor, opts []rewind.Option) *Entity {
	if s.opts.Metrics != nil {
		opts = append(opts, rewind.WithStoreObserver(s.opts.Metrics))
	}
	markers := timeline.NewMemoryRenderer()
	e := &Entity{
		ID:         uuid.New(),
		Name:       cfg.Name,
		Kind:       kind,
		Controller: rewind.New(s.clock, actor, cfg, opts...),
		Visualizer: timeline.New(markers, s.opts.Timeline, timeline.RandomColor(s.rng)),
		Markers:    markers,
	}
	if s.opts.Metrics != nil {
		e.subs = append(e.subs, s.observeManipulations(e.Controller)...)
	}

	s.entities[e.ID] = e
	s.order = append(s.order, e)
	s.log.Info("➕ %s %s добавлен (id=%s)", kind, cfg.Name, e.ID)
	return e
}

func (s *Scene) observeManipulations(c *rewind.Controller) []eventbus.Subscription {
	kinds := map[eventbus.EventType][2]string{
		rewind.EventRewindStarted:        {"rewind", "started"},
		rewind.EventRewindCompleted:      {"rewind", "completed"},
		rewind.EventFastForwardStarted:   {"fast_forward", "started"},
		rewind.EventFastForwardCompleted: {"fast_forward", "completed"},
		rewind.EventScrubStarted:         {"scrub", "started"},
		rewind.EventScrubCompleted:       {"scrub", "completed"},
	}
	types := make([]eventbus.EventType, 0, len(kinds))
	for t := range kinds {
		types = append(types, t)
	}
	m := s.opts.Metrics
	sub := c.Events().Subscribe(eventbus.Filter{Types: types}, func(ev *eventbus.Envelope) {
		k := kinds[ev.EventType]
		m.ManipulationEvent(k[0], k[1])
	})
	return []eventbus.Subscription{sub}
}

// Remove убирает объект со сцены
func (s *Scene) Remove(id uuid.UUID) error {
	e, ok := s.entities[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	e.close()
	delete(s.entities, id)
	for i, o := range s.order {
		if o == e {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.log.Info("➖ %s удалён", e.Name)
	return nil
}

// Entity ищет объект по идентификатору
func (s *Scene) Entity(id uuid.UUID) (*Entity, error) {
	e, ok := s.entities[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	return e, nil
}

// Entities возвращает объекты в порядке добавления
func (s *Scene) Entities() []*Entity {
	out := make([]*Entity, len(s.order))
	copy(out, s.order)
	return out
}

// Tick выполняет накопившиеся команды и продвигает сцену на dt
func (s *Scene) Tick(dt float64) {
	start := time.Now()
	s.drain()

	s.now += dt
	s.ticks++
	visualize := s.clock.IsVisualizationOn()
	stored := 0
	for _, e := range s.order {
		e.simulate(dt)
		e.Controller.Tick(dt)
		if visualize {
			e.Visualizer.Update(e.Controller.History(), s.now)
		}
		stored += e.Controller.History().Len()
	}

	if m := s.opts.Metrics; m != nil {
		m.SetStoredSamples(stored)
		m.ObserveTick(time.Since(start))
	}
}

// Stats возвращает сводку по сцене
func (s *Scene) Stats() Stats {
	st := Stats{
		Ticks:          s.ticks,
		Time:           s.now,
		Entities:       len(s.order),
		Clock:          s.clock.State(),
		PendingQueries: len(s.commands),
	}
	for _, e := range s.order {
		st.StoredSamples += e.Controller.History().Len()
		if e.Controller.IsTimeBeingManipulated() {
			st.Manipulated++
		}
	}
	return st
}

// Run крутит цикл с фиксированным шагом, пока не отменён ctx.
// По выходу сцена закрывается.
func (s *Scene) Run(ctx context.Context) error {
	defer s.Close()

	step := time.Second / time.Duration(s.opts.TickRate)
	dt := step.Seconds()
	ticker := time.NewTicker(step)
	defer ticker.Stop()

	s.log.Info("🎬 Цикл сцены запущен: %d тиков/с, объектов %d", s.opts.TickRate, len(s.order))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("🛑 Цикл сцены остановлен после %d тиков", s.ticks)
			return nil
		case <-s.done:
			return ErrSceneClosed
		case <-ticker.C:
			s.Tick(dt)
		}
	}
}

func (s *Scene) drain() {
	for {
		select {
		case cmd := <-s.commands:
			s.execute(cmd)
		default:
			return
		}
	}
}

func (s *Scene) execute(cmd command) {
	if err := cmd.ctx.Err(); err != nil {
		cmd.reply <- err
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("❌ Команда упала: %v", r)
			cmd.reply <- fmt.Errorf("command panicked: %v", r)
		}
	}()
	cmd.reply <- cmd.fn(s)
}

// Do ставит команду в очередь цикла и ждёт её выполнения
func (s *Scene) Do(ctx context.Context, name string, fn func(*Scene) error) error {
	ctx, span := observability.Tracer().Start(ctx, "scene."+name,
		trace.WithAttributes(attribute.String("scene.command", name)))
	defer span.End()

	cmd := command{ctx: ctx, fn: fn, reply: make(chan error, 1)}
	select {
	case s.commands <- cmd:
	case <-s.done:
		return ErrSceneClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	var err error
	select {
	case err = <-cmd.reply:
	case <-s.done:
		err = ErrSceneClosed
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Query выполняет fn в цикле сцены и возвращает результат
func Query[T any](ctx context.Context, s *Scene, name string, fn func(*Scene) (T, error)) (T, error) {
	res := make(chan T, 1)
	err := s.Do(ctx, name, func(s *Scene) error {
		v, err := fn(s)
		if err != nil {
			return err
		}
		res <- v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return <-res, nil
}

// Close останавливает сцену и отписывает все объекты от часов
func (s *Scene) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		for _, e := range s.order {
			e.close()
		}
		for _, sub := range s.subs {
			sub.Unsubscribe()
		}
		s.subs = nil
		s.log.Info("🧹 Сцена закрыта")
	})
}
