// Package rewind реализует контроллер воспроизведения одного объекта:
// запись истории в обычном режиме, перемотку назад и вперёд, паузу
// с плавной доводкой до ближайшей записи.
package rewind

import (
	"github.com/annel0/rewind/internal/eventbus"
	"github.com/annel0/rewind/internal/logging"
	"github.com/annel0/rewind/internal/snapshot"
)

// Config параметры, фиксируемые при создании контроллера
type Config struct {
	Name                      string
	SampleInterval            float64
	TrackMotion               bool
	PauseAnimationDuringScrub bool
	ByteCeiling               int
	MotionByteCeiling         int
}

// DefaultConfig возвращает 30 записей в секунду без записи движения
func DefaultConfig(name string) Config {
	return Config{
		Name:              name,
		SampleInterval:    snapshot.DefaultSampleInterval,
		ByteCeiling:       snapshot.DefaultByteCeiling,
		MotionByteCeiling: snapshot.DefaultMotionByteCeiling,
	}
}

// Option подключает необязательные компоненты объекта
type Option func(*Controller)

// WithPhysicsBody подключает твёрдое тело
func WithPhysicsBody(b PhysicsBody) Option {
	return func(c *Controller) { c.body = b }
}

// WithMovement подключает компонент передвижения
func WithMovement(m Movement) Option {
	return func(c *Controller) { c.movement = m }
}

// WithAnimation подключает анимацию
func WithAnimation(a Animation) Option {
	return func(c *Controller) { c.animation = a }
}

// WithStoreObserver передаёт наблюдателя в хранилище истории
func WithStoreObserver(o snapshot.Observer) Option {
	return func(c *Controller) { c.storeObserver = o }
}

// Controller управляет историей одного объекта.
// Все методы вызываются из цикла сцены.
type Controller struct {
	cfg   Config
	clock TimeSource
	actor Actor
	log   *logging.Logger

	body          PhysicsBody
	movement      Movement
	animation     Animation
	storeObserver snapshot.Observer

	store  *snapshot.Store
	events *eventbus.Bus
	sub    eventbus.Subscription

	enabled       bool
	motion        motion
	scrubbing     bool
	lastDirection Direction

	// elapsed пройденная часть отрезка между соседней записью и курсором,
	// frame направление, в котором этот отрезок отсчитывается
	elapsed float64
	frame   Direction

	trackMotion           bool
	animationPauseEnabled bool

	physicsPaused          bool
	animationPaused        bool
	animationPausedAtStart bool
}

// New создаёт контроллер и подписывает его на события часов
func New(clock TimeSource, actor Actor, cfg Config, opts ...Option) *Controller {
	c := &Controller{
		cfg:     cfg,
		clock:   clock,
		actor:   actor,
		log:     logging.GetRewindLogger(),
		enabled: true,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.trackMotion = cfg.TrackMotion && c.movement != nil
	if cfg.TrackMotion && c.movement == nil {
		c.log.Warn("⚠️ %s: запись движения включена, но компонента передвижения нет", cfg.Name)
	}
	c.animationPauseEnabled = cfg.PauseAnimationDuringScrub && c.animation != nil

	var storeOpts []snapshot.Option
	if c.storeObserver != nil {
		storeOpts = append(storeOpts, snapshot.WithObserver(c.storeObserver))
	}
	c.store = snapshot.NewStore(snapshot.Config{
		Owner:             cfg.Name,
		SampleInterval:    cfg.SampleInterval,
		MaxSeconds:        clock.MaxRewindSeconds(),
		TrackMotion:       c.trackMotion,
		ByteCeiling:       cfg.ByteCeiling,
		MotionByteCeiling: cfg.MotionByteCeiling,
	}, storeOpts...)

	c.events = eventbus.New(cfg.Name)
	c.sub = clock.Subscribe(eventbus.Filter{}, c.handleClockEvent)

	c.log.Debug("⏪ %s: история на %d записей (%d байт)", cfg.Name, c.store.Capacity(), c.store.Stats().Plan.Bytes())
	return c
}

// Close отписывает контроллер от часов
func (c *Controller) Close() {
	if c.sub != nil {
		c.sub.Unsubscribe()
		c.sub = nil
	}
}

// Name возвращает имя объекта
func (c *Controller) Name() string { return c.cfg.Name }

// Events возвращает шину уведомлений контроллера
func (c *Controller) Events() *eventbus.Bus { return c.events }

// On подписывает обработчик на уведомление контроллера
func (c *Controller) On(t eventbus.EventType, fn func()) eventbus.Subscription {
	return c.events.On(t, fn)
}

// History возвращает историю только на чтение
func (c *Controller) History() snapshot.View { return c.store }

// Tick выполняет один шаг: запись, перемотку или удержание паузы
func (c *Controller) Tick(dt float64) {
	switch c.State() {
	case StateRewinding:
		c.play(dt, DirectionRewind)
	case StateFastForwarding:
		c.play(dt, DirectionFastForward)
	case StateScrubbing:
		c.hold(dt, c.lastDirection)
	default:
		c.record(dt)
	}
}

// State возвращает текущий режим; перемотка важнее паузы
func (c *Controller) State() State {
	switch {
	case c.motion == motionRewind:
		return StateRewinding
	case c.motion == motionFastForward:
		return StateFastForwarding
	case c.scrubbing:
		return StateScrubbing
	default:
		return StateRecording
	}
}

func (c *Controller) IsRewinding() bool      { return c.motion == motionRewind }
func (c *Controller) IsFastForwarding() bool { return c.motion == motionFastForward }
func (c *Controller) IsScrubbing() bool      { return c.scrubbing }

// IsTimeBeingManipulated сообщает, активна ли хоть одна операция со временем
func (c *Controller) IsTimeBeingManipulated() bool {
	return c.motion != motionNone || c.scrubbing
}

// IsParticipating сообщает, реагирует ли объект на команды часов
func (c *Controller) IsParticipating() bool { return c.enabled }

// LastDirection направление последней завершённой перемотки
func (c *Controller) LastDirection() Direction { return c.lastDirection }

// Elapsed пройденная часть текущего отрезка истории
func (c *Controller) Elapsed() float64 { return c.elapsed }

// Status состояние контроллера для отладки
type Status struct {
	Name            string         `json:"name"`
	State           State          `json:"state"`
	Participating   bool           `json:"participating"`
	LastDirection   Direction      `json:"last_direction"`
	Elapsed         float64        `json:"elapsed"`
	PhysicsPaused   bool           `json:"physics_paused"`
	AnimationPaused bool           `json:"animation_paused"`
	History         snapshot.Stats `json:"history"`
}

// Status возвращает снимок состояния
func (c *Controller) Status() Status {
	return Status{
		Name:            c.cfg.Name,
		State:           c.State(),
		Participating:   c.enabled,
		LastDirection:   c.lastDirection,
		Elapsed:         c.elapsed,
		PhysicsPaused:   c.physicsPaused,
		AnimationPaused: c.animationPaused,
		History:         c.store.Stats(),
	}
}
