// Package clock содержит общие для всей сцены часы: множитель скорости
// и флаги перемотки, ускорения и паузы, о смене которых рассылаются события.
package clock

import (
	"strconv"

	"github.com/annel0/rewind/internal/eventbus"
	"github.com/annel0/rewind/internal/logging"
)

const (
	EventRewindStarted         eventbus.EventType = "clock.rewind.started"
	EventRewindCompleted       eventbus.EventType = "clock.rewind.completed"
	EventFastForwardStarted    eventbus.EventType = "clock.fast_forward.started"
	EventFastForwardCompleted  eventbus.EventType = "clock.fast_forward.completed"
	EventScrubStarted          eventbus.EventType = "clock.scrub.started"
	EventScrubCompleted        eventbus.EventType = "clock.scrub.completed"
	EventVisualizationEnabled  eventbus.EventType = "clock.visualization.enabled"
	EventVisualizationDisabled eventbus.EventType = "clock.visualization.disabled"
	EventRateChanged           eventbus.EventType = "clock.rate.changed"
)

// Options параметры часов
type Options struct {
	MaxRewindSeconds float64
	Presets          Presets
}

// DefaultOptions возвращает 120 секунд истории и стандартные скорости
func DefaultOptions() Options {
	return Options{
		MaxRewindSeconds: 120,
		Presets:          DefaultPresets(),
	}
}

// State снимок состояния часов
type State struct {
	Rate             float64 `json:"rate"`
	Speed            string  `json:"speed"`
	Rewinding        bool    `json:"rewinding"`
	FastForwarding   bool    `json:"fast_forwarding"`
	Scrubbing        bool    `json:"scrubbing"`
	Visualization    bool    `json:"visualization"`
	MaxRewindSeconds float64 `json:"max_rewind_seconds"`
}

// Clock общий переключатель режимов времени.
// Все операции вызываются из цикла сцены, события рассылаются синхронно.
type Clock struct {
	opts Options
	bus  *eventbus.Bus
	log  *logging.Logger

	speed          Speed
	rewinding      bool
	fastForwarding bool
	scrubbing      bool
	visualization  bool
}

// New создает часы с нормальной скоростью
func New(opts Options) *Clock {
	if opts.MaxRewindSeconds <= 0 {
		opts.MaxRewindSeconds = DefaultOptions().MaxRewindSeconds
	}
	if !opts.Presets.valid() {
		opts.Presets = DefaultPresets()
	}
	return &Clock{
		opts:  opts,
		bus:   eventbus.New("clock"),
		log:   logging.GetComponentLogger("clock"),
		speed: SpeedNormal,
	}
}

// Bus возвращает шину событий часов
func (c *Clock) Bus() *eventbus.Bus { return c.bus }

// Subscribe подписывает обработчик на события часов
func (c *Clock) Subscribe(f eventbus.Filter, h eventbus.Handler) eventbus.Subscription {
	return c.bus.Subscribe(f, h)
}

func (c *Clock) IsRewinding() bool         { return c.rewinding }
func (c *Clock) IsFastForwarding() bool    { return c.fastForwarding }
func (c *Clock) IsScrubbing() bool         { return c.scrubbing }
func (c *Clock) IsVisualizationOn() bool   { return c.visualization }
func (c *Clock) MaxRewindSeconds() float64 { return c.opts.MaxRewindSeconds }

// IsTimeBeingManipulated сообщает, включен ли хотя бы один режим
func (c *Clock) IsTimeBeingManipulated() bool {
	return c.rewinding || c.fastForwarding || c.scrubbing
}

// Rate возвращает текущий множитель скорости
func (c *Clock) Rate() float64 { return c.opts.Presets.Rate(c.speed) }

// Speed возвращает текущую ступень скорости
func (c *Clock) Speed() Speed { return c.speed }

// SetSpeed меняет ступень скорости
func (c *Clock) SetSpeed(s Speed) {
	if s < SpeedSlowest || s > SpeedFastest || s == c.speed {
		return
	}
	c.speed = s
	c.log.Info("⏩ Скорость времени: %s (x%g)", s, c.Rate())
	c.bus.Publish(&eventbus.Envelope{
		EventType: EventRateChanged,
		Metadata:  map[string]string{"speed": s.String(), "rate": strconv.FormatFloat(c.Rate(), 'g', -1, 64)},
	})
}

// SetSpeedByName меняет скорость по имени ступени
func (c *Clock) SetSpeedByName(name string) error {
	s, err := ParseSpeed(name)
	if err != nil {
		return err
	}
	c.SetSpeed(s)
	return nil
}

func (c *Clock) set(flag *bool, value bool, ev eventbus.EventType) bool {
	if *flag == value {
		return false
	}
	*flag = value
	c.log.Debug("🕰️ %s", ev)
	c.bus.Emit(ev)
	return true
}

// StartRewind включает перемотку назад. Повторный вызов ничего не делает и возвращает false.
func (c *Clock) StartRewind() bool { return c.set(&c.rewinding, true, EventRewindStarted) }

// StopRewind выключает перемотку назад
func (c *Clock) StopRewind() bool { return c.set(&c.rewinding, false, EventRewindCompleted) }

// StartFastForward включает перемотку вперёд
func (c *Clock) StartFastForward() bool {
	return c.set(&c.fastForwarding, true, EventFastForwardStarted)
}

// StopFastForward выключает перемотку вперёд
func (c *Clock) StopFastForward() bool {
	return c.set(&c.fastForwarding, false, EventFastForwardCompleted)
}

// ToggleScrub включает или выключает паузу времени и возвращает новое значение
func (c *Clock) ToggleScrub() bool {
	if c.scrubbing {
		c.set(&c.scrubbing, false, EventScrubCompleted)
	} else {
		c.set(&c.scrubbing, true, EventScrubStarted)
	}
	return c.scrubbing
}

// ToggleVisualization включает или выключает отрисовку истории и возвращает новое значение
func (c *Clock) ToggleVisualization() bool {
	if c.visualization {
		c.set(&c.visualization, false, EventVisualizationDisabled)
	} else {
		c.set(&c.visualization, true, EventVisualizationEnabled)
	}
	return c.visualization
}

// State возвращает снимок состояния
func (c *Clock) State() State {
	return State{
		Rate:             c.Rate(),
		Speed:            c.speed.String(),
		Rewinding:        c.rewinding,
		FastForwarding:   c.fastForwarding,
		Scrubbing:        c.scrubbing,
		Visualization:    c.visualization,
		MaxRewindSeconds: c.opts.MaxRewindSeconds,
	}
}
