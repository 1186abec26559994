package rewind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/rewind/internal/clock"
	"github.com/annel0/rewind/internal/eventbus"
	"github.com/annel0/rewind/internal/snapshot"
	"github.com/annel0/rewind/internal/vec"
)

type fakeActor struct {
	t vec.Transform
}

func (a *fakeActor) Transform() vec.Transform     { return a.t }
func (a *fakeActor) SetTransform(t vec.Transform) { a.t = t }
func (a *fakeActor) x() float64                   { return a.t.Location.X() }

type fakeBody struct {
	lin, ang   vec.Vec3
	simulating bool
	recreated  int
}

func (b *fakeBody) LinearVelocity() vec.Vec3        { return b.lin }
func (b *fakeBody) AngularVelocity() vec.Vec3       { return b.ang }
func (b *fakeBody) SetLinearVelocity(v vec.Vec3)    { b.lin = v }
func (b *fakeBody) SetAngularVelocity(v vec.Vec3)   { b.ang = v }
func (b *fakeBody) IsSimulatingPhysics() bool       { return b.simulating }
func (b *fakeBody) SetSimulatePhysics(enabled bool) { b.simulating = enabled }
func (b *fakeBody) RecreatePhysicsState()           { b.recreated++ }

type fakeMovement struct {
	vel  vec.Vec3
	mode snapshot.MovementMode
}

func (m *fakeMovement) Velocity() vec.Vec3                      { return m.vel }
func (m *fakeMovement) SetVelocity(v vec.Vec3)                  { m.vel = v }
func (m *fakeMovement) MovementMode() snapshot.MovementMode     { return m.mode }
func (m *fakeMovement) SetMovementMode(v snapshot.MovementMode) { m.mode = v }

type fakeAnimation struct {
	paused bool
}

func (a *fakeAnimation) SetAnimationPaused(p bool) { a.paused = p }

const step = 0.1

func testConfig() Config {
	cfg := DefaultConfig("test")
	cfg.SampleInterval = step
	return cfg
}

// recordLine записывает n сэмплов с x = 0..n-1, по одному на тик
func recordLine(c *Controller, a *fakeActor, n int) {
	for i := 0; i < n; i++ {
		a.t = vec.At(vec.Vec3{float64(i), 0, 0})
		c.Tick(step)
	}
}

func collect(c *Controller) *[]eventbus.EventType {
	var got []eventbus.EventType
	c.Events().Subscribe(eventbus.Filter{}, func(ev *eventbus.Envelope) {
		got = append(got, ev.EventType)
	})
	return &got
}

func count(events []eventbus.EventType, t eventbus.EventType) int {
	n := 0
	for _, e := range events {
		if e == t {
			n++
		}
	}
	return n
}

func TestRecording(t *testing.T) {
	clk := clock.New(clock.DefaultOptions())
	actor := &fakeActor{}
	c := New(clk, actor, testConfig())
	defer c.Close()

	assert.Equal(t, StateRecording, c.State())
	recordLine(c, actor, 10)

	h := c.History()
	assert.Equal(t, 10, h.Len())
	assert.Equal(t, 9, h.Cursor())
	last, ok := h.At(9)
	require.True(t, ok)
	assert.Equal(t, 9.0, last.Transform.Location.X())
}

func TestRewindStartIsIdempotent(t *testing.T) {
	clk := clock.New(clock.DefaultOptions())
	actor := &fakeActor{}
	c := New(clk, actor, testConfig())
	events := collect(c)

	require.True(t, clk.StartRewind())
	assert.False(t, clk.StartRewind())
	c.onRewindStarted()

	assert.True(t, c.IsRewinding())
	assert.Equal(t, 1, count(*events, EventRewindStarted), "повторный старт не рассылается")
	assert.Equal(t, 1, count(*events, EventManipulationStarted))
}

func TestRewindThenStopWithoutPlaying(t *testing.T) {
	clk := clock.New(clock.DefaultOptions())
	actor := &fakeActor{}
	c := New(clk, actor, testConfig())
	recordLine(c, actor, 10)
	before := actor.t

	clk.StartRewind()
	clk.StopRewind()

	assert.Equal(t, before, actor.t, "перемотка без тиков не меняет объект")
	assert.Equal(t, 10, c.History().Len())
	assert.Equal(t, StateRecording, c.State())
}

func TestRewindPlayback(t *testing.T) {
	clk := clock.New(clock.DefaultOptions())
	actor := &fakeActor{}
	c := New(clk, actor, testConfig())
	recordLine(c, actor, 10)

	clk.StartRewind()
	assert.Equal(t, 0.0, c.Elapsed(), "перемотка из записи начинается с нуля")

	c.Tick(0.05)
	assert.InDelta(t, 8.5, actor.x(), 1e-9)
	assert.Equal(t, 8, c.History().Cursor())

	c.Tick(0.1)
	assert.InDelta(t, 7.5, actor.x(), 1e-9)

	t.Run("Скорость часов", func(t *testing.T) {
		clk.SetSpeed(clock.SpeedFaster)
		c.Tick(0.1)
		assert.InDelta(t, 5.5, actor.x(), 1e-9)
		clk.SetSpeed(clock.SpeedNormal)
	})

	t.Run("Граница не переходится", func(t *testing.T) {
		c.Tick(100)
		assert.Equal(t, 0.0, actor.x())
		assert.Equal(t, 0, c.History().Cursor())
		c.Tick(1)
		assert.Equal(t, 0.0, actor.x())
	})

	clk.StopRewind()
	assert.Equal(t, 1, c.History().Len(), "будущее отброшено")
	assert.Equal(t, 0.0, actor.x())
}

func TestFastForwardRequiresScrub(t *testing.T) {
	clk := clock.New(clock.DefaultOptions())
	actor := &fakeActor{}
	c := New(clk, actor, testConfig())
	recordLine(c, actor, 5)

	clk.StartFastForward()
	assert.False(t, c.IsFastForwarding(), "без паузы вперёд двигаться некуда")
	assert.Equal(t, StateRecording, c.State())
	clk.StopFastForward()

	clk.ToggleScrub()
	clk.StartFastForward()
	assert.True(t, c.IsFastForwarding())
}

func TestScrubPreservesElapsed(t *testing.T) {
	clk := clock.New(clock.DefaultOptions())
	actor := &fakeActor{}
	c := New(clk, actor, testConfig())
	recordLine(c, actor, 10)

	clk.StartRewind()
	c.Tick(0.05)
	elapsed := c.Elapsed()
	require.InDelta(t, 0.05, elapsed, 1e-12)

	clk.ToggleScrub()
	assert.Equal(t, elapsed, c.Elapsed(), "пауза не сбрасывает отсчёт")

	clk.StopRewind()
	assert.Equal(t, elapsed, c.Elapsed())
	assert.Equal(t, StateScrubbing, c.State())
	assert.Equal(t, DirectionRewind, c.LastDirection())
	assert.Equal(t, 10, c.History().Len(), "будущее живо, пока идёт пауза")

	t.Run("Доводка до записи", func(t *testing.T) {
		c.Tick(0.02)
		assert.InDelta(t, 8.3, actor.x(), 1e-9)
		c.Tick(1)
		assert.Equal(t, 8.0, actor.x())
		c.Tick(1)
		assert.Equal(t, 8.0, actor.x(), "пауза держит объект на записи")
	})

	t.Run("Вперёд из паузы без скачка", func(t *testing.T) {
		clk.StartFastForward()
		c.Tick(0)
		assert.Equal(t, 8.0, actor.x())
		c.Tick(0.05)
		assert.InDelta(t, 8.5, actor.x(), 1e-9)
		c.Tick(100)
		assert.Equal(t, 9.0, actor.x(), "дальше последней записи не идём")
		clk.StopFastForward()
		assert.Equal(t, DirectionFastForward, c.LastDirection())
	})

	t.Run("Назад после вперёд", func(t *testing.T) {
		clk.StartRewind()
		c.Tick(0.025)
		assert.InDelta(t, 8.75, actor.x(), 1e-9)
		clk.StopRewind()
	})

	clk.ToggleScrub()
	assert.Equal(t, StateRecording, c.State())
	assert.Less(t, c.History().Len(), 10, "после выхода из паузы будущее обрезано")

	recordLine(c, actor, 3)
	clk.StartRewind()
	assert.Equal(t, 0.0, c.Elapsed(), "новая перемотка из записи начинается с нуля")
}

func TestScrubFromRecordingHoldsLatest(t *testing.T) {
	clk := clock.New(clock.DefaultOptions())
	actor := &fakeActor{}
	anim := &fakeAnimation{}
	cfg := testConfig()
	cfg.PauseAnimationDuringScrub = true
	c := New(clk, actor, cfg, WithAnimation(anim))
	recordLine(c, actor, 4)
	actor.t = vec.At(vec.Vec3{42, 0, 0})

	clk.ToggleScrub()
	c.Tick(0.016)
	assert.Equal(t, 3.0, actor.x(), "объект встаёт на последнюю запись")
	assert.True(t, anim.paused)

	clk.StartRewind()
	c.Tick(0.05)
	assert.False(t, anim.paused, "при перемотке анимация идёт")
	clk.StopRewind()

	c.Tick(1)
	assert.True(t, anim.paused, "анимация замирает, когда объект дошёл до записи")

	clk.ToggleScrub()
	assert.False(t, anim.paused)
}

func TestDistinctScrubCompleted(t *testing.T) {
	clk := clock.New(clock.DefaultOptions())
	c := New(clk, &fakeActor{}, testConfig())
	events := collect(c)

	clk.ToggleScrub()
	clk.ToggleScrub()

	assert.Equal(t, []eventbus.EventType{
		EventScrubStarted, EventManipulationStarted,
		EventScrubCompleted, EventManipulationCompleted,
	}, *events)
	assert.Zero(t, count(*events, EventFastForwardCompleted))
}

func TestManipulationNotificationsOnce(t *testing.T) {
	clk := clock.New(clock.DefaultOptions())
	actor := &fakeActor{}
	c := New(clk, actor, testConfig())
	recordLine(c, actor, 5)
	events := collect(c)

	clk.ToggleScrub()
	clk.StartRewind()
	clk.StopRewind()
	clk.StartFastForward()
	clk.StopFastForward()
	clk.ToggleScrub()

	assert.Equal(t, 1, count(*events, EventManipulationStarted))
	assert.Equal(t, 1, count(*events, EventManipulationCompleted))
	assert.Equal(t, EventManipulationCompleted, (*events)[len(*events)-1])
}

func TestMotionExclusivity(t *testing.T) {
	clk := clock.New(clock.DefaultOptions())
	actor := &fakeActor{}
	c := New(clk, actor, testConfig())
	recordLine(c, actor, 5)

	clk.ToggleScrub()
	clk.StartFastForward()
	clk.StartRewind()
	assert.Equal(t, StateFastForwarding, c.State(), "назад и вперёд одновременно нельзя")

	clk.StopFastForward()
	assert.Equal(t, StateRewinding, c.State(), "после остановки контроллер догоняет часы")

	clk.StopRewind()
	assert.Equal(t, StateScrubbing, c.State())
}

func TestParticipation(t *testing.T) {
	clk := clock.New(clock.DefaultOptions())
	actor := &fakeActor{}
	c := New(clk, actor, testConfig())
	recordLine(c, actor, 10)
	events := collect(c)

	clk.ToggleScrub()
	clk.StartRewind()
	c.Tick(0.3)
	require.True(t, c.IsTimeBeingManipulated())

	c.SetParticipation(false)
	assert.False(t, c.IsParticipating())
	assert.Equal(t, StateRecording, c.State())
	assert.Equal(t, 1, count(*events, EventManipulationCompleted))
	assert.Less(t, c.History().Len(), 10)

	clk.StopRewind()
	clk.StartRewind()
	assert.False(t, c.IsRewinding(), "выключенный объект игнорирует часы")

	c.SetParticipation(true)
	assert.True(t, c.IsScrubbing())
	assert.True(t, c.IsRewinding(), "включение догоняет текущее состояние часов")
}

func TestPhysicsAndMotion(t *testing.T) {
	clk := clock.New(clock.DefaultOptions())
	actor := &fakeActor{}
	body := &fakeBody{simulating: true}
	move := &fakeMovement{}
	cfg := testConfig()
	cfg.TrackMotion = true
	c := New(clk, actor, cfg, WithPhysicsBody(body), WithMovement(move))

	for i := 0; i < 5; i++ {
		actor.t = vec.At(vec.Vec3{float64(i), 0, 0})
		body.lin = vec.Vec3{float64(i), 0, 0}
		move.vel = vec.Vec3{0, float64(i), 0}
		move.mode = snapshot.MovementGrounded
		if i >= 3 {
			move.mode = snapshot.MovementFalling
		}
		c.Tick(step)
	}

	clk.StartRewind()
	assert.False(t, body.simulating, "физика на паузе во время перемотки")

	clk.SetSpeed(clock.SpeedFaster)
	c.Tick(0.05)
	// Между записями 3 и 4 (скорость x2 дает целый отрезок): курсор 3, alpha 1
	assert.InDelta(t, 3.0, actor.x(), 1e-9)
	assert.InDelta(t, 6.0, move.vel.Y(), 1e-9, "скорость персонажа умножается на темп")
	assert.Equal(t, snapshot.MovementFalling, move.mode)

	c.Tick(0.05)
	assert.InDelta(t, 2.0, actor.x(), 1e-9)
	assert.Equal(t, snapshot.MovementGrounded, move.mode)

	clk.SetSpeed(clock.SpeedNormal)
	clk.StopRewind()
	assert.True(t, body.simulating)
	assert.Equal(t, 1, body.recreated)
	assert.Equal(t, vec.Vec3{2, 0, 0}, body.lin, "при выходе физика получает скорость записи")
	assert.Equal(t, vec.Vec3{0, 2, 0}, move.vel, "без умножения на темп")

	t.Run("Выход из паузы гасит скорость", func(t *testing.T) {
		clk.ToggleScrub()
		c.Tick(0.1)
		clk.ToggleScrub()
		assert.Equal(t, vec.Zero, move.vel)
	})
}

func TestInsufficientHistory(t *testing.T) {
	clk := clock.New(clock.DefaultOptions())
	actor := &fakeActor{t: vec.At(vec.Vec3{7, 0, 0})}
	c := New(clk, actor, testConfig())

	clk.StartRewind()
	c.Tick(0.1)
	assert.Equal(t, 7.0, actor.x(), "пустая история ничего не меняет")
	clk.StopRewind()

	c.Tick(step)
	actor.t = vec.At(vec.Vec3{9, 0, 0})
	clk.StartRewind()
	c.Tick(0.1)
	assert.Equal(t, 7.0, actor.x(), "единственная запись применяется сразу")
	clk.StopRewind()
}

func TestManyControllersShareClock(t *testing.T) {
	clk := clock.New(clock.DefaultOptions())
	var ctrls []*Controller
	for i := 0; i < 8; i++ {
		a := &fakeActor{}
		c := New(clk, a, testConfig())
		recordLine(c, a, 3)
		ctrls = append(ctrls, c)
	}
	ctrls[3].SetParticipation(false)

	clk.StartRewind()
	for i, c := range ctrls {
		assert.Equal(t, i != 3, c.IsRewinding(), "контроллер %d", i)
	}

	ctrls[5].Close()
	clk.StopRewind()
	assert.True(t, ctrls[5].IsRewinding(), "отписанный контроллер больше не получает события")
	assert.False(t, ctrls[0].IsRewinding())
}
