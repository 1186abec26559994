package rewind

import (
	"math"

	"github.com/annel0/rewind/internal/snapshot"
	"github.com/annel0/rewind/internal/vec"
)

const holdEpsilon = 1e-6

// record сохраняет текущее состояние объекта
func (c *Controller) record(dt float64) {
	sample := snapshot.Sample{Transform: c.actor.Transform()}
	if c.body != nil {
		sample.LinearVelocity = c.body.LinearVelocity()
		sample.AngularVelocity = c.body.AngularVelocity()
	}

	var m *snapshot.MotionSample
	if c.trackMotion {
		m = &snapshot.MotionSample{
			Velocity: c.movement.Velocity(),
			Mode:     c.movement.MovementMode(),
		}
	}
	c.store.Record(dt, sample, m)
}

// play двигает курсор по истории со скоростью часов
func (c *Controller) play(dt float64, dir Direction) {
	c.unpauseAnimation()
	if c.handleInsufficientSamples() {
		return
	}

	c.reorient(dir)
	c.elapsed += dt * c.clock.Rate()

	for !c.atBoundary(dir) && c.elapsed > c.segment(dir) {
		c.elapsed -= c.segment(dir)
		c.store.Step(dir.step())
	}

	// Интерполировать не с чем: курсор на самой новой записи и время не сдвинулось
	if c.neighbor(dir) < 0 {
		c.applyCursor(false)
		return
	}

	if c.atBoundary(dir) {
		c.elapsed = math.Min(c.elapsed, c.segment(dir))
		if c.animationPausedAtStart {
			c.pauseAnimation()
		}
	}

	c.interpolate(dir)
}

// hold доводит объект до записи под курсором и замирает на ней
func (c *Controller) hold(dt float64, dir Direction) {
	if c.handleInsufficientSamples() {
		return
	}

	c.reorient(dir)
	if c.neighbor(dir) < 0 {
		c.applyCursor(false)
		c.pauseAnimation()
		return
	}

	seg := c.segment(dir)
	if c.elapsed < seg {
		c.elapsed = math.Min(c.elapsed+dt*c.clock.Rate(), seg)
	}
	c.interpolate(dir)

	if seg-c.elapsed <= holdEpsilon {
		c.pauseAnimation()
	}
}

// handleInsufficientSamples: при пустой истории ничего не делаем, при одной записи ставим объект на неё
func (c *Controller) handleInsufficientSamples() bool {
	switch c.store.Len() {
	case 0:
		return true
	case 1:
		c.store.SetCursor(0)
		c.applyCursor(false)
		return true
	}
	return false
}

// neighbor возвращает запись, от которой идёт интерполяция к курсору:
// при перемотке назад это более новая запись, вперёд более старая.
func (c *Controller) neighbor(dir Direction) int {
	cur := c.store.Cursor()
	if cur < 0 {
		return -1
	}
	n := cur - dir.step()
	if n < 0 || n > c.store.Last() {
		return -1
	}
	return n
}

// segment длительность отрезка между соседом и курсором.
// Время отрезка хранится в более новой из двух записей.
func (c *Controller) segment(dir Direction) float64 {
	n := c.neighbor(dir)
	if n < 0 {
		return 0
	}
	s, _ := c.store.At(max(n, c.store.Cursor()))
	return s.Elapsed
}

func (c *Controller) atBoundary(dir Direction) bool {
	if dir == DirectionRewind {
		return c.store.Cursor() == 0
	}
	return c.store.Cursor() == c.store.Last()
}

// reorient пересчитывает положение на отрезке при смене направления,
// чтобы объект не прыгал: тот же отрезок отсчитывается с другого конца.
func (c *Controller) reorient(dir Direction) {
	if c.frame == dir {
		return
	}

	if n := c.neighbor(c.frame); n >= 0 {
		seg := c.segment(c.frame)
		c.store.SetCursor(n)
		c.elapsed = seg - c.elapsed
	} else {
		// Объект стоит ровно на курсоре
		c.elapsed = c.segment(dir)
	}
	c.frame = dir
	c.elapsed = math.Max(0, math.Min(c.elapsed, c.segment(dir)))
}

// resetPlayback ставит отсчёт на запись под курсором
func (c *Controller) resetPlayback() {
	c.frame = DirectionRewind
	c.elapsed = 0
}

// interpolate применяет смесь соседа и курсора с долей elapsed/segment
func (c *Controller) interpolate(dir Direction) {
	cur := c.store.Cursor()
	n := c.neighbor(dir)
	seg := c.segment(dir)

	alpha := 1.0
	if seg > 0 {
		alpha = c.elapsed / seg
	}

	from, _ := c.store.At(n)
	to, _ := c.store.At(cur)
	c.applySample(snapshot.Blend(from, to, alpha), false)

	if c.trackMotion {
		mFrom, _ := c.store.MotionAt(n)
		mTo, _ := c.store.MotionAt(cur)
		c.applyMotion(snapshot.BlendMotion(mFrom, mTo, alpha), true)
	}
}

// applyCursor ставит объект точно на запись под курсором
func (c *Controller) applyCursor(withPhysics bool) {
	cur := c.store.Cursor()
	s, ok := c.store.At(cur)
	if !ok {
		return
	}
	c.applySample(s, withPhysics)
	if c.trackMotion {
		m, _ := c.store.MotionAt(cur)
		c.applyMotion(m, !withPhysics)
	}
}

func (c *Controller) applySample(s snapshot.Sample, withPhysics bool) {
	c.actor.SetTransform(s.Transform)
	if withPhysics && c.body != nil {
		c.body.SetLinearVelocity(s.LinearVelocity)
		c.body.SetAngularVelocity(s.AngularVelocity)
	}
}

// applyMotion восстанавливает скорость и режим; во время перемотки скорость умножается на темп часов
func (c *Controller) applyMotion(m snapshot.MotionSample, applyRate bool) {
	v := m.Velocity
	if applyRate {
		v = v.Mul(c.clock.Rate())
	}
	c.movement.SetVelocity(v)
	c.movement.SetMovementMode(m.Mode)
}

func (c *Controller) pausePhysics() {
	if c.body == nil || !c.body.IsSimulatingPhysics() {
		return
	}
	c.physicsPaused = true
	c.body.SetSimulatePhysics(false)
}

func (c *Controller) unpausePhysics() {
	if c.body == nil || !c.physicsPaused {
		return
	}
	c.physicsPaused = false
	c.body.SetSimulatePhysics(true)
	c.body.RecreatePhysicsState()
}

func (c *Controller) pauseAnimation() {
	if !c.animationPauseEnabled || c.animationPaused {
		return
	}
	c.animationPaused = true
	c.animation.SetAnimationPaused(true)
}

func (c *Controller) unpauseAnimation() {
	if !c.animationPauseEnabled || !c.animationPaused {
		return
	}
	c.animationPaused = false
	c.animation.SetAnimationPaused(false)
}

// zeroMovementVelocity гасит скорость персонажа после выхода из паузы
func (c *Controller) zeroMovementVelocity() {
	if c.movement != nil {
		c.movement.SetVelocity(vec.Zero)
	}
}
