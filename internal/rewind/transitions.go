package rewind

import (
	"github.com/annel0/rewind/internal/clock"
	"github.com/annel0/rewind/internal/eventbus"
)

func (c *Controller) handleClockEvent(ev *eventbus.Envelope) {
	switch ev.EventType {
	case clock.EventRewindStarted:
		c.onRewindStarted()
	case clock.EventRewindCompleted:
		c.onRewindCompleted()
	case clock.EventFastForwardStarted:
		c.onFastForwardStarted()
	case clock.EventFastForwardCompleted:
		c.onFastForwardCompleted()
	case clock.EventScrubStarted:
		c.onScrubStarted()
	case clock.EventScrubCompleted:
		c.onScrubCompleted()
	}
}

func (c *Controller) onRewindStarted() {
	wasManipulating := c.IsTimeBeingManipulated()
	if c.tryStart(opRewind, !c.scrubbing) {
		c.notifyStarted(EventRewindStarted, wasManipulating)
	}
}

func (c *Controller) onRewindCompleted() {
	if c.tryStop(opRewind, !c.scrubbing, false) {
		c.lastDirection = DirectionRewind
		c.notifyCompleted(EventRewindCompleted)
		c.syncWithClock()
	}
}

func (c *Controller) onFastForwardStarted() {
	// Вперёд можно двигаться только по уже перемотанной истории, то есть во время паузы
	if !c.scrubbing {
		return
	}
	wasManipulating := c.IsTimeBeingManipulated()
	if c.tryStart(opFastForward, !c.scrubbing) {
		c.notifyStarted(EventFastForwardStarted, wasManipulating)
	}
}

func (c *Controller) onFastForwardCompleted() {
	if c.tryStop(opFastForward, !c.scrubbing, false) {
		c.lastDirection = DirectionFastForward
		c.notifyCompleted(EventFastForwardCompleted)
		c.syncWithClock()
	}
}

func (c *Controller) onScrubStarted() {
	wasManipulating := c.IsTimeBeingManipulated()
	if c.tryStart(opScrub, false) {
		c.notifyStarted(EventScrubStarted, wasManipulating)
	}
}

func (c *Controller) onScrubCompleted() {
	if c.tryStop(opScrub, false, true) {
		c.notifyCompleted(EventScrubCompleted)
	}
}

func (c *Controller) notifyStarted(ev eventbus.EventType, wasManipulating bool) {
	c.events.Emit(ev)
	if !wasManipulating {
		c.events.Emit(EventManipulationStarted)
	}
}

func (c *Controller) notifyCompleted(ev eventbus.EventType) {
	c.events.Emit(ev)
	if !c.IsTimeBeingManipulated() {
		c.events.Emit(EventManipulationCompleted)
	}
}

func (c *Controller) isActive(op operation) bool {
	switch op {
	case opRewind:
		return c.motion == motionRewind
	case opFastForward:
		return c.motion == motionFastForward
	default:
		return c.scrubbing
	}
}

func (c *Controller) setActive(op operation, active bool) {
	switch op {
	case opRewind, opFastForward:
		if !active {
			c.motion = motionNone
		} else if op == opRewind {
			c.motion = motionRewind
		} else {
			c.motion = motionFastForward
		}
	default:
		c.scrubbing = active
	}
}

// tryStart включает операцию. Не срабатывает, если объект не участвует,
// операция уже идёт или идёт перемотка в другую сторону.
func (c *Controller) tryStart(op operation, resetElapsed bool) bool {
	if !c.enabled || c.isActive(op) {
		return false
	}
	if op != opScrub && c.motion != motionNone {
		c.log.Debug("%s: %s отклонён, уже идёт перемотка", c.cfg.Name, op)
		return false
	}

	c.setActive(op, true)
	if resetElapsed {
		c.resetPlayback()
	}
	c.pausePhysics()
	c.animationPausedAtStart = c.animationPaused
	return true
}

// tryStop выключает операцию. Если она была последней, объект возвращается
// к обычной игре с состоянием из записи под курсором, а будущее отбрасывается.
func (c *Controller) tryStop(op operation, resetElapsed, resetVelocity bool) bool {
	if !c.isActive(op) {
		return false
	}
	c.setActive(op, false)

	if c.IsTimeBeingManipulated() {
		return true
	}

	if resetElapsed {
		c.elapsed = 0
	}
	c.unpausePhysics()
	c.unpauseAnimation()

	if c.store.Cursor() >= 0 {
		c.applyCursor(true)
		if resetVelocity && c.trackMotion {
			c.zeroMovementVelocity()
		}
	}

	if n := c.store.TrimFuture(); n > 0 {
		c.log.Debug("✂️ %s: отброшено %d записей будущего", c.cfg.Name, n)
	}
	// После обрезки курсор указывает на самую новую запись
	c.resetPlayback()
	return true
}

// syncWithClock включает то, что сейчас включено на часах
func (c *Controller) syncWithClock() {
	if !c.enabled {
		return
	}
	if !c.scrubbing && c.clock.IsScrubbing() {
		c.onScrubStarted()
	}
	if c.motion == motionNone && c.clock.IsRewinding() {
		c.onRewindStarted()
	}
	if c.motion == motionNone && c.clock.IsFastForwarding() {
		c.onFastForwardStarted()
	}
}

// SetParticipation включает или выключает реакцию объекта на часы.
// Выключение немедленно останавливает все активные операции.
func (c *Controller) SetParticipation(enabled bool) {
	c.enabled = enabled
	if !enabled {
		if c.IsRewinding() {
			c.onRewindCompleted()
		}
		if c.IsFastForwarding() {
			c.onFastForwardCompleted()
		}
		if c.IsScrubbing() {
			c.onScrubCompleted()
		}
		return
	}
	c.syncWithClock()
}
