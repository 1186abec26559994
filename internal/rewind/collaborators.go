package rewind

import (
	"github.com/annel0/rewind/internal/eventbus"
	"github.com/annel0/rewind/internal/snapshot"
	"github.com/annel0/rewind/internal/vec"
)

// Actor объект сцены, положение которого записывается и восстанавливается
type Actor interface {
	Transform() vec.Transform
	SetTransform(t vec.Transform)
}

// PhysicsBody корневое твёрдое тело объекта
type PhysicsBody interface {
	LinearVelocity() vec.Vec3
	AngularVelocity() vec.Vec3
	SetLinearVelocity(v vec.Vec3)
	SetAngularVelocity(v vec.Vec3)
	IsSimulatingPhysics() bool
	SetSimulatePhysics(enabled bool)
	// RecreatePhysicsState сбрасывает накопленное состояние солвера после паузы
	RecreatePhysicsState()
}

// Movement компонент передвижения персонажа
type Movement interface {
	Velocity() vec.Vec3
	SetVelocity(v vec.Vec3)
	MovementMode() snapshot.MovementMode
	SetMovementMode(m snapshot.MovementMode)
}

// Animation анимация скелетного меша
type Animation interface {
	SetAnimationPaused(paused bool)
}

// TimeSource общие часы сцены, от которых контроллер получает команды
type TimeSource interface {
	Rate() float64
	IsRewinding() bool
	IsFastForwarding() bool
	IsScrubbing() bool
	MaxRewindSeconds() float64
	Subscribe(f eventbus.Filter, h eventbus.Handler) eventbus.Subscription
}
