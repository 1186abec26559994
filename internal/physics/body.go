// Package physics содержит упрощённое твёрдое тело для демо-сцены:
// гравитация, затухание и столкновение коробки с плоскостью земли.
package physics

import (
	"math"

	"github.com/annel0/rewind/internal/vec"
)

const (
	DefaultGravity = -980.0
	// ниже этой скорости отскок гасится, тело ложится на землю
	restThreshold = 5.0
)

// BoxCollider коллайдер-коробка, заданный половинами размеров
type BoxCollider struct {
	HalfExtents vec.Vec3
}

// NewBoxCollider создаёт коллайдер с указанными размерами
func NewBoxCollider(width, depth, height float64) BoxCollider {
	return BoxCollider{HalfExtents: vec.Vec3{width / 2, depth / 2, height / 2}}
}

// Bottom возвращает высоту нижней грани коробки с центром в pos
func (bc BoxCollider) Bottom(pos vec.Vec3) float64 {
	return pos.Z() - bc.HalfExtents.Z()
}

// Overlaps проверяет пересечение двух коробок без учёта поворота
func Overlaps(posA vec.Vec3, a BoxCollider, posB vec.Vec3, b BoxCollider) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(posA[i]-posB[i]) >= a.HalfExtents[i]+b.HalfExtents[i] {
			return false
		}
	}
	return true
}

// Material параметры отскока и трения
type Material struct {
	Restitution    float64
	Friction       float64
	LinearDamping  float64
	AngularDamping float64
}

// DefaultMaterial немного пружинящий ящик
func DefaultMaterial() Material {
	return Material{Restitution: 0.4, Friction: 0.6, LinearDamping: 0.05, AngularDamping: 0.3}
}

// Body твёрдое тело с одной коробкой.
// Реализует rewind.PhysicsBody.
type Body struct {
	Collider BoxCollider
	Material Material
	Gravity  float64
	// GroundHeight высота плоскости земли
	GroundHeight float64

	linear     vec.Vec3
	angular    vec.Vec3
	simulating bool
	grounded   bool
	resets     int
}

// NewBody создаёт тело, которое сразу симулируется
func NewBody(collider BoxCollider, material Material) *Body {
	return &Body{
		Collider:   collider,
		Material:   material,
		Gravity:    DefaultGravity,
		simulating: true,
	}
}

func (b *Body) LinearVelocity() vec.Vec3       { return b.linear }
func (b *Body) AngularVelocity() vec.Vec3      { return b.angular }
func (b *Body) SetLinearVelocity(v vec.Vec3)   { b.linear = v }
func (b *Body) SetAngularVelocity(v vec.Vec3)  { b.angular = v }
func (b *Body) IsSimulatingPhysics() bool      { return b.simulating }
func (b *Body) SetSimulatePhysics(enabled bool) { b.simulating = enabled }

// RecreatePhysicsState сбрасывает контакт с землёй; он будет найден заново на следующем шаге
func (b *Body) RecreatePhysicsState() {
	b.grounded = false
	b.resets++
}

// Grounded сообщает, лежит ли тело на земле
func (b *Body) Grounded() bool { return b.grounded }

// Resets сколько раз пересоздавалось состояние
func (b *Body) Resets() int { return b.resets }

// Impulse добавляет мгновенное изменение скорости
func (b *Body) Impulse(dv vec.Vec3) {
	b.linear = b.linear.Add(dv)
	b.grounded = false
}

// Step продвигает тело на dt и возвращает новое положение.
// Без симуляции положение не меняется.
func (b *Body) Step(t vec.Transform, dt float64) vec.Transform {
	if !b.simulating || dt <= 0 {
		return t
	}

	if !b.grounded {
		b.linear = b.linear.Add(vec.Vec3{0, 0, b.Gravity * dt})
	}
	b.linear = b.linear.Mul(math.Max(0, 1-b.Material.LinearDamping*dt))
	b.angular = b.angular.Mul(math.Max(0, 1-b.Material.AngularDamping*dt))

	t.Location = t.Location.Add(b.linear.Mul(dt))
	t.Rotation = vec.Integrate(t.Rotation, b.angular, dt)

	// Столкновение с землёй
	if bottom := b.Collider.Bottom(t.Location); bottom <= b.GroundHeight {
		t.Location[2] = b.GroundHeight + b.Collider.HalfExtents.Z()
		vz := b.linear.Z()
		if vz < 0 {
			vz = -vz * b.Material.Restitution
		}
		if vz < restThreshold {
			vz = 0
			b.grounded = true
		}
		friction := math.Max(0, 1-b.Material.Friction*dt)
		b.linear = vec.Vec3{b.linear.X() * friction, b.linear.Y() * friction, vz}
		b.angular = b.angular.Mul(friction)
	} else if b.grounded && b.linear.Z() > 0 {
		b.grounded = false
	}
	return t
}
