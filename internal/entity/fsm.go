// Package entity содержит простое поведение демо-персонажей:
// конечный автомат из простоя и блуждания по шуму Перлина.
package entity

import (
	"math"
	"math/rand/v2"

	"github.com/annel0/rewind/internal/util"
	"github.com/annel0/rewind/internal/vec"
)

// Agent то, чем управляет автомат
type Agent interface {
	Location() vec.Vec3
	// SetInput задаёт желаемое направление движения; нулевой вектор означает стоять
	SetInput(dir vec.Vec3)
	Jump()
}

// State представляет состояние конечного автомата
type State interface {
	Enter(b *Brain, a Agent)
	Update(b *Brain, a Agent, dt float64) State
	Exit(b *Brain, a Agent)
}

// Brain автомат одного персонажа
type Brain struct {
	current State
	noise   *util.Noise
	rng     *rand.Rand
	// смещение в поле шума, чтобы персонажи не ходили одинаково
	offset float64
	// время жизни автомата
	age float64
	// дальше этого радиуса от Home персонаж разворачивается
	Home   vec.Vec3
	Radius float64
}

// NewBrain создаёт автомат в состоянии простоя
func NewBrain(seed uint64, noise *util.Noise, home vec.Vec3) *Brain {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	b := &Brain{
		noise:  noise,
		rng:    rng,
		offset: rng.Float64() * 1000,
		Home:   home,
		Radius: 1500,
	}
	return b
}

// State возвращает текущее состояние
func (b *Brain) State() State { return b.current }

// Update обновляет состояние; при смене вызываются Exit и Enter
func (b *Brain) Update(a Agent, dt float64) {
	b.age += dt
	if b.current == nil {
		b.SetState(a, b.newIdle())
		return
	}
	next := b.current.Update(b, a, dt)
	if next != b.current {
		b.SetState(a, next)
	}
}

// SetState устанавливает новое состояние
func (b *Brain) SetState(a Agent, s State) {
	if b.current != nil {
		b.current.Exit(b, a)
	}
	b.current = s
	if b.current != nil {
		b.current.Enter(b, a)
	}
}

func (b *Brain) between(lo, hi float64) float64 {
	return lo + b.rng.Float64()*(hi-lo)
}

func (b *Brain) newIdle() *IdleState {
	return &IdleState{Duration: b.between(1, 3)}
}

func (b *Brain) newWander() *WanderState {
	return &WanderState{Duration: b.between(3, 8)}
}

// IdleState - состояние бездействия
type IdleState struct {
	TimeInState float64
	Duration    float64
}

func (s *IdleState) Enter(b *Brain, a Agent) {
	s.TimeInState = 0
	a.SetInput(vec.Zero)
}

func (s *IdleState) Update(b *Brain, a Agent, dt float64) State {
	s.TimeInState += dt
	if s.TimeInState >= s.Duration {
		return b.newWander()
	}
	return s
}

func (s *IdleState) Exit(b *Brain, a Agent) {}

// WanderState - блуждание: направление плавно меняется по шуму,
// у границы участка персонаж поворачивает к дому
type WanderState struct {
	TimeInState float64
	Duration    float64
	Direction   vec.Vec3
	jumped      bool
}

func (s *WanderState) Enter(b *Brain, a Agent) {
	s.TimeInState = 0
	s.jumped = false
}

func (s *WanderState) Update(b *Brain, a Agent, dt float64) State {
	s.TimeInState += dt
	if s.TimeInState >= s.Duration {
		return b.newIdle()
	}

	angle := b.noise.Angle(b.offset, b.age*0.2)
	dir := vec.Vec3{math.Cos(angle), math.Sin(angle), 0}

	toHome := vec.Horizontal(b.Home.Sub(a.Location()))
	if toHome.Len() > b.Radius {
		dir = toHome.Normalize()
	}
	s.Direction = dir
	a.SetInput(dir)

	// Прыжок один раз посреди прогулки
	if !s.jumped && s.TimeInState > s.Duration/2 {
		s.jumped = true
		a.Jump()
	}
	return s
}

func (s *WanderState) Exit(b *Brain, a Agent) {
	a.SetInput(vec.Zero)
}
