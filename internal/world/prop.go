package world

import (
	"github.com/annel0/rewind/internal/physics"
	"github.com/annel0/rewind/internal/vec"
)

// Prop физический предмет сцены (ящик), реализует rewind.Actor
type Prop struct {
	name      string
	transform vec.Transform
	body      *physics.Body
}

// NewProp создаёт ящик с ребром size в точке location
func NewProp(name string, location vec.Vec3, size float64) *Prop {
	return &Prop{
		name:      name,
		transform: vec.At(location),
		body:      physics.NewBody(physics.NewBoxCollider(size, size, size), physics.DefaultMaterial()),
	}
}

func (p *Prop) Name() string                 { return p.name }
func (p *Prop) Transform() vec.Transform     { return p.transform }
func (p *Prop) SetTransform(t vec.Transform) { p.transform = t }

// Body возвращает твёрдое тело предмета
func (p *Prop) Body() *physics.Body { return p.body }

// Simulate продвигает физику; на паузе тело не двигается
func (p *Prop) Simulate(dt float64) {
	p.transform = p.body.Step(p.transform, dt)
}
