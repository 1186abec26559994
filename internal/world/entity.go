package world

import (
	"github.com/google/uuid"

	"github.com/annel0/rewind/internal/entity"
	"github.com/annel0/rewind/internal/eventbus"
	"github.com/annel0/rewind/internal/rewind"
	"github.com/annel0/rewind/internal/timeline"
	"github.com/annel0/rewind/internal/vec"
)

// Kind вид объекта сцены
type Kind string

const (
	KindCharacter Kind = "character"
	KindProp      Kind = "prop"
)

// Entity объект сцены вместе с его историей и маркерами
type Entity struct {
	ID         uuid.UUID
	Name       string
	Kind       Kind
	Controller *rewind.Controller
	Visualizer *timeline.Visualizer
	Markers    *timeline.MemoryRenderer

	// Ровно одно из двух не nil
	Character *Character
	Prop      *Prop

	brain *entity.Brain
	subs  []eventbus.Subscription
}

func (e *Entity) simulate(dt float64) {
	switch {
	case e.Character != nil:
		if e.brain != nil && !e.Controller.IsTimeBeingManipulated() {
			e.brain.Update(e.Character, dt)
		}
		e.Character.Simulate(dt)
	case e.Prop != nil:
		e.Prop.Simulate(dt)
	}
}

func (e *Entity) transform() vec.Transform {
	if e.Character != nil {
		return e.Character.Transform()
	}
	return e.Prop.Transform()
}

func (e *Entity) close() {
	for _, s := range e.subs {
		s.Unsubscribe()
	}
	e.subs = nil
	e.Controller.Close()
}

// EntityInfo описание объекта для отладочного API
type EntityInfo struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Kind      Kind           `json:"kind"`
	Transform vec.Transform  `json:"transform"`
	Status    rewind.Status  `json:"status"`
	Color     timeline.Color `json:"color"`
	Camera    *Camera        `json:"camera,omitempty"`
	Grounded  *bool          `json:"grounded,omitempty"`
}

// Info собирает описание объекта
func (e *Entity) Info() EntityInfo {
	info := EntityInfo{
		ID:        e.ID.String(),
		Name:      e.Name,
		Kind:      e.Kind,
		Transform: e.transform(),
		Status:    e.Controller.Status(),
		Color:     e.Visualizer.Color(),
	}
	if e.Character != nil {
		cam := e.Character.Camera()
		info.Camera = &cam
	}
	if e.Prop != nil {
		grounded := e.Prop.Body().Grounded()
		info.Grounded = &grounded
	}
	return info
}

// Timeline маркеры и отладочный путь объекта
type Timeline struct {
	Markers []vec.Transform `json:"markers"`
	Path    timeline.Path   `json:"path"`
	Color   timeline.Color  `json:"color"`
}

// Timeline собирает маркеры и путь истории
func (e *Entity) Timeline() Timeline {
	return Timeline{
		Markers: e.Markers.Markers(),
		Path:    timeline.DebugPath(e.Controller.History()),
		Color:   e.Visualizer.Color(),
	}
}
