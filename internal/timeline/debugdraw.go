package timeline

import (
	"github.com/annel0/rewind/internal/snapshot"
	"github.com/annel0/rewind/internal/vec"
)

const (
	pastPointSize   = 10.0
	futurePointSize = 8.0
)

// PathPoint точка истории; Future для записей после курсора
type PathPoint struct {
	Location vec.Vec3 `json:"location"`
	Size     float64  `json:"size"`
	Future   bool     `json:"future"`
}

// PathSegment отрезок между соседними записями
type PathSegment struct {
	From   vec.Vec3 `json:"from"`
	To     vec.Vec3 `json:"to"`
	Future bool     `json:"future"`
}

// Path отладочная отрисовка истории
type Path struct {
	Cursor   int           `json:"cursor"`
	Points   []PathPoint   `json:"points"`
	Segments []PathSegment `json:"segments"`
}

// DebugPath строит точки и отрезки по всей истории.
// Отрезок считается будущим, если ведёт к записи после курсора.
func DebugPath(view snapshot.View) Path {
	n := view.Len()
	cursor := view.Cursor()
	p := Path{
		Cursor:   cursor,
		Points:   make([]PathPoint, 0, n),
		Segments: make([]PathSegment, 0, max(n-1, 0)),
	}

	for i := 0; i < n; i++ {
		s, _ := view.At(i)
		future := i > cursor
		size := pastPointSize
		if future {
			size = futurePointSize
		}
		p.Points = append(p.Points, PathPoint{Location: s.Transform.Location, Size: size, Future: future})

		if i > 0 {
			prev, _ := view.At(i - 1)
			p.Segments = append(p.Segments, PathSegment{
				From:   prev.Transform.Location,
				To:     s.Transform.Location,
				Future: future,
			})
		}
	}
	return p
}
