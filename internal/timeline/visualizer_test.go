package timeline

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/rewind/internal/snapshot"
	"github.com/annel0/rewind/internal/vec"
)

// storeAlong записывает n сэмплов вдоль оси X с шагом spacing, раз в 0.1 секунды
func storeAlong(n int, spacing float64) *snapshot.Store {
	cfg := snapshot.DefaultConfig()
	cfg.SampleInterval = 0.1
	s := snapshot.NewStore(cfg)
	for i := 0; i < n; i++ {
		s.Record(0.1, snapshot.Sample{Transform: vec.At(vec.Vec3{float64(i) * spacing, 0, 0})}, nil)
	}
	return s
}

func TestBuildMarkers(t *testing.T) {
	t.Run("Первый и последний всегда", func(t *testing.T) {
		s := storeAlong(3, 1)
		markers := BuildMarkers(s, 10, 30)
		require.Len(t, markers, 2)
		assert.Equal(t, 0.0, markers[0].Location.X())
		assert.Equal(t, 2.0, markers[1].Location.X())
	})

	t.Run("Каденция и расстояние", func(t *testing.T) {
		// 21 запись, 100 единиц между записями, маркер раз в 0.5 с
		s := storeAlong(21, 100)
		markers := BuildMarkers(s, 0.5, 30)
		xs := make([]float64, 0, len(markers))
		for _, m := range markers {
			xs = append(xs, m.Location.X())
		}
		assert.Equal(t, []float64{0, 500, 1000, 1500, 2000}, xs)
	})

	t.Run("Близкие точки отбрасываются", func(t *testing.T) {
		s := storeAlong(21, 1)
		markers := BuildMarkers(s, 0.5, 30)
		assert.Len(t, markers, 2, "объект почти стоит на месте")
	})

	t.Run("Маркер смотрит на следующий", func(t *testing.T) {
		cfg := snapshot.DefaultConfig()
		cfg.SampleInterval = 0.1
		s := snapshot.NewStore(cfg)
		s.Record(0.1, snapshot.Sample{Transform: vec.At(vec.Vec3{0, 0, 0})}, nil)
		s.Record(0.1, snapshot.Sample{Transform: vec.At(vec.Vec3{0, 100, 0})}, nil)

		markers := BuildMarkers(s, 0.5, 30)
		require.Len(t, markers, 2)
		dir := markers[0].Rotation.Rotate(vec.Forward)
		assert.True(t, vec.NearlyEqual(vec.Vec3{0, 1, 0}, dir, 1e-9))
	})
}

func TestVisualizerUpdate(t *testing.T) {
	r := NewMemoryRenderer()
	v := New(r, Config{SecondsPerMarker: 0.5, MinMarkerDistance: 30}, Color{R: 255})

	s := storeAlong(11, 100)

	assert.False(t, v.Update(s, 0.2), "раньше каденции не пересчитывается")
	assert.Zero(t, r.Count())

	require.True(t, v.Update(s, 0.5))
	assert.Equal(t, 3, r.Count())
	rev := r.Revision()

	assert.False(t, v.Update(s, 0.7))

	t.Run("Неизменное начало не трогается", func(t *testing.T) {
		require.True(t, v.Update(s, 1.0))
		assert.Equal(t, rev, r.Revision(), "маркеры совпали, ничего не поменялось")
	})

	t.Run("Новый хвост добавляется", func(t *testing.T) {
		for i := 11; i < 16; i++ {
			s.Record(0.1, snapshot.Sample{Transform: vec.At(vec.Vec3{float64(i) * 100, 0, 0})}, nil)
		}
		require.True(t, v.Update(s, 1.5))
		markers := r.Markers()
		require.Len(t, markers, 4)
		assert.Equal(t, 1500.0, markers[3].Location.X())
	})

	t.Run("Обрезка будущего убирает маркеры", func(t *testing.T) {
		s.SetCursor(4)
		s.TrimFuture()
		require.True(t, v.Update(s, 2.0))
		markers := r.Markers()
		require.Len(t, markers, 2)
		assert.Equal(t, 400.0, markers[1].Location.X())
	})

	t.Run("Пустая история очищает", func(t *testing.T) {
		s.Clear()
		assert.False(t, v.Update(s, 3.0))
		assert.Zero(t, r.Count())
	})
}

func TestVisualizerClear(t *testing.T) {
	r := NewMemoryRenderer()
	v := New(r, Config{}, RandomColor(rand.New(rand.NewPCG(1, 2))))
	s := storeAlong(5, 100)

	require.True(t, v.Update(s, 10))
	v.Clear()
	assert.Zero(t, r.Count())
	assert.True(t, v.Update(s, 0.5), "после очистки отсчёт каденции начинается заново")

	c := v.Color()
	assert.True(t, c.R == 255 || c.G == 255 || c.B == 255)
}

func TestDebugPath(t *testing.T) {
	s := storeAlong(5, 10)
	s.SetCursor(2)

	p := DebugPath(s)
	require.Len(t, p.Points, 5)
	require.Len(t, p.Segments, 4)
	assert.Equal(t, 2, p.Cursor)

	for i, pt := range p.Points {
		assert.Equal(t, i > 2, pt.Future, "точка %d", i)
	}
	assert.Equal(t, pastPointSize, p.Points[2].Size)
	assert.Equal(t, futurePointSize, p.Points[3].Size)
	assert.False(t, p.Segments[1].Future)
	assert.True(t, p.Segments[2].Future)
	assert.Equal(t, vec.Vec3{20, 0, 0}, p.Segments[2].From)

	empty := DebugPath(snapshot.NewStore(snapshot.DefaultConfig()))
	assert.Empty(t, empty.Points)
	assert.Empty(t, empty.Segments)
}
