package world

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/rewind/internal/clock"
	"github.com/annel0/rewind/internal/observability"
	"github.com/annel0/rewind/internal/rewind"
	"github.com/annel0/rewind/internal/vec"
)

const dt = 1.0 / 60

func newScene(t *testing.T, metrics *observability.RewindMetrics) *Scene {
	t.Helper()
	s := New(clock.New(clock.DefaultOptions()), Options{TickRate: 60, Seed: 3, Metrics: metrics})
	t.Cleanup(s.Close)
	return s
}

func characterConfig(name string) rewind.Config {
	cfg := rewind.DefaultConfig(name)
	cfg.TrackMotion = true
	cfg.PauseAnimationDuringScrub = true
	return cfg
}

func run(s *Scene, ticks int) {
	for i := 0; i < ticks; i++ {
		s.Tick(dt)
	}
}

func TestSceneRecords(t *testing.T) {
	s := newScene(t, nil)
	ch := s.AddCharacter(characterConfig("bot"), vec.Vec3{0, 0, 0})
	box := s.AddProp(rewind.DefaultConfig("box"), vec.Vec3{0, 0, 300}, 50)

	run(s, 120)

	assert.Greater(t, ch.Controller.History().Len(), 50)
	assert.Greater(t, box.Controller.History().Len(), 50)
	assert.Less(t, box.Prop.Transform().Location.Z(), 300.0, "ящик падает")
	assert.Equal(t, 2, s.Stats().Entities)
	assert.Equal(t, uint64(120), s.Stats().Ticks)
	assert.InDelta(t, 2.0, s.Now(), 1e-9)

	first, ok := box.Controller.History().At(0)
	require.True(t, ok)
	assert.Greater(t, first.Transform.Location.Z(), box.Prop.Transform().Location.Z(), "в начале истории ящик выше")
}

func TestSceneRewindDrivesEntities(t *testing.T) {
	s := newScene(t, nil)
	ch := s.AddCharacter(characterConfig("bot"), vec.Vec3{0, 0, 0})
	box := s.AddProp(rewind.DefaultConfig("box"), vec.Vec3{0, 0, 500}, 50)
	clk := s.Clock()

	// Персонаж идёт вдоль X без автомата
	ch.brain = nil
	ch.Character.SetInput(vec.Vec3{1, 0, 0})
	run(s, 60)
	walked := ch.Character.Location().X()
	require.Greater(t, walked, 400.0)
	fallen := box.Prop.Transform().Location.Z()

	require.True(t, clk.StartRewind())
	assert.Equal(t, ViewOrbit, ch.Character.ViewMode())
	assert.False(t, box.Prop.Body().IsSimulatingPhysics(), "физика на паузе во время перемотки")

	ch.Character.SetInput(vec.Vec3{0, 1, 0})
	ch.Character.Jump()
	ch.Character.Look(30, 100)
	cam := ch.Character.Camera()
	assert.Equal(t, 30.0, cam.Yaw)
	assert.Equal(t, -80.0, cam.Pitch, "наклон камеры ограничен")

	run(s, 30)
	assert.Less(t, ch.Character.Location().X(), walked, "перемотка ведёт персонажа назад")
	assert.Greater(t, box.Prop.Transform().Location.Z(), fallen, "ящик поднимается обратно")

	require.True(t, clk.StopRewind())
	assert.Equal(t, ViewFollow, ch.Character.ViewMode())
	assert.True(t, box.Prop.Body().IsSimulatingPhysics())
	assert.Equal(t, 1, box.Prop.Body().Resets())

	// Ввод во время перемотки был проигнорирован: персонаж продолжает идти вдоль X
	before := ch.Character.Location()
	run(s, 10)
	after := ch.Character.Location()
	assert.Greater(t, after.X(), before.X())
	assert.InDelta(t, before.Y(), after.Y(), 1e-9)
}

func TestSceneScrubPausesAnimation(t *testing.T) {
	s := newScene(t, nil)
	ch := s.AddCharacter(characterConfig("bot"), vec.Vec3{})
	run(s, 30)

	s.Clock().ToggleScrub()
	run(s, 5)
	assert.True(t, ch.Character.AnimationPaused())
	animTime := ch.Character.AnimationTime()
	run(s, 5)
	assert.Equal(t, animTime, ch.Character.AnimationTime(), "во время паузы анимация стоит")

	s.Clock().ToggleScrub()
	assert.False(t, ch.Character.AnimationPaused())
	assert.Equal(t, ViewFollow, ch.Character.ViewMode())
}

func TestSceneVisualization(t *testing.T) {
	s := newScene(t, nil)
	ch := s.AddCharacter(characterConfig("bot"), vec.Vec3{})
	ch.brain = nil
	ch.Character.SetInput(vec.Vec3{1, 0, 0})

	run(s, 60)
	assert.Zero(t, ch.Markers.Count(), "без визуализации маркеров нет")

	require.True(t, s.Clock().ToggleVisualization())
	run(s, 60)
	assert.GreaterOrEqual(t, ch.Markers.Count(), 2)

	tl := ch.Timeline()
	assert.Equal(t, ch.Markers.Count(), len(tl.Markers))
	assert.Equal(t, ch.Controller.History().Len(), len(tl.Path.Points))

	require.False(t, s.Clock().ToggleVisualization())
	assert.Zero(t, ch.Markers.Count(), "выключение очищает маркеры")
}

func TestSceneMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewRewindMetrics(reg)
	s := newScene(t, m)
	s.AddCharacter(characterConfig("bot"), vec.Vec3{})
	run(s, 30)

	assert.Greater(t, m.Totals().Recorded, uint64(0))

	s.Clock().ToggleScrub()
	s.Clock().StartRewind()
	s.Clock().StopRewind()
	s.Clock().ToggleScrub()
	require.NoError(t, s.Clock().SetSpeedByName("fastest"))
	run(s, 1)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetGauge() != nil:
				values[f.GetName()] = metric.GetGauge().GetValue()
			case metric.GetCounter() != nil && f.GetName() == "rewind_manipulations_total":
				key := f.GetName()
				for _, l := range metric.GetLabel() {
					key += "_" + l.GetValue()
				}
				values[key] = metric.GetCounter().GetValue()
			}
		}
	}

	assert.Equal(t, 4.0, values["rewind_clock_rate"])
	assert.Equal(t, 1.0, values["rewind_manipulations_total_scrub_started"])
	assert.Equal(t, 1.0, values["rewind_manipulations_total_rewind_completed"])
	assert.Equal(t, float64(s.Stats().StoredSamples), values["rewind_stored_samples"])
	n, err := testutil.GatherAndCount(reg, "rewind_tick_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSceneCommands(t *testing.T) {
	s := New(clock.New(clock.DefaultOptions()), Options{TickRate: 200})
	e := s.AddProp(rewind.DefaultConfig("box"), vec.Vec3{0, 0, 100}, 20)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	qctx, qcancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer qcancel()

	t.Run("Команда выполняется в цикле", func(t *testing.T) {
		started, err := Query(qctx, s, "rewind", func(s *Scene) (bool, error) {
			return s.Clock().StartRewind(), nil
		})
		require.NoError(t, err)
		assert.True(t, started)

		rewinding, err := Query(qctx, s, "state", func(s *Scene) (bool, error) {
			ent, err := s.Entity(e.ID)
			if err != nil {
				return false, err
			}
			return ent.Controller.IsRewinding(), nil
		})
		require.NoError(t, err)
		assert.True(t, rewinding)
	})

	t.Run("Ошибка команды возвращается", func(t *testing.T) {
		_, err := Query(qctx, s, "entity", func(s *Scene) (*Entity, error) {
			return s.Entity(uuid.New())
		})
		assert.True(t, errors.Is(err, ErrEntityNotFound))
	})

	t.Run("Паника не роняет цикл", func(t *testing.T) {
		err := s.Do(qctx, "panic", func(*Scene) error { panic("boom") })
		assert.Error(t, err)
		assert.NoError(t, s.Do(qctx, "noop", func(*Scene) error { return nil }))
	})

	cancel()
	require.NoError(t, <-done)

	err := s.Do(qctx, "late", func(*Scene) error { return nil })
	assert.ErrorIs(t, err, ErrSceneClosed, "после остановки команды не принимаются")
}

func TestSceneRemove(t *testing.T) {
	s := newScene(t, nil)
	a := s.AddProp(rewind.DefaultConfig("a"), vec.Vec3{0, 0, 100}, 20)
	b := s.AddProp(rewind.DefaultConfig("b"), vec.Vec3{0, 0, 100}, 20)

	require.NoError(t, s.Remove(a.ID))
	assert.ErrorIs(t, s.Remove(a.ID), ErrEntityNotFound)

	entities := s.Entities()
	require.Len(t, entities, 1)
	assert.Equal(t, b.ID, entities[0].ID)

	// Удалённый объект больше не реагирует на часы
	s.Clock().StartRewind()
	assert.False(t, a.Controller.IsRewinding())
	assert.True(t, b.Controller.IsRewinding())
}
