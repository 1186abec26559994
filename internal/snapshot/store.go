package snapshot

import (
	"fmt"

	"github.com/annel0/rewind/internal/logging"
)

// Observer получает уведомления об изменениях хранилища (метрики)
type Observer interface {
	SampleRecorded()
	SamplesEvicted(n int)
	SamplesTrimmed(n int)
	CapacityClamped()
}

// View доступ к истории только на чтение
type View interface {
	Len() int
	At(i int) (Sample, bool)
	Cursor() int
}

// Stats состояние хранилища для отладки
type Stats struct {
	Len         int          `json:"len"`
	Cursor      int          `json:"cursor"`
	Plan        CapacityPlan `json:"plan"`
	TrackMotion bool         `json:"track_motion"`
	Recorded    uint64       `json:"recorded"`
	Evicted     uint64       `json:"evicted"`
	Trimmed     uint64       `json:"trimmed"`
}

// Store ограниченная история записей одного объекта с курсором воспроизведения.
// Не потокобезопасен: вызывается только из цикла сцены.
type Store struct {
	cfg  Config
	plan CapacityPlan

	samples *ring[Sample]
	motion  *ring[MotionSample]

	// время, накопленное с последней записи
	sinceRecorded float64
	cursor        int

	recorded uint64
	evicted  uint64
	trimmed  uint64

	observer Observer
}

// Option настраивает Store
type Option func(*Store)

// WithObserver подключает наблюдателя
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// NewStore создает хранилище с заранее выделенной памятью
func NewStore(cfg Config, opts ...Option) *Store {
	plan := cfg.Plan()
	s := &Store{
		cfg:     cfg,
		plan:    plan,
		samples: newRing[Sample](plan.Capacity),
		cursor:  -1,
	}
	if cfg.TrackMotion {
		s.motion = newRing[MotionSample](plan.Capacity)
	}
	for _, opt := range opts {
		opt(s)
	}

	if plan.Clamped {
		logging.Warn("⚠️ История %q урезана: запрошено %d записей (%d байт), потолок %d байт, ёмкость %d",
			cfg.Owner, plan.Requested, plan.Requested*plan.SampleBytes, plan.CeilingBytes, plan.Capacity)
		if s.observer != nil {
			s.observer.CapacityClamped()
		}
	}
	return s
}

// Len возвращает число записей
func (s *Store) Len() int { return s.samples.Len() }

// Capacity возвращает максимальное число записей
func (s *Store) Capacity() int { return s.plan.Capacity }

// TrackMotion сообщает, ведется ли параллельная история движения
func (s *Store) TrackMotion() bool { return s.motion != nil }

// Cursor возвращает индекс текущей записи или -1 для пустой истории
func (s *Store) Cursor() int { return s.cursor }

// Last возвращает индекс самой новой записи или -1
func (s *Store) Last() int { return s.samples.Len() - 1 }

// Config возвращает параметры хранилища
func (s *Store) Config() Config { return s.cfg }

// At возвращает запись по индексу
func (s *Store) At(i int) (Sample, bool) { return s.samples.At(i) }

// MotionAt возвращает запись движения по индексу
func (s *Store) MotionAt(i int) (MotionSample, bool) {
	if s.motion == nil {
		return MotionSample{}, false
	}
	return s.motion.At(i)
}

// Record накапливает dt и добавляет запись, если с прошлой прошло не меньше интервала.
// Первая запись в пустую историю делается сразу. Возвращает true, если запись добавлена.
func (s *Store) Record(dt float64, sample Sample, motion *MotionSample) bool {
	s.sinceRecorded += dt
	if s.samples.Len() > 0 && s.sinceRecorded < s.cfg.interval() {
		return false
	}

	if s.samples.Full() {
		s.samples.PopFront()
		if s.motion != nil {
			s.motion.PopFront()
		}
		s.evicted++
		if s.observer != nil {
			s.observer.SamplesEvicted(1)
		}
	}

	sample.Elapsed = s.sinceRecorded
	s.samples.PushBack(sample)
	if s.motion != nil {
		var m MotionSample
		if motion != nil {
			m = *motion
		}
		m.Elapsed = s.sinceRecorded
		s.motion.PushBack(m)
	}

	s.sinceRecorded = 0
	s.cursor = s.Last()
	s.recorded++
	if s.observer != nil {
		s.observer.SampleRecorded()
	}
	s.checkInvariants()
	return true
}

// TrimFuture отбрасывает все записи после курсора и возвращает их число.
// Накопитель записи сбрасывается: следующая запись отсчитывается от курсора.
func (s *Store) TrimFuture() int {
	n := 0
	for s.cursor < s.Last() {
		s.samples.PopBack()
		if s.motion != nil {
			s.motion.PopBack()
		}
		n++
	}
	s.sinceRecorded = 0
	if n > 0 {
		s.trimmed += uint64(n)
		if s.observer != nil {
			s.observer.SamplesTrimmed(n)
		}
	}
	s.checkInvariants()
	return n
}

// SetCursor ставит курсор в пределах истории и возвращает итоговый индекс
func (s *Store) SetCursor(i int) int {
	if s.samples.Len() == 0 {
		s.cursor = -1
		return s.cursor
	}
	s.cursor = max(0, min(i, s.Last()))
	return s.cursor
}

// Step сдвигает курсор на delta с ограничением по границам
func (s *Store) Step(delta int) int {
	return s.SetCursor(s.cursor + delta)
}

// Clear удаляет всю историю
func (s *Store) Clear() {
	s.samples.Clear()
	if s.motion != nil {
		s.motion.Clear()
	}
	s.cursor = -1
	s.sinceRecorded = 0
}

// Stats возвращает состояние хранилища
func (s *Store) Stats() Stats {
	return Stats{
		Len:         s.Len(),
		Cursor:      s.cursor,
		Plan:        s.plan,
		TrackMotion: s.TrackMotion(),
		Recorded:    s.recorded,
		Evicted:     s.evicted,
		Trimmed:     s.trimmed,
	}
}

func (s *Store) checkInvariants() {
	invariant(s.samples.Len() <= s.plan.Capacity, "history %q over capacity: %d > %d", s.cfg.Owner, s.samples.Len(), s.plan.Capacity)
	if s.motion != nil {
		invariant(s.motion.Len() == s.samples.Len(), "history %q motion out of lockstep: %d != %d", s.cfg.Owner, s.motion.Len(), s.samples.Len())
	}
	if s.samples.Len() == 0 {
		invariant(s.cursor == -1, "history %q empty with cursor %d", s.cfg.Owner, s.cursor)
		return
	}
	invariant(s.cursor >= 0 && s.cursor <= s.Last(), "history %q cursor %d out of [0,%d]", s.cfg.Owner, s.cursor, s.Last())
}

// String нужен для отладочного вывода
func (s *Store) String() string {
	return fmt.Sprintf("Store{%s len=%d/%d cursor=%d}", s.cfg.Owner, s.Len(), s.plan.Capacity, s.cursor)
}
