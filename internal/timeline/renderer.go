package timeline

import (
	"sync"

	"github.com/annel0/rewind/internal/vec"
)

// MarkerRenderer набор экземпляров маркеров, которые рисуются вдоль истории
type MarkerRenderer interface {
	Count() int
	Marker(i int) (vec.Transform, bool)
	Add(t vec.Transform)
	Update(i int, t vec.Transform) bool
	Remove(i int) bool
	Clear()
	// MarkDirty сообщает, что существующие маркеры поменялись
	MarkDirty()
}

// MemoryRenderer хранит маркеры в памяти; читать его можно из другой горутины
type MemoryRenderer struct {
	mu       sync.RWMutex
	markers  []vec.Transform
	revision uint64
}

var _ MarkerRenderer = (*MemoryRenderer)(nil)

// NewMemoryRenderer создаёт пустой набор маркеров
func NewMemoryRenderer() *MemoryRenderer {
	return &MemoryRenderer{}
}

func (r *MemoryRenderer) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.markers)
}

func (r *MemoryRenderer) Marker(i int) (vec.Transform, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.markers) {
		return vec.Transform{}, false
	}
	return r.markers[i], true
}

func (r *MemoryRenderer) Add(t vec.Transform) {
	r.mu.Lock()
	r.markers = append(r.markers, t)
	r.revision++
	r.mu.Unlock()
}

func (r *MemoryRenderer) Update(i int, t vec.Transform) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.markers) {
		return false
	}
	r.markers[i] = t
	return true
}

func (r *MemoryRenderer) Remove(i int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.markers) {
		return false
	}
	r.markers = append(r.markers[:i], r.markers[i+1:]...)
	r.revision++
	return true
}

func (r *MemoryRenderer) Clear() {
	r.mu.Lock()
	r.markers = r.markers[:0]
	r.revision++
	r.mu.Unlock()
}

func (r *MemoryRenderer) MarkDirty() {
	r.mu.Lock()
	r.revision++
	r.mu.Unlock()
}

// Revision растёт при каждом видимом изменении
func (r *MemoryRenderer) Revision() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.revision
}

// Markers возвращает копию маркеров
func (r *MemoryRenderer) Markers() []vec.Transform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]vec.Transform, len(r.markers))
	copy(out, r.markers)
	return out
}
