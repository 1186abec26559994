package snapshot

// ring кольцевой буфер фиксированной ёмкости с доступом по индексу.
// Индекс 0 всегда указывает на самый старый элемент.
type ring[T any] struct {
	buf  []T
	head int
	size int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) Len() int  { return r.size }
func (r *ring[T]) Cap() int  { return len(r.buf) }
func (r *ring[T]) Full() bool { return r.size == len(r.buf) }

func (r *ring[T]) slot(i int) int {
	return (r.head + i) % len(r.buf)
}

// PushBack добавляет элемент в конец. Если буфер полон, старейший элемент вытесняется.
func (r *ring[T]) PushBack(v T) {
	if r.Full() {
		r.PopFront()
	}
	r.buf[r.slot(r.size)] = v
	r.size++
}

// PopFront удаляет самый старый элемент
func (r *ring[T]) PopFront() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}
	v := r.buf[r.head]
	r.buf[r.head] = zero
	r.head = (r.head + 1) % len(r.buf)
	r.size--
	return v, true
}

// PopBack удаляет самый новый элемент
func (r *ring[T]) PopBack() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}
	idx := r.slot(r.size - 1)
	v := r.buf[idx]
	r.buf[idx] = zero
	r.size--
	return v, true
}

// At возвращает элемент по индексу от самого старого
func (r *ring[T]) At(i int) (T, bool) {
	var zero T
	if i < 0 || i >= r.size {
		return zero, false
	}
	return r.buf[r.slot(i)], true
}

// Clear очищает буфер без освобождения памяти
func (r *ring[T]) Clear() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.head = 0
	r.size = 0
}
