package snapshot

import "math"

const (
	// MiB один мегабайт
	MiB = 1 << 20
	// DefaultByteCeiling потолок памяти на историю одного объекта
	DefaultByteCeiling = MiB
	// DefaultMotionByteCeiling потолок при записи скорости и режима движения
	DefaultMotionByteCeiling = 3 * MiB
	// DefaultSampleInterval 30 записей в секунду
	DefaultSampleInterval = 1.0 / 30.0
	// DefaultMaxSeconds глубина истории по умолчанию
	DefaultMaxSeconds = 120.0

	minSampleInterval = 1e-3
	// допуск на ошибку округления при делении глубины на интервал
	capacityEpsilon = 1e-9
)

// Config описывает параметры хранилища одного объекта
type Config struct {
	// Owner используется только в диагностике
	Owner             string
	SampleInterval    float64
	MaxSeconds        float64
	TrackMotion       bool
	ByteCeiling       int
	MotionByteCeiling int
}

// DefaultConfig возвращает параметры по умолчанию
func DefaultConfig() Config {
	return Config{
		SampleInterval:    DefaultSampleInterval,
		MaxSeconds:        DefaultMaxSeconds,
		ByteCeiling:       DefaultByteCeiling,
		MotionByteCeiling: DefaultMotionByteCeiling,
	}
}

// CapacityPlan результат расчета ёмкости
type CapacityPlan struct {
	Requested    int  `json:"requested"`
	Capacity     int  `json:"capacity"`
	SampleBytes  int  `json:"sample_bytes"`
	CeilingBytes int  `json:"ceiling_bytes"`
	Clamped      bool `json:"clamped"`
}

// Bytes возвращает объём памяти под историю
func (p CapacityPlan) Bytes() int {
	return p.Capacity * p.SampleBytes
}

func (c Config) interval() float64 {
	if c.SampleInterval < minSampleInterval {
		return minSampleInterval
	}
	return c.SampleInterval
}

// Plan рассчитывает ёмкость: глубина истории, деленная на интервал,
// но не больше, чем помещается в потолок памяти.
func (c Config) Plan() CapacityPlan {
	plan := CapacityPlan{
		SampleBytes:  SampleSize,
		CeilingBytes: c.ByteCeiling,
	}
	if c.TrackMotion {
		plan.SampleBytes += MotionSampleSize
		plan.CeilingBytes = c.MotionByteCeiling
	}
	if plan.CeilingBytes <= 0 {
		if c.TrackMotion {
			plan.CeilingBytes = DefaultMotionByteCeiling
		} else {
			plan.CeilingBytes = DefaultByteCeiling
		}
	}

	requested := 1
	if c.MaxSeconds > 0 {
		requested = int(math.Ceil(c.MaxSeconds/c.interval() - capacityEpsilon))
	}
	if requested < 1 {
		requested = 1
	}
	plan.Requested = requested

	limit := plan.CeilingBytes / plan.SampleBytes
	if limit < 1 {
		limit = 1
	}
	plan.Capacity = min(requested, limit)
	plan.Clamped = requested > limit
	return plan
}
