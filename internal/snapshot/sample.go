package snapshot

import (
	"unsafe"

	"github.com/annel0/rewind/internal/vec"
)

// MovementMode режим передвижения персонажа
type MovementMode uint8

const (
	MovementNone MovementMode = iota
	MovementGrounded
	MovementFalling
	MovementFlying
	MovementSwimming
)

// String возвращает строковое представление режима
func (m MovementMode) String() string {
	switch m {
	case MovementGrounded:
		return "grounded"
	case MovementFalling:
		return "falling"
	case MovementFlying:
		return "flying"
	case MovementSwimming:
		return "swimming"
	default:
		return "none"
	}
}

// MarshalText позволяет отдавать режим в JSON строкой
func (m MovementMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Sample запись состояния объекта в один момент времени.
// Elapsed хранит время, прошедшее с предыдущей записи.
type Sample struct {
	Elapsed         float64       `json:"elapsed"`
	Transform       vec.Transform `json:"transform"`
	LinearVelocity  vec.Vec3      `json:"linear_velocity"`
	AngularVelocity vec.Vec3      `json:"angular_velocity"`
}

// MotionSample скорость и режим движения персонажа в момент записи
type MotionSample struct {
	Elapsed  float64      `json:"elapsed"`
	Velocity vec.Vec3     `json:"velocity"`
	Mode     MovementMode `json:"mode"`
}

const (
	// SampleSize размер одной записи в байтах
	SampleSize = int(unsafe.Sizeof(Sample{}))
	// MotionSampleSize размер записи движения в байтах
	MotionSampleSize = int(unsafe.Sizeof(MotionSample{}))
)
