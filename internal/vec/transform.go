package vec

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform положение, поворот и масштаб объекта в мире
type Transform struct {
	Location Vec3 `json:"location"`
	Rotation Quat `json:"rotation"`
	Scale    Vec3 `json:"scale"`
}

// Identity возвращает трансформ в начале координат без поворота
func Identity() Transform {
	return Transform{Rotation: mgl64.QuatIdent(), Scale: One}
}

// NewTransform создает трансформ с единичным масштабом
func NewTransform(location Vec3, rotation Quat) Transform {
	return Transform{Location: location, Rotation: rotation, Scale: One}
}

// At возвращает трансформ в точке без поворота
func At(location Vec3) Transform {
	return NewTransform(location, mgl64.QuatIdent())
}

// Blend смешивает два трансформа: положение и масштаб линейно, поворот по сфере.
func Blend(a, b Transform, alpha float64) Transform {
	return Transform{
		Location: Lerp(a.Location, b.Location, alpha),
		Rotation: Slerp(a.Rotation, b.Rotation, alpha),
		Scale:    Lerp(a.Scale, b.Scale, alpha),
	}
}

// Equals сравнивает трансформы с допуском.
// Кватернионы q и -q задают один и тот же поворот.
func (t Transform) Equals(other Transform, tolerance float64) bool {
	if !NearlyEqual(t.Location, other.Location, tolerance) || !NearlyEqual(t.Scale, other.Scale, tolerance) {
		return false
	}
	return math.Abs(math.Abs(t.Rotation.Dot(other.Rotation))-1) <= tolerance
}

// Forward возвращает направление взгляда трансформа
func (t Transform) Forward() Vec3 {
	return t.Rotation.Rotate(Forward)
}

// Slerp интерполирует поворот по кратчайшей дуге
func Slerp(a, b Quat, alpha float64) Quat {
	if a == b || alpha <= 0 {
		return a
	}
	if alpha >= 1 {
		return b
	}
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl64.QuatSlerp(a, b, alpha)
}

// LookAt возвращает поворот, направляющий ось Forward из from в to.
// Для совпадающих точек возвращается единичный поворот.
func LookAt(from, to Vec3) Quat {
	dir := to.Sub(from)
	if dir.Len() < 1e-9 {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatBetweenVectors(Forward, dir.Normalize())
}

// Yaw возвращает поворот вокруг вертикали по направлению на плоскости
func Yaw(dir Vec3) Quat {
	h := Horizontal(dir)
	if h.Len() < 1e-9 {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatRotate(math.Atan2(h[1], h[0]), Up)
}

// Integrate поворачивает q на угловую скорость omega (рад/с) за dt
func Integrate(q Quat, omega Vec3, dt float64) Quat {
	angle := omega.Len() * dt
	if angle < 1e-12 {
		return q
	}
	step := mgl64.QuatRotate(angle, omega.Normalize())
	return step.Mul(q).Normalize()
}
