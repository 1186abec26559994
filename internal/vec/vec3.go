package vec

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 представляет трехмерный вектор с плавающими координатами
type Vec3 = mgl64.Vec3

// Quat представляет кватернион поворота
type Quat = mgl64.Quat

var (
	// Zero нулевой вектор
	Zero = Vec3{}
	// One единичный масштаб
	One = Vec3{1, 1, 1}
	// Forward ось, куда "смотрит" объект с единичным поворотом
	Forward = Vec3{1, 0, 0}
	// Up вертикальная ось сцены
	Up = Vec3{0, 0, 1}
)

// Lerp линейно интерполирует между a и b, alpha ограничивается отрезком [0,1].
// При a == b результат в точности равен a для любого alpha.
func Lerp(a, b Vec3, alpha float64) Vec3 {
	if alpha <= 0 {
		return a
	}
	if alpha >= 1 {
		return b
	}
	return a.Add(b.Sub(a).Mul(alpha))
}

// LerpScalar то же для чисел
func LerpScalar(a, b, alpha float64) float64 {
	if alpha <= 0 {
		return a
	}
	if alpha >= 1 {
		return b
	}
	return a + (b-a)*alpha
}

// DistSquared возвращает квадрат расстояния между точками
func DistSquared(a, b Vec3) float64 {
	d := b.Sub(a)
	return d.Dot(d)
}

// Horizontal отбрасывает вертикальную составляющую
func Horizontal(v Vec3) Vec3 {
	return Vec3{v[0], v[1], 0}
}

// NearlyEqual сравнивает векторы покомпонентно с допуском
func NearlyEqual(a, b Vec3, tolerance float64) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(a[i]-b[i]) > tolerance {
			return false
		}
	}
	return true
}

// ClampLength ограничивает длину вектора
func ClampLength(v Vec3, maxLen float64) Vec3 {
	l := v.Len()
	if l <= maxLen || l == 0 {
		return v
	}
	return v.Mul(maxLen / l)
}
