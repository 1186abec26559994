package util

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// Noise генератор шума Перлина с фиксированным сидом
type Noise struct {
	p *perlin.Perlin
}

// NewNoise создаёт генератор шума Перлина с указанным сидом
func NewNoise(seed int64) *Noise {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &Noise{p: perlin.NewPerlin(alpha, beta, n, seed)}
}

// Sample2D возвращает значение шума для указанных координат (от 0 до 1)
func (n *Noise) Sample2D(x, y float64) float64 {
	v := n.p.Noise2D(x, y)
	return math.Max(0, math.Min(1, (v+1.0)/2.0))
}

// Angle переводит шум в угол от -π до π; соседние точки дают близкие углы
func (n *Noise) Angle(x, y float64) float64 {
	return (n.Sample2D(x, y)*2 - 1) * math.Pi
}
