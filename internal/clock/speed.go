package clock

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSpeed возвращается для неизвестного имени ступени
var ErrUnknownSpeed = errors.New("unknown speed preset")

// Speed ступень скорости времени
type Speed int

const (
	SpeedSlowest Speed = iota
	SpeedSlower
	SpeedNormal
	SpeedFaster
	SpeedFastest
)

var speedNames = [...]string{"slowest", "slower", "normal", "faster", "fastest"}

func (s Speed) String() string {
	if s < SpeedSlowest || s > SpeedFastest {
		return "unknown"
	}
	return speedNames[s]
}

// ParseSpeed разбирает имя ступени
func ParseSpeed(name string) (Speed, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range speedNames {
		if n == name {
			return Speed(i), nil
		}
	}
	return SpeedNormal, fmt.Errorf("%w: %q", ErrUnknownSpeed, name)
}

// Presets множители для каждой ступени
type Presets struct {
	Slowest float64 `yaml:"slowest"`
	Slower  float64 `yaml:"slower"`
	Normal  float64 `yaml:"normal"`
	Faster  float64 `yaml:"faster"`
	Fastest float64 `yaml:"fastest"`
}

// DefaultPresets возвращает 0.25x, 0.5x, 1x, 2x, 4x
func DefaultPresets() Presets {
	return Presets{Slowest: 0.25, Slower: 0.5, Normal: 1, Faster: 2, Fastest: 4}
}

// Rate возвращает множитель ступени
func (p Presets) Rate(s Speed) float64 {
	switch s {
	case SpeedSlowest:
		return p.Slowest
	case SpeedSlower:
		return p.Slower
	case SpeedFaster:
		return p.Faster
	case SpeedFastest:
		return p.Fastest
	default:
		return p.Normal
	}
}

func (p Presets) valid() bool {
	return p.Slowest > 0 && p.Slower > 0 && p.Normal > 0 && p.Faster > 0 && p.Fastest > 0
}
