package snapshot

import "github.com/annel0/rewind/internal/vec"

func clampAlpha(alpha float64) float64 {
	if alpha < 0 {
		return 0
	}
	if alpha > 1 {
		return 1
	}
	return alpha
}

// Blend смешивает две записи: alpha=0 дает a, alpha=1 дает b.
// Alpha за пределами [0,1] ограничивается.
func Blend(a, b Sample, alpha float64) Sample {
	alpha = clampAlpha(alpha)
	return Sample{
		Elapsed:         vec.LerpScalar(a.Elapsed, b.Elapsed, alpha),
		Transform:       vec.Blend(a.Transform, b.Transform, alpha),
		LinearVelocity:  vec.Lerp(a.LinearVelocity, b.LinearVelocity, alpha),
		AngularVelocity: vec.Lerp(a.AngularVelocity, b.AngularVelocity, alpha),
	}
}

// BlendMotion смешивает скорость линейно, а режим берет от ближайшей записи
func BlendMotion(a, b MotionSample, alpha float64) MotionSample {
	alpha = clampAlpha(alpha)
	mode := a.Mode
	if alpha >= 0.5 {
		mode = b.Mode
	}
	return MotionSample{
		Elapsed:  vec.LerpScalar(a.Elapsed, b.Elapsed, alpha),
		Velocity: vec.Lerp(a.Velocity, b.Velocity, alpha),
		Mode:     mode,
	}
}
