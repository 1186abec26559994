package world

import (
	"math"

	"github.com/annel0/rewind/internal/snapshot"
	"github.com/annel0/rewind/internal/vec"
)

const (
	DefaultWalkSpeed  = 500.0
	DefaultJumpSpeed  = 700.0
	characterHalfSize = 90.0

	followArmLength = 400.0
	rewindArmLength = 2000.0
	maxCameraPitch  = 80.0
)

// ViewMode режим камеры персонажа
type ViewMode int

const (
	// ViewFollow камера за спиной, управляется контроллером игрока
	ViewFollow ViewMode = iota
	// ViewOrbit во время операций со временем камера отъезжает и свободно вращается
	ViewOrbit
)

func (m ViewMode) String() string {
	if m == ViewOrbit {
		return "orbit"
	}
	return "follow"
}

func (m ViewMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// Camera штанга камеры персонажа, углы в градусах
type Camera struct {
	Mode      ViewMode `json:"mode"`
	ArmLength float64  `json:"arm_length"`
	Yaw       float64  `json:"yaw"`
	Pitch     float64  `json:"pitch"`
}

// Character персонаж с ходьбой, прыжком и анимацией.
// Реализует rewind.Actor, rewind.Movement и rewind.Animation.
type Character struct {
	name      string
	transform vec.Transform
	velocity  vec.Vec3
	mode      snapshot.MovementMode

	input         vec.Vec3
	jumpRequested bool

	animPaused bool
	animTime   float64

	camera      Camera
	controlYaw  float64
	manipulated func() bool

	WalkSpeed float64
	JumpSpeed float64
	Gravity   float64
	Ground    float64
}

// NewCharacter ставит персонажа на землю в точке location
func NewCharacter(name string, location vec.Vec3) *Character {
	location[2] = characterHalfSize
	return &Character{
		name:        name,
		transform:   vec.At(location),
		mode:        snapshot.MovementGrounded,
		camera:      Camera{Mode: ViewFollow, ArmLength: followArmLength},
		manipulated: func() bool { return false },
		WalkSpeed:   DefaultWalkSpeed,
		JumpSpeed:   DefaultJumpSpeed,
		Gravity:     -980,
	}
}

func (c *Character) Name() string { return c.name }

func (c *Character) Transform() vec.Transform     { return c.transform }
func (c *Character) SetTransform(t vec.Transform) { c.transform = t }
func (c *Character) Location() vec.Vec3           { return c.transform.Location }

func (c *Character) Velocity() vec.Vec3                      { return c.velocity }
func (c *Character) SetVelocity(v vec.Vec3)                  { c.velocity = v }
func (c *Character) MovementMode() snapshot.MovementMode     { return c.mode }
func (c *Character) SetMovementMode(m snapshot.MovementMode) { c.mode = m }

func (c *Character) SetAnimationPaused(paused bool) { c.animPaused = paused }

// AnimationPaused сообщает, остановлена ли анимация
func (c *Character) AnimationPaused() bool { return c.animPaused }

// AnimationTime проигранное время анимации
func (c *Character) AnimationTime() float64 { return c.animTime }

// bindManipulation подключает проверку, управляет ли сейчас персонажем история
func (c *Character) bindManipulation(fn func() bool) { c.manipulated = fn }

// SetInput задаёт направление ходьбы. Пока время перематывается, ввод игнорируется.
func (c *Character) SetInput(dir vec.Vec3) {
	if c.manipulated() {
		return
	}
	c.input = vec.ClampLength(vec.Horizontal(dir), 1)
}

// Jump запрашивает прыжок; во время перемотки игнорируется
func (c *Character) Jump() {
	if c.manipulated() {
		return
	}
	c.jumpRequested = true
}

// Look поворачивает камеру. Во время перемотки вращается штанга,
// иначе направление взгляда персонажа.
func (c *Character) Look(dx, dy float64) {
	if c.manipulated() {
		c.camera.Yaw += dx
		c.camera.Pitch = math.Max(-maxCameraPitch, math.Min(maxCameraPitch, c.camera.Pitch-dy))
		return
	}
	c.controlYaw += dx
}

// ViewMode возвращает текущий режим камеры
func (c *Character) ViewMode() ViewMode { return c.camera.Mode }

// Camera возвращает состояние камеры
func (c *Character) Camera() Camera { return c.camera }

// updateCamera вызывается на начале и конце операций со временем
func (c *Character) updateCamera() {
	if c.manipulated() {
		c.camera.Mode = ViewOrbit
		c.camera.ArmLength = rewindArmLength
		return
	}
	c.camera = Camera{Mode: ViewFollow, ArmLength: followArmLength}
}

// Simulate продвигает персонажа на dt; пока им управляет история, ничего не делает
func (c *Character) Simulate(dt float64) {
	if c.manipulated() || dt <= 0 {
		return
	}
	if !c.animPaused {
		c.animTime += dt
	}

	horizontal := c.input.Mul(c.WalkSpeed)
	vz := c.velocity.Z()
	grounded := c.mode == snapshot.MovementGrounded

	if c.jumpRequested && grounded {
		vz = c.JumpSpeed
		grounded = false
	}
	c.jumpRequested = false

	if !grounded {
		vz += c.Gravity * dt
		c.mode = snapshot.MovementFalling
	}
	c.velocity = vec.Vec3{horizontal.X(), horizontal.Y(), vz}

	loc := c.transform.Location.Add(c.velocity.Mul(dt))
	if floor := c.Ground + characterHalfSize; loc.Z() <= floor {
		loc[2] = floor
		c.velocity[2] = 0
		c.mode = snapshot.MovementGrounded
	}
	c.transform.Location = loc

	// Поворот по направлению движения
	if horizontal.Len() > 1e-6 {
		c.transform.Rotation = vec.Yaw(horizontal)
	}
}
