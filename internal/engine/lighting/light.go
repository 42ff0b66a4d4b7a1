// Package lighting holds light sources and packs them for the lights block.
package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// NoSpot is the spot cutoff of lights that are not spotlights.
const NoSpot = math.Pi

// Light is a directional, point or spot light.
//
// View and projection matrices are only recomputed by the Generate methods.
// Changing position or direction leaves them stale until the caller regenerates.
type Light struct {
	Ambient     mgl32.Vec4
	Diffuse     mgl32.Vec4
	Specular    mgl32.Vec4
	Attenuation mgl32.Vec3 // constant, linear, quadratic

	Range         float32
	SpecularPower float32
	Active        bool
	SpotCutoff    float32 // radians, NoSpot for omni and directional lights
	SpotExponent  float32

	position  mgl32.Vec4 // w = 0 directional, 1 positional
	direction mgl32.Vec3
	lookAt    mgl32.Vec3

	view       mgl32.Mat4
	projection mgl32.Mat4
}

// New returns an inactive white directional light pointing down.
func New() *Light {
	return &Light{
		Diffuse:       mgl32.Vec4{1, 1, 1, 1},
		Specular:      mgl32.Vec4{1, 1, 1, 1},
		Attenuation:   mgl32.Vec3{1, 0, 0},
		SpecularPower: 1,
		SpotCutoff:    NoSpot,
		direction:     mgl32.Vec3{0, -1, 0},
		view:          mgl32.Ident4(),
		projection:    mgl32.Ident4(),
	}
}

// SetPosition sets the light position. w is 0 for directional lights and 1 otherwise.
func (l *Light) SetPosition(x, y, z, w float32) {
	l.position = mgl32.Vec4{x, y, z, w}
}

// Position returns the 4-component position.
func (l *Light) Position() mgl32.Vec4 {
	return l.position
}

// Position3 returns the position without w.
func (l *Light) Position3() mgl32.Vec3 {
	return l.position.Vec3()
}

// SetDirection sets the direction the light points in. It is stored normalised;
// a zero vector is ignored.
func (l *Light) SetDirection(x, y, z float32) {
	d := mgl32.Vec3{x, y, z}
	if d.LenSqr() == 0 {
		return
	}
	l.direction = d.Normalize()
}

// Direction returns the unit direction.
func (l *Light) Direction() mgl32.Vec3 {
	return l.direction
}

// SetLookAt sets the target used by GenerateViewMatrix.
func (l *Light) SetLookAt(x, y, z float32) {
	l.lookAt = mgl32.Vec3{x, y, z}
}

// IsSpot reports whether the cutoff narrows the light into a cone.
func (l *Light) IsSpot() bool {
	return l.SpotCutoff < NoSpot
}

// upFor returns a world up vector that is not parallel to dir.
func upFor(dir mgl32.Vec3) mgl32.Vec3 {
	if abs(dir[1]) > 0.99 {
		return mgl32.Vec3{0, 0, 1}
	}
	return mgl32.Vec3{0, 1, 0}
}

// GenerateViewMatrix looks from the position at the look-at point.
func (l *Light) GenerateViewMatrix() {
	eye := l.Position3()
	dir := l.lookAt.Sub(eye)
	if dir.LenSqr() == 0 {
		dir = l.direction
	}
	l.view = mgl32.LookAtV(eye, eye.Add(dir), upFor(dir.Normalize()))
}

// GenerateViewMatrixFromDirection looks from the position along the direction.
func (l *Light) GenerateViewMatrixFromDirection() {
	eye := l.Position3()
	l.view = mgl32.LookAtV(eye, eye.Add(l.direction), upFor(l.direction))
}

// GenerateProjectionMatrix sets a square 90 degree perspective projection.
func (l *Light) GenerateProjectionMatrix(near, far float32) {
	l.projection = mgl32.Perspective(math.Pi/2, 1, near, far)
}

// FitShadowToSphere points an orthographic shadow camera along the light
// direction so it covers a sphere of the given centre and radius.
// Used for directional lights, whose position is meaningless.
func (l *Light) FitShadowToSphere(center mgl32.Vec3, radius float32) {
	distance := radius * 2
	eye := center.Sub(l.direction.Mul(distance))
	l.view = mgl32.LookAtV(eye, center, upFor(l.direction))

	half := radius * 1.1
	l.projection = mgl32.Ortho(-half, half, -half, half, 0.1, distance+half)
}

// ViewMatrix returns the view matrix from the last Generate call.
func (l *Light) ViewMatrix() mgl32.Mat4 {
	return l.view
}

// ProjectionMatrix returns the projection matrix from the last Generate call.
func (l *Light) ProjectionMatrix() mgl32.Mat4 {
	return l.projection
}

// State returns a copy of the light's current values.
func (l *Light) State() State {
	return State{
		Position:      l.position,
		Direction:     l.direction,
		Ambient:       l.Ambient,
		Diffuse:       l.Diffuse,
		Specular:      l.Specular,
		Attenuation:   l.Attenuation,
		Range:         l.Range,
		SpecularPower: l.SpecularPower,
		Active:        l.Active,
		SpotCutoff:    l.SpotCutoff,
		SpotExponent:  l.SpotExponent,
		View:          l.view,
		Projection:    l.projection,
	}
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
