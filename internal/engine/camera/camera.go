// Package camera provides the orbit camera that drives the demo view.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center mgl32.Vec3

	// Spherical coordinates
	Distance float32
	Pitch    float32 // radians above the horizon
	Yaw      float32 // radians around +Y

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32

	// Projection
	FovY      float32 // radians
	Near, Far float32

	// AutoRotate is the yaw speed in radians per second applied by Update.
	AutoRotate float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        200.0,
		Pitch:           0.5,
		MinDistance:     1.0,
		MaxDistance:     5000.0,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		FovY:            math.Pi / 4,
		Near:            0.1,
		Far:             1000,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	cp, sp := float32(math.Cos(float64(c.Pitch))), float32(math.Sin(float64(c.Pitch)))
	cy, sy := float32(math.Cos(float64(c.Yaw))), float32(math.Sin(float64(c.Yaw)))
	return c.Center.Add(mgl32.Vec3{cp * sy, sp, cp * cy}.Mul(c.Distance))
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Center, mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns a perspective projection for the given aspect ratio.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(c.FovY, aspect, c.Near, c.Far)
}

// Update advances the automatic rotation by dt seconds.
func (c *OrbitCamera) Update(dt float32) {
	c.Yaw += c.AutoRotate * dt
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch = clamp(c.Pitch+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// HandleMovement pans the center point on the ground plane relative to the view.
func (c *OrbitCamera) HandleMovement(forward, right, up float32) {
	// Speed scales with distance for consistent feel
	speed := c.Distance * 0.01

	sy, cy := float32(math.Sin(float64(c.Yaw))), float32(math.Cos(float64(c.Yaw)))
	fwd := mgl32.Vec3{-sy, 0, -cy}
	rgt := mgl32.Vec3{cy, 0, -sy}
	c.Center = c.Center.Add(fwd.Mul(forward * speed)).Add(rgt.Mul(right * speed))
	c.Center[1] += up * speed
}

// FitToBounds centers the camera on a box and backs off far enough to see it.
func (c *OrbitCamera) FitToBounds(minPt, maxPt mgl32.Vec3) {
	c.Center = minPt.Add(maxPt).Mul(0.5)
	radius := maxPt.Sub(minPt).Len() * 0.5
	if radius <= 0 {
		radius = 1
	}
	c.Distance = clamp(radius/float32(math.Sin(float64(c.FovY)/2)), c.MinDistance, c.MaxDistance)
	c.Far = max(c.Far, c.Distance+radius*2)
	c.Pitch = clamp(0.6, c.MinPitch, c.MaxPitch) // look down at ~35 degrees
	c.Yaw = 0
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
