package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestPosition(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = mgl32.Vec3{1, 2, 3}
	c.Distance = 10
	c.Pitch = 0
	c.Yaw = 0

	got := c.Position()
	want := mgl32.Vec3{1, 2, 13}
	if !got.ApproxEqualThreshold(want, 1e-4) {
		t.Errorf("Position() = %v, want %v", got, want)
	}

	c.Pitch = math.Pi / 2
	got = c.Position()
	if math.Abs(float64(got[1]-12)) > 1e-4 {
		t.Errorf("Position().Y with pitch 90° = %v, want 12", got[1])
	}
}

func TestViewMatrixLooksAtCenter(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = mgl32.Vec3{5, 0, -5}
	c.Yaw = 0.7

	center := c.ViewMatrix().Mul4x1(c.Center.Vec4(1))
	if math.Abs(float64(center[0])) > 1e-3 || math.Abs(float64(center[1])) > 1e-3 {
		t.Errorf("center not on the view axis: %v", center)
	}
	if center[2] >= 0 {
		t.Errorf("center behind the camera: z = %v", center[2])
	}
}

func TestHandleDragClampsPitch(t *testing.T) {
	tests := []struct {
		name  string
		delta float32
		want  float32
	}{
		{"up", 10000, 1.5},
		{"down", -10000, -1.5},
		{"small", 20, 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewOrbitCamera()
			c.HandleDrag(0, tt.delta)
			if math.Abs(float64(c.Pitch-tt.want)) > 1e-5 {
				t.Errorf("Pitch = %v, want %v", c.Pitch, tt.want)
			}
		})
	}
}

func TestHandleZoomClamps(t *testing.T) {
	c := NewOrbitCamera()
	c.Distance = 10
	c.HandleZoom(1)
	if math.Abs(float64(c.Distance-9)) > 1e-5 {
		t.Errorf("Distance = %v, want 9", c.Distance)
	}

	for i := 0; i < 200; i++ {
		c.HandleZoom(5)
	}
	if c.Distance != c.MinDistance {
		t.Errorf("Distance = %v, want MinDistance %v", c.Distance, c.MinDistance)
	}
}

func TestFitToBounds(t *testing.T) {
	c := NewOrbitCamera()
	c.FitToBounds(mgl32.Vec3{-10, 0, -10}, mgl32.Vec3{10, 20, 10})

	if !c.Center.ApproxEqual(mgl32.Vec3{0, 10, 0}) {
		t.Errorf("Center = %v", c.Center)
	}
	radius := float32(math.Sqrt(1200)) / 2
	if c.Distance < radius {
		t.Errorf("Distance %v inside the bounding sphere of radius %v", c.Distance, radius)
	}
	if c.Far < c.Distance {
		t.Errorf("Far %v in front of the scene at %v", c.Far, c.Distance)
	}
}

func TestUpdateAutoRotate(t *testing.T) {
	c := NewOrbitCamera()
	c.AutoRotate = 0.5
	c.Update(2)
	if c.Yaw != 1 {
		t.Errorf("Yaw = %v, want 1", c.Yaw)
	}
}
