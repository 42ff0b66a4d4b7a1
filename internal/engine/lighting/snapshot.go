package lighting

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
)

// MaxLights is the number of light records in the lights block.
const MaxLights = 4

// Size of one light record and of the whole block, std140.
const (
	RecordSize = 256
	BlockSize  = MaxLights * RecordSize
)

// State is an immutable copy of a light for one frame.
type State struct {
	Position      mgl32.Vec4
	Direction     mgl32.Vec3
	Ambient       mgl32.Vec4
	Diffuse       mgl32.Vec4
	Specular      mgl32.Vec4
	Attenuation   mgl32.Vec3
	Range         float32
	SpecularPower float32
	Active        bool
	SpotCutoff    float32
	SpotExponent  float32
	View          mgl32.Mat4
	Projection    mgl32.Mat4
}

// Snapshot is the light list handed to the renderer for one frame.
type Snapshot []State

// Take copies the current state of lights. Nil entries are skipped.
func Take(lights []*Light) Snapshot {
	s := make(Snapshot, 0, len(lights))
	for _, l := range lights {
		if l != nil {
			s = append(s, l.State())
		}
	}
	return s
}

// Pack writes exactly MaxLights records. Missing lights are written as inactive.
func (s Snapshot) Pack(w *gpu.Std140) {
	for i := 0; i < MaxLights; i++ {
		var st State
		if i < len(s) {
			st = s[i]
		}
		st.pack(w)
	}
}

func (st State) pack(w *gpu.Std140) {
	w.Vec4(st.Diffuse)
	w.Vec4(st.Ambient)
	w.Vec4(st.Direction.Vec4(0))
	w.Vec4(st.Specular)
	w.Vec4(st.Attenuation.Vec4(0))
	w.Vec4(st.Position)

	var active uint32
	if st.Active {
		active = 1
	}
	w.Uint(active)
	w.Float(st.Range)
	w.Float(st.SpecularPower)
	w.Float(st.SpotCutoff)
	w.Float(st.SpotExponent)
	w.Pad(12)
	w.Mat4(st.View)
	w.Mat4(st.Projection)
}
