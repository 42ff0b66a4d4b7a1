package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DemoRig returns the demo scene lights: three spotlights and one dim
// directional fill light that carries most of the ambient term.
func DemoRig() []*Light {
	lights := make([]*Light, MaxLights)
	for i := range lights {
		l := New()
		l.Diffuse = mgl32.Vec4{1, 1, 1, 1}
		l.Specular = mgl32.Vec4{1, 1, 1, 1}
		l.SpecularPower = 4
		l.Attenuation = mgl32.Vec3{0.95, 0, 0}
		l.Range = 300
		l.Active = true
		l.Ambient = mgl32.Vec4{0.1, 0.1, 0.1, 1}
		lights[i] = l
	}

	l := lights[0]
	l.SetPosition(-60, 60, 0, 1)
	l.SetDirection(1, 0.3, -0.6)
	l.SpotCutoff = math.Pi / 4 * 1.3
	l.SpotExponent = 2

	l = lights[1]
	l.SetPosition(-60, 60, 10, 1)
	l.SetDirection(1, 0, 0.6)
	l.SpotCutoff = math.Pi / 4 * 1.3
	l.SpotExponent = 2

	l = lights[2]
	l.SetPosition(40, 50, 0, 1)
	l.SetDirection(-1, -0.5, 0)
	l.Attenuation = mgl32.Vec3{0.5, 0.03, 0}
	l.SpotCutoff = math.Pi / 4 * 1.2
	l.SpotExponent = 2

	l = lights[3]
	l.SetPosition(0, 0, 0, 0)
	sun := SunDirection(80, 20).Mul(-1)
	l.SetDirection(sun[0], sun[1], sun[2])
	l.Ambient = mgl32.Vec4{0.5, 0.5, 0.5, 1}
	l.Diffuse = mgl32.Vec4{0.5, 0.5, 0.5, 1}
	l.Attenuation = mgl32.Vec3{0.4, 0.155, 0}

	return lights
}

// UpdateShadowMatrices regenerates every light's shadow camera. Positional
// lights use a perspective frustum from near to far; directional lights fit
// an orthographic box around the scene sphere.
func UpdateShadowMatrices(lights []*Light, near, far float32, sceneCenter mgl32.Vec3, sceneRadius float32) {
	for _, l := range lights {
		if l == nil {
			continue
		}
		if l.Position()[3] == 0 {
			l.FitShadowToSphere(sceneCenter, sceneRadius)
			continue
		}
		l.GenerateViewMatrixFromDirection()
		l.GenerateProjectionMatrix(near, far)
	}
}
