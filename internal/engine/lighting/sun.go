package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SunDirection converts longitude/latitude angles in degrees to a unit vector
// pointing towards the sun. Longitude rotates around Y, latitude is elevation
// above the horizon.
func SunDirection(longitude, latitude float32) mgl32.Vec3 {
	lon := float64(mgl32.DegToRad(longitude))
	lat := float64(mgl32.DegToRad(latitude))
	return mgl32.Vec3{
		float32(math.Cos(lat) * math.Sin(lon)),
		float32(math.Sin(lat)),
		float32(math.Cos(lat) * math.Cos(lon)),
	}
}
