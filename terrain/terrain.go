// Package terrain provides terrain samplers that stand in for a host's
// terrain mesh. Sampled heights are radii from the body centre and already
// follow the body's ellipsoid, as a displaced terrain mesh would.
package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/oblate-geodesy/core"
)

// Relief is a procedural height field over the body: sums of latitude and
// longitude harmonics on top of a constant offset.
type Relief struct {
	Offset    float64 // metres above sea level everywhere
	Amplitude float64 // metres
	// LatWaves and LonWaves are the harmonic counts along each axis.
	LatWaves float64
	LonWaves float64
}

// Height returns the relief height at (latRad, lonRad).
func (r Relief) Height(latRad, lonRad float64) float64 {
	return r.Offset + r.Amplitude*math.Cos(r.LatWaves*latRad)*math.Cos(r.LonWaves*lonRad)
}

// Sampler samples an ellipsoid-following terrain mesh of a single body.
type Sampler struct {
	body   core.CelestialBody
	relief Relief
}

// NewSampler returns a sampler for body with the given relief.
func NewSampler(body core.CelestialBody, relief Relief) *Sampler {
	return &Sampler{body: body, relief: relief}
}

// Flat returns a sampler whose mesh lies exactly on the sea-level ellipsoid.
func Flat(body core.CelestialBody) *Sampler {
	return NewSampler(body, Relief{})
}

// SurfaceHeight implements core.TerrainSampler. dir is a body-relative
// world-oriented unit vector.
func (s *Sampler) SurfaceHeight(dir mgl64.Vec3) float64 {
	local := core.ToBodyLocal(s.body.Frame(), dir)
	latRad := math.Asin(mgl64.Clamp(local[2], -1, 1))
	lonRad := math.Atan2(local[1], local[0])
	return core.SeaLevelRadius(s.body, latRad) + s.relief.Height(latRad, lonRad)
}
