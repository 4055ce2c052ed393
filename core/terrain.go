package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// TerrainSampler returns the terrain mesh radius (distance from the body
// centre, metres) along a body-relative unit direction. The mesh already
// carries the body's oblate deformation.
type TerrainSampler interface {
	SurfaceHeight(dir mgl64.Vec3) float64
}

// TerrainAltitudeFromHeight converts a sampled mesh height into terrain
// altitude above the sea-level radius at latDeg.
func TerrainAltitudeFromHeight(body CelestialBody, sampledHeight, latDeg float64, allowNegative bool) float64 {
	alt := sampledHeight - SeaLevelRadiusAtDegrees(body, latDeg)
	if !allowNegative && alt < 0 {
		alt = 0
	}
	return alt
}

// TerrainAltitude samples the terrain at (latDeg, lonDeg) and returns its
// altitude above sea level. A body without terrain reports 0.
func TerrainAltitude(body CelestialBody, sampler TerrainSampler, latDeg, lonDeg float64, allowNegative bool) float64 {
	if sampler == nil {
		return 0
	}
	h := sampler.SurfaceHeight(body.SurfaceDirection(latDeg, lonDeg))
	return TerrainAltitudeFromHeight(body, h, latDeg, allowNegative)
}

// CorrectedLandedAltitude keeps a landed vessel's altitude from sinking
// below the terrain under it.
func CorrectedLandedAltitude(body CelestialBody, sampler TerrainSampler, latDeg, lonDeg, alt float64) float64 {
	if sampler == nil {
		return alt
	}
	return math.Max(alt, TerrainAltitude(body, sampler, latDeg, lonDeg, true))
}
