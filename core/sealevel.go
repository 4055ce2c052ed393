package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SeaLevelRadius returns the distance from the body centre to the reference
// ellipsoid at latitude latRad, in [-pi/2, pi/2].
//
// The latitude is geocentric (angle of the position vector above the
// equatorial plane), not geodetic:
//
//	r(phi) = sqrt((a^4 cos^2 phi + b^4 sin^2 phi) / (a^2 cos^2 phi + b^2 sin^2 phi))
//
// The denominator is strictly positive for a, b > 0.
func SeaLevelRadius(body CelestialBody, latRad float64) float64 {
	if IsSpherical(body) {
		return body.Radius()
	}

	return ellipsoidRadius(ShapeOf(body), latRad)
}

func ellipsoidRadius(s Shape, latRad float64) float64 {
	a2 := s.A * s.A
	b2 := s.B * s.B
	sin, cos := math.Sincos(latRad)
	cos2 := cos * cos
	sin2 := sin * sin
	return math.Sqrt((a2*a2*cos2 + b2*b2*sin2) / (a2*cos2 + b2*sin2))
}

// SeaLevelRadiusAtDegrees is SeaLevelRadius for a latitude in degrees.
func SeaLevelRadiusAtDegrees(body CelestialBody, latDeg float64) float64 {
	if IsSpherical(body) {
		return body.Radius()
	}
	return SeaLevelRadius(body, mgl64.DegToRad(latDeg))
}

// SeaLevelRadiusFromDirection derives the latitude from a body-local
// direction and its magnitude, then delegates to SeaLevelRadius.
func SeaLevelRadiusFromDirection(body CelestialBody, localDir mgl64.Vec3, magnitude float64) float64 {
	if IsSpherical(body) {
		return body.Radius()
	}

	// Round-off at the exact poles can push the ratio just past +-1.
	sinLat := mgl64.Clamp(vertical(localDir)/magnitude, -1, 1)
	return SeaLevelRadius(body, math.Asin(sinLat))
}
