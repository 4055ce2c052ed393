package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// LatLonAlt is a position in body coordinates: latitude in [-90, 90] and
// longitude in (-180, 180] degrees, altitude in metres above the local
// sea-level radius.
type LatLonAlt struct {
	Lat float64
	Lon float64
	Alt float64
}

// SphericalAltitude is the distance from the body centre minus R, ignoring
// any oblateness. Buoyancy uses it; the ocean surface is a sphere of
// radius R.
func SphericalAltitude(body CelestialBody, worldPos mgl64.Vec3) float64 {
	return worldPos.Sub(body.Position()).Len() - body.Radius()
}

// SphericalAltitude32 is SphericalAltitude for single-precision positions.
func SphericalAltitude32(body CelestialBody, worldPos mgl32.Vec3) float32 {
	p := mgl64.Vec3{float64(worldPos[0]), float64(worldPos[1]), float64(worldPos[2])}
	return float32(SphericalAltitude(body, p))
}

// Altitude is the height of worldPos above the body's reference ellipsoid,
// measured along the radius.
func Altitude(body CelestialBody, worldPos mgl64.Vec3) float64 {
	rel := worldPos.Sub(body.Position())
	magnitude := rel.Len()
	if IsSpherical(body) {
		return magnitude - body.Radius()
	}
	local := ToBodyLocal(body.Frame(), rel)
	return magnitude - SeaLevelRadiusFromDirection(body, local, magnitude)
}

// RelSurfacePosition returns the body-relative world vector for
// (latDeg, lonDeg) at alt metres above the local sea level.
func RelSurfacePosition(body CelestialBody, latDeg, lonDeg, alt float64) mgl64.Vec3 {
	r := SeaLevelRadiusAtDegrees(body, latDeg)
	return body.SurfaceDirection(latDeg, lonDeg).Mul(r + alt)
}

// SurfacePosition is RelSurfacePosition offset by the body position.
func SurfacePosition(body CelestialBody, latDeg, lonDeg, alt float64) mgl64.Vec3 {
	return body.Position().Add(RelSurfacePosition(body, latDeg, lonDeg, alt))
}

// GetLatLonAlt converts a world position into body coordinates. A position
// at the body centre has no direction; it reports latitude and longitude 0.
func GetLatLonAlt(body CelestialBody, worldPos mgl64.Vec3) LatLonAlt {
	local := ToBodyLocal(body.Frame(), worldPos.Sub(body.Position()))
	return latLonAltFromLocal(body, local)
}

// LatLonAltOrbital converts a body-relative position that is already in the
// z-up orbital convention. No axis permutation is applied.
func LatLonAltOrbital(body CelestialBody, orbitalRel mgl64.Vec3) LatLonAlt {
	return latLonAltFromLocal(body, body.Frame().WorldToLocal(orbitalRel))
}

func latLonAltFromLocal(body CelestialBody, local mgl64.Vec3) LatLonAlt {
	magnitude := local.Len()
	dir := local.Mul(1 / magnitude)

	latRad := math.Asin(mgl64.Clamp(vertical(dir), -1, 1))
	lat := mgl64.RadToDeg(latRad)
	lon := mgl64.RadToDeg(math.Atan2(dir[1], dir[0]))
	if math.IsNaN(lat) {
		lat = 0
		latRad = 0
	}
	if math.IsNaN(lon) {
		lon = 0
	}

	return LatLonAlt{
		Lat: lat,
		Lon: lon,
		Alt: magnitude - SeaLevelRadius(body, latRad),
	}
}

// IsDegenerate reports whether worldPos coincides with the body centre,
// where latitude, longitude and the geodetic up are undefined.
func IsDegenerate(body CelestialBody, worldPos mgl64.Vec3) bool {
	rel := worldPos.Sub(body.Position())
	return rel.Dot(rel) == 0
}
