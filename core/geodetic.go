package core

import "github.com/go-gl/mathgl/mgl64"

// GeodeticUp returns the unit surface normal of the body's ellipsoid at
// worldPos, the "up" a vessel standing there would feel. On a spherical body
// this is the radial direction. The result is NaN when worldPos is the body
// centre; callers must not ask for it.
func GeodeticUp(body CelestialBody, worldPos mgl64.Vec3) mgl64.Vec3 {
	rel := worldPos.Sub(body.Position())
	if IsSpherical(body) {
		return rel.Normalize()
	}

	f := body.Frame()
	n := ellipsoidNormal(ShapeOf(body), ToBodyLocal(f, rel))

	// Renormalise after the round trip through the frame.
	return FromBodyLocal(f, n).Normalize()
}

// ellipsoidNormal is the normalised gradient of
// x^2/a^2 + y^2/a^2 + z^2/b^2 at the body-local point local.
func ellipsoidNormal(s Shape, local mgl64.Vec3) mgl64.Vec3 {
	a2 := s.A * s.A
	b2 := s.B * s.B
	return mgl64.Vec3{local[0] / a2, local[1] / a2, local[2] / b2}.Normalize()
}
