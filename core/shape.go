package core

// Shape holds the ellipsoid semi-axes derived from a body's scale factors.
type Shape struct {
	A float64 // equatorial semi-axis, metres
	B float64 // polar semi-axis, metres
}

// ShapeOf derives the semi-axes for body.
func ShapeOf(body CelestialBody) Shape {
	sx, sz := body.ShapeScale()
	r := body.Radius()
	return Shape{A: sx * r, B: sz * r}
}

// IsSpherical reports whether body has no configured oblateness. The
// comparison is exact: unconfigured bodies always carry the literal 1.0.
func IsSpherical(body CelestialBody) bool {
	sx, sz := body.ShapeScale()
	return sx == 1.0 && sz == 1.0
}

// ScaleFromOverride converts a radius override in metres into a
// dimensionless scale factor relative to the body's reference radius.
// Absent (zero) or negative overrides mean no deformation on that axis.
func ScaleFromOverride(overrideMeters, radius float64) float64 {
	if overrideMeters > 0 {
		return overrideMeters / radius
	}
	return 1.0
}

// ScaleFactors returns the (equatorial, polar) scale factors for the given
// radius overrides.
func ScaleFactors(equatorialRadius, polarRadius, radius float64) (sx, sz float64) {
	return ScaleFromOverride(equatorialRadius, radius), ScaleFromOverride(polarRadius, radius)
}
