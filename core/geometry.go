// Package core is the oblate-spheroid geodesy engine.
//
// Every function here is a pure, allocation-free function of its inputs and
// the body's configured shape scales. Bodies are modeled as biaxial ellipsoids
// with equatorial semi-axis a = sx*R and polar semi-axis b = sz*R. When
// sx == 1 and sz == 1 every routine reduces exactly to the spherical formula.
//
// Two altitude models coexist: the oblate model for physics, UI and terrain,
// and the pure-sphere model buoyancy uses against the spherical ocean mesh.
package core

import "github.com/go-gl/mathgl/mgl64"

// CelestialBody is the host's view of a body. It is referenced, never owned:
// shape scales are written once at setup and read concurrently afterwards.
type CelestialBody interface {
	// Radius is the reference (equatorial) radius R in metres.
	Radius() float64
	// Position is the body centre in world coordinates.
	Position() mgl64.Vec3
	// ShapeScale returns the equatorial (sx == sy) and polar (sz) scale factors.
	ShapeScale() (equatorial, polar float64)
	// Frame is the body orientation used for world<->local transforms.
	Frame() Frame
	// SurfaceDirection returns the world-oriented unit vector from the body
	// centre toward (latDeg, lonDeg).
	SurfaceDirection(latDeg, lonDeg float64) mgl64.Vec3
}

// Vertical component of a body-local vector (local z is the polar axis).
func vertical(local mgl64.Vec3) float64 {
	return local[2]
}
