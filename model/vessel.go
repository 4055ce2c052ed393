package model

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/oblate-geodesy/core"
)

// MotionSource indicates how a vessel's position is determined.
type MotionSource int

const (
	MotionSourceStatic       MotionSource = iota
	MotionSourceSurfaceTrack              // constant-rate lat/lon track
	MotionSourceSpacetrack                // TLE-based orbit propagation
)

func (m MotionSource) String() string {
	switch m {
	case MotionSourceSurfaceTrack:
		return "surface-track"
	case MotionSourceSpacetrack:
		return "spacetrack"
	default:
		return "static"
	}
}

// FlightState is the per-frame geodesy snapshot of a vessel.
type FlightState struct {
	core.LatLonAlt

	// SphericalAltitude is relative to the sphere of radius R; buoyancy and
	// the ocean mesh use it.
	SphericalAltitude float64
	// BuoyancyDepth is how far below the spherical sea surface the vessel
	// sits, 0 when above it or when the body has no ocean.
	BuoyancyDepth float64
	// TerrainAltitude is the terrain height above sea level under the
	// vessel, or -1 when the body has no terrain.
	TerrainAltitude float64
	// HeightFromTerrain is Alt minus TerrainAltitude, or -1 without terrain.
	HeightFromTerrain float64

	Up        mgl64.Vec3
	NavBallUp mgl32.Vec3
}

// Vessel is a craft positioned relative to a body.
type Vessel struct {
	ID     string
	Name   string
	BodyID string

	// Position is in world coordinates.
	Position     mgl64.Vec3
	MotionSource MotionSource
	Landed       bool

	State FlightState
}
