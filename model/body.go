package model

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/oblate-geodesy/core"
)

// ShapeOverrides are the per-body shape parameters, both in metres. A zero
// or negative value leaves that axis undeformed.
type ShapeOverrides struct {
	EquatorialRadius float64
	PolarRadius      float64
}

// Body is a celestial body modeled as a biaxial ellipsoid. It satisfies
// core.CelestialBody.
//
// Shape scales are written once during setup (see kb.Registry.ConfigureShape)
// and only read afterwards, so a Body may be queried from many goroutines
// without locking.
type Body struct {
	ID      string
	Name    string
	RadiusM float64
	Center  mgl64.Vec3

	// Oceans are rendered as a sphere of RadiusM regardless of shape.
	HasOcean bool

	equatorialScale float64
	polarScale      float64
	rotationRad     float64
	frame           core.RotatingFrame
}

// NewBody returns an undeformed body of the given radius, centred at center.
func NewBody(id, name string, radius float64, center mgl64.Vec3) *Body {
	return &Body{
		ID:              id,
		Name:            name,
		RadiusM:         radius,
		Center:          center,
		equatorialScale: 1.0,
		polarScale:      1.0,
		frame:           core.NewRotatingFrame(0),
	}
}

func (b *Body) Radius() float64        { return b.RadiusM }
func (b *Body) Position() mgl64.Vec3   { return b.Center }
func (b *Body) Frame() core.Frame      { return &b.frame }
func (b *Body) RotationAngle() float64 { return b.rotationRad }

// ShapeScale returns the equatorial and polar scale factors.
func (b *Body) ShapeScale() (float64, float64) {
	return b.equatorialScale, b.polarScale
}

// SurfaceDirection returns the world-oriented unit vector toward
// (latDeg, lonDeg).
func (b *Body) SurfaceDirection(latDeg, lonDeg float64) mgl64.Vec3 {
	return core.SurfaceDirectionInFrame(&b.frame, latDeg, lonDeg)
}

// SetShapeScale stores the scale factors. It is a setup-time operation and
// must not race with readers.
func (b *Body) SetShapeScale(equatorial, polar float64) {
	b.equatorialScale = equatorial
	b.polarScale = polar
}

// ApplyShapeOverrides converts radius overrides into scale factors relative
// to RadiusM and stores them.
func (b *Body) ApplyShapeOverrides(o ShapeOverrides) {
	b.SetShapeScale(core.ScaleFactors(o.EquatorialRadius, o.PolarRadius, b.RadiusM))
}

// SetRotation orients the body by angleRad about its polar axis. Like the
// shape, it is written at setup time.
func (b *Body) SetRotation(angleRad float64) {
	b.rotationRad = angleRad
	b.frame = core.NewRotatingFrame(angleRad)
}
