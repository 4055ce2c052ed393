package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Frame is a body orientation. Both directions are pure rotations expressed
// in the host's axis convention; callers go through ToBodyLocal and
// FromBodyLocal rather than using a Frame directly.
type Frame interface {
	WorldToLocal(v mgl64.Vec3) mgl64.Vec3
	LocalToWorld(v mgl64.Vec3) mgl64.Vec3
}

// The host world frame is y-up while body-local coordinates are z-up
// (local z is the polar axis). The permutation is its own inverse.
func swizzleXZY(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v[0], v[2], v[1]}
}

// ToBodyLocal converts a body-relative world vector into body-local
// coordinates, x and y spanning the equatorial plane and z along the pole.
func ToBodyLocal(f Frame, worldRel mgl64.Vec3) mgl64.Vec3 {
	return f.WorldToLocal(swizzleXZY(worldRel))
}

// FromBodyLocal is the inverse of ToBodyLocal.
func FromBodyLocal(f Frame, local mgl64.Vec3) mgl64.Vec3 {
	return swizzleXZY(f.LocalToWorld(local))
}

// SurfaceDirectionInFrame returns the world-oriented unit vector from the
// body centre toward (latDeg, lonDeg) for a body oriented by f. Latitude is
// measured from the equatorial plane, longitude from local +x toward +y.
func SurfaceDirectionInFrame(f Frame, latDeg, lonDeg float64) mgl64.Vec3 {
	sinLat, cosLat := math.Sincos(mgl64.DegToRad(latDeg))
	sinLon, cosLon := math.Sincos(mgl64.DegToRad(lonDeg))
	local := mgl64.Vec3{cosLat * cosLon, cosLat * sinLon, sinLat}
	return FromBodyLocal(f, local)
}

// IdentityFrame is an unrotated body orientation.
type IdentityFrame struct{}

func (IdentityFrame) WorldToLocal(v mgl64.Vec3) mgl64.Vec3 { return v }
func (IdentityFrame) LocalToWorld(v mgl64.Vec3) mgl64.Vec3 { return v }

// RotatingFrame is a body orientation given by a rotation about the polar
// axis, such as a body spun to its current rotation angle.
type RotatingFrame struct {
	q    mgl64.Quat
	qInv mgl64.Quat
}

// NewRotatingFrame builds a frame rotated by angleRad about the polar axis.
// The polar axis is z in the frame's own (z-up) convention.
func NewRotatingFrame(angleRad float64) RotatingFrame {
	q := mgl64.QuatRotate(angleRad, mgl64.Vec3{0, 0, 1})
	return RotatingFrame{q: q, qInv: q.Conjugate()}
}

func (f RotatingFrame) WorldToLocal(v mgl64.Vec3) mgl64.Vec3 { return f.qInv.Rotate(v) }
func (f RotatingFrame) LocalToWorld(v mgl64.Vec3) mgl64.Vec3 { return f.q.Rotate(v) }
