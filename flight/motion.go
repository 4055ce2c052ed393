package flight

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/oblate-geodesy/core"
	"github.com/signalsfoundry/oblate-geodesy/model"
)

// MotionModel updates a vessel's world position for a given simulation time.
type MotionModel interface {
	UpdatePosition(simTime time.Time, body core.CelestialBody, v *model.Vessel)
}

// StaticMotionModel leaves the vessel where it is.
type StaticMotionModel struct{}

// UpdatePosition for static motion does nothing.
func (m *StaticMotionModel) UpdatePosition(time.Time, core.CelestialBody, *model.Vessel) {}

// SurfaceTrackMotionModel moves a vessel along a constant-rate latitude and
// longitude track at a fixed altitude above the local sea level. Latitude
// stops at the poles; longitude wraps into (-180, 180].
type SurfaceTrackMotionModel struct {
	Start      time.Time
	Lat0, Lon0 float64 // degrees
	LatRate    float64 // degrees per second
	LonRate    float64 // degrees per second
	Alt        float64 // metres
}

// UpdatePosition places the vessel at the track point for simTime.
func (m *SurfaceTrackMotionModel) UpdatePosition(simTime time.Time, body core.CelestialBody, v *model.Vessel) {
	lat, lon := m.At(simTime)
	v.Position = core.SurfacePosition(body, lat, lon, m.Alt)
}

// At returns the track latitude and longitude at simTime.
func (m *SurfaceTrackMotionModel) At(simTime time.Time) (lat, lon float64) {
	dt := simTime.Sub(m.Start).Seconds()
	lat = mgl64.Clamp(m.Lat0+m.LatRate*dt, -90, 90)
	lon = wrapLongitude(m.Lon0 + m.LonRate*dt)
	return lat, lon
}

func wrapLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon <= 0 {
		lon += 360
	}
	return lon - 180
}

// OrbitalSGP4MotionModel propagates a TLE with SGP4. Its body-fixed output
// is taken as body-local coordinates of the vessel's body, so it suits
// Earth-sized bodies.
type OrbitalSGP4MotionModel struct {
	sat satellite.Satellite
}

// NewOrbitalModelFromTLE constructs an orbital model from TLE lines.
func NewOrbitalModelFromTLE(line1, line2 string) *OrbitalSGP4MotionModel {
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	return &OrbitalSGP4MotionModel{sat: sat}
}

// UpdatePosition propagates the satellite to simTime and stores its world
// position. go-satellite works in kilometres; positions are metres.
func (m *OrbitalSGP4MotionModel) UpdatePosition(simTime time.Time, body core.CelestialBody, v *model.Vessel) {
	v.Position = body.Position().Add(core.FromBodyLocal(body.Frame(), m.BodyFixed(simTime)))
}

// BodyFixed returns the propagated position in body-fixed (z-up) metres.
func (m *OrbitalSGP4MotionModel) BodyFixed(simTime time.Time) mgl64.Vec3 {
	simTime = simTime.UTC()
	year, month, day := simTime.Date()
	hour, min, sec := simTime.Clock()

	posECI, _ := satellite.Propagate(m.sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	const kmToM = 1000.0
	return mgl64.Vec3{posECEF.X * kmToM, posECEF.Y * kmToM, posECEF.Z * kmToM}
}

// NewMotionModel chooses a motion model for the vessel. Spacetrack vessels
// with a TLE propagate with SGP4; everything else stays put.
func NewMotionModel(v *model.Vessel, tle1, tle2 string) MotionModel {
	if v.MotionSource == model.MotionSourceSpacetrack && tle1 != "" && tle2 != "" {
		return NewOrbitalModelFromTLE(tle1, tle2)
	}
	return &StaticMotionModel{}
}
