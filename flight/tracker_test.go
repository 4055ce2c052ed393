package flight

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signalsfoundry/oblate-geodesy/core"
	"github.com/signalsfoundry/oblate-geodesy/internal/observability"
	"github.com/signalsfoundry/oblate-geodesy/kb"
	"github.com/signalsfoundry/oblate-geodesy/model"
	"github.com/signalsfoundry/oblate-geodesy/terrain"
)

type trackerFixture struct {
	reg     *kb.Registry
	body    *model.Body
	tracker *Tracker
	geo     *observability.GeodesyCollector
	metrics *observability.TrackerCollector
}

func newTrackerFixture(t *testing.T, polarRadius float64, ocean bool) *trackerFixture {
	t.Helper()

	promReg := prometheus.NewRegistry()
	geo, err := observability.NewGeodesyCollector(promReg)
	if err != nil {
		t.Fatalf("NewGeodesyCollector: %v", err)
	}
	metrics, err := observability.NewTrackerCollector(promReg)
	if err != nil {
		t.Fatalf("NewTrackerCollector: %v", err)
	}

	reg := kb.NewRegistry()
	body := model.NewBody("kerbin", "Kerbin", 600000, mgl64.Vec3{2e6, 0, -1e5})
	body.HasOcean = ocean
	body.SetRotation(0.9)
	if err := reg.AddBody(body); err != nil {
		t.Fatalf("AddBody: %v", err)
	}
	if err := reg.ConfigureShape(context.Background(), body.ID, model.ShapeOverrides{PolarRadius: polarRadius}); err != nil {
		t.Fatalf("ConfigureShape: %v", err)
	}

	tracker := NewTracker(reg, WithGeodesyCollector(geo), WithTrackerCollector(metrics))
	return &trackerFixture{reg: reg, body: body, tracker: tracker, geo: geo, metrics: metrics}
}

func (f *trackerFixture) addVessel(t *testing.T, id string, pos mgl64.Vec3, landed bool) {
	t.Helper()
	if err := f.reg.AddVessel(&model.Vessel{ID: id, BodyID: f.body.ID, Position: pos, Landed: landed}); err != nil {
		t.Fatalf("AddVessel(%s): %v", id, err)
	}
}

func (f *trackerFixture) state(t *testing.T, id string) model.FlightState {
	t.Helper()
	v, err := f.reg.GetVessel(id)
	if err != nil {
		t.Fatalf("GetVessel(%s): %v", id, err)
	}
	return v.State
}

func TestTrackerStepComputesFlightState(t *testing.T) {
	f := newTrackerFixture(t, 570000, true)
	pos := core.SurfacePosition(f.body, 60, 30, 1000)
	f.addVessel(t, "v1", pos, false)

	if err := f.tracker.Step(context.Background(), time.Unix(0, 0)); err != nil {
		t.Fatalf("Step: %v", err)
	}
	st := f.state(t, "v1")

	if math.Abs(st.Lat-60) > 1e-6 || math.Abs(st.Lon-30) > 1e-6 {
		t.Fatalf("lat/lon = (%v, %v), want (60, 30)", st.Lat, st.Lon)
	}
	if math.Abs(st.Alt-1000) > 1e-6 {
		t.Fatalf("alt = %v, want 1000", st.Alt)
	}

	wantSpherical := pos.Sub(f.body.Center).Len() - 600000
	if math.Abs(st.SphericalAltitude-wantSpherical) > 1e-6 {
		t.Fatalf("spherical alt = %v, want %v", st.SphericalAltitude, wantSpherical)
	}
	// At 60 degrees the ellipsoid sits well inside the sphere, so the
	// vessel is "under water" as far as buoyancy is concerned.
	if wantSpherical >= 0 {
		t.Fatalf("test setup: spherical altitude %v should be negative", wantSpherical)
	}
	if math.Abs(st.BuoyancyDepth+wantSpherical) > 2 {
		t.Fatalf("buoyancy depth = %v, want ~%v", st.BuoyancyDepth, -wantSpherical)
	}

	wantUp := core.GeodeticUp(f.body, pos)
	if st.Up != wantUp {
		t.Fatalf("up = %v, want %v", st.Up, wantUp)
	}
	if st.NavBallUp != (mgl32.Vec3{float32(wantUp[0]), float32(wantUp[1]), float32(wantUp[2])}) {
		t.Fatalf("navball up = %v, want float32 of %v", st.NavBallUp, wantUp)
	}

	if st.TerrainAltitude != -1 || st.HeightFromTerrain != -1 {
		t.Fatalf("terrain = (%v, %v), want (-1, -1) without a sampler", st.TerrainAltitude, st.HeightFromTerrain)
	}

	if got := testutil.ToFloat64(f.geo.Queries.WithLabelValues(observability.OpAltitude)); got != 1 {
		t.Fatalf("altitude queries = %v, want 1", got)
	}
	if got := testutil.ToFloat64(f.metrics.Vessels); got != 1 {
		t.Fatalf("tracker_vessels = %v, want 1", got)
	}
	if got := testutil.ToFloat64(f.metrics.AltitudeDelta.WithLabelValues("v1")); math.Abs(got-(st.Alt-st.SphericalAltitude)) > 1e-9 {
		t.Fatalf("altitude delta = %v, want %v", got, st.Alt-st.SphericalAltitude)
	}
}

func TestTrackerSphericalBodyAltitudesAgree(t *testing.T) {
	f := newTrackerFixture(t, 0, false)
	f.addVessel(t, "v1", core.SurfacePosition(f.body, -35, 100, 4321), false)

	if err := f.tracker.Step(context.Background(), time.Unix(0, 0)); err != nil {
		t.Fatalf("Step: %v", err)
	}
	st := f.state(t, "v1")
	if st.Alt != st.SphericalAltitude {
		t.Fatalf("spherical body: alt %v != spherical %v", st.Alt, st.SphericalAltitude)
	}
	if st.BuoyancyDepth != 0 {
		t.Fatalf("body without ocean has buoyancy depth %v", st.BuoyancyDepth)
	}
}

func TestTrackerTerrainAltitude(t *testing.T) {
	f := newTrackerFixture(t, 570000, true)
	if err := f.tracker.SetTerrain(f.body.ID, terrain.NewSampler(f.body, terrain.Relief{Offset: 200})); err != nil {
		t.Fatalf("SetTerrain: %v", err)
	}
	f.addVessel(t, "flying", core.SurfacePosition(f.body, 75, -20, 1000), false)
	f.addVessel(t, "sunk", core.SurfacePosition(f.body, 75, -20, 100), true)

	if err := f.tracker.Step(context.Background(), time.Unix(0, 0)); err != nil {
		t.Fatalf("Step: %v", err)
	}

	flying := f.state(t, "flying")
	if math.Abs(flying.TerrainAltitude-200) > 1e-6 {
		t.Fatalf("terrain altitude = %v, want 200", flying.TerrainAltitude)
	}
	if math.Abs(flying.HeightFromTerrain-800) > 1e-6 {
		t.Fatalf("height from terrain = %v, want 800", flying.HeightFromTerrain)
	}

	sunk := f.state(t, "sunk")
	if math.Abs(sunk.Alt-200) > 1e-6 {
		t.Fatalf("landed vessel alt = %v, want raised to terrain 200", sunk.Alt)
	}
	if math.Abs(sunk.HeightFromTerrain) > 1e-6 {
		t.Fatalf("landed vessel height from terrain = %v, want 0", sunk.HeightFromTerrain)
	}

	if err := f.tracker.SetTerrain("mun", terrain.Flat(f.body)); !errors.Is(err, kb.ErrBodyNotFound) {
		t.Fatalf("SetTerrain(mun) error = %v, want ErrBodyNotFound", err)
	}
}

func TestTrackerStepAppliesMotionModel(t *testing.T) {
	f := newTrackerFixture(t, 570000, false)
	f.addVessel(t, "rover", mgl64.Vec3{}, false)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	track := &SurfaceTrackMotionModel{Start: start, Lat0: 0, Lon0: 0, LonRate: 0.5, Alt: 50}
	if err := f.tracker.SetMotionModel("rover", track); err != nil {
		t.Fatalf("SetMotionModel: %v", err)
	}
	if err := f.tracker.SetMotionModel("ghost", track); !errors.Is(err, kb.ErrVesselNotFound) {
		t.Fatalf("SetMotionModel(ghost) error = %v, want ErrVesselNotFound", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := f.tracker.Step(ctx, start.Add(time.Duration(i)*10*time.Second)); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}

	st := f.state(t, "rover")
	if math.Abs(st.Lon-10) > 1e-6 || math.Abs(st.Alt-50) > 1e-6 {
		t.Fatalf("rover state = %+v, want lon 10 alt 50", st.LatLonAlt)
	}
	if got := testutil.ToFloat64(f.geo.Queries.WithLabelValues(observability.OpLatLonAlt)); got != 3 {
		t.Fatalf("lat_lon_alt queries = %v, want 3", got)
	}
}

func TestTrackerDegenerateVessel(t *testing.T) {
	f := newTrackerFixture(t, 570000, false)
	f.addVessel(t, "core", f.body.Center, false)

	if err := f.tracker.Step(context.Background(), time.Unix(0, 0)); err != nil {
		t.Fatalf("Step: %v", err)
	}
	st := f.state(t, "core")
	if st.Lat != 0 || st.Lon != 0 || st.Alt != -600000 {
		t.Fatalf("centre state = %+v, want (0, 0, -600000)", st.LatLonAlt)
	}
	if st.Up != (mgl64.Vec3{}) {
		t.Fatalf("centre up = %v, want zero", st.Up)
	}
	if got := testutil.ToFloat64(f.geo.Degenerate.WithLabelValues(observability.OpLatLonAlt)); got != 1 {
		t.Fatalf("degenerate inputs = %v, want 1", got)
	}
}

func TestTrackerPlaceOnSurface(t *testing.T) {
	ctx := context.Background()

	t.Run("ocean floats on the sea surface", func(t *testing.T) {
		f := newTrackerFixture(t, 570000, true)
		if err := f.tracker.SetTerrain(f.body.ID, terrain.NewSampler(f.body, terrain.Relief{Offset: -50})); err != nil {
			t.Fatalf("SetTerrain: %v", err)
		}
		f.addVessel(t, "boat", mgl64.Vec3{}, false)

		pos, err := f.tracker.PlaceOnSurface(ctx, "boat", 45, 45, 10)
		if err != nil {
			t.Fatalf("PlaceOnSurface: %v", err)
		}
		if alt := core.Altitude(f.body, pos); math.Abs(alt-10) > 1e-6 {
			t.Fatalf("boat alt = %v, want 10 above sea level", alt)
		}
		v, _ := f.reg.GetVessel("boat")
		if v.Position != pos || v.Landed {
			t.Fatalf("stored vessel = %+v, want position %v and not landed", v, pos)
		}
	})

	t.Run("dry body sits on the seabed", func(t *testing.T) {
		f := newTrackerFixture(t, 570000, false)
		if err := f.tracker.SetTerrain(f.body.ID, terrain.NewSampler(f.body, terrain.Relief{Offset: -50})); err != nil {
			t.Fatalf("SetTerrain: %v", err)
		}
		f.addVessel(t, "rover", mgl64.Vec3{}, false)

		pos, err := f.tracker.PlaceOnSurface(ctx, "rover", -80, 170, 0)
		if err != nil {
			t.Fatalf("PlaceOnSurface: %v", err)
		}
		if alt := core.Altitude(f.body, pos); math.Abs(alt+50) > 1e-6 {
			t.Fatalf("rover alt = %v, want -50", alt)
		}
		if v, _ := f.reg.GetVessel("rover"); !v.Landed {
			t.Fatalf("rover placed at zero height should be landed")
		}
	})

	t.Run("unknown vessel", func(t *testing.T) {
		f := newTrackerFixture(t, 570000, false)
		if _, err := f.tracker.PlaceOnSurface(ctx, "ghost", 0, 0, 0); !errors.Is(err, kb.ErrVesselNotFound) {
			t.Fatalf("PlaceOnSurface(ghost) error = %v, want ErrVesselNotFound", err)
		}
	})
}

func TestTrackerRemoveVessel(t *testing.T) {
	f := newTrackerFixture(t, 570000, false)
	f.addVessel(t, "v1", core.SurfacePosition(f.body, 0, 0, 10), false)
	f.addVessel(t, "v2", core.SurfacePosition(f.body, 10, 0, 10), false)

	ctx := context.Background()
	if err := f.tracker.Step(ctx, time.Unix(0, 0)); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if got := testutil.CollectAndCount(f.metrics.AltitudeDelta); got != 2 {
		t.Fatalf("altitude delta series = %d, want 2", got)
	}

	if err := f.tracker.RemoveVessel(ctx, "v1"); err != nil {
		t.Fatalf("RemoveVessel: %v", err)
	}
	if got := testutil.CollectAndCount(f.metrics.AltitudeDelta); got != 1 {
		t.Fatalf("altitude delta series after remove = %d, want 1", got)
	}
	if err := f.tracker.RemoveVessel(ctx, "v1"); !errors.Is(err, kb.ErrVesselNotFound) {
		t.Fatalf("second RemoveVessel error = %v, want ErrVesselNotFound", err)
	}

	if err := f.tracker.Step(ctx, time.Unix(1, 0)); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if got := testutil.ToFloat64(f.metrics.Vessels); got != 1 {
		t.Fatalf("tracker_vessels = %v, want 1", got)
	}
}
