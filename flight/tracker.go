// Package flight holds the host-side consumers of the geodesy engine: vessel
// motion models and the per-frame Tracker that turns vessel positions into
// flight state.
package flight

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/oblate-geodesy/core"
	"github.com/signalsfoundry/oblate-geodesy/internal/logging"
	"github.com/signalsfoundry/oblate-geodesy/internal/observability"
	"github.com/signalsfoundry/oblate-geodesy/kb"
	"github.com/signalsfoundry/oblate-geodesy/model"
)

// Tracker updates vessel positions and flight state once per frame.
type Tracker struct {
	reg *kb.Registry

	mu      sync.RWMutex
	motion  map[string]MotionModel         // by vessel ID
	terrain map[string]core.TerrainSampler // by body ID

	geo     *observability.GeodesyCollector
	metrics *observability.TrackerCollector
	log     logging.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the tracker logger.
func WithLogger(l logging.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.log = l
		}
	}
}

// WithGeodesyCollector records geodesy query counts on c.
func WithGeodesyCollector(c *observability.GeodesyCollector) Option {
	return func(t *Tracker) { t.geo = c }
}

// WithTrackerCollector records frame metrics on c.
func WithTrackerCollector(c *observability.TrackerCollector) Option {
	return func(t *Tracker) { t.metrics = c }
}

// NewTracker builds a tracker over the vessels and bodies in reg.
func NewTracker(reg *kb.Registry, opts ...Option) *Tracker {
	t := &Tracker{
		reg:     reg,
		motion:  make(map[string]MotionModel),
		terrain: make(map[string]core.TerrainSampler),
		log:     logging.Noop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetMotionModel assigns the motion model for a registered vessel.
func (t *Tracker) SetMotionModel(vesselID string, m MotionModel) error {
	if _, err := t.reg.GetVessel(vesselID); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.motion[vesselID] = m
	return nil
}

// SetTerrain attaches a terrain sampler to a registered body.
func (t *Tracker) SetTerrain(bodyID string, s core.TerrainSampler) error {
	if _, err := t.reg.GetBody(bodyID); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.terrain[bodyID] = s
	return nil
}

// RemoveVessel deletes a vessel from the registry and drops its motion
// model and per-vessel metrics.
func (t *Tracker) RemoveVessel(ctx context.Context, vesselID string) error {
	if err := t.reg.RemoveVessel(vesselID); err != nil {
		return err
	}
	t.mu.Lock()
	delete(t.motion, vesselID)
	t.mu.Unlock()
	t.metrics.ForgetVessel(vesselID)

	t.log.Info(ctx, "vessel removed", logging.String("vessel_id", vesselID))
	return nil
}

func (t *Tracker) samplerFor(bodyID string) core.TerrainSampler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.terrain[bodyID]
}

func (t *Tracker) motionFor(vesselID string) MotionModel {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.motion[vesselID]
}

// Step advances every vessel to simTime and recomputes its flight state.
// Errors for individual vessels are joined; the remaining vessels are still
// updated.
func (t *Tracker) Step(ctx context.Context, simTime time.Time) error {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "tracker.step",
		attribute.String("sim_time", simTime.Format(time.RFC3339Nano)),
	)
	defer span.End()

	vessels := t.reg.ListVessels()
	var errs []error
	for i := range vessels {
		if err := t.stepVessel(ctx, simTime, &vessels[i]); err != nil {
			errs = append(errs, err)
		}
	}

	t.metrics.ObserveFrame(time.Since(start), len(vessels))
	span.SetAttributes(attribute.Int("vessels", len(vessels)))
	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (t *Tracker) stepVessel(ctx context.Context, simTime time.Time, v *model.Vessel) error {
	body, err := t.reg.GetBody(v.BodyID)
	if err != nil {
		return fmt.Errorf("vessel %q: %w", v.ID, err)
	}

	if m := t.motionFor(v.ID); m != nil {
		m.UpdatePosition(simTime, body, v)
		if err := t.reg.UpdateVesselPosition(v.ID, v.Position); err != nil {
			return fmt.Errorf("update position: %w", err)
		}
	}

	state := t.State(body, *v)
	if err := t.reg.UpdateVesselState(v.ID, state); err != nil {
		return fmt.Errorf("update state: %w", err)
	}
	t.metrics.SetAltitudeDelta(v.ID, state.Alt-state.SphericalAltitude)

	logging.FromContext(ctx, t.log).Debug(ctx, "vessel state",
		logging.String("vessel_id", v.ID),
		logging.String("body_id", body.ID),
		logging.Float64("lat", state.Lat),
		logging.Float64("lon", state.Lon),
		logging.Float64("alt_m", state.Alt),
		logging.Float64("spherical_alt_m", state.SphericalAltitude),
		logging.Float64("terrain_alt_m", state.TerrainAltitude),
	)
	return nil
}

// State computes the flight state of v on body without storing it.
func (t *Tracker) State(body *model.Body, v model.Vessel) model.FlightState {
	var st model.FlightState
	pos := v.Position

	st.SphericalAltitude = core.SphericalAltitude(body, pos)
	t.geo.ObserveQuery(observability.OpSphericalAltitude)
	if body.HasOcean {
		depth := -core.SphericalAltitude32(body, mgl32.Vec3{float32(pos[0]), float32(pos[1]), float32(pos[2])})
		st.BuoyancyDepth = math.Max(0, float64(depth))
	}

	st.LatLonAlt = core.GetLatLonAlt(body, pos)
	t.geo.ObserveQuery(observability.OpLatLonAlt)

	if core.IsDegenerate(body, pos) {
		// No direction at the centre: keep the lat/lon fallback and leave
		// Up and NavBallUp zero.
		t.geo.ObserveDegenerate(observability.OpLatLonAlt)
	} else {
		st.Alt = core.Altitude(body, pos)
		t.geo.ObserveQuery(observability.OpAltitude)
		st.Up = core.GeodeticUp(body, pos)
		t.geo.ObserveQuery(observability.OpGeodeticUp)
		st.NavBallUp = mgl32.Vec3{float32(st.Up[0]), float32(st.Up[1]), float32(st.Up[2])}
	}

	sampler := t.samplerFor(body.ID)
	if sampler == nil {
		st.TerrainAltitude = -1
		st.HeightFromTerrain = -1
		return st
	}

	if v.Landed {
		st.Alt = core.CorrectedLandedAltitude(body, sampler, st.Lat, st.Lon, st.Alt)
	}
	st.TerrainAltitude = core.TerrainAltitude(body, sampler, st.Lat, st.Lon, true)
	t.geo.ObserveQuery(observability.OpTerrainAltitude)
	st.HeightFromTerrain = st.Alt - st.TerrainAltitude
	return st
}

// PlaceOnSurface moves a vessel to heightAboveTerrain metres above the
// terrain at (latDeg, lonDeg) and returns the new world position. On bodies
// with an ocean, terrain below sea level is treated as the sea surface.
func (t *Tracker) PlaceOnSurface(ctx context.Context, vesselID string, latDeg, lonDeg, heightAboveTerrain float64) (mgl64.Vec3, error) {
	v, err := t.reg.GetVessel(vesselID)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	body, err := t.reg.GetBody(v.BodyID)
	if err != nil {
		return mgl64.Vec3{}, fmt.Errorf("vessel %q: %w", vesselID, err)
	}

	var ground float64
	if sampler := t.samplerFor(body.ID); sampler != nil {
		ground = core.TerrainAltitude(body, sampler, latDeg, lonDeg, !body.HasOcean)
		t.geo.ObserveQuery(observability.OpTerrainAltitude)
	}

	pos := core.SurfacePosition(body, latDeg, lonDeg, ground+heightAboveTerrain)
	t.geo.ObserveQuery(observability.OpSurfacePosition)
	if err := t.reg.UpdateVesselPosition(vesselID, pos); err != nil {
		return mgl64.Vec3{}, err
	}
	if err := t.reg.SetVesselLanded(vesselID, heightAboveTerrain <= 0); err != nil {
		return mgl64.Vec3{}, err
	}

	t.log.Info(ctx, "vessel placed",
		logging.String("vessel_id", vesselID),
		logging.Float64("lat", latDeg),
		logging.Float64("lon", lonDeg),
		logging.Float64("ground_alt_m", ground),
		logging.Float64("height_m", heightAboveTerrain),
	)
	return pos, nil
}
