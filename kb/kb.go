// Package kb is the in-memory registry of bodies and vessels.
package kb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/oblate-geodesy/internal/logging"
	"github.com/signalsfoundry/oblate-geodesy/model"
)

var (
	ErrBodyExists      = errors.New("body already exists")
	ErrBodyNotFound    = errors.New("body not found")
	ErrVesselExists    = errors.New("vessel already exists")
	ErrVesselNotFound  = errors.New("vessel not found")
	ErrShapeConfigured = errors.New("body shape already configured")
	ErrBadInput        = errors.New("invalid input")
)

// EventType indicates what kind of change happened in the registry.
type EventType int

const (
	EventVesselMoved EventType = iota
	EventVesselStateUpdated
)

// Event is emitted to subscribers when a vessel changes.
type Event struct {
	Type   EventType
	Vessel model.Vessel
}

// Registry is a thread-safe store for bodies and vessels.
//
// Bodies are handed out as pointers and read without locking by the geodesy
// routines, so their shape is only writable through ConfigureShape, once,
// before the simulation starts.
type Registry struct {
	mu sync.RWMutex

	bodies     map[string]*model.Body
	configured map[string]bool
	vessels    map[string]*model.Vessel

	subs   map[int]func(Event)
	nextID int

	log logging.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		bodies:     make(map[string]*model.Body),
		configured: make(map[string]bool),
		vessels:    make(map[string]*model.Vessel),
		subs:       make(map[int]func(Event)),
		log:        logging.Noop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddBody registers a body. The radius must be positive.
func (r *Registry) AddBody(b *model.Body) error {
	if b == nil || b.ID == "" {
		return fmt.Errorf("%w: nil body or empty ID", ErrBadInput)
	}
	if !(b.RadiusM > 0) {
		return fmt.Errorf("%w: body %q radius %v must be positive", ErrBadInput, b.ID, b.RadiusM)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bodies[b.ID]; exists {
		return fmt.Errorf("%w: %q", ErrBodyExists, b.ID)
	}
	r.bodies[b.ID] = b
	return nil
}

// ConfigureShape applies radius overrides to a body. It may be called once
// per body; shapes are immutable afterwards.
func (r *Registry) ConfigureShape(ctx context.Context, bodyID string, o model.ShapeOverrides) error {
	r.mu.Lock()
	b, ok := r.bodies[bodyID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrBodyNotFound, bodyID)
	}
	if r.configured[bodyID] {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrShapeConfigured, bodyID)
	}
	b.ApplyShapeOverrides(o)
	r.configured[bodyID] = true
	sx, sz := b.ShapeScale()
	r.mu.Unlock()

	r.log.Info(ctx, "body shape configured",
		logging.String("body_id", bodyID),
		logging.Float64("equatorial_scale", sx),
		logging.Float64("polar_scale", sz),
	)
	return nil
}

// GetBody returns the body with the given ID.
func (r *Registry) GetBody(id string) (*model.Body, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bodies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBodyNotFound, id)
	}
	return b, nil
}

// ListBodies returns the bodies ordered by ID.
func (r *Registry) ListBodies() []*model.Body {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]*model.Body, 0, len(r.bodies))
	for _, b := range r.bodies {
		res = append(res, b)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// AddVessel registers a vessel orbiting or resting on a known body.
func (r *Registry) AddVessel(v *model.Vessel) error {
	if v == nil || v.ID == "" {
		return fmt.Errorf("%w: nil vessel or empty ID", ErrBadInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.vessels[v.ID]; exists {
		return fmt.Errorf("%w: %q", ErrVesselExists, v.ID)
	}
	if _, ok := r.bodies[v.BodyID]; !ok {
		return fmt.Errorf("vessel %q: %w: %q", v.ID, ErrBodyNotFound, v.BodyID)
	}
	r.vessels[v.ID] = v
	return nil
}

// GetVessel returns a copy of the vessel with the given ID.
func (r *Registry) GetVessel(id string) (model.Vessel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vessels[id]
	if !ok {
		return model.Vessel{}, fmt.Errorf("%w: %q", ErrVesselNotFound, id)
	}
	return *v, nil
}

// ListVessels returns copies of all vessels ordered by ID.
func (r *Registry) ListVessels() []model.Vessel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]model.Vessel, 0, len(r.vessels))
	for _, v := range r.vessels {
		res = append(res, *v)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// RemoveVessel deletes a vessel.
func (r *Registry) RemoveVessel(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vessels[id]; !ok {
		return fmt.Errorf("%w: %q", ErrVesselNotFound, id)
	}
	delete(r.vessels, id)
	return nil
}

// UpdateVesselPosition moves a vessel and notifies subscribers.
func (r *Registry) UpdateVesselPosition(id string, pos mgl64.Vec3) error {
	return r.update(id, EventVesselMoved, func(v *model.Vessel) { v.Position = pos })
}

// UpdateVesselState stores a freshly computed flight state.
func (r *Registry) UpdateVesselState(id string, state model.FlightState) error {
	return r.update(id, EventVesselStateUpdated, func(v *model.Vessel) { v.State = state })
}

// SetVesselLanded updates the landed flag without notifying subscribers.
func (r *Registry) SetVesselLanded(id string, landed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vessels[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrVesselNotFound, id)
	}
	v.Landed = landed
	return nil
}

func (r *Registry) update(id string, typ EventType, mutate func(*model.Vessel)) error {
	r.mu.Lock()
	v, ok := r.vessels[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrVesselNotFound, id)
	}
	mutate(v)
	event := Event{Type: typ, Vessel: *v}
	subs := make([]func(Event), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	// Notify outside the lock so subscribers may call back into the registry.
	for _, sub := range subs {
		sub(event)
	}
	return nil
}

// Subscribe registers a callback for registry events. It returns an
// unsubscribe function.
func (r *Registry) Subscribe(fn func(Event)) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.subs[id] = fn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}
}
