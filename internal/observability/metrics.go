package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation labels for geodesy query metrics.
const (
	OpSeaLevelRadius    = "sea_level_radius"
	OpGeodeticUp        = "geodetic_up"
	OpAltitude          = "altitude"
	OpSphericalAltitude = "spherical_altitude"
	OpLatLonAlt         = "lat_lon_alt"
	OpSurfacePosition   = "surface_position"
	OpTerrainAltitude   = "terrain_altitude"
)

// GeodesyCollector counts geodesy queries issued by host-side consumers.
// The core routines stay free of instrumentation; callers record here.
type GeodesyCollector struct {
	gatherer prometheus.Gatherer

	Queries    *prometheus.CounterVec
	Degenerate *prometheus.CounterVec
}

// NewGeodesyCollector registers geodesy metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewGeodesyCollector(reg prometheus.Registerer) (*GeodesyCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	queries, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geodesy_queries_total",
		Help: "Total number of geodesy queries, labeled by operation.",
	}, []string{"operation"}), "geodesy_queries_total")
	if err != nil {
		return nil, err
	}

	degenerate, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geodesy_degenerate_inputs_total",
		Help: "Queries whose position coincided with the body centre, labeled by operation.",
	}, []string{"operation"}), "geodesy_degenerate_inputs_total")
	if err != nil {
		return nil, err
	}

	return &GeodesyCollector{
		gatherer:   gatherer,
		Queries:    queries,
		Degenerate: degenerate,
	}, nil
}

// ObserveQuery increments the query counter for op.
func (c *GeodesyCollector) ObserveQuery(op string) {
	if c == nil || c.Queries == nil {
		return
	}
	c.Queries.WithLabelValues(op).Inc()
}

// ObserveDegenerate increments the degenerate-input counter for op.
func (c *GeodesyCollector) ObserveDegenerate(op string) {
	if c == nil || c.Degenerate == nil {
		return
	}
	c.Degenerate.WithLabelValues(op).Inc()
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *GeodesyCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *GeodesyCollector) Handler() http.Handler {
	return HandlerFor(c.Gatherer())
}

// HandlerFor returns a /metrics handler for gatherer, falling back to the
// default gatherer when nil.
func HandlerFor(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// register adds c to reg, reusing an already-registered collector of the
// same type so collectors can be constructed more than once per registry.
func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		var zero T
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return zero, err
	}
	return c, nil
}
