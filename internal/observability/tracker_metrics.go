package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TrackerCollector exposes per-frame flight tracker metrics.
type TrackerCollector struct {
	gatherer prometheus.Gatherer

	FrameDuration prometheus.Histogram
	Vessels       prometheus.Gauge
	// AltitudeDelta is oblate minus spherical altitude per vessel: how far
	// the physics altitude departs from the buoyancy altitude.
	AltitudeDelta *prometheus.GaugeVec
}

// NewTrackerCollector registers tracker metrics against the provided registerer.
func NewTrackerCollector(reg prometheus.Registerer) (*TrackerCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	frameHistogram, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tracker_frame_duration_seconds",
		Help:    "Duration of one tracker frame across all vessels.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}), "tracker_frame_duration_seconds")
	if err != nil {
		return nil, err
	}

	vessels, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracker_vessels",
		Help: "Number of vessels updated in the last tracker frame.",
	}), "tracker_vessels")
	if err != nil {
		return nil, err
	}

	delta, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tracker_altitude_model_delta_meters",
		Help: "Oblate altitude minus spherical altitude for each vessel.",
	}, []string{"vessel"}), "tracker_altitude_model_delta_meters")
	if err != nil {
		return nil, err
	}

	return &TrackerCollector{
		gatherer:      gatherer,
		FrameDuration: frameHistogram,
		Vessels:       vessels,
		AltitudeDelta: delta,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *TrackerCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveFrame records a frame duration and the number of vessels processed.
func (c *TrackerCollector) ObserveFrame(d time.Duration, vessels int) {
	if c == nil {
		return
	}
	if c.FrameDuration != nil {
		c.FrameDuration.Observe(d.Seconds())
	}
	if c.Vessels != nil {
		c.Vessels.Set(float64(vessels))
	}
}

// SetAltitudeDelta records the oblate/spherical altitude difference for a vessel.
func (c *TrackerCollector) SetAltitudeDelta(vesselID string, delta float64) {
	if c == nil || c.AltitudeDelta == nil {
		return
	}
	c.AltitudeDelta.WithLabelValues(vesselID).Set(delta)
}

// ForgetVessel drops the per-vessel series for a removed vessel.
func (c *TrackerCollector) ForgetVessel(vesselID string) {
	if c == nil || c.AltitudeDelta == nil {
		return
	}
	c.AltitudeDelta.DeleteLabelValues(vesselID)
}
