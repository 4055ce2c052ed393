package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/oblate-geodesy/flight"
	"github.com/signalsfoundry/oblate-geodesy/internal/logging"
	"github.com/signalsfoundry/oblate-geodesy/internal/observability"
	"github.com/signalsfoundry/oblate-geodesy/kb"
	"github.com/signalsfoundry/oblate-geodesy/model"
	"github.com/signalsfoundry/oblate-geodesy/terrain"
	"github.com/signalsfoundry/oblate-geodesy/timectrl"
)

// ISS sample TLE, epoch 2021-10-02.
const (
	issTLE1 = "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
	issTLE2 = "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
)

type config struct {
	duration    time.Duration
	step        time.Duration
	accelerated bool
	start       time.Time
	metricsAddr string

	kerbinEquatorial float64
	kerbinPolar      float64
}

func parseFlags(args []string) (config, error) {
	fs := flag.NewFlagSet("oblatesim", flag.ContinueOnError)
	duration := fs.Duration("duration", 60*time.Second, "total simulation duration")
	step := fs.Duration("step", 1*time.Second, "physics frame step")
	accelerated := fs.Bool("accelerated", true, "run in accelerated mode (vs real-time)")
	start := fs.String("start", "2021-10-02T00:00:00Z", "simulation start time (RFC 3339)")
	metricsAddr := fs.String("metrics-addr", "", "HTTP address for Prometheus /metrics; empty disables")
	equatorial := fs.Float64("kerbin-equatorial-radius", 0, "Kerbin equatorial radius override in metres; <= 0 keeps the mean radius")
	polar := fs.Float64("kerbin-polar-radius", 570000, "Kerbin polar radius override in metres; <= 0 keeps the mean radius")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	startTime, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		return config{}, fmt.Errorf("invalid -start: %w", err)
	}
	if *step <= 0 {
		return config{}, fmt.Errorf("invalid -step %s: must be positive", *step)
	}

	return config{
		duration:         *duration,
		step:             *step,
		accelerated:      *accelerated,
		start:            startTime.UTC(),
		metricsAddr:      *metricsAddr,
		kerbinEquatorial: *equatorial,
		kerbinPolar:      *polar,
	}, nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	if err := run(ctx, cfg, os.Stdout, log, prometheus.DefaultRegisterer); err != nil {
		log.Error(ctx, "simulation failed", logging.Err(err))
		os.Exit(1)
	}
}

// scenario is the demo system: an oblate, ocean-covered Kerbin with relief
// terrain and an Earth-sized WGS84 ellipsoid for the SGP4-propagated vessel.
type scenario struct {
	reg     *kb.Registry
	tracker *flight.Tracker
}

func buildScenario(ctx context.Context, cfg config, log logging.Logger, geo *observability.GeodesyCollector, metrics *observability.TrackerCollector) (*scenario, error) {
	reg := kb.NewRegistry(kb.WithLogger(log))

	kerbin := model.NewBody("kerbin", "Kerbin", 600000, mgl64.Vec3{})
	kerbin.HasOcean = true
	kerbin.SetRotation(0.25)

	earth := model.NewBody("earth", "Earth", 6378137, mgl64.Vec3{1e10, 0, 0})
	earth.HasOcean = true

	for _, b := range []*model.Body{kerbin, earth} {
		if err := reg.AddBody(b); err != nil {
			return nil, err
		}
	}
	if err := reg.ConfigureShape(ctx, kerbin.ID, model.ShapeOverrides{
		EquatorialRadius: cfg.kerbinEquatorial,
		PolarRadius:      cfg.kerbinPolar,
	}); err != nil {
		return nil, err
	}
	if err := reg.ConfigureShape(ctx, earth.ID, model.ShapeOverrides{PolarRadius: 6356752.314245}); err != nil {
		return nil, err
	}

	tracker := flight.NewTracker(reg,
		flight.WithLogger(log),
		flight.WithGeodesyCollector(geo),
		flight.WithTrackerCollector(metrics),
	)
	relief := terrain.Relief{Offset: 150, Amplitude: 400, LatWaves: 6, LonWaves: 9}
	if err := tracker.SetTerrain(kerbin.ID, terrain.NewSampler(kerbin, relief)); err != nil {
		return nil, err
	}

	vessels := []*model.Vessel{
		{ID: "boat", Name: "Kerbin Boat", BodyID: kerbin.ID},
		{ID: "rover", Name: "Polar Rover", BodyID: kerbin.ID, MotionSource: model.MotionSourceSurfaceTrack},
		{ID: "iss", Name: "ISS", BodyID: earth.ID, MotionSource: model.MotionSourceSpacetrack},
	}
	for _, v := range vessels {
		if err := reg.AddVessel(v); err != nil {
			return nil, err
		}
	}

	if _, err := tracker.PlaceOnSurface(ctx, "boat", -5, 74, 0); err != nil {
		return nil, err
	}
	if err := tracker.SetMotionModel("rover", &flight.SurfaceTrackMotionModel{
		Start:   cfg.start,
		Lat0:    70,
		Lon0:    -30,
		LatRate: 0.05,
		LonRate: 0.2,
		Alt:     2500,
	}); err != nil {
		return nil, err
	}
	iss, err := reg.GetVessel("iss")
	if err != nil {
		return nil, err
	}
	if err := tracker.SetMotionModel("iss", flight.NewMotionModel(&iss, issTLE1, issTLE2)); err != nil {
		return nil, err
	}

	return &scenario{reg: reg, tracker: tracker}, nil
}

func run(ctx context.Context, cfg config, out io.Writer, log logging.Logger, promReg prometheus.Registerer) error {
	geo, err := observability.NewGeodesyCollector(promReg)
	if err != nil {
		return fmt.Errorf("geodesy metrics: %w", err)
	}
	metrics, err := observability.NewTrackerCollector(promReg)
	if err != nil {
		return fmt.Errorf("tracker metrics: %w", err)
	}
	if cfg.metricsAddr != "" {
		srv := serveMetrics(cfg.metricsAddr, geo, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	sc, err := buildScenario(ctx, cfg, log, geo, metrics)
	if err != nil {
		return fmt.Errorf("build scenario: %w", err)
	}

	mode := timectrl.RealTime
	if cfg.accelerated {
		mode = timectrl.Accelerated
	}
	fc := timectrl.NewFrameController(cfg.start, cfg.step, mode)

	var stepErr error
	fc.AddListener(func(ctx context.Context, f timectrl.Frame) {
		frameLog := log.With(logging.Int("frame", int(f.Index)))
		ctx = logging.ContextWithLogger(ctx, frameLog)
		if err := sc.tracker.Step(ctx, f.SimTime); err != nil {
			frameLog.Warn(ctx, "tracker step failed", logging.Err(err))
			stepErr = err
			return
		}
		printFrame(out, f, sc.reg.ListVessels())
	})

	log.Info(ctx, "starting simulation",
		logging.String("duration", cfg.duration.String()),
		logging.String("step", cfg.step.String()),
		logging.String("mode", mode.String()),
	)
	<-fc.Run(ctx, cfg.duration)
	log.Info(ctx, "simulation complete", logging.Int("frames", int(fc.Frames())))
	return stepErr
}

func printFrame(out io.Writer, f timectrl.Frame, vessels []model.Vessel) {
	fmt.Fprintf(out, "[%s] frame %d\n", f.SimTime.Format(time.RFC3339), f.Index)
	for _, v := range vessels {
		st := v.State
		fmt.Fprintf(out, "  %-6s %-6s lat=%8.3f lon=%9.3f alt=%11.1f m sph=%11.1f m terrain=%7.1f m agl=%9.1f m\n",
			v.ID, v.BodyID, st.Lat, st.Lon, st.Alt, st.SphericalAltitude, st.TerrainAltitude, st.HeightFromTerrain)
	}
}

func serveMetrics(addr string, collector *observability.GeodesyCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
