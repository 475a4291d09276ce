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
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rmitchellscott/nimbus/internal/briefing"
	"github.com/rmitchellscott/nimbus/internal/config"
	"github.com/rmitchellscott/nimbus/internal/fetch"
	"github.com/rmitchellscott/nimbus/internal/geolocate"
	"github.com/rmitchellscott/nimbus/internal/logging"
	"github.com/rmitchellscott/nimbus/internal/metrics"
	"github.com/rmitchellscott/nimbus/internal/server"
	"github.com/rmitchellscott/nimbus/metar"
	"github.com/rmitchellscott/nimbus/station"
)

// app holds everything a single invocation needs.
type app struct {
	cfg          *config.Config
	logger       *zap.Logger
	metrics      *metrics.Metrics
	svc          *briefing.Service
	locator      locator
	airportsPath string
	noRaw        bool
	out          io.Writer
}

// locator finds the caller's position.
type locator interface {
	Locate(ctx context.Context) (geolocate.Location, error)
}

func main() {
	// Define command-line flags
	configPath := flag.String("config", "", "Path to a TOML config file")
	airportsFlag := flag.String("airports", "", "Path to an airport-codes CSV (overrides config)")
	nearestFlag := flag.Bool("nearest", false, "Find nearest airport to your current location")
	latFlag := flag.Float64("lat", 0, "Latitude to find the nearest airport to (requires -lon)")
	lonFlag := flag.Float64("lon", 0, "Longitude to find the nearest airport to (requires -lat)")
	noRawFlag := flag.Bool("no-raw", false, "Hide raw data")
	flagNoColor := flag.Bool("no-color", false, "Disable color output")
	serveFlag := flag.Bool("serve", false, "Run the HTTP API")
	flag.Parse()

	if *flagNoColor {
		color.NoColor = true // disables colorized output globally
	}

	// Load configuration
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadWithFallback("")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck // stderr sync fails on some terminals

	a := newApp(cfg, log, *airportsFlag, *noRawFlag, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	latLonSet := map[string]bool{}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "lat" || f.Name == "lon" {
			latLonSet[f.Name] = true
		}
	})

	if err := a.run(ctx, runOptions{
		serve:   *serveFlag,
		nearest: *nearestFlag,
		latSet:  latLonSet["lat"],
		lonSet:  latLonSet["lon"],
		lat:     *latFlag,
		lon:     *lonFlag,
		args:    flag.Args(),
	}); err != nil {
		fmt.Printf("Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newApp wires the directory, fetcher and briefing service from cfg.
func newApp(cfg *config.Config, log *zap.Logger, airportsPath string, noRaw bool, out io.Writer) *app {
	if airportsPath == "" {
		airportsPath = cfg.Station.AirportsDBPath
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	client := fetch.NewClient(fetch.Config{
		BaseURL:    cfg.Weather.APIBaseURL,
		Timeout:    cfg.Weather.RequestTimeout(),
		MaxRetries: cfg.Weather.MaxRetries,
		Backoff:    cfg.Weather.RetryBackoff(),
	}, fetch.WithLogger(log), fetch.WithMetrics(m))
	cached := fetch.NewCachedFetcher(client, cfg.Weather.CacheExpiry(),
		fetch.WithLogger(log), fetch.WithMetrics(m))

	a := &app{
		cfg:          cfg,
		logger:       log,
		metrics:      m,
		locator:      geolocate.NewClient(cfg.Geolocation.APIURL, cfg.Geolocation.RequestTimeout(), log),
		airportsPath: airportsPath,
		noRaw:        noRaw,
		out:          out,
	}
	a.svc = briefing.New(a.loadDirectory(), cached, briefing.WithLogger(log), briefing.WithMetrics(m))

	return a
}

// loadDirectory reads the configured airport file, or the built-in directory
// when none is configured. An unreadable file gives an empty directory.
func (a *app) loadDirectory() *station.Directory {
	if a.airportsPath == "" {
		return station.Embedded(station.WithLogger(a.logger))
	}

	data, err := os.ReadFile(a.airportsPath)
	if err != nil {
		a.logger.Warn("Could not read airport database",
			zap.String("path", a.airportsPath),
			zap.Error(err))
		data = nil
	}

	return station.Load(string(data), station.WithLogger(a.logger))
}

type runOptions struct {
	serve   bool
	nearest bool
	latSet  bool
	lonSet  bool
	lat     float64
	lon     float64
	args    []string
}

// run picks the input source in order: piped stdin, -serve, -nearest,
// -lat/-lon, a positional station code, then an interactive prompt.
func (a *app) run(ctx context.Context, opts runOptions) error {
	// First check stdin for piped data
	if raw, ok := readFromStdin(); ok {
		a.printDecoded(raw)
		return nil
	}

	switch {
	case opts.serve:
		return a.serve(ctx)
	case opts.nearest:
		return a.briefNearest(ctx)
	case opts.latSet || opts.lonSet:
		if !opts.latSet || !opts.lonSet {
			return errors.New("-lat and -lon must be used together")
		}
		return a.briefPosition(ctx, station.Position{Latitude: opts.lat, Longitude: opts.lon})
	case len(opts.args) > 0:
		return a.briefInput(ctx, opts.args[0])
	default:
		input, err := promptForStationCode(os.Stdin, a.out)
		if err != nil {
			return err
		}
		return a.briefInput(ctx, input)
	}
}

// briefInput handles a typed station code or AUTO.
func (a *app) briefInput(ctx context.Context, input string) error {
	if strings.EqualFold(strings.TrimSpace(input), autoKeyword) {
		return a.briefNearest(ctx)
	}

	stationCode, err := normalizeStationCode(input)
	if err != nil {
		return err
	}

	b, err := a.svc.ForStation(ctx, stationCode)
	if err != nil {
		return err
	}

	fmt.Fprint(a.out, FormatBriefing(b, a.noRaw))
	return nil
}

// briefNearest geolocates the caller and briefs the nearest station.
func (a *app) briefNearest(ctx context.Context) error {
	fmt.Fprintln(a.out, "Finding your location...")

	loc, err := a.locator.Locate(ctx)
	if err != nil {
		return fmt.Errorf("could not determine your location: %w", err)
	}

	if loc.City != "" {
		fmt.Fprintf(a.out, "Location: %s, %s\n", loc.City, loc.Region)
	}

	return a.briefPosition(ctx, loc.Position())
}

// briefPosition briefs the station nearest to pos.
func (a *app) briefPosition(ctx context.Context, pos station.Position) error {
	if !pos.Valid() {
		return fmt.Errorf("position out of range: %g, %g", pos.Latitude, pos.Longitude)
	}

	b, err := a.svc.ForPosition(ctx, pos)
	if err != nil {
		return err
	}

	fmt.Fprint(a.out, FormatBriefing(b, a.noRaw))
	return nil
}

// printDecoded decodes a piped report without fetching. The station name is
// taken from the directory when the report's first group is a known station.
func (a *app) printDecoded(raw string) {
	b := briefing.Briefing{Conditions: a.svc.Decode(raw)}

	if fields := metar.Tokenize(raw); len(fields) > 0 {
		if r, ok := a.svc.Directory().Lookup(fields[0]); ok {
			b.Station = r
		} else {
			b.Station = station.Record{ID: fields[0], Name: fields[0]}
		}
	}

	fmt.Fprint(a.out, FormatBriefing(b, a.noRaw))
}

// serve runs the HTTP API until ctx is canceled. SIGHUP reloads the station
// directory.
func (a *app) serve(ctx context.Context) error {
	srv := server.NewServer(a.cfg.Server.Address(), a.svc, prometheus.DefaultGatherer, a.logger)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				a.logger.Info("Reloading station directory", zap.String("path", a.airportsPath))
				a.svc.SetDirectory(a.loadDirectory())
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
