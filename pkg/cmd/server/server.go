package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/raceviz/race-view-service-go/log"
	"github.com/raceviz/race-view-service-go/pkg/config"
	"github.com/raceviz/race-view-service-go/pkg/insight"
	"github.com/raceviz/race-view-service-go/pkg/lidar"
	"github.com/raceviz/race-view-service-go/pkg/server"
	"github.com/raceviz/race-view-service-go/pkg/sim"
	"github.com/raceviz/race-view-service-go/pkg/track"
	"github.com/raceviz/race-view-service-go/pkg/utils"
	"github.com/raceviz/race-view-service-go/pkg/utils/certs/traefik"
)

var telemetry *config.Telemetry

func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "starts the race simulation server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.ServerAddr,
		"addr",
		"a",
		"localhost:8000",
		"listen address for the HTTP server")
	cmd.Flags().StringVar(&config.TrackFile,
		"track-file",
		"",
		"YAML track definition (empty: built-in layout)")
	cmd.Flags().BoolVar(&config.WatchTrackFile,
		"watch-track-file",
		false,
		"reload the track file when it changes")
	cmd.Flags().IntVar(&config.NumCars,
		"num-cars",
		sim.DefaultNumCars,
		"number of cars on the grid")
	cmd.Flags().IntVar(&config.TotalLaps,
		"total-laps",
		sim.DefaultTotalLaps,
		"race distance in laps")
	cmd.Flags().StringVar(&config.BroadcastInterval,
		"broadcast-interval",
		"100ms",
		"cadence of state broadcasts")
	cmd.Flags().BoolVar(&config.LidarEnabled,
		"lidar",
		false,
		"attach ranged-sensor sweeps to car samples")
	cmd.Flags().StringVar(&config.InsightURL,
		"insight-url",
		"",
		"base URL of the driver insight service")
	cmd.Flags().StringVar(&config.InsightTimeout,
		"insight-timeout",
		"10s",
		"request timeout for insight fetches")
	cmd.Flags().StringVar(&config.InsightCacheTTL,
		"insight-cache-ttl",
		"10m",
		"per-driver cache expiration for insight reports")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"if set, race states are mirrored to this NATS server")
	cmd.Flags().StringVar(&config.TraefikCerts,
		"traefik-certs",
		"",
		"traefik acme.json holding the TLS certificates (empty: serve plain HTTP)")
	cmd.Flags().StringVar(&config.CertDomain,
		"cert-domain",
		"",
		"domain to pick from the traefik certificate store")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to provide profiling data on (0: disabled)")
	return cmd
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

func setupLogger() {
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		logger = log.DevLogger(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.DebugLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}
	if config.LogFilter != "" {
		filtered, err := logger.WithFilterRules(config.LogFilter)
		if err != nil {
			log.Warn("invalid log filter rules, ignoring",
				log.String("rules", config.LogFilter),
				log.ErrorField(err))
		} else {
			logger = filtered
		}
	}
	log.ResetDefault(logger)
}

//nolint:funlen,cyclop // wiring it all up
func startServer(ctx context.Context) error {
	setupLogger()

	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // by design
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	waitForRequiredServices()

	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		var err error
		if telemetry, err = config.SetupTelemetry(ctx); err != nil {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	loader := track.NewLoader(track.WithFile(config.TrackFile))
	trk, err := loader.Load()
	if err != nil {
		log.Error("could not load track", log.ErrorField(err))
		return err
	}

	srvOpts := []server.Option{server.WithRace(setupRace(trk))}
	if interval, err := time.ParseDuration(config.BroadcastInterval); err == nil {
		srvOpts = append(srvOpts, server.WithBroadcastInterval(interval))
	} else {
		log.Warn("invalid broadcast interval, using default",
			log.String("value", config.BroadcastInterval))
	}
	if insightSvc := setupInsight(); insightSvc != nil {
		srvOpts = append(srvOpts, server.WithInsightService(insightSvc))
	}
	if config.NatsURL != "" {
		publisher, err := server.NewNatsPublisher(config.NatsURL)
		if err != nil {
			log.Error("could not connect state mirror", log.ErrorField(err))
			return err
		}
		srvOpts = append(srvOpts, server.WithStatePublisher(publisher))
	}
	srv := server.NewServer(trk, srvOpts...)

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	go srv.Run(loopCtx)

	if config.WatchTrackFile && config.TrackFile != "" {
		if err := loader.Watch(loopCtx, srv.ReplaceTrack); err != nil {
			log.Warn("could not watch track file", log.ErrorField(err))
		}
	}

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	log.Info("Starting server", log.String("addr", config.ServerAddr))
	//nolint:gosec // by design
	httpServer := &http.Server{
		Addr:    config.ServerAddr,
		Handler: h2c.NewHandler(newCORS().Handler(mux), &http2.Server{}),
	}
	serveErr := make(chan error, 1)
	if config.TraefikCerts != "" {
		cert, certErr := traefik.CertFromStore(config.TraefikCerts, config.CertDomain)
		if certErr != nil {
			log.Error("could not load TLS certificate", log.ErrorField(certErr))
			return certErr
		}
		httpServer.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		go func() {
			serveErr <- httpServer.ListenAndServeTLS("", "")
		}()
	} else {
		go func() {
			serveErr <- httpServer.ListenAndServe()
		}()
	}
	setupGoRoutinesDump()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	select {
	case err := <-serveErr:
		log.Error("server could not be started", log.ErrorField(err))
		return err
	case v := <-sigChan:
		log.Debug("Got signal ", log.Any("signal", v))
	}
	stopLoop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown", log.ErrorField(err))
	}
	if telemetry != nil {
		telemetry.Shutdown()
	}
	log.Info("Server terminated")
	return nil
}

func setupRace(trk *track.Track) *sim.RaceSim {
	simOpts := []sim.Option{
		sim.WithTrack(trk),
		sim.WithNumCars(config.NumCars),
		sim.WithTotalLaps(config.TotalLaps),
	}
	if config.LidarEnabled {
		simOpts = append(simOpts, sim.WithRangeScanner(lidar.NewScanner()))
	}
	return sim.NewRaceSim(simOpts...)
}

func setupInsight() *insight.Service {
	if config.InsightURL == "" {
		return nil
	}
	clientOpts := []insight.ClientOption{}
	if timeout, err := time.ParseDuration(config.InsightTimeout); err == nil {
		clientOpts = append(clientOpts, insight.WithTimeout(timeout))
	}
	svcOpts := []insight.ServiceOption{}
	if ttl, err := time.ParseDuration(config.InsightCacheTTL); err == nil {
		svcOpts = append(svcOpts, insight.WithCacheTTL(ttl))
	}
	return insight.NewService(
		insight.NewClient(config.InsightURL, clientOpts...),
		svcOpts...)
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

func waitForRequiredServices() {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}

	wg := sync.WaitGroup{}
	checkTCP := func(addr string) {
		if err = utils.WaitForTCP(addr, timeout); err != nil {
			log.Fatal("required services not ready", log.ErrorField(err))
		}
		wg.Done()
	}

	if config.NatsURL != "" {
		if u, parseErr := url.Parse(config.NatsURL); parseErr == nil && u.Host != "" {
			wg.Add(1)
			go checkTCP(u.Host)
		}
	}
	if config.InsightURL != "" {
		wg.Add(1)
		go func() {
			if err = utils.WaitForHTTPResponse(config.InsightURL, timeout); err != nil {
				log.Warn("insight service not ready", log.ErrorField(err))
			}
			wg.Done()
		}()
	}
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
	log.Debug("Required services are available")
}

func newCORS() *cors.Cors {
	// The browser front end may be served from anywhere, so the CORS
	// setup is very permissive.
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			"Accept",
			"Accept-Encoding",
			"Content-Encoding",
			"Content-Type",
		},
		MaxAge: int(2 * time.Hour / time.Second),
	})
}
