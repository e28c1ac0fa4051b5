package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gpxracer.app/internal/app"
	"gpxracer.app/internal/appconf"
	"gpxracer.app/internal/buildinfo"
	"gpxracer.app/internal/clock"
	"gpxracer.app/internal/logging"
	"gpxracer.app/internal/metrics"
	"gpxracer.app/internal/restapi"
	"gpxracer.app/internal/session"
	"gpxracer.app/internal/webui"
)

const (
	sessionCleanupInterval = time.Minute
	sessionGaugeInterval   = 15 * time.Second
	shutdownTimeout        = 30 * time.Second
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	coreApp, err := BuildApplication(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build application: %v\n", err)
		os.Exit(1)
	}

	srv, api := CreateServer(coreApp, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, srv, api, coreApp); err != nil {
		logging.LogError(coreApp.Logger, "server stopped with error", err)
		os.Exit(1)
	}
}

// parseFlags reads the command line. A --config file replaces every other
// flag, so combining them is rejected.
func parseFlags(args []string) (appconf.Config, error) {
	cfg := appconf.Default()
	fs := flag.NewFlagSet("gpxracer", flag.ContinueOnError)

	var env, configPath string
	fs.IntVar(&cfg.Port, "port", appconf.DefaultPort, "API server port")
	fs.StringVar(&env, "env", "development", "Environment (development|test|production)")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Enable debug logging")
	fs.IntVar(&cfg.RateLimit, "rate-limit", appconf.DefaultRateLimit, "Requests per second per client (negative disables)")
	fs.DurationVar(&cfg.AutoplayDuration, "autoplay", appconf.DefaultAutoplayDuration, "Time for a race to reach the finish")
	fs.DurationVar(&cfg.TickInterval, "tick", appconf.DefaultTickInterval, "Interval between streamed race frames")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", appconf.DefaultSessionTTL, "Idle time before a session is dropped (0 keeps sessions forever)")
	fs.Int64Var(&cfg.MaxUploadBytes, "max-upload", appconf.DefaultMaxUploadBytes, "Largest accepted GPX upload in bytes")
	fs.StringVar(&configPath, "config", "", "YAML config file; cannot be combined with other flags")

	if err := fs.Parse(args); err != nil {
		return appconf.Config{}, err
	}

	if configPath == "" {
		cfg.Env = appconf.EnvFlagToEnvironment(env)
		return cfg, nil
	}

	var others []string
	fs.Visit(func(f *flag.Flag) {
		if f.Name != "config" {
			others = append(others, "--"+f.Name)
		}
	})
	if len(others) > 0 {
		return appconf.Config{}, fmt.Errorf("--config cannot be combined with %v", others)
	}

	fileCfg, err := appconf.LoadFromFile(configPath)
	if err != nil {
		return appconf.Config{}, err
	}
	return fileCfg.ToAppConfig(), nil
}

// BuildApplication wires the shared dependencies and starts their
// background loops.
func BuildApplication(cfg appconf.Config) (*app.Application, error) {
	switch {
	case cfg.Port < 0 || cfg.Port > 65535:
		return nil, fmt.Errorf("invalid configuration: port %d out of range", cfg.Port)
	case cfg.AutoplayDuration <= 0:
		return nil, fmt.Errorf("invalid configuration: autoplay duration must be positive")
	case cfg.TickInterval <= 0:
		return nil, fmt.Errorf("invalid configuration: tick interval must be positive")
	case cfg.MaxUploadBytes <= 0:
		return nil, fmt.Errorf("invalid configuration: max upload size must be positive")
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewLogger(os.Stdout, level, cfg.Env == appconf.Development)
	slog.SetDefault(logger)

	c := clock.RealClock{}
	m := metrics.NewWithLogger(logger)
	sessions := session.NewStore(c, cfg.SessionTTL, logger)
	sessions.StartCleanup(sessionCleanupInterval)
	m.StartSessionCollector(sessions, sessionGaugeInterval)

	logging.LogOperation(logger, "application_built",
		slog.String("env", cfg.Env.String()),
		slog.String("version", buildinfo.Version),
		slog.String("commit", buildinfo.ShortHash()))

	return &app.Application{
		Config:   cfg,
		Logger:   logger,
		Clock:    c,
		Metrics:  m,
		Sessions: sessions,
	}, nil
}

// CreateServer builds the HTTP server and the API behind it. The caller
// must call api.Shutdown when done.
func CreateServer(coreApp *app.Application, cfg appconf.Config) (*http.Server, *restapi.RestAPI) {
	api := restapi.NewRestAPI(coreApp)
	webUI := &webui.WebUI{Application: coreApp}

	mux := http.NewServeMux()
	api.SetRoutes(mux)
	webUI.SetWebUIRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Handler(mux),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(coreApp.Logger.Handler(), slog.LevelError),
	}
	// open event streams would otherwise hold Shutdown until its deadline
	srv.RegisterOnShutdown(api.Shutdown)

	return srv, api
}

// Run serves until ctx is cancelled, then drains connections and stops the
// background loops.
func Run(ctx context.Context, srv *http.Server, api *restapi.RestAPI, coreApp *app.Application) error {
	logger := coreApp.Logger

	serveErr := make(chan error, 1)
	go func() {
		logging.LogOperation(logger, "server_starting",
			slog.String("addr", srv.Addr),
			slog.String("env", coreApp.Config.Env.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case err := <-serveErr:
		runErr = err
	case <-ctx.Done():
		logging.LogOperation(logger, "server_shutting_down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("server shutdown: %w", err)
	}

	api.Shutdown()
	coreApp.Sessions.Stop()
	coreApp.Metrics.Shutdown()

	logging.LogOperation(logger, "server_stopped")
	return runErr
}
