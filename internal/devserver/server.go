// Package devserver serves a built project, rebuilds it when sources change and
// tells connected pages to reload.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/wolfeidau/temple/internal/buildconfig"
	httpmiddleware "github.com/wolfeidau/temple/internal/http"
	"github.com/wolfeidau/temple/internal/telemetry"
)

const (
	defaultDebounce        = 200 * time.Millisecond
	defaultShutdownTimeout = 5 * time.Second
)

// ErrUnchanged may be returned by a RebuildFunc when the rebuild produced the
// same output as before; no reload is sent.
var ErrUnchanged = errors.New("build output unchanged")

// RebuildFunc rebuilds the project after a source change.
type RebuildFunc func(ctx context.Context) error

type options struct {
	debounce        time.Duration
	shutdownTimeout time.Duration
	corsOrigins     []string
	logger          zerolog.Logger
}

// Option configures a Server.
type Option func(*options)

// WithDebounce sets how long the watcher waits for changes to settle.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) { o.shutdownTimeout = d }
}

// WithCORS allows cross-origin requests from origins ("*" for any).
func WithCORS(origins ...string) Option {
	return func(o *options) { o.corsOrigins = origins }
}

// WithLogger sets the logger for requests and rebuilds.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Server is the development server for one project.
type Server struct {
	config  buildconfig.Config
	rebuild RebuildFunc
	opts    options
	broker  *broker
}

// New creates a server for cfg. rebuild runs after every debounced change.
func New(cfg buildconfig.Config, rebuild RebuildFunc, opts ...Option) *Server {
	o := options{
		debounce:        defaultDebounce,
		shutdownTimeout: defaultShutdownTimeout,
		logger:          log.Logger,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Server{
		config:  cfg.Resolved(),
		rebuild: rebuild,
		opts:    o,
		broker:  newBroker(o.logger),
	}
}

// Handler serves the static directory and the reload event stream.
func (s *Server) Handler() http.Handler {
	var files http.Handler = http.FileServer(http.Dir(s.config.DevServer.Static.Directory))
	if s.config.DevServer.Compress {
		files = gzhttp.GzipHandler(files)
	}

	mux := http.NewServeMux()
	mux.Handle("GET "+EventsPath, s.broker)
	mux.Handle("/", files)

	var handler http.Handler = mux
	if len(s.opts.corsOrigins) > 0 {
		handler = withCORS(s.opts.corsOrigins, handler)
	}
	handler = httpmiddleware.NoCache(handler)
	handler = httpmiddleware.RequestLogger(s.opts.logger)(handler)
	handler = httpmiddleware.ClientIPMiddleware()(handler)

	return handler
}

// Run serves until ctx is cancelled, rebuilding on source changes.
func (s *Server) Run(ctx context.Context) error {
	dev := s.config.DevServer
	host := dev.Host
	if host == "" {
		host = buildconfig.DefaultHost
	}

	if err := buildconfig.CheckPortAvailable(ctx, host, dev.Port); err != nil {
		return err
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", dev.ListenAddr())
	if err != nil {
		return fmt.Errorf("%w: %v", buildconfig.ErrPortInUse, err)
	}

	root := s.config.Context
	if root == "" {
		root = "."
	}

	w, err := newWatcher(root, []string{s.config.Output.Path, dev.Static.Directory}, s.opts.debounce, s.opts.logger)
	if err != nil {
		_ = ln.Close()
		return err
	}

	srv := configureHTTPServer(ln.Addr().String(), s.Handler())
	srv.RegisterOnShutdown(s.broker.close)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.opts.logger.Info().Str("url", "http://"+dev.ListenAddr()).Msg("Serving")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return w.run(gctx, s.Rebuild)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.shutdownTimeout)
		defer cancel()

		s.opts.logger.Info().Msg("Shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Rebuild runs the rebuild function and, when it succeeds, signals connected
// pages to reload. Failures are logged and the last good output keeps serving.
func (s *Server) Rebuild(ctx context.Context) {
	started := time.Now()
	err := s.rebuild(ctx)
	switch {
	case errors.Is(err, ErrUnchanged):
		s.opts.logger.Info().Dur("duration", time.Since(started)).Msg("Rebuilt, output unchanged")
		return
	case err != nil:
		s.opts.logger.Error().Err(err).Msg("Rebuild failed")
		return
	}

	buildID := uuid.NewString()
	clients := s.broker.publish(buildID)
	telemetry.GetMetrics().ReloadsTotal.Add(ctx, 1)
	s.opts.logger.Info().
		Str("build_id", buildID).
		Int("clients", clients).
		Dur("duration", time.Since(started)).
		Msg("Rebuilt")
}

// withCORS lets pages served from other origins load the bundles and subscribe
// to reload events.
func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead},
	})
	return middleware.Handler(h)
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}
