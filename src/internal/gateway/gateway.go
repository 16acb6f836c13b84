// FILE: logsproxy/src/internal/gateway/gateway.go
package gateway

import (
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"logsproxy/src/internal/config"
	"logsproxy/src/internal/metrics"
	"logsproxy/src/internal/ratelimit"
	"logsproxy/src/internal/region"
	ltls "logsproxy/src/internal/tls"
	"logsproxy/src/internal/translate"

	"github.com/lixenwraith/log"
	"github.com/valyala/fasthttp"
)

// Gateway accepts OTLP log exports over HTTP, translates them to trace
// exports and forwards them to the upstream collector of the caller's region.
type Gateway struct {
	cfg        *config.Config
	logger     *log.Logger
	translator *translate.Translator
	resolver   *region.Resolver
	origins    *originPolicy
	limiter    *ratelimit.Limiter
	metrics    *metrics.Metrics
	client     *fasthttp.Client
	server     *fasthttp.Server
	serverTLS  *tls.Config
	listener   net.Listener
	wg         sync.WaitGroup

	maxBodySize     int64
	upstreamTimeout time.Duration

	// Statistics
	startTime        time.Time
	totalRequests    atomic.Uint64
	logRequests      atomic.Uint64
	translated       atomic.Uint64
	spansEmitted     atomic.Uint64
	forwarded        atomic.Uint64
	passThrough      atomic.Uint64
	upstreamFailures atomic.Uint64
	clientErrors     atomic.Uint64
	internalErrors   atomic.Uint64
	rateLimited      atomic.Uint64
	lastForwardTime  atomic.Value // time.Time
}

// New creates a gateway from a validated configuration
func New(cfg *config.Config, logger *log.Logger) (*Gateway, error) {
	if cfg == nil {
		return nil, fmt.Errorf("gateway requires a configuration")
	}
	if logger == nil {
		return nil, fmt.Errorf("gateway requires a logger")
	}

	resolver, err := region.New(cfg.Upstream.TokenPattern, cfg.Upstream.DefaultRegion, cfg.Upstream.URLTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to create region resolver: %w", err)
	}

	translator := translate.New(translate.Options{
		ProxyName:          cfg.Translate.ProxyName,
		MaxNameLength:      int(cfg.Translate.MaxNameLength),
		PlaceholderName:    cfg.Translate.PlaceholderName,
		PreferObservedTime: cfg.Translate.PreferObservedTime,
	}, nil)

	upstreamTimeout := time.Duration(cfg.Upstream.TimeoutMS) * time.Millisecond
	if upstreamTimeout <= 0 {
		upstreamTimeout = 30 * time.Second
	}

	g := &Gateway{
		cfg:             cfg,
		logger:          logger,
		translator:      translator,
		resolver:        resolver,
		origins:         newOriginPolicy(cfg.CORS),
		maxBodySize:     cfg.Server.MaxRequestBodySize,
		upstreamTimeout: upstreamTimeout,
		startTime:       time.Now(),
	}
	g.lastForwardTime.Store(time.Time{})

	clientTLS, err := ltls.ClientConfig(cfg.Upstream)
	if err != nil {
		return nil, fmt.Errorf("failed to configure upstream TLS: %w", err)
	}

	serverTLS, err := ltls.ServerConfig(cfg.Server.TLS)
	if err != nil {
		return nil, fmt.Errorf("failed to configure server TLS: %w", err)
	}
	g.serverTLS = serverTLS

	g.client = &fasthttp.Client{
		Name:                     "logsproxy",
		NoDefaultUserAgentHeader: true,
		MaxConnsPerHost:          int(cfg.Upstream.MaxConnsPerHost),
		MaxIdleConnDuration:      90 * time.Second,
		ReadTimeout:              upstreamTimeout,
		WriteTimeout:             upstreamTimeout,
		DisablePathNormalizing:   true,
		TLSConfig:                clientTLS,
	}

	if cfg.Metrics.Enabled {
		g.metrics = metrics.New()
		logger.Info("msg", "Prometheus metrics enabled",
			"component", "gateway",
			"path", cfg.Metrics.Path)
	}

	if cfg.NetLimit.Enabled {
		g.limiter = ratelimit.New(
			cfg.NetLimit.RequestsPerSecond,
			int(cfg.NetLimit.BurstSize),
			time.Duration(cfg.NetLimit.CleanupIntervalS)*time.Second,
		)
		logger.Info("msg", "Inbound rate limiting enabled",
			"component", "gateway",
			"requests_per_second", cfg.NetLimit.RequestsPerSecond,
			"burst_size", cfg.NetLimit.BurstSize)
	}

	return g, nil
}

// Start binds the listener and serves requests in the background
func (g *Gateway) Start() error {
	g.server = &fasthttp.Server{
		Handler:            g.Handler,
		Name:               "logsproxy",
		ReadTimeout:        time.Duration(g.cfg.Server.ReadTimeoutMS) * time.Millisecond,
		WriteTimeout:       time.Duration(g.cfg.Server.WriteTimeoutMS) * time.Millisecond,
		MaxRequestBodySize: int(g.maxBodySize),
		CloseOnShutdown:    true,
		NoDefaultDate:      true,
		TLSConfig:          g.serverTLS,
	}

	addr := net.JoinHostPort(g.cfg.Server.Host, fmt.Sprintf("%d", g.cfg.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	g.listener = ln

	useTLS := g.serverTLS != nil

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fields := []any{
			"msg", "Gateway server starting",
			"component", "gateway",
			"address", ln.Addr().String(),
			"tls", useTLS,
		}
		if useTLS {
			fields = append(fields, "tls_min_version", ltls.VersionString(g.serverTLS.MinVersion))
		}
		g.logger.Info(fields...)

		var err error
		if useTLS {
			// Certificates come from TLSConfig
			err = g.server.ServeTLS(ln, "", "")
		} else {
			err = g.server.Serve(ln)
		}
		if err != nil {
			g.logger.Error("msg", "Gateway server failed",
				"component", "gateway",
				"address", ln.Addr().String(),
				"error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, empty before Start
func (g *Gateway) Addr() string {
	if g.listener == nil {
		return ""
	}
	return g.listener.Addr().String()
}

// Stop shuts the server down and waits for the serve loop to exit
func (g *Gateway) Stop() {
	g.logger.Info("msg", "Stopping gateway", "component", "gateway")

	if g.server != nil {
		if err := g.server.Shutdown(); err != nil {
			g.logger.Error("msg", "Error shutting down gateway server",
				"component", "gateway",
				"error", err)
		}
	}

	if g.limiter != nil {
		g.limiter.Stop()
	}

	g.wg.Wait()
	g.client.CloseIdleConnections()

	g.logger.Info("msg", "Gateway stopped", "component", "gateway")
}

// Stats is a point-in-time snapshot of gateway counters
type Stats struct {
	StartTime        time.Time
	LastForwardTime  time.Time
	TotalRequests    uint64
	LogRequests      uint64
	Translated       uint64
	SpansEmitted     uint64
	Forwarded        uint64
	PassThrough      uint64
	UpstreamFailures uint64
	ClientErrors     uint64
	InternalErrors   uint64
	RateLimited      uint64
	NetLimit         map[string]any
}

// GetStats returns a snapshot of the gateway counters
func (g *Gateway) GetStats() Stats {
	lastForward, _ := g.lastForwardTime.Load().(time.Time)

	var netLimitStats map[string]any
	if g.limiter != nil {
		netLimitStats = g.limiter.GetStats()
	}

	return Stats{
		StartTime:        g.startTime,
		LastForwardTime:  lastForward,
		TotalRequests:    g.totalRequests.Load(),
		LogRequests:      g.logRequests.Load(),
		Translated:       g.translated.Load(),
		SpansEmitted:     g.spansEmitted.Load(),
		Forwarded:        g.forwarded.Load(),
		PassThrough:      g.passThrough.Load(),
		UpstreamFailures: g.upstreamFailures.Load(),
		ClientErrors:     g.clientErrors.Load(),
		InternalErrors:   g.internalErrors.Load(),
		RateLimited:      g.rateLimited.Load(),
		NetLimit:         netLimitStats,
	}
}
