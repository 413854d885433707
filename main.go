package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fakhrymubarak/gyeonggi-weather/internal/config"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/handler"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/logger"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/metrics"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/middleware"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/redis"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/repository"
	"github.com/fakhrymubarak/gyeonggi-weather/internal/service"
)

const shutdownTimeout = 10 * time.Second

// newWeatherService wires the repository to the configured transport. The
// outbound client has no timeout; every call is logged.
func newWeatherService(m *metrics.Metrics) (*service.WeatherService, error) {
	client := &http.Client{Transport: logger.NewRoundTripper(config.GetLogger())}
	transport, err := repository.NewTransport(config.GetKMATransport(), config.GetKMAProxyUrl(), client)
	if err != nil {
		return nil, err
	}

	svc := service.NewWeatherService(repository.NewWeatherRepository(transport))
	svc.Metrics = m
	return svc, nil
}

// routes are the paths the request counter labels by name.
var routes = []string{"/", "/weather", "/cities", "/metrics"}

// newMux registers the page, the JSON endpoints and /metrics. The page
// rate-limits its own fetches so a limited click still renders HTML.
func newMux(h *handler.WeatherHandler, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.HandleIndex)
	mux.Handle("/weather", middleware.RateLimitMiddleware(http.HandlerFunc(h.HandleWeather)))
	mux.HandleFunc("/cities", h.HandleCities)
	mux.Handle("/metrics", m.Handler())
	return mux
}

func newServer(m *metrics.Metrics) (*http.Server, error) {
	svc, err := newWeatherService(m)
	if err != nil {
		return nil, err
	}

	h := handler.NewWeatherHandler(svc)
	h.Limiter = middleware.Allow
	mux := newMux(h, m)
	return &http.Server{
		Addr:              ":" + config.GetServerPort(),
		Handler:           middleware.RequestID(m.Instrument(mux, routes...)),
		ReadHeaderTimeout: config.GetServerTimeout("read_header_timeout", 15*time.Second),
		ReadTimeout:       config.GetServerTimeout("read_timeout", 15*time.Second),
		WriteTimeout:      config.GetServerTimeout("write_timeout", 10*time.Second),
		IdleTimeout:       config.GetServerTimeout("idle_timeout", 30*time.Second),
	}, nil
}

func run(ctx context.Context) error {
	log := config.GetLogger()

	if config.GetKMAServiceKey() == "" {
		log.Warnw("KMA_SERVICE_KEY is not set, every fetch will fail")
	}
	if config.IsCacheEnabled() {
		if err := redis.Ping(ctx); err != nil {
			log.Warnw("Redis unreachable, slot cache will be bypassed", "addr", config.GetRedisAddr(), "error", err)
		}
	}

	srv, err := newServer(metrics.NewMetrics("gyeonggi_weather"))
	if err != nil {
		return err
	}
	middleware.StartRateLimiterCleanup(ctx)

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("Starting weather server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Infow("Shutting down weather server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		config.GetLogger().Fatalw("Server stopped", "error", err)
	}
}
