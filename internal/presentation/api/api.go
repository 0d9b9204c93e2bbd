package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2vw/equinox/internal/domain"
	"github.com/2vw/equinox/internal/infrastructure/configs"
	"github.com/2vw/equinox/internal/infrastructure/logging"
	"github.com/2vw/equinox/internal/infrastructure/ratelimiter"
	"github.com/2vw/equinox/internal/infrastructure/ws"
	healthHandler "github.com/2vw/equinox/internal/presentation/handler/health"
	messagesHandler "github.com/2vw/equinox/internal/presentation/handler/messages"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Application struct {
	config          configs.Config
	healthHandler   *healthHandler.Handler
	messagesHandler *messagesHandler.Handler
	users           domain.UserRepository
	hub             *ws.Hub
	logger          logging.Logger
	ratelimiter     ratelimiter.Limiter
}

func NewApplication(
	config configs.Config,
	healthHandler *healthHandler.Handler,
	messagesHandler *messagesHandler.Handler,
	users domain.UserRepository,
	hub *ws.Hub,
	logger logging.Logger,
	ratelimiter ratelimiter.Limiter,
) *Application {
	return &Application{
		config:          config,
		healthHandler:   healthHandler,
		messagesHandler: messagesHandler,
		users:           users,
		hub:             hub,
		logger:          logger,
		ratelimiter:     ratelimiter,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(app.enableCors)
	r.Use(app.loggerMiddleware)
	r.Use(app.prometheusMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Route("/rooms", func(r chi.Router) {
			r.Use(app.authMiddleware)

			// Only message creation sits behind the admission
			// limiter; deletes, typing and reads are not budgeted.
			r.With(app.admissionMiddleware).
				Post("/{roomId}/messages", app.messagesHandler.CreateMessageHandler)

			r.Get("/{roomId}/messages", app.messagesHandler.ListMessagesHandler)
			r.Delete("/{roomId}/messages/{messageId}", app.messagesHandler.DeleteMessageHandler)
			r.Post("/{roomId}/typing", app.messagesHandler.TypingHandler)
		})

		r.Get("/health", app.healthHandler.GetHealth)
		r.Get("/healthz", app.healthHandler.GetHealth)
		r.Get("/ready", app.healthHandler.GetHealth)
		r.Get("/live", app.healthHandler.GetHealth)
	})

	r.Get("/gateway", app.hub.ServeWS)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      otelhttp.NewHandler(mux, "equinox-http"),
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		healthHandler.SetUnhealthy()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Info(logging.General, logging.Shutdown, "signal caught", map[logging.ExtraKey]any{
			"signal": s.String(),
		})

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Info(logging.General, logging.Startup, "server has started", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Info(logging.General, logging.Shutdown, "server has stopped", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	return nil
}
