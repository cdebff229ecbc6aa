package daemon

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hashicorp/go-hclog"

	"github.com/homefleet/fleetd/internal/api"
	"github.com/homefleet/fleetd/internal/cmd"
	"github.com/homefleet/fleetd/internal/errors"
)

// APIServer manages the HTTP API for the daemon.
// NewAPIServer should be used to create instances of APIServer.
type APIServer struct {
	logger          hclog.Logger
	deps            APIDependencies
	cors            CORSConfig
	shutdownTimeout time.Duration
}

// NewAPIServer creates a new API server with the provided dependencies and options.
// Applies default options first, then user-provided options to ensure all fields have valid values.
func NewAPIServer(deps APIDependencies, opt ...APIOption) (*APIServer, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies for API server: %w", err)
	}

	apiOpts, err := NewAPIOptions(opt...)
	if err != nil {
		return nil, fmt.Errorf("invalid API options: %w", err)
	}

	return &APIServer{
		logger:          deps.Logger.Named("api"),
		deps:            deps,
		cors:            apiOpts.CORS,
		shutdownTimeout: apiOpts.ShutdownTimeout,
	}, nil
}

// Start starts the API server and blocks until the context is canceled or an error occurs.
func (a *APIServer) Start(ctx context.Context) error {
	mux := chi.NewMux()
	mux.Use(middleware.StripSlashes)

	if a.cors.Enabled {
		a.applyCORS(mux)
	}

	humaConfig := huma.DefaultConfig("fleetd docs", cmd.Version())
	router := humachi.New(mux, humaConfig)

	// Configure the error handling wrapping.
	huma.NewErrorWithContext = errorHandler(a.logger)

	apiPathPrefix, err := api.RegisterRoutes(
		router,
		a.deps.HealthTracker,
		a.deps.Config,
		a.deps.Runner,
		a.deps.Reports,
		a.deps.ReportMaxAge,
	)
	if err != nil {
		return fmt.Errorf("failed to register API routes: %w", err)
	}

	// Gateway callbacks and the live stream sit on the mux directly: the
	// chat gateway posts form-encoded payloads and the stream needs a
	// WebSocket upgrade, neither of which fits the OpenAPI surface.
	mux.Post("/hooks/chat", a.handleChatWebhook)
	if a.deps.Stream != nil {
		mux.Get(apiPathPrefix+"/events", a.deps.Stream.ServeHTTP)
	}

	srv := &http.Server{
		Addr:    a.deps.Addr,
		Handler: mux,
	}
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("Starting API server", "address", a.deps.Addr, "prefix", apiPathPrefix)
		if a.cors.Enabled {
			a.logger.Info("CORS enabled", "origins", a.cors.AllowOrigins)
		}
		if err := srv.ListenAndServe(); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()
		a.logger.Info("Shutting down API server...")
		_ = srv.Shutdown(shutdownCtx)
		a.logger.Info("Shutdown complete")
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// handleChatWebhook answers the messaging gateway's webhook callback. The
// gateway delivers form-encoded messages (Body, From) and renders the plain
// text response back to the sender.
func (a *APIServer) handleChatWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form payload", http.StatusBadRequest)
		return
	}

	body := r.PostFormValue("Body")
	sender := r.PostFormValue("From")

	reply := a.deps.Dispatcher.Handle(r.Context(), sender, body)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(reply)); err != nil {
		a.logger.Warn("failed to write chat reply", "error", err)
	}
}

// applyCORS applies CORS middleware to the router based on the configured options.
func (a *APIServer) applyCORS(mux *chi.Mux) {
	a.logger.Info("Enabling CORS", "origins", a.cors.AllowOrigins)

	corsOptions := cors.Options{
		AllowedOrigins: a.cors.AllowOrigins,
		AllowedMethods: a.cors.AllowMethods,
		AllowedHeaders: a.cors.AllowedHeaders,
		MaxAge:         int(a.cors.MaxAge.Seconds()),
	}

	for i, origin := range corsOptions.AllowedOrigins {
		if origin == "*" {
			corsOptions.AllowedOrigins = []string{"*"}
			break
		}
		corsOptions.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	mux.Use(cors.Handler(corsOptions))
}

// mapError maps application domain errors to appropriate HTTP status codes.
//
// This function is the central place where domain errors from internal/errors are converted to HTTP responses.
// When adding new errors to internal/errors/errors.go, you MUST add them here to prevent them from falling
// through to the default case which returns HTTP 500.
//
// NOTE: Keep this function in sync with internal/errors/errors.go.
// Every error defined there should have an explicit case here otherwise it will default to 500.
func mapError(logger hclog.Logger, err error) huma.StatusError {
	switch {
	case stdErrors.Is(err, errors.ErrBadRequest):
		return huma.Error400BadRequest(err.Error())
	case stdErrors.Is(err, errors.ErrReportInvalid):
		return huma.Error400BadRequest(err.Error())
	case stdErrors.Is(err, errors.ErrTargetNotFound):
		return huma.Error404NotFound(err.Error())
	case stdErrors.Is(err, errors.ErrHealthNotTracked):
		return huma.Error404NotFound(err.Error())
	case stdErrors.Is(err, errors.ErrReportNotFound):
		return huma.Error404NotFound(err.Error())
	case stdErrors.Is(err, errors.ErrUnknownHost):
		return huma.Error404NotFound(err.Error())
	case stdErrors.Is(err, errors.ErrRemediationFailed):
		logger.Error("Remediation action failed", "error", err)
		return huma.Error502BadGateway("remediation action failed", err)
	case stdErrors.Is(err, errors.ErrStateRead):
		logger.Error("Heal state read failed", "error", err)
		return huma.Error500InternalServerError("heal state read failed", err)
	case stdErrors.Is(err, errors.ErrStateWrite):
		logger.Error("Heal state write failed", "error", err)
		return huma.Error500InternalServerError("heal state write failed", err)
	default:
		logger.Error("Unexpected error handling API request", "error", err)
		return huma.Error500InternalServerError("Internal server error", err)
	}
}

// errorHandler wraps error handling for the application when converting to API friendly errors.
// It allows the logger to be supplied to functions that resolve huma.StatusError,
// and it supports different behaviors based on the variadic errors parameter.
func errorHandler(logger hclog.Logger) func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
	return func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		switch len(errs) {
		case 0:
			// No errors provided; return a generic error.
			return huma.NewError(status, msg)
		case 1:
			// Single error; map it directly.
			return mapError(logger, errs[0])
		default:
			// Multiple errors; join them and map.
			return mapError(logger, stdErrors.Join(errs...))
		}
	}
}
