package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// readHeaderTimeout is the timeout for reading request headers.
const readHeaderTimeout = 10 * time.Second

// shutdownTimeout is the timeout for graceful server shutdown.
const shutdownTimeout = 5 * time.Second

// API represents the HTTP API server for dockupdate.
type API struct {
	Token      string
	Addr       string // Set dynamically from flags
	registered bool
	router     chi.Router
	server     HTTPServer // Optional injected server for testing
}

// New is a factory function creating a new API instance.
// The server parameter is optional and allows dependency injection for testing.
//
// Parameters:
//   - token: Bearer token required on protected routes, empty to disable authentication.
//   - addr: Listen address.
//   - server: Optional server replacing the real one.
//
// Returns:
//   - *API: Initialized API instance.
func New(token, addr string, server ...HTTPServer) *API {
	var injectedServer HTTPServer
	if len(server) > 0 {
		injectedServer = server[0]
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(AccessLogger)
	router.Use(middleware.Recoverer)
	router.Use(CORS)

	api := &API{
		Token:  token,
		Addr:   addr,
		router: router,
		server: injectedServer,
	}

	logrus.WithFields(logrus.Fields{
		"addr":       api.Addr,
		"token_auth": token != "",
	}).Debug("Initialized new API instance")

	return api
}

// RegisterFunc registers a GET handler function that requires the API token when one is set.
func (a *API) RegisterFunc(path string, handler http.HandlerFunc) {
	a.router.Get(path, a.RequireToken(handler))
	a.registered = true
}

// RegisterHandler registers a GET handler that requires the API token when one is set.
func (a *API) RegisterHandler(path string, handler http.Handler) {
	a.router.Get(path, a.RequireToken(handler.ServeHTTP))
	a.registered = true
}

// RegisterPublicFunc registers a GET handler function that never requires authentication.
func (a *API) RegisterPublicFunc(path string, handler http.HandlerFunc) {
	a.router.Get(path, handler)
	a.registered = true
}

// Handler returns the root HTTP handler with all middleware applied.
func (a *API) Handler() http.Handler {
	return a.router
}

// Start starts the HTTP API server.
// If blocking is true, it runs in the foreground and blocks until shutdown.
// If blocking is false, it runs in the background.
//
// Parameters:
//   - ctx: Context whose cancellation shuts the server down.
//   - blocking: Whether to block until shutdown.
//
// Returns:
//   - error: Non-nil if the server fails to start or shut down.
func (a *API) Start(ctx context.Context, blocking bool) error {
	if !a.registered {
		logrus.Info("No handlers registered, skipping API start")

		return nil
	}

	server := a.server
	if server == nil {
		server = &http.Server{
			Addr:              a.Addr,
			Handler:           a.router,
			ReadHeaderTimeout: readHeaderTimeout,
			BaseContext:       func(_ net.Listener) context.Context { return ctx },
		}
	}

	logrus.WithField("addr", a.Addr).Info("Starting HTTP API server")

	if blocking {
		return RunHTTPServer(ctx, server)
	}

	go func() {
		if err := RunHTTPServer(ctx, server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("HTTP server failed")
		}
	}()

	return nil
}

// RequireToken wraps a handler function with authentication.
// Without a configured token the handler is returned unchanged.
func (a *API) RequireToken(handler http.HandlerFunc) http.HandlerFunc {
	if a.Token == "" {
		return handler
	}

	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") ||
			strings.TrimPrefix(auth, "Bearer ") != a.Token {
			logrus.WithField("path", r.URL.Path).Debug("Rejected request with invalid token")
			WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})

			return
		}

		handler(w, r)
	}
}

// HTTPServer interface for RunHTTPServer.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// RunHTTPServer starts the HTTP server and handles graceful shutdown.
func RunHTTPServer(ctx context.Context, server HTTPServer) error {
	errChan := make(chan error, 1)

	go func() {
		errChan <- server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		return nil
	}
}
