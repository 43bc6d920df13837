// Package chi provides ioc integration for the Chi router.
//
// Middleware attaches a resolver to every request context. Handle resolves
// a controller per request, and Executor exposes executors as endpoints.
//
// Example usage:
//
//	resolver := registry.Freeze()
//
//	r := chi.NewRouter()
//	r.Use(iocchi.Middleware(resolver))
//
//	r.Get("/users/{id}", iocchi.Handle(UserController.GetByID))
//	r.Post("/reports", iocchi.Executor(ioc.ByFunction("Report")))
package chi

import (
	"errors"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/junioryono/ioc"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the configuration for the resolver middleware.
type Config struct {
	// ErrorHandler is called when the resolver cannot serve the request.
	// If nil, a default handler returning 503 Service Unavailable is used.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)

	// Middlewares are functions that run once the resolver is attached.
	// They can be used to check required services, set request data, etc.
	Middlewares []func(*ioc.Resolver, *http.Request) error
}

// Option configures the resolver middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for middleware failures.
func WithErrorHandler(h func(http.ResponseWriter, *http.Request, error)) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithMiddleware adds a middleware function that runs after the resolver
// is attached. Multiple middlewares are executed in the order they are added.
func WithMiddleware(mw func(*ioc.Resolver, *http.Request) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			requestLogger(r).Error().Err(err).Msg("resolver unavailable")
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		},
	}
}

// Middleware creates a Chi middleware that attaches resolver to each
// request context, where ioc.FromContext finds it.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(iocchi.Middleware(resolver))
func Middleware(resolver *ioc.Resolver, opts ...Option) func(http.Handler) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if resolver == nil {
				cfg.ErrorHandler(w, r, ioc.ErrResolverNil)
				return
			}
			if resolver.IsClosed() {
				cfg.ErrorHandler(w, r, ioc.ErrResolverClosed)
				return
			}

			r = r.WithContext(ioc.WithResolver(r.Context(), resolver))

			for _, mw := range cfg.Middlewares {
				if err := mw(resolver, r); err != nil {
					cfg.ErrorHandler(w, r, err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HandlerConfig holds configuration for the Handle and Executor wrappers.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(http.ResponseWriter, *http.Request, any)

	// ResolverErrorHandler is called when the request carries no usable resolver.
	ResolverErrorHandler func(http.ResponseWriter, *http.Request, error)

	// ResolutionErrorHandler is called when resolution or execution fails.
	ResolutionErrorHandler func(http.ResponseWriter, *http.Request, error)
}

// HandlerOption configures the Handle and Executor wrappers.
type HandlerOption func(*HandlerConfig)

// WithPanicRecovery enables or disables panic recovery in the handler.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicRecovery = enabled
	}
}

// WithPanicHandler sets the handler for panics.
func WithPanicHandler(h func(http.ResponseWriter, *http.Request, any)) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithResolverErrorHandler sets the error handler for missing or closed resolvers.
func WithResolverErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolverErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for resolution failures.
func WithResolutionErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicRecovery: false,
		PanicHandler: func(w http.ResponseWriter, r *http.Request, v any) {
			requestLogger(r).Error().Interface("panic", v).Msg("panic in handler")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
		ResolverErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			requestLogger(r).Error().Err(err).Msg("failed to get resolver from context")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
		ResolutionErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			requestLogger(r).Error().Err(err).Msg("failed to resolve")
			status := http.StatusInternalServerError
			if errors.Is(err, ioc.ErrResolverClosed) {
				status = http.StatusServiceUnavailable
			}
			http.Error(w, http.StatusText(status), status)
		},
	}
}

func newHandlerConfig(opts []HandlerOption) *HandlerConfig {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (cfg *HandlerConfig) recoverPanic(w http.ResponseWriter, r *http.Request) {
	if v := recover(); v != nil {
		cfg.PanicHandler(w, r, v)
	}
}

// Handle wraps a controller method for type-safe resolution from the
// resolver attached to the request context.
//
// The method signature should be: func(T, http.ResponseWriter, *http.Request)
//
// Example:
//
//	type UserController interface {
//	    GetByID(http.ResponseWriter, *http.Request)
//	}
//
//	r.Get("/users/{id}", iocchi.Handle(UserController.GetByID))
func Handle[T any](method func(T, http.ResponseWriter, *http.Request), opts ...HandlerOption) http.HandlerFunc {
	cfg := newHandlerConfig(opts)

	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.PanicRecovery {
			defer cfg.recoverPanic(w, r)
		}

		resolver, err := ioc.FromContext(r.Context())
		if err != nil {
			cfg.ResolverErrorHandler(w, r, err)
			return
		}

		controller, err := ioc.Resolve[T](resolver)
		if err != nil {
			cfg.ResolutionErrorHandler(w, r, err)
			return
		}

		method(controller, w, r)
	}
}

// Executor runs the first executor pred selects and writes its result as
// JSON. No matching executor yields 404 Not Found and a nil result
// yields 204 No Content.
func Executor(pred ioc.ExecutorPredicate, opts ...HandlerOption) http.HandlerFunc {
	cfg := newHandlerConfig(opts)

	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.PanicRecovery {
			defer cfg.recoverPanic(w, r)
		}

		resolver, err := ioc.FromContext(r.Context())
		if err != nil {
			cfg.ResolverErrorHandler(w, r, err)
			return
		}

		result, found, err := resolver.ExecuteFirst(pred)
		if err != nil {
			cfg.ResolutionErrorHandler(w, r, err)
			return
		}
		if !found {
			http.NotFound(w, r)
			return
		}
		if result == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		writeJSON(w, r, result)
	}
}

// Route exposes the executors Predicate selects at Method and Pattern.
type Route struct {
	Method    string
	Pattern   string
	Predicate ioc.ExecutorPredicate
}

// Mount registers routes on router in a group that carries resolver.
//
//	iocchi.Mount(r, resolver,
//	    iocchi.Route{Method: http.MethodPost, Pattern: "/cleanup", Predicate: ioc.ByFunction("Cleanup")},
//	)
func Mount(router gochi.Router, resolver *ioc.Resolver, routes ...Route) {
	router.Group(func(g gochi.Router) {
		g.Use(Middleware(resolver))
		for _, route := range routes {
			g.Method(route.Method, route.Pattern, Executor(route.Predicate))
		}
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		requestLogger(r).Error().Err(err).Msg("failed to encode executor result")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// requestLogger returns the global logger tagged with the request id set
// by chi's RequestID middleware, when present.
func requestLogger(r *http.Request) *zerolog.Logger {
	l := log.With().Str("method", r.Method).Str("path", r.URL.Path)
	if id := middleware.GetReqID(r.Context()); id != "" {
		l = l.Str("request_id", id)
	}
	logger := l.Logger()
	return &logger
}
