// package backend implements the HTTP process that owns the authenticated
// TIDAL session and serves the RPC surface consumed by the tool-server.
package backend

import (
	"fmt"
	"net/http"
)

// Middleware wraps an http.Handler and returns a new http.Handler with
// additional behavior (logging, panic recovery).
type Middleware func(http.Handler) http.Handler

// Router is a small HTTP router over [http.ServeMux] with a middleware stack.
// Routes are registered with method-qualified patterns ("GET /api/health").
type Router struct {
	mux         *http.ServeMux
	middlewares []Middleware
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{
		mux:         http.NewServeMux(),
		middlewares: []Middleware{},
	}
}

// Use adds middleware to the stack, applied in the order it's added.
func (r *Router) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers a handler for the given HTTP method and path pattern.
// Path wildcards follow [http.ServeMux] syntax ("/api/playlists/{id}").
func (r *Router) Handle(method, path string, handler http.Handler) {
	r.mux.Handle(fmt.Sprintf("%s %s", method, path), r.apply(handler))
}

// HandleFunc registers a handler function for the given method and pattern.
func (r *Router) HandleFunc(method, path string, handler http.HandlerFunc) {
	r.Handle(method, path, handler)
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// apply wraps a handler with all registered middleware, in reverse order
// (last added wraps first).
func (r *Router) apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}
