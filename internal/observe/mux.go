package observe

import (
	"net/http"
	"slices"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Mux wraps a request multiplexer so that every registered diagnostics route
// carries HTTP server telemetry, tagged with its route pattern.
type Mux struct {
	wrapped *http.ServeMux
}

func NewMux(wrapped *http.ServeMux) *Mux {
	return &Mux{wrapped: wrapped}
}

func (mux *Mux) Handle(pattern string, handler http.Handler) {
	mux.wrapped.Handle(pattern, otelhttp.NewHandler(handler, RouteTag(pattern)))
}

func (mux *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux.wrapped.ServeHTTP(w, r)
}

var methods = []string{
	http.MethodConnect,
	http.MethodDelete,
	http.MethodGet,
	http.MethodHead,
	http.MethodOptions,
	http.MethodPatch,
	http.MethodPost,
	http.MethodPut,
	http.MethodTrace,
}

// RouteTag derives the telemetry operation name from a mux pattern, dropping
// the method prefix when present.
func RouteTag(pattern string) string {
	method, resource, hasMethod := strings.Cut(pattern, " ")
	if hasMethod && slices.Contains(methods, method) {
		return resource
	}
	return pattern
}
