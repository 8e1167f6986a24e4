package http

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sing3demons/go-order-admin/pkg/metrics"
)

type Router struct {
	mux.Router
	RegisteredRoutes *[]string
	metrics          *metrics.ServerMetrics
}

type Middleware func(handler http.Handler) http.Handler

func NewRouter(m *metrics.ServerMetrics) *Router {
	muxRouter := mux.NewRouter().StrictSlash(false)
	routes := make([]string, 0)

	return &Router{
		Router:           *muxRouter,
		RegisteredRoutes: &routes,
		metrics:          m,
	}
}

// Add registers handler for method+pattern wrapped with tracing, metrics and mws.
func (rou *Router) Add(method, pattern string, handler http.Handler, mws ...Middleware) {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	handler = rou.observe(pattern, handler)
	h := otelhttp.NewHandler(handler, method+" "+pattern)

	rou.Router.NewRoute().Methods(method).Path(pattern).Handler(h)
	*rou.RegisteredRoutes = append(*rou.RegisteredRoutes, method+" "+pattern)
}

func (rou *Router) UseMiddleware(mws ...Middleware) {
	for _, m := range mws {
		rou.Router.Use(mux.MiddlewareFunc(m))
	}
}

func (rou *Router) observe(pattern string, next http.Handler) http.Handler {
	if rou.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		rou.metrics.Observe(pattern, r.Method, sw.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}
