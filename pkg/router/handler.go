package router

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace"

	gokpHTTP "github.com/sing3demons/go-order-admin/pkg/http"
)

type Handler func(c *Context) error

type handler struct {
	function       Handler
	requestTimeout time.Duration
	app            *App
}

func (h handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	gw := &guardedWriter{ResponseWriter: w}
	c := NewContext(gw, gokpHTTP.NewRequest(r), h.app.KafkaClient, h.app.logService(), h.app.conf)
	traceID := trace.SpanFromContext(r.Context()).SpanContext().TraceID().String()

	if websocket.IsWebSocketUpgrade(r) {
		// upgraded connections outlive any request timeout
		c.Context = r.Context()
	} else if h.requestTimeout != 0 {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		c.Context = ctx
	}

	done := make(chan error, 1)
	panicked := make(chan struct{})

	go func() {
		defer func() {
			if re := recover(); re != nil {
				panicRecovery(re, h.app.Logger)
				close(panicked)
			}
		}()
		done <- h.function(c)
	}()

	var err error
	status := http.StatusInternalServerError
	select {
	case <-c.Context.Done():
		err = errors.New("request timed out")
		if !errors.Is(c.Err(), context.DeadlineExceeded) {
			err = c.Err()
		}
		status = http.StatusGatewayTimeout
	case err = <-done:
		if err == nil || websocket.IsWebSocketUpgrade(r) {
			return
		}
	case <-panicked:
		err = errors.New("internal server error")
	}

	h.logError(traceID, err)
	if gw.abandon() {
		// the handler never answered
		writeJSON(w, status, map[string]string{"message": http.StatusText(status), "error": err.Error()})
		c.Log.End(status, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// guardedWriter stops writes reaching the client once the request was abandoned
// after a timeout or panic.
type guardedWriter struct {
	http.ResponseWriter
	mu        sync.Mutex
	written   bool
	abandoned bool
}

func (g *guardedWriter) WriteHeader(code int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.abandoned {
		return
	}
	g.written = true
	g.ResponseWriter.WriteHeader(code)
}

func (g *guardedWriter) Write(b []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.abandoned {
		return 0, http.ErrHandlerTimeout
	}
	g.written = true
	return g.ResponseWriter.Write(b)
}

// abandon cuts the handler off and reports whether nothing was written yet.
func (g *guardedWriter) abandon() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.abandoned = true
	return !g.written
}

func liveHandler(c *Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "UP"})
}

// Log the error(if any) with traceID and errorMessage.
func (h handler) logError(traceID string, err error) {
	if err == nil {
		return
	}
	h.app.Logger.Errorf("trace_id=%s error=%s", traceID, err.Error())
}

func (g *guardedWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := g.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	g.mu.Lock()
	g.written = true
	g.mu.Unlock()
	return hj.Hijack()
}
