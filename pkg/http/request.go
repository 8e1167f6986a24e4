package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	HeaderSessionID     = "X-Session-Id"
	HeaderTransactionID = "X-Transaction-Id"
	HeaderRequestID     = "X-Request-Id"
)

// Request adapts *http.Request to the router's Request interface.
type Request struct {
	req        *http.Request
	pathParams map[string]string

	sessionID     string
	transactionID string
	requestID     string
}

func NewRequest(r *http.Request) *Request {
	return &Request{
		req:           r,
		pathParams:    mux.Vars(r),
		sessionID:     headerOrNew(r, HeaderSessionID),
		transactionID: headerOrNew(r, HeaderTransactionID),
		requestID:     headerOrNew(r, HeaderRequestID),
	}
}

func headerOrNew(r *http.Request, key string) string {
	if v := r.Header.Get(key); v != "" {
		return v
	}
	return uuid.NewString()
}

func (r *Request) Context() context.Context {
	return r.req.Context()
}

// Param returns the query parameter with the given key.
func (r *Request) Param(key string) string {
	return r.req.URL.Query().Get(key)
}

func (r *Request) Params(key string) []string {
	values := r.req.URL.Query()[key]
	var out []string
	for _, v := range values {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func (r *Request) PathParam(key string) string {
	return r.pathParams[key]
}

// Bind decodes a JSON body into i.
func (r *Request) Bind(i any) error {
	if r.req.Body == nil {
		return io.EOF
	}
	if err := json.NewDecoder(r.req.Body).Decode(i); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func (r *Request) HostName() string {
	proto := r.req.Header.Get("X-Forwarded-Proto")
	if proto == "" {
		proto = "http"
		if r.req.TLS != nil {
			proto = "https"
		}
	}
	return fmt.Sprintf("%s://%s", proto, r.req.Host)
}

// credentialHeaders never leave the request through Headers.
var credentialHeaders = map[string]struct{}{
	"Authorization":       {},
	"Proxy-Authorization": {},
	"Cookie":              {},
}

// Headers returns the request headers for logging, credentials left out.
func (r *Request) Headers() map[string]any {
	h := make(map[string]any, len(r.req.Header))
	for k, v := range r.req.Header {
		if _, secret := credentialHeaders[http.CanonicalHeaderKey(k)]; secret {
			continue
		}
		if len(v) == 1 {
			h[k] = v[0]
			continue
		}
		h[k] = v
	}
	return h
}

func (r *Request) Header(key string) string {
	return r.req.Header.Get(key)
}

func (r *Request) Method() string {
	return r.req.Method
}

func (r *Request) URL() string {
	return r.req.URL.String()
}

func (r *Request) SessionId() string {
	return r.sessionID
}

func (r *Request) TransactionId() string {
	return r.transactionID
}

func (r *Request) RequestId() string {
	return r.requestID
}
