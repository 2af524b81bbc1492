package provider_test

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"marketdata-service/internal/infrastructure/httpx"
)

type rtFunc func(*http.Request) *http.Response

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r), nil }

type reply struct {
	code int
	body string
}

// recorder answers by URL path and remembers every request it served.
type recorder struct {
	mu     sync.Mutex
	routes map[string]reply
	reqs   []*http.Request
}

func newRecorder(routes map[string]reply) *recorder {
	return &recorder{routes: routes}
}

func (r *recorder) client() *httpx.Client {
	return &httpx.Client{HTTP: &http.Client{
		Timeout: 2 * time.Second,
		Transport: rtFunc(func(req *http.Request) *http.Response {
			r.mu.Lock()
			r.reqs = append(r.reqs, req)
			r.mu.Unlock()
			rep, ok := r.routes[req.URL.Path]
			if !ok {
				rep = reply{code: http.StatusNotFound, body: `{"error":"no route"}`}
			}
			return &http.Response{
				StatusCode: rep.code,
				Body:       io.NopCloser(strings.NewReader(rep.body)),
				Header:     make(http.Header),
				Request:    req,
			}
		}),
	}}
}

func (r *recorder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reqs)
}

func (r *recorder) last() *http.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reqs[len(r.reqs)-1]
}
