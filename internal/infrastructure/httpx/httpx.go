package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// DecodeError is returned when a 2xx body is not valid JSON for the target.
type DecodeError struct{ Err error }

func (e *DecodeError) Error() string { return "decode response: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

type Client struct {
	HTTP      *http.Client
	UserAgent string
	// MaxRetries is the number of extra attempts on network errors and 5xx.
	// Zero means a single attempt.
	MaxRetries int
}

func New(timeout time.Duration, maxRetries int) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &Client{
		HTTP:       &http.Client{Timeout: timeout, Transport: transport},
		UserAgent:  "marketdata-service/1.0",
		MaxRetries: maxRetries,
	}
}

// DoJSON executes req and decodes a 2xx JSON body into out.
func (c *Client) DoJSON(ctx context.Context, req *http.Request, out any) error {
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	req = req.WithContext(ctx)

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 200 * time.Millisecond
	exp.MaxInterval = 1 * time.Second
	exp.MaxElapsedTime = 5 * time.Second
	retries := c.MaxRetries
	if retries < 0 {
		retries = 0
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)

	op := func() error {
		resp, err := hc.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return &StatusError{Code: resp.StatusCode, Body: snippet(resp.Body)}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return backoff.Permanent(&StatusError{Code: resp.StatusCode, Body: snippet(resp.Body)})
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(&DecodeError{Err: err})
		}
		return nil
	}
	err := backoff.Retry(op, policy)
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}

func snippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}

// IsDecodeError reports whether err came from decoding a successful response.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
