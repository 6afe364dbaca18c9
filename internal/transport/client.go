// Package transport sends signed FileSender API requests, normalizes every
// failure into RequestError, and retries the handful of server conditions
// that are known to be transient. A client-wide gate caps in-flight requests
// independently of whatever fan-out the caller runs, so high file or chunk
// concurrency cannot translate into unbounded simultaneous connections.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/semaphore"

	"github.com/dmitrijs2005/filesender/internal/logging"
)

const (
	// DefaultAttempts is the total number of tries for a retryable failure.
	DefaultAttempts = 5
	// DefaultBackoff is the fixed delay between attempts.
	DefaultBackoff = time.Second
)

// transientMessages are the 500-level structured errors that indicate the
// server's clock or session state had not caught up with the request yet.
// This is the minimum verified set; do not extend it without checking the
// live service's actual transient failures.
var transientMessages = map[string]struct{}{
	"auth_remote_too_late":               {},
	"auth_remote_signature_check_failed": {},
}

// Signer produces a signed copy of a request. Signing runs inside the retry
// loop so every attempt carries a fresh timestamp.
type Signer interface {
	Sign(r *Request) (*Request, error)
}

// Options configures a Client. Zero values fall back to defaults; a zero
// Requests limit means unbounded.
type Options struct {
	HTTPClient *http.Client
	Logger     logging.Logger
	Requests   Limit
	Attempts   uint64
	Backoff    time.Duration
}

// Client sends requests with retry and a global in-flight gate. It is safe
// for concurrent use.
type Client struct {
	httpc    *http.Client
	logger   logging.Logger
	sem      *semaphore.Weighted
	attempts uint64
	backoff  time.Duration
}

func New(opts Options) *Client {
	c := &Client{
		httpc:    opts.HTTPClient,
		logger:   opts.Logger,
		sem:      opts.Requests.Semaphore(),
		attempts: opts.Attempts,
		backoff:  opts.Backoff,
	}
	if c.httpc == nil {
		c.httpc = &http.Client{}
	}
	if c.logger == nil {
		c.logger = logging.Nop()
	}
	if c.attempts == 0 {
		c.attempts = DefaultAttempts
	}
	if c.backoff == 0 {
		c.backoff = DefaultBackoff
	}
	return c
}

// SignSend signs req with signer and sends it, retrying transient failures.
// The returned bytes are the raw response body.
func (c *Client) SignSend(ctx context.Context, signer Signer, req *Request) ([]byte, error) {
	return c.doRetry(ctx, signer, req)
}

// SignSendJSON is SignSend plus JSON decoding of the response into out.
// A nil out discards the body.
func (c *Client) SignSendJSON(ctx context.Context, signer Signer, req *Request, out any) error {
	data, err := c.doRetry(ctx, signer, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &RequestError{
			Method:  req.Method,
			URL:     req.EncodedURL(),
			Message: "decoding response: " + err.Error(),
			Err:     err,
		}
	}
	return nil
}

// Send sends an unsigned request with the same retry policy and gate.
func (c *Client) Send(ctx context.Context, req *Request) ([]byte, error) {
	return c.doRetry(ctx, nil, req)
}

// Stream sends an unsigned request and hands the caller the response with
// its body still open, for large downloads. The in-flight gate stays held
// until the body is closed. No retry: a partially consumed stream cannot be
// replayed transparently.
func (c *Client) Stream(ctx context.Context, req *Request) (*http.Response, error) {
	release := func() {}
	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		release = func() { c.sem.Release(1) }
	}

	hreq, err := newHTTPRequest(ctx, req)
	if err != nil {
		release()
		return nil, err
	}
	resp, err := c.httpc.Do(hreq)
	if err != nil {
		release()
		return nil, &RequestError{Method: req.Method, URL: req.EncodedURL(), Message: err.Error(), Err: err}
	}
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		release()
		return nil, &RequestError{
			Method:  req.Method,
			URL:     req.EncodedURL(),
			Status:  resp.StatusCode,
			Message: serverMessage(data),
		}
	}
	resp.Body = &gatedBody{ReadCloser: resp.Body, release: release}
	return resp, nil
}

func (c *Client) doRetry(ctx context.Context, signer Signer, req *Request) ([]byte, error) {
	var body []byte
	attempt := 0

	backoff := retry.WithMaxRetries(c.attempts-1, retry.NewConstant(c.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		r := req
		if signer != nil {
			var err error
			r, err = signer.Sign(req)
			if err != nil {
				return err
			}
		}

		data, err := c.sendOnce(ctx, r)
		if err != nil {
			if retryable(err) {
				c.logger.Warn(ctx, "retrying request",
					"method", req.Method, "url", req.URL,
					"attempt", attempt, "reason", err.Error())
				return retry.RetryableError(err)
			}
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) sendOnce(ctx context.Context, r *Request) ([]byte, error) {
	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer c.sem.Release(1)
	}

	hreq, err := newHTTPRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(hreq)
	if err != nil {
		return nil, &RequestError{Method: r.Method, URL: r.EncodedURL(), Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Method: r.Method, URL: r.EncodedURL(), Message: "reading response: " + err.Error(), Err: err}
	}
	if resp.StatusCode >= 400 {
		return nil, &RequestError{
			Method:  r.Method,
			URL:     r.EncodedURL(),
			Status:  resp.StatusCode,
			Message: serverMessage(data),
		}
	}
	return data, nil
}

func newHTTPRequest(ctx context.Context, r *Request) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, r.Method, r.EncodedURL(), body)
	if err != nil {
		return nil, &RequestError{Method: r.Method, URL: r.EncodedURL(), Message: err.Error(), Err: err}
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	return hreq, nil
}

// serverMessage extracts the structured error message FileSender puts in
// failure bodies, falling back to the raw body.
func serverMessage(data []byte) string {
	var s struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &s); err == nil && s.Message != "" {
		return s.Message
	}
	return string(data)
}

func retryable(err error) bool {
	var re *RequestError
	if !errors.As(err, &re) {
		return false
	}
	if re.Status == http.StatusInternalServerError {
		_, ok := transientMessages[re.Message]
		return ok
	}
	if re.Status == 0 {
		// Connection-level read failures: the flaky-backend case, unrelated
		// to request correctness.
		return errors.Is(re.Err, io.EOF) ||
			errors.Is(re.Err, io.ErrUnexpectedEOF) ||
			errors.Is(re.Err, syscall.ECONNRESET)
	}
	return false
}

type gatedBody struct {
	io.ReadCloser
	release func()
}

func (b *gatedBody) Close() error {
	err := b.ReadCloser.Close()
	if b.release != nil {
		b.release()
		b.release = nil
	}
	return err
}
