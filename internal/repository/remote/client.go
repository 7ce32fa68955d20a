package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/admin-dashboard/internal/model"
	"github.com/jwalitptl/admin-dashboard/pkg/circuitbreaker"
	"github.com/jwalitptl/admin-dashboard/pkg/metrics"
)

// maxErrorBody bounds how much of a failed response is kept for logging.
const maxErrorBody = 512

// Paths are backend routes relative to the base URL. "{id}" is replaced with
// the escaped identifier.
type Paths struct {
	Appointments     string
	Appointment      string
	Doctors          string
	Doctor           string
	Patient          string
	SaveNotification string
	SendSMS          string
	DoctorImage      string
	PatientImage     string
}

func DefaultPaths() Paths {
	return Paths{
		Appointments:     "/api/appointments/getAppointments",
		Appointment:      "/api/appointments/{id}",
		Doctors:          "/api/doctors/getDoctor",
		Doctor:           "/api/doctors/{id}",
		Patient:          "/api/patient/{id}",
		SaveNotification: "/api/notification/saveNotification",
		SendSMS:          "/api/v1/sms/send",
		DoctorImage:      "/api/doctors/image/{id}",
		PatientImage:     "/api/patient/image/{id}",
	}
}

type Options struct {
	BaseURL string
	// Timeout of zero leaves requests unbounded.
	Timeout    time.Duration
	Paths      Paths
	Breaker    *circuitbreaker.CircuitBreaker
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
	HTTPClient *http.Client
}

// StatusError is returned for any non-2xx backend response.
type StatusError struct {
	Operation  string
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s %s returned %d", e.Operation, e.Method, e.URL, e.StatusCode)
}

// IsBreakerFailure decides which errors count against the circuit breaker.
// Client errors from the backend and caller cancellation do not.
func IsBreakerFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= http.StatusInternalServerError
	}
	return true
}

// Client is the shared HTTP plumbing for every remote repository. It issues
// each request exactly once.
type Client struct {
	base    *url.URL
	paths   Paths
	http    *http.Client
	breaker *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewNop()
	}
	paths := opts.Paths
	if paths == (Paths{}) {
		paths = DefaultPaths()
	}

	return &Client{
		base:    base,
		paths:   paths,
		http:    httpClient,
		breaker: opts.Breaker,
		metrics: m,
		logger:  opts.Logger.With().Str("component", "remote").Logger(),
	}, nil
}

func (c *Client) resolve(path string, id model.ID) string {
	if id != "" {
		path = strings.ReplaceAll(path, "{id}", url.PathEscape(id.String()))
	}
	return c.base.String() + path
}

func (c *Client) do(ctx context.Context, op, method, target string, in, out interface{}) error {
	call := func() error { return c.roundTrip(ctx, op, method, target, in, out) }
	if c.breaker == nil {
		return call()
	}

	err := c.breaker.Execute(call)
	if errors.Is(err, circuitbreaker.ErrOpen) {
		c.metrics.RemoteRequests.WithLabelValues(op, "rejected").Inc()
		return fmt.Errorf("%s: backend unavailable: %w", op, err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, op, method, target string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.RemoteLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.RemoteRequests.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	c.metrics.RemoteRequests.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug().
			Str("operation", op).
			Int("status", resp.StatusCode).
			Str("body", string(snippet)).
			Msg("backend returned error")
		return &StatusError{
			Operation:  op,
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       string(snippet),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}
