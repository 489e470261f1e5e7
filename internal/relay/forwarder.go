package relay

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/gridpulse-systems/gridpulse-relay/internal/metrics"
)

// Outcome classes reported in error responses and metrics. The string
// values are part of the relay's wire contract with its diagnostic
// clients.
const (
	ClassDNS         = "ENOTFOUND"
	ClassRefused     = "ECONNREFUSED"
	ClassTimeout     = "timeout"
	ClassCertificate = "certificate"
	ClassUpstream    = "upstream"
)

// ErrTargetNotAllowed is returned before any network I/O when the
// envelope's target host is not on the configured allow-list.
var ErrTargetNotAllowed = errors.New("target host not allowed")

// ForwardError wraps a downstream transport failure with its class.
type ForwardError struct {
	Class string
	Err   error
}

func (e *ForwardError) Error() string {
	return fmt.Sprintf("forward failed (%s): %v", e.Class, e.Err)
}

func (e *ForwardError) Unwrap() error {
	return e.Err
}

// Config holds the forwarder's static settings.
type Config struct {
	// AllowedTargets is the set of downstream hostnames the relay may
	// contact. An empty list denies every target.
	AllowedTargets []string
	// Timeout bounds each downstream call.
	Timeout time.Duration
	// MaxResponseBytes caps how much of a downstream body is relayed.
	// Zero means no cap.
	MaxResponseBytes int64
}

// Result carries the downstream response to be relayed verbatim.
type Result struct {
	StatusCode  int
	Body        []byte
	ContentType string
}

// Forwarder issues the downstream POST for an envelope. It is stateless
// apart from the shared keep-alive connection pool and is safe for
// concurrent use.
type Forwarder struct {
	client           *http.Client
	allowed          map[string]struct{}
	timeout          time.Duration
	maxResponseBytes int64
}

// NewForwarder constructs a Forwarder from config.
func NewForwarder(cfg Config) *Forwarder {
	allowed := make(map[string]struct{}, len(cfg.AllowedTargets))
	for _, host := range cfg.AllowedTargets {
		allowed[strings.ToLower(host)] = struct{}{}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 25 * time.Second
	}

	return &Forwarder{
		client:           &http.Client{Timeout: timeout},
		allowed:          allowed,
		timeout:          timeout,
		maxResponseBytes: cfg.MaxResponseBytes,
	}
}

// TargetAllowed reports whether the envelope's downstream host is on
// the allow-list. The check is an exact, case-insensitive hostname
// match.
func (f *Forwarder) TargetAllowed(e *Envelope) bool {
	_, ok := f.allowed[strings.ToLower(e.TargetURL.Hostname())]
	return ok
}

// Forward issues the downstream POST and returns the response verbatim.
// The caller's context is honored, so a disconnected client aborts the
// downstream call. Transport failures come back as *ForwardError; a
// downstream non-2xx is not an error and is returned as a normal
// Result.
func (f *Forwarder) Forward(ctx context.Context, e *Envelope) (*Result, error) {
	if !f.TargetAllowed(e) {
		return nil, ErrTargetNotAllowed
	}

	body, err := e.Body()
	if err != nil {
		return nil, fmt.Errorf("serialize payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, e.TargetURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := f.client.Do(request)
	metrics.ForwardDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		class := Classify(err)
		metrics.ForwardsTotal.WithLabelValues(class).Inc()
		return nil, &ForwardError{Class: class, Err: err}
	}
	defer resp.Body.Close()

	reader := io.Reader(resp.Body)
	if f.maxResponseBytes > 0 {
		reader = io.LimitReader(resp.Body, f.maxResponseBytes)
	}

	respBody, err := io.ReadAll(reader)
	if err != nil {
		class := Classify(err)
		metrics.ForwardsTotal.WithLabelValues(class).Inc()
		return nil, &ForwardError{Class: class, Err: err}
	}

	metrics.ForwardsTotal.WithLabelValues("relayed").Inc()
	metrics.RelayedBytesTotal.Add(float64(len(respBody)))

	return &Result{
		StatusCode:  resp.StatusCode,
		Body:        respBody,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// Classify maps a transport error to its outcome class. Timeouts are
// checked first since DNS and dial failures can themselves be
// deadline-driven.
func Classify(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ClassDNS
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return ClassRefused
	}

	var certVerifyErr *tls.CertificateVerificationError
	if errors.As(err, &certVerifyErr) {
		return ClassCertificate
	}

	var unknownAuthErr x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthErr) {
		return ClassCertificate
	}

	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return ClassCertificate
	}

	var certInvalidErr x509.CertificateInvalidError
	if errors.As(err, &certInvalidErr) {
		return ClassCertificate
	}

	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return ClassCertificate
	}

	return ClassUpstream
}
