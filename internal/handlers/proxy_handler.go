package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gridpulse-systems/gridpulse-relay/internal/httputil"
	"github.com/gridpulse-systems/gridpulse-relay/internal/logging"
	"github.com/gridpulse-systems/gridpulse-relay/internal/metrics"
	"github.com/gridpulse-systems/gridpulse-relay/internal/ratelimit"
	"github.com/gridpulse-systems/gridpulse-relay/internal/relay"
)

// Forwarder is the downstream call the handler depends on.
type Forwarder interface {
	Forward(ctx context.Context, e *relay.Envelope) (*relay.Result, error)
}

// ProxyHandler relays envelope POSTs to the configured downstream and
// answers health checks. Preflight OPTIONS requests never reach it;
// the CORS middleware short-circuits them.
type ProxyHandler struct {
	forwarder    Forwarder
	limiter      ratelimit.RateLimiter
	logger       *logging.Logger
	maxBodyBytes int64
}

func NewProxyHandler(forwarder Forwarder, limiter ratelimit.RateLimiter, logger *logging.Logger, maxBodyBytes int64) *ProxyHandler {
	if limiter == nil {
		limiter = &ratelimit.NoOpRateLimiter{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ProxyHandler{
		forwarder:    forwarder,
		limiter:      limiter,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
	}
}

func (h *ProxyHandler) HandleProxy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()
	clientIP := httputil.GetClientIP(r)

	allowed, err := h.limiter.Allow(ctx, clientIP)
	if err != nil {
		// Limiter trouble must not take the relay down; let the
		// request through and surface the problem in logs.
		h.logger.WarnContext(ctx, "rate limiter unavailable", logging.Error(err))
	} else if !allowed {
		httputil.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	reader := io.Reader(r.Body)
	if h.maxBodyBytes > 0 {
		reader = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			metrics.RejectedRequestsTotal.WithLabelValues("body_too_large").Inc()
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		metrics.RejectedRequestsTotal.WithLabelValues("body_read_failed").Inc()
		h.logger.DebugContext(ctx, "failed to read request body",
			logging.IP(clientIP),
			logging.Error(err),
		)
		httputil.WriteError(w, http.StatusBadRequest, "invalid request")
		return
	}
	defer r.Body.Close()

	envelope, err := relay.ParseEnvelope(body)
	if err != nil {
		metrics.RejectedRequestsTotal.WithLabelValues("invalid_request").Inc()
		h.logger.DebugContext(ctx, "rejected malformed envelope",
			logging.IP(clientIP),
			logging.Error(err),
		)
		httputil.WriteError(w, http.StatusBadRequest, "invalid request")
		return
	}

	start := time.Now()
	result, err := h.forwarder.Forward(ctx, envelope)
	if err != nil {
		h.writeForwardError(w, r, envelope, err)
		return
	}

	h.logger.InfoContext(ctx, "forward complete",
		logging.IP(clientIP),
		logging.Target(envelope.TargetURL.String()),
		logging.Status(result.StatusCode),
		logging.Duration(time.Since(start).Milliseconds()),
	)

	// Downstream status and body are relayed verbatim, non-2xx included.
	httputil.WriteRaw(w, result.StatusCode, result.ContentType, result.Body)
}

func (h *ProxyHandler) writeForwardError(w http.ResponseWriter, r *http.Request, envelope *relay.Envelope, err error) {
	ctx := r.Context()

	if errors.Is(err, relay.ErrTargetNotAllowed) {
		metrics.RejectedRequestsTotal.WithLabelValues("target_not_allowed").Inc()
		h.logger.WarnContext(ctx, "rejected disallowed target",
			logging.Target(envelope.TargetURL.String()),
		)
		httputil.WriteError(w, http.StatusForbidden, "target not allowed")
		return
	}

	var fwdErr *relay.ForwardError
	if errors.As(err, &fwdErr) {
		h.logger.ErrorContext(ctx, "forward failed",
			logging.Target(envelope.TargetURL.String()),
			logging.Outcome(fwdErr.Class),
			logging.Error(err),
		)
		if fwdErr.Class == relay.ClassTimeout {
			httputil.WriteErrorCode(w, http.StatusGatewayTimeout, "upstream timed out", fwdErr.Class)
		} else {
			httputil.WriteErrorCode(w, http.StatusBadGateway, "upstream request failed", fwdErr.Class)
		}
		return
	}

	h.logger.ErrorContext(ctx, "forward failed", logging.Error(err))
	httputil.WriteError(w, http.StatusInternalServerError, "internal error")
}

func (h *ProxyHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *ProxyHandler) Ready(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
