package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hupe1980/agentjury"
	"github.com/hupe1980/agentjury/core"
	"github.com/hupe1980/agentjury/guardrail"
	"github.com/hupe1980/agentjury/logging"
	"github.com/hupe1980/agentjury/samples"
)

const maxBodyBytes = 64 << 10

const (
	msgInvalidRequest = "Invalid request payload."
	msgNotConfigured  = "Server is not configured."
	msgRateLimited    = "Rate limit exceeded."
	msgBlocked        = "Request blocked."
	msgDebateFailed   = "Debate failed."
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.requestLogger(r, "/api/health").Debug("health.check")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type samplesResponse struct {
	Count    int                                `json:"count"`
	Items    []samples.Question                 `json:"items"`
	ByDomain map[core.Domain][]samples.Question `json:"byDomain"`
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	items := samples.All()
	s.requestLogger(r, "/api/samples").Debug("samples.list", "count", len(items))
	writeJSON(w, http.StatusOK, samplesResponse{
		Count:    len(items),
		Items:    items,
		ByDomain: samples.ByDomain(),
	})
}

func (s *Server) handleDebate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger := s.requestLogger(r, "/api/debate")

	var req agentjury.Request
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("request.validation_failed", "error", err.Error())
		writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := agentjury.ValidateRequest(&req, s.opts.ModelOptions); err != nil {
		logger.Warn("request.validation_failed", "error", err.Error())
		writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	if s.jury == nil {
		logger.Error("config.invalid", "message", "no debate backend configured")
		writeError(w, http.StatusInternalServerError, msgNotConfigured)
		return
	}

	client := ClientKey(r)
	limit := s.limiter.Allow(client)
	limit.SetHeaders(w.Header())
	if !limit.Allowed {
		logger.Warn("rate_limit.exceeded", "client", client)
		writeError(w, http.StatusTooManyRequests, msgRateLimited)
		return
	}

	logger.Info("request.accepted",
		"domain", req.Domain,
		"model", req.Model,
		"queryPreview", logging.Truncate(req.Query, s.opts.TruncateLength),
	)

	if err := s.jury.CheckInput(r.Context(), req.Query); err != nil {
		var rej *guardrail.Rejection
		if !errors.As(err, &rej) {
			logger.Error("request.failed", "error", err.Error())
			writeError(w, http.StatusInternalServerError, msgDebateFailed)
			return
		}
		logger.Warn("request.blocked", "reason", rej.Reason)
		status := http.StatusForbidden
		if rej.Retryable() {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, core.UserMessage(rej, msgBlocked))
		return
	}

	ctx := r.Context()
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	runID, events, err := s.jury.Start(ctx, req)
	if err != nil {
		logger.Error("request.failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, core.UserMessage(err, msgDebateFailed))
		return
	}
	logger = logger.With("runId", runID)

	if err := s.stream(ctx, newSSEWriter(w), events); err != nil {
		logger.Error("request.failed", "error", err.Error(), "durationMs", time.Since(start).Milliseconds())
		return
	}
	logger.Info("request.completed", "durationMs", time.Since(start).Milliseconds())
}

// stream forwards events as SSE frames. If the stream ends without a
// terminal event, a final error event is written.
func (s *Server) stream(ctx context.Context, sse *sseWriter, events <-chan core.Event) error {
	var streamErr error
	terminated := false

	for ev := range events {
		if streamErr != nil {
			continue
		}
		if err := sse.send(ev); err != nil {
			streamErr = err
			continue
		}
		terminated = core.IsTerminal(ev)
	}

	if streamErr == nil && !terminated {
		streamErr = errors.New("stream ended without terminal event")
		if ctxErr := ctx.Err(); ctxErr != nil {
			streamErr = ctxErr
		}
	}
	if streamErr != nil && !terminated {
		_ = sse.send(core.ErrorEvent{Message: msgDebateFailed})
	}
	return streamErr
}
