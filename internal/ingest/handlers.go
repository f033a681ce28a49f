package ingest

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/and161185/metricspush/internal/crypto"
	"github.com/and161185/metricspush/internal/payload"
	"github.com/and161185/metricspush/model"
	"github.com/and161185/metricspush/storage"
)

// ExpositionContentType is served for stored metrics text.
const ExpositionContentType = "text/plain; version=0.0.4; charset=utf-8"

type ingestResponse struct {
	Runner    string `json:"runner"`
	Signed    bool   `json:"signed"`
	RequestID string `json:"request_id,omitempty"`
}

type runnerInfo struct {
	Runner     string    `json:"runner"`
	Signed     bool      `json:"signed"`
	Parsed     bool      `json:"parsed"`
	Families   int       `json:"families"`
	RequestID  string    `json:"request_id,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
	Bytes      int       `json:"bytes"`
}

func (srv *Server) IngestHandler(w http.ResponseWriter, r *http.Request) {
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mediaType != "application/json" {
		http.Error(w, "unsupported content type", http.StatusUnsupportedMediaType)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, srv.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}

	p, err := payload.Parse(body)
	if err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if p.Runner == "" {
		http.Error(w, "runner is required", http.StatusBadRequest)
		return
	}

	requestID := r.Header.Get("X-Request-ID")
	signed, err := srv.checkSignature(p)
	if err != nil {
		srv.logger.Warnw("rejected payload", "runner", p.Runner, "request_id", requestID, "error", err)
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	families, perr := countFamilies(p.Metrics)
	if perr != nil {
		srv.logger.Warnw("metrics text does not parse as Prometheus exposition",
			"runner", p.Runner, "request_id", requestID, "error", perr)
	}

	sub := &model.Submission{
		Runner:     p.Runner,
		Metrics:    p.Metrics,
		Signed:     signed,
		Parsed:     perr == nil,
		Families:   families,
		RequestID:  requestID,
		ReceivedAt: srv.now().UTC(),
	}
	if err := srv.storage.Save(r.Context(), sub); err != nil {
		srv.logger.Errorw("failed to save submission", "runner", p.Runner, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	srv.logger.Infow("accepted payload",
		"runner", p.Runner, "signed", signed, "families", families, "request_id", requestID, "bytes", len(p.Metrics))

	writeJSON(w, http.StatusAccepted, ingestResponse{Runner: p.Runner, Signed: signed, RequestID: requestID})
}

var (
	errSignatureRequired = errors.New("signature required")
	errSignatureInvalid  = errors.New("invalid signature")
)

// checkSignature reports whether p carried a signature that was verified.
func (srv *Server) checkSignature(p model.Payload) (bool, error) {
	if p.Signature == "" {
		if srv.config.RequireSignature {
			return false, errSignatureRequired
		}
		return false, nil
	}
	if srv.config.PublicKey == nil {
		return false, nil
	}
	if err := crypto.Verify(srv.config.PublicKey, []byte(p.Metrics), p.Signature); err != nil {
		return false, errSignatureInvalid
	}
	return true, nil
}

func (srv *Server) GetMetricsHandler(w http.ResponseWriter, r *http.Request) {
	runner := chi.URLParam(r, "runner")

	sub, err := srv.storage.Get(r.Context(), runner)
	if err != nil {
		if errors.Is(err, storage.ErrRunnerNotFound) {
			http.NotFound(w, r)
			return
		}
		srv.logger.Errorw("failed to get submission", "runner", runner, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", ExpositionContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, sub.Metrics); err != nil {
		srv.logger.Warnw("failed to write metrics response", "runner", runner, "error", err)
	}
}

func (srv *Server) ListRunnersHandler(w http.ResponseWriter, r *http.Request) {
	all, err := srv.storage.GetAll(r.Context())
	if err != nil {
		srv.logger.Errorw("failed to list submissions", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	infos := make([]runnerInfo, 0, len(all))
	for _, s := range all {
		infos = append(infos, runnerInfo{
			Runner:     s.Runner,
			Signed:     s.Signed,
			Parsed:     s.Parsed,
			Families:   s.Families,
			RequestID:  s.RequestID,
			ReceivedAt: s.ReceivedAt,
			Bytes:      len(s.Metrics),
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

func (srv *Server) PingHandler(w http.ResponseWriter, r *http.Request) {
	if err := srv.storage.Ping(r.Context()); err != nil {
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
