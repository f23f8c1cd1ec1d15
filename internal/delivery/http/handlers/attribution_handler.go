package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/LavaJover/storefront-attribution-service/internal/delivery/http/dto/attribution/request"
	"github.com/LavaJover/storefront-attribution-service/internal/usecase/attribution"
	visitdto "github.com/LavaJover/storefront-attribution-service/internal/usecase/dto/visit"
	"github.com/go-chi/chi/v5"
	"github.com/jaevor/go-nanoid"
)

const maxBodyBytes = 16 << 10

type HandlerConfig struct {
	CookieName string
	// Ready reports whether backing services are reachable.
	Ready func(ctx context.Context) error
	// Metrics serves the scrape endpoint when set.
	Metrics http.Handler
	Logger  *slog.Logger
}

type Handler struct {
	uc           attribution.AttributionUsecase
	cookieName   string
	ready        func(ctx context.Context) error
	metrics      http.Handler
	logger       *slog.Logger
	newVisitorID func() string
}

func NewHandler(uc attribution.AttributionUsecase, cfg HandlerConfig) (*Handler, error) {
	idGenerator, err := nanoid.Standard(21)
	if err != nil {
		return nil, err
	}
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "sf_vid"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		uc:           uc,
		cookieName:   cookieName,
		ready:        cfg.Ready,
		metrics:      cfg.Metrics,
		logger:       logger.With("module", "http"),
		newVisitorID: idGenerator,
	}, nil
}

func (h *Handler) trackVisit(w http.ResponseWriter, r *http.Request) {
	var body request.TrackVisitRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	referrer := body.Referrer
	if referrer == "" {
		referrer = r.Referer()
	}

	output, err := h.uc.TrackVisit(r.Context(), &visitdto.TrackVisitInput{
		VisitorID:   visitorIDFromContext(r.Context()),
		URL:         body.URL,
		ReferrerURL: referrer,
		UserAgent:   r.UserAgent(),
	})
	if err != nil {
		h.writeMappedError(r.Context(), w, "track_visit", err)
		return
	}

	writeSuccess(w, http.StatusAccepted, output)
}

func (h *Handler) currentAttribution(w http.ResponseWriter, r *http.Request) {
	output, err := h.uc.CurrentAttribution(r.Context(), &visitdto.CurrentAttributionInput{
		VisitorID: visitorIDFromContext(r.Context()),
	})
	if err != nil {
		h.writeMappedError(r.Context(), w, "current_attribution", err)
		return
	}

	writeSuccess(w, http.StatusOK, output)
}

func (h *Handler) clearAttribution(w http.ResponseWriter, r *http.Request) {
	err := h.uc.ClearAttribution(r.Context(), &visitdto.ClearAttributionInput{
		VisitorID: visitorIDFromContext(r.Context()),
		Channel:   chi.URLParam(r, "channel"),
	})
	if err != nil {
		h.writeMappedError(r.Context(), w, "clear_attribution", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]string{"state": "ok"})
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "readiness check failed", "error", err.Error())
			writeError(w, http.StatusServiceUnavailable, "NOT_READY", "dependencies unavailable")
			return
		}
	}
	writeSuccess(w, http.StatusOK, map[string]string{"state": "ready"})
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}
