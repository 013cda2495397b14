package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/calgary-pulse/pulseqa/internal/api"
	"github.com/calgary-pulse/pulseqa/internal/service"
	"github.com/go-chi/chi/v5"
)

type IndexerService interface {
	IndexCommunities(ctx context.Context, slugs []string) (*service.IndexReport, error)
	IndexAll(ctx context.Context) (*service.IndexReport, error)
	Wipe(ctx context.Context) (*service.IndexReport, error)
	RemoveCommunity(ctx context.Context, slug string) error
	Stats(ctx context.Context) (*service.StoreStats, error)
}

type IndexHandler struct {
	svc IndexerService
}

func NewIndexHandler(svc IndexerService) *IndexHandler {
	return &IndexHandler{svc: svc}
}

type IndexRequest struct {
	Communities []string `json:"communities,omitempty"`
	All         bool     `json:"all,omitempty"`
	Wipe        bool     `json:"wipe,omitempty"`
}

func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	var req IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		report *service.IndexReport
		err    error
	)
	switch {
	case req.Wipe:
		report, err = h.svc.Wipe(r.Context())
	case req.All:
		report, err = h.svc.IndexAll(r.Context())
	case len(req.Communities) > 0:
		report, err = h.svc.IndexCommunities(r.Context(), req.Communities)
	default:
		api.Error(w, http.StatusBadRequest, "specify communities, all, or wipe")
		return
	}
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, report)
}

func (h *IndexHandler) Remove(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		api.Error(w, http.StatusBadRequest, "community slug is required")
		return
	}

	if err := h.svc.RemoveCommunity(r.Context(), slug); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"removed": slug})
}

type StatsResponse struct {
	Communities int            `json:"communities"`
	Chunks      int            `json:"chunks"`
	Sections    map[string]int `json:"sections"`
}

func (h *IndexHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, StatsResponse{
		Communities: stats.Communities,
		Chunks:      stats.Chunks,
		Sections:    stats.Sections,
	})
}
