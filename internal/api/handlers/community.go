package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/calgary-pulse/pulseqa/internal/api"
	"github.com/calgary-pulse/pulseqa/internal/domain"
	"github.com/calgary-pulse/pulseqa/internal/pagination"
	"github.com/go-chi/chi/v5"
)

type CommunityRegistry interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Community, error)
	ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*pagination.PageResult[domain.Community], error)
}

type CommunityHandler struct {
	registry CommunityRegistry
}

func NewCommunityHandler(registry CommunityRegistry) *CommunityHandler {
	return &CommunityHandler{registry: registry}
}

type CommunityResponse struct {
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	ChunkCount int    `json:"chunk_count"`
	IndexedAt  string `json:"indexed_at"`
}

type CommunityListResponse struct {
	Items   []CommunityResponse `json:"items"`
	Cursor  string              `json:"cursor,omitempty"`
	HasMore bool                `json:"has_more"`
}

func communityToResponse(c *domain.Community) CommunityResponse {
	return CommunityResponse{
		Slug:       c.Slug,
		Name:       c.Name,
		ChunkCount: c.ChunkCount,
		IndexedAt:  c.IndexedAt.Format(time.RFC3339),
	}
}

func (h *CommunityHandler) List(w http.ResponseWriter, r *http.Request) {
	cursor, _ := pagination.DecodeCursor(r.URL.Query().Get("cursor"))
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	page, err := h.registry.ListWithCursor(r.Context(), cursor, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]CommunityResponse, len(page.Items))
	for i := range page.Items {
		items[i] = communityToResponse(&page.Items[i])
	}

	api.Success(w, http.StatusOK, CommunityListResponse{
		Items:   items,
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}

func (h *CommunityHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		api.Error(w, http.StatusBadRequest, "community slug is required")
		return
	}

	community, err := h.registry.GetBySlug(r.Context(), slug)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, communityToResponse(community))
}
