package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/calgary-pulse/pulseqa/internal/api"
	"github.com/calgary-pulse/pulseqa/internal/domain"
	"github.com/calgary-pulse/pulseqa/internal/service"
)

type AnswerService interface {
	Ask(ctx context.Context, input service.AskInput) (*domain.Answer, error)
	AskBatch(ctx context.Context, inputs []service.AskInput) []domain.Answer
}

type AskHandler struct {
	svc AnswerService
}

func NewAskHandler(svc AnswerService) *AskHandler {
	return &AskHandler{svc: svc}
}

type AskRequest struct {
	Question    string   `json:"question"`
	Communities []string `json:"communities,omitempty"`
}

type BatchAskRequest struct {
	Questions []AskRequest `json:"questions"`
}

type CitationResponse struct {
	Community string `json:"community"`
	Section   string `json:"section"`
}

type VizRefResponse struct {
	Locator string `json:"locator"`
	Label   string `json:"label"`
}

type AnswerResponse struct {
	Question  string             `json:"question"`
	Answer    string             `json:"answer"`
	Status    string             `json:"status"`
	Citations []CitationResponse `json:"citations"`
	VizRefs   []VizRefResponse   `json:"viz_refs,omitempty"`
	Missing   []string           `json:"missing,omitempty"`
	AskedAt   string             `json:"asked_at"`
}

func answerToResponse(a *domain.Answer) *AnswerResponse {
	resp := &AnswerResponse{
		Question:  a.Question,
		Answer:    a.Text,
		Status:    string(a.Status),
		Citations: make([]CitationResponse, 0, len(a.Citations)),
		Missing:   a.Missing,
		AskedAt:   a.AskedAt.Format(time.RFC3339),
	}
	for _, c := range a.Citations {
		resp.Citations = append(resp.Citations, CitationResponse{
			Community: c.Community,
			Section:   string(c.Section),
		})
	}
	for _, v := range a.VizRefs {
		resp.VizRefs = append(resp.VizRefs, VizRefResponse{Locator: v.Locator, Label: v.Label})
	}
	return resp
}

func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := h.svc.Ask(r.Context(), service.AskInput{
		Question:    req.Question,
		Communities: req.Communities,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, answerToResponse(answer))
}

func (h *AskHandler) AskBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchAskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Questions) == 0 {
		api.Error(w, http.StatusBadRequest, "questions cannot be empty")
		return
	}

	inputs := make([]service.AskInput, 0, len(req.Questions))
	for _, q := range req.Questions {
		inputs = append(inputs, service.AskInput{
			Question:    q.Question,
			Communities: q.Communities,
		})
	}

	answers := h.svc.AskBatch(r.Context(), inputs)
	responses := make([]*AnswerResponse, 0, len(answers))
	for i := range answers {
		responses = append(responses, answerToResponse(&answers[i]))
	}

	api.Success(w, http.StatusOK, responses)
}
