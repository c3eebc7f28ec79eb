package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mythictransfers/supportdesk/internal/auth"
	"github.com/mythictransfers/supportdesk/internal/logger"
	"github.com/mythictransfers/supportdesk/internal/models"
	"github.com/mythictransfers/supportdesk/internal/review"
	"go.uber.org/zap"
)

// ReviewService is the review-queue side of the orchestrator.
type ReviewService interface {
	ListPending(ctx context.Context) ([]*models.ReviewItem, error)
	Get(ctx context.Context, id string) (*models.ReviewItem, error)
	Approve(ctx context.Context, id, modifiedResponse, reviewer string) (string, error)
	Reject(ctx context.Context, id, reviewer string) error
}

// ReviewHandler serves the review queue API.
type ReviewHandler struct {
	service ReviewService
	log     *zap.Logger
}

func NewReviewHandler(service ReviewService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		log:     logger.Named(log, "review_api"),
	}
}

type approveRequest struct {
	ModifiedResponse string `json:"modifiedResponse"`
}

type approveResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"messageId"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// List returns pending items, oldest first.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListPending(r.Context())
	if err != nil {
		h.log.Error("Failed to list review queue", zap.Error(err))
		writeError(w, h.log, http.StatusInternalServerError, "Internal server error")
		return
	}

	summaries := make([]*models.ReviewSummary, 0, len(items))
	for _, item := range items {
		summaries = append(summaries, item.Summary())
	}
	writeJSON(w, h.log, http.StatusOK, models.ReviewListResponse{Count: len(summaries), Items: summaries})
}

// Get returns one item in any state.
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, item)
}

// Approve sends the (optionally edited) draft. The body may be empty.
func (h *ReviewHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, h.log, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	sentID, err := h.service.Approve(r.Context(), r.PathValue("id"), req.ModifiedResponse, reviewer(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, approveResponse{Status: "sent", MessageID: sentID})
}

// Reject closes the item without replying.
func (h *ReviewHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reject(r.Context(), r.PathValue("id"), reviewer(r)); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, statusResponse{Status: "rejected"})
}

func (h *ReviewHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, review.ErrNotFound):
		writeError(w, h.log, http.StatusNotFound, "Not found")
	case errors.Is(err, review.ErrInvalidTransition):
		writeError(w, h.log, http.StatusConflict, "Already actioned")
	default:
		h.log.Error("Review action failed", zap.Error(err))
		writeError(w, h.log, http.StatusInternalServerError, err.Error())
	}
}

func reviewer(r *http.Request) string {
	if email, ok := auth.ReviewerFromContext(r.Context()); ok {
		return email
	}
	return auth.AnonymousReviewer
}
