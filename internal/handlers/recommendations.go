package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/readzone/readzone-server/internal/models"
	"github.com/readzone/readzone-server/internal/services"
	"github.com/readzone/readzone-server/pkg/errors"
	"github.com/readzone/readzone-server/pkg/response"
)

// RecommendationHandler exposes direct book tips and the personalised feed.
type RecommendationHandler struct {
	service *services.RecommendationService
}

func NewRecommendationHandler(service *services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{service: service}
}

// Create records a tip from the caller to another user.
func (h *RecommendationHandler) Create(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var input services.RecommendInput
	if !bindAndValidate(c, &input) {
		return
	}

	reco, err := h.service.Recommend(requestContext(c), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, reco)
}

// SubmitFeedback records the recipient's reaction to a tip.
func (h *RecommendationHandler) SubmitFeedback(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var input services.RecommendationFeedbackInput
	if !bindAndValidate(c, &input) {
		return
	}

	reco, err := h.service.SubmitFeedback(requestContext(c), userID, strings.TrimSpace(c.Param("id")), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, reco)
}

// MarkRead flags a received tip as seen.
func (h *RecommendationHandler) MarkRead(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.service.MarkRead(requestContext(c), userID, strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Recommendation marked as read")
}

// ListReceived returns tips sent to the caller.
func (h *RecommendationHandler) ListReceived(c *gin.Context) {
	h.list(c, h.service.ListReceived)
}

// ListSent returns tips the caller sent.
func (h *RecommendationHandler) ListSent(c *gin.Context) {
	h.list(c, h.service.ListSent)
}

func (h *RecommendationHandler) list(
	c *gin.Context,
	fetch func(ctx context.Context, userID string, page, limit int) ([]models.BookRecommendation, int64, error),
) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	page, limit := pageParams(c)
	recos, total, err := fetch(requestContext(c), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"recommendations": recos,
		"pagination":      response.NewPagination(page, limit, total),
	})
}

// Personalized returns suggestions derived from the caller's library.
func (h *RecommendationHandler) Personalized(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	limit := parseIntQuery(c, "limit", 10)
	results, err := h.service.Personalized(requestContext(c), userID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"recommendations": results})
}
