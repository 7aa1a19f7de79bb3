package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/readzone/readzone-server/internal/services"
	"github.com/readzone/readzone-server/pkg/errors"
	"github.com/readzone/readzone-server/pkg/response"
)

// ReadingGoalHandler exposes yearly reading targets.
type ReadingGoalHandler struct {
	service *services.ReadingGoalService
}

func NewReadingGoalHandler(service *services.ReadingGoalService) *ReadingGoalHandler {
	return &ReadingGoalHandler{service: service}
}

func goalYear(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(strings.TrimSpace(c.Param("year")))
	if err != nil {
		response.Error(c, errors.NewBadRequest("Year must be a number"))
		return 0, false
	}
	return year, true
}

// Get returns the goal for a year, creating a default one when absent.
func (h *ReadingGoalHandler) Get(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	year, ok := goalYear(c)
	if !ok {
		return
	}

	goal, err := h.service.Get(requestContext(c), userID, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, goal)
}

// Set creates or updates the targets for a year.
func (h *ReadingGoalHandler) Set(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	year, ok := goalYear(c)
	if !ok {
		return
	}

	var input services.SetGoalInput
	if !bindAndValidate(c, &input) {
		return
	}

	goal, err := h.service.Set(requestContext(c), userID, year, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, goal)
}

// List returns all of the caller's goals with progress.
func (h *ReadingGoalHandler) List(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	page, limit := pageParams(c)
	goals, total, err := h.service.List(requestContext(c), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"goals":      goals,
		"pagination": response.NewPagination(page, limit, total),
	})
}

// Delete removes the goal for a year.
func (h *ReadingGoalHandler) Delete(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	year, ok := goalYear(c)
	if !ok {
		return
	}

	if err := h.service.Delete(requestContext(c), userID, year); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Reading goal removed")
}
