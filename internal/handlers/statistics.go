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

// StatisticsHandler exposes derived reading statistics.
type StatisticsHandler struct {
	service *services.StatisticsService
}

func NewStatisticsHandler(service *services.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{service: service}
}

// Overview returns the caller's yearly statistics. The year query parameter
// defaults to the current year.
func (h *StatisticsHandler) Overview(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	year := 0
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, errors.NewBadRequest("Year must be a number"))
			return
		}
		year = parsed
	}

	overview, err := h.service.Overview(requestContext(c), userID, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, overview)
}

// Trends returns rolling-window finish counts and reading speed.
func (h *StatisticsHandler) Trends(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	period := services.TrendPeriod(strings.TrimSpace(c.Query("period")))
	trends, err := h.service.Trends(requestContext(c), userID, period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, trends)
}
