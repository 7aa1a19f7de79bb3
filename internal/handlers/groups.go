package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/readzone/readzone-server/internal/services"
	"github.com/readzone/readzone-server/pkg/errors"
	"github.com/readzone/readzone-server/pkg/response"
)

// GroupHandler exposes reading group discovery and membership.
type GroupHandler struct {
	service *services.GroupService
}

func NewGroupHandler(service *services.GroupService) *GroupHandler {
	return &GroupHandler{service: service}
}

// Create opens a new reading group with the caller as admin.
func (h *GroupHandler) Create(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var input services.CreateGroupInput
	if !bindAndValidate(c, &input) {
		return
	}

	group, err := h.service.Create(requestContext(c), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, group)
}

// Get returns a group with its active members.
func (h *GroupHandler) Get(c *gin.Context) {
	group, err := h.service.Get(requestContext(c), currentUserID(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, group)
}

// List returns active groups, filtered by a search query and a type of
// "all", "public" or "mine".
func (h *GroupHandler) List(c *gin.Context) {
	page, limit := pageParams(c)

	groups, total, err := h.service.List(requestContext(c), services.ListGroupsInput{
		ViewerID: currentUserID(c),
		Query:    c.Query("q"),
		Type:     strings.TrimSpace(c.Query("type")),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"groups":     groups,
		"pagination": response.NewPagination(page, limit, total),
	})
}

// Join adds the caller to a group.
func (h *GroupHandler) Join(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.service.Join(requestContext(c), userID, strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Joined group")
}

// Leave removes the caller from a group.
func (h *GroupHandler) Leave(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.service.Leave(requestContext(c), userID, strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Left group")
}
