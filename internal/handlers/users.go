package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/readzone/readzone-server/internal/services"
	"github.com/readzone/readzone-server/pkg/errors"
	"github.com/readzone/readzone-server/pkg/response"
)

// UserHandler exposes profile pages, the follow graph and user search.
type UserHandler struct {
	profiles *services.ProfileService
	follows  *services.FollowService
}

func NewUserHandler(db *gorm.DB, follows *services.FollowService) (*UserHandler, error) {
	profiles, err := services.NewProfileService(db)
	if err != nil {
		return nil, err
	}
	return &UserHandler{profiles: profiles, follows: follows}, nil
}

// GetProfile returns a user's profile as seen by the caller.
func (h *UserHandler) GetProfile(c *gin.Context) {
	subjectID := strings.TrimSpace(c.Param("id"))

	profile, err := h.profiles.GetProfile(requestContext(c), currentUserID(c), subjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// Search matches users by username or nickname.
func (h *UserHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		response.Error(c, errors.NewBadRequest("query parameter q is required"))
		return
	}

	page, limit := pageParams(c)
	results, total, err := h.profiles.SearchUsers(requestContext(c), query, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"users":      results,
		"pagination": response.NewPagination(page, limit, total),
	})
}

// Follow creates a follow edge from the caller to the target user.
func (h *UserHandler) Follow(c *gin.Context) {
	actorID := currentUserID(c)
	if actorID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	targetID := strings.TrimSpace(c.Param("id"))
	if err := h.follows.Follow(requestContext(c), actorID, targetID); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusCreated, "Now following")
}

// Unfollow removes the caller's follow edge to the target user.
func (h *UserHandler) Unfollow(c *gin.Context) {
	actorID := currentUserID(c)
	if actorID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	targetID := strings.TrimSpace(c.Param("id"))
	if err := h.follows.Unfollow(requestContext(c), actorID, targetID); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Unfollowed")
}

// Followers lists the users following the subject.
func (h *UserHandler) Followers(c *gin.Context) {
	h.listEdges(c, h.follows.ListFollowers, "followers")
}

// Following lists the users the subject follows.
func (h *UserHandler) Following(c *gin.Context) {
	h.listEdges(c, h.follows.ListFollowing, "following")
}

func (h *UserHandler) listEdges(
	c *gin.Context,
	list func(ctx context.Context, viewerID, subjectID string, page, limit int) ([]services.UserSummary, int64, error),
	key string,
) {
	subjectID := strings.TrimSpace(c.Param("id"))
	page, limit := pageParams(c)

	users, total, err := list(requestContext(c), currentUserID(c), subjectID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		key:          users,
		"pagination": response.NewPagination(page, limit, total),
	})
}
