package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/readzone/readzone-server/internal/services"
	"github.com/readzone/readzone-server/pkg/errors"
	"github.com/readzone/readzone-server/pkg/response"
)

// CommentHandler exposes edit and delete on individual comments. Creation and
// listing live on the post routes.
type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type updateCommentInput struct {
	Content string `json:"content" binding:"required,max=2000"`
}

// Update edits the caller's comment.
func (h *CommentHandler) Update(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var input updateCommentInput
	if !bindAndValidate(c, &input) {
		return
	}

	comment, err := h.comments.Update(requestContext(c), userID, strings.TrimSpace(c.Param("id")), input.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, comment)
}

// Delete soft-deletes the caller's comment.
func (h *CommentHandler) Delete(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.comments.Delete(requestContext(c), userID, strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Comment deleted")
}
