package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/readzone/readzone-server/internal/services"
	"github.com/readzone/readzone-server/pkg/errors"
	"github.com/readzone/readzone-server/pkg/response"
)

// PostHandler exposes review CRUD, likes and the review feed.
type PostHandler struct {
	posts    *services.PostService
	comments *services.CommentService
}

func NewPostHandler(posts *services.PostService, comments *services.CommentService) *PostHandler {
	return &PostHandler{posts: posts, comments: comments}
}

// Create stores a new review.
func (h *PostHandler) Create(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var input services.CreatePostInput
	if !bindAndValidate(c, &input) {
		return
	}

	post, err := h.posts.Create(requestContext(c), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, post)
}

// Get returns a single review.
func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.posts.Get(requestContext(c), currentUserID(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, post)
}

// List returns the review feed, optionally filtered by user or book.
func (h *PostHandler) List(c *gin.Context) {
	page, limit := pageParams(c)

	posts, total, err := h.posts.List(requestContext(c), services.ListPostsInput{
		ViewerID: currentUserID(c),
		UserID:   strings.TrimSpace(c.Query("user_id")),
		BookID:   strings.TrimSpace(c.Query("book_id")),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"posts":      posts,
		"pagination": response.NewPagination(page, limit, total),
	})
}

// Update edits the caller's review.
func (h *PostHandler) Update(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var input services.UpdatePostInput
	if !bindAndValidate(c, &input) {
		return
	}

	post, err := h.posts.Update(requestContext(c), userID, strings.TrimSpace(c.Param("id")), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, post)
}

// Delete soft-deletes the caller's review.
func (h *PostHandler) Delete(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.posts.Delete(requestContext(c), userID, strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Post deleted")
}

// Like records a like on a review.
func (h *PostHandler) Like(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.posts.Like(requestContext(c), userID, strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusCreated, "Liked")
}

// Unlike removes the caller's like from a review.
func (h *PostHandler) Unlike(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.posts.Unlike(requestContext(c), userID, strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Like removed")
}

// CreateComment adds a comment or reply to a review.
func (h *PostHandler) CreateComment(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var input services.CreateCommentInput
	if !bindAndValidate(c, &input) {
		return
	}

	comment, err := h.comments.Create(requestContext(c), userID, strings.TrimSpace(c.Param("id")), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, comment)
}

// ListComments returns the comment thread for a review.
func (h *PostHandler) ListComments(c *gin.Context) {
	page, limit := pageParams(c)

	comments, total, err := h.comments.ListForPost(requestContext(c), strings.TrimSpace(c.Param("id")), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"comments":   comments,
		"pagination": response.NewPagination(page, limit, total),
	})
}
