package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/readzone/readzone-server/internal/models"
	"github.com/readzone/readzone-server/internal/services"
	"github.com/readzone/readzone-server/pkg/errors"
	"github.com/readzone/readzone-server/pkg/response"
)

// LibraryHandler exposes the book catalogue and per-user shelves.
type LibraryHandler struct {
	service *services.LibraryService
}

func NewLibraryHandler(service *services.LibraryService) *LibraryHandler {
	return &LibraryHandler{service: service}
}

// AddBook registers a catalogue entry, deduplicating by ISBN.
func (h *LibraryHandler) AddBook(c *gin.Context) {
	if currentUserID(c) == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var input services.AddBookInput
	if !bindAndValidate(c, &input) {
		return
	}

	book, err := h.service.AddBook(requestContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, book)
}

// GetBook returns a catalogue entry.
func (h *LibraryHandler) GetBook(c *gin.Context) {
	book, err := h.service.GetBook(requestContext(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, book)
}

// SearchBooks matches catalogue entries by title.
func (h *LibraryHandler) SearchBooks(c *gin.Context) {
	page, limit := pageParams(c)

	books, total, err := h.service.SearchBooks(requestContext(c), c.Query("q"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"books":      books,
		"pagination": response.NewPagination(page, limit, total),
	})
}

// Shelve adds a book to the caller's shelf or updates its status.
func (h *LibraryHandler) Shelve(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var input services.ShelveInput
	if !bindAndValidate(c, &input) {
		return
	}

	entry, err := h.service.Shelve(requestContext(c), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, entry)
}

// Unshelve removes a book from the caller's shelf.
func (h *LibraryHandler) Unshelve(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.service.Unshelve(requestContext(c), userID, strings.TrimSpace(c.Param("bookID"))); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Removed from shelf")
}

// ListShelf returns the caller's library, optionally filtered by status.
func (h *LibraryHandler) ListShelf(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	page, limit := pageParams(c)
	status := models.LibraryStatus(strings.TrimSpace(c.Query("status")))

	entries, total, err := h.service.ListShelf(requestContext(c), userID, status, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"library":    entries,
		"pagination": response.NewPagination(page, limit, total),
	})
}
