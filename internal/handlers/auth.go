package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/readzone/readzone-server/internal/auth"
	"github.com/readzone/readzone-server/internal/services"
	"github.com/readzone/readzone-server/pkg/errors"
	"github.com/readzone/readzone-server/pkg/response"
)

// AuthHandler exposes registration, login and account settings endpoints.
type AuthHandler struct {
	service *services.AuthService
}

func NewAuthHandler(db *gorm.DB, jwt *iauth.JWTService) (*AuthHandler, error) {
	service, err := services.NewAuthService(db, jwt)
	if err != nil {
		return nil, err
	}
	return &AuthHandler{service: service}, nil
}

// Register creates a new account and returns an access token.
func (h *AuthHandler) Register(c *gin.Context) {
	var input services.RegisterInput
	if !bindAndValidate(c, &input) {
		return
	}

	result, err := h.service.Register(requestContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// Login exchanges credentials for an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var input services.LoginInput
	if !bindAndValidate(c, &input) {
		return
	}

	result, err := h.service.Login(requestContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	user, err := h.service.CurrentUser(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// UpdateProfile applies account settings changes.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var input services.UpdateProfileInput
	if !bindAndValidate(c, &input) {
		return
	}

	user, err := h.service.UpdateProfile(requestContext(c), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

type changePasswordInput struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72" validate:"required,min=8,max=72"`
}

// ChangePassword rotates the caller's password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var input changePasswordInput
	if !bindAndValidate(c, &input) {
		return
	}

	if err := h.service.ChangePassword(requestContext(c), userID, input.CurrentPassword, input.NewPassword); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Password updated")
}
