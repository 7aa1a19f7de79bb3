package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/readzone/readzone-server/internal/auth"
	"github.com/readzone/readzone-server/internal/models"
	apperrors "github.com/readzone/readzone-server/pkg/errors"
	"github.com/readzone/readzone-server/pkg/logger"
	"github.com/readzone/readzone-server/pkg/metrics"
)

// AuthService owns the identity lifecycle: registration, credential checks
// and profile settings writes.
type AuthService struct {
	db  *gorm.DB
	jwt *auth.JWTService
	log *zap.Logger
}

// RegisterInput captures the fields accepted at sign-up.
type RegisterInput struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Nickname string `json:"nickname" binding:"omitempty,max=50"`
}

// LoginInput accepts either the username or the email as identifier.
type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// UpdateProfileInput holds the mutable per-user settings. Pointer fields
// distinguish "leave unchanged" from "set to zero value".
type UpdateProfileInput struct {
	Nickname *string `json:"nickname" binding:"omitempty,max=50"`
	Bio      *string `json:"bio" binding:"omitempty,max=2000"`
	Avatar   *string `json:"avatar" binding:"omitempty,url|eq="`
	IsPublic *bool   `json:"is_public"`
}

// AuthResult bundles the authenticated user with a fresh access token.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func NewAuthService(db *gorm.DB, jwtService *auth.JWTService) (*AuthService, error) {
	if db == nil {
		return nil, errors.New("auth service: db is required")
	}
	if jwtService == nil {
		return nil, errors.New("auth service: jwt service is required")
	}
	return &AuthService{db: db, jwt: jwtService, log: logger.WithModule("auth")}, nil
}

// Register creates a new account and signs the user in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	ctx = ensureContext(ctx)

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(err, "hash password")
	}

	user := models.User{
		Username: strings.TrimSpace(input.Username),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Password: string(hash),
		Nickname: strings.TrimSpace(input.Nickname),
		IsActive: true,
		IsPublic: true,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			metrics.AuthAttempts.WithLabelValues("register_conflict").Inc()
			return nil, apperrors.ErrConflict.WithMessage("Username or email already in use")
		}
		return nil, apperrors.Wrap(err, "create user")
	}

	metrics.AuthAttempts.WithLabelValues("register_success").Inc()
	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))

	return s.issueToken(&user)
}

// Login verifies credentials against the stored bcrypt hash. Lookup misses
// and password mismatches return the same error to avoid account probing.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	ctx = ensureContext(ctx)

	identifier := strings.TrimSpace(input.Identifier)

	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, strings.ToLower(identifier)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(err, "load user")
	}

	if !user.IsActive {
		metrics.AuthAttempts.WithLabelValues("inactive").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		// Login still succeeds; the timestamp is informational.
		s.log.Warn("update last login failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	user.LastLoginAt = &now

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return s.issueToken(&user)
}

// CurrentUser loads the authenticated account.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	return loadActiveUser(ensureContext(ctx), s.db, userID)
}

// UpdateProfile applies the provided settings to the caller's account.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := loadActiveUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Nickname != nil {
		updates["nickname"] = strings.TrimSpace(*input.Nickname)
	}
	if input.Bio != nil {
		updates["bio"] = *input.Bio
	}
	if input.Avatar != nil {
		updates["avatar"] = *input.Avatar
	}
	if input.IsPublic != nil {
		updates["is_public"] = *input.IsPublic
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(err, "update profile")
	}
	return loadActiveUser(ctx, s.db, userID)
}

// ChangePassword rotates the stored hash after verifying the current password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	ctx = ensureContext(ctx)

	user, err := loadActiveUser(ctx, s.db, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return apperrors.ErrInvalidCredentials.WithMessage("Current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(err, "hash password")
	}

	if err := s.db.WithContext(ctx).Model(user).Update("password", string(hash)).Error; err != nil {
		return apperrors.Wrap(err, "update password")
	}

	s.log.Info("password changed", zap.String("user_id", userID))
	return nil
}

func (s *AuthService) issueToken(user *models.User) (*AuthResult, error) {
	token, err := s.jwt.GenerateAccessToken(auth.AccessTokenInput{
		UserID:   user.ID,
		Username: user.Username,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "issue token")
	}
	return &AuthResult{User: user, Token: token}, nil
}
