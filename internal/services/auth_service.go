package services

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"paygate_backend/internal/auth"
	"paygate_backend/internal/models"
	"paygate_backend/pkg/apperrors"
)

type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

// Login checks credentials and issues a merchant-API token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, apperrors.NewInvalidCredentialsError()
	}
	if err != nil {
		return "", nil, apperrors.InternalError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.NewInvalidCredentialsError()
	}

	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, apperrors.InternalError(err)
	}
	return token, &user, nil
}
