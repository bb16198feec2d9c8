package services

import (
	"context"
	"errors"

	"github.com/ianstrang2/matchday-system/models"
	"github.com/ianstrang2/matchday-system/repositories"
	"github.com/ianstrang2/matchday-system/utils"
)

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthService struct {
	adminRepo repositories.AdminRepository
}

func NewAuthService(adminRepo repositories.AdminRepository) *AuthService {
	return &AuthService{adminRepo: adminRepo}
}

// Login checks an admin's credentials and returns the account, whose tenant
// id scopes every subsequent call made with the issued token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.Admin, error) {
	admin, err := s.adminRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !utils.CheckPasswordHash(input.Password, admin.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return admin, nil
}
