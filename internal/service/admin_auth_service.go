package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/OtoHubID/otohub_api/internal/models"
	"github.com/OtoHubID/otohub_api/internal/repository"
	"github.com/OtoHubID/otohub_api/internal/utils"
)

// ErrInvalidCredentials is returned on any login failure. Wrong email and
// wrong password are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("INVALID_CREDENTIALS")

// AdminAuthService handles back-office authentication.
type AdminAuthService struct {
	adminRepo *repository.AdminUserRepository
}

// NewAdminAuthService constructs an AdminAuthService.
func NewAdminAuthService(adminRepo *repository.AdminUserRepository) *AdminAuthService {
	return &AdminAuthService{adminRepo: adminRepo}
}

// LoginResult carries the issued token and the authenticated user.
type LoginResult struct {
	Token string            `json:"token"`
	User  *models.AdminUser `json:"user"`
}

// Login verifies credentials and issues a JWT.
func (s *AdminAuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.adminRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	if err := s.adminRepo.TouchLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user}, nil
}

// CreateAdmin registers a back-office user with a bcrypt-hashed password.
func (s *AdminAuthService) CreateAdmin(ctx context.Context, email, password, name string) (*models.AdminUser, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.AdminUser{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		IsActive:     true,
	}
	if err := s.adminRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
