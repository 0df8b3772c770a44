package service

import (
	"context"
	"errors"
	"strings"

	"lodelita/config"
	"lodelita/internal/auth"
	"lodelita/internal/domain"
	"lodelita/internal/models"
	"lodelita/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// Session is what the admin panel keeps after signing in.
type Session struct {
	Admin        *models.AdminUser `json:"admin"`
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
}

type AuthService struct {
	cfg    *config.JWTConfig
	admins *repository.AdminRepository
	audit  auditor
}

func NewAuthService(cfg *config.JWTConfig, admins *repository.AdminRepository, audit *repository.AuditLogRepository) *AuthService {
	return &AuthService{cfg: cfg, admins: admins, audit: auditor{repo: audit}}
}

func (s *AuthService) Login(ctx context.Context, actor Actor, email, password string) (*Session, error) {
	u, err := s.admins.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCreds
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCreds
	}
	sess, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	actor.AdminID = u.ID
	s.audit.record(ctx, actor, "admin.login", "admin_users", u.ID)
	return sess, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	id, err := auth.ParseRefreshToken(s.cfg, refreshToken)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	u, err := s.admins.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	return s.issue(u)
}

// Logout only records the event; tokens expire on their own.
func (s *AuthService) Logout(ctx context.Context, actor Actor) {
	s.audit.record(ctx, actor, "admin.logout", "admin_users", actor.AdminID)
}

// Current returns the admin of a valid access token.
func (s *AuthService) Current(ctx context.Context, adminID uint) (*models.AdminUser, error) {
	return s.admins.GetByID(ctx, adminID)
}

func (s *AuthService) issue(u *models.AdminUser) (*Session, error) {
	access, err := auth.GenerateAccessToken(s.cfg, u.ID, u.Email, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	refresh, err := auth.GenerateRefreshToken(s.cfg, u.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Admin: u, AccessToken: access, RefreshToken: refresh}, nil
}
