package service

import (
	"context"
	"testing"
	"time"

	"lodelita/config"
	"lodelita/internal/auth"
	"lodelita/internal/database"
	"lodelita/internal/domain"
	"lodelita/internal/models"
	"lodelita/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService(t *testing.T) {
	db, err := database.NewDB(&config.DatabaseConfig{Driver: "sqlite", DSN: "file:" + t.Name() + "?mode=memory&cache=shared"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.SeedAdmin(db, &config.AdminConfig{Email: "lita@example.com", Password: "s3cret-pass"}))

	jwtCfg := &config.JWTConfig{AccessSecret: "a", RefreshSecret: "r", AccessExpiry: time.Minute, RefreshExpiry: time.Hour}
	svc := NewAuthService(jwtCfg, repository.NewAdminRepository(db), repository.NewAuditLogRepository(db))
	ctx := context.Background()

	_, err = svc.Login(ctx, Actor{}, "lita@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCreds)
	_, err = svc.Login(ctx, Actor{}, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCreds)

	sess, err := svc.Login(ctx, Actor{IP: "127.0.0.1"}, " Lita@Example.com ", "s3cret-pass")
	require.NoError(t, err)
	claims, err := auth.ParseAccessToken(jwtCfg, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.Equal(t, sess.Admin.ID, claims.AdminID)

	refreshed, err := svc.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	_, err = svc.Refresh(ctx, sess.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	svc.Logout(ctx, Actor{AdminID: sess.Admin.ID})
	var actions []string
	require.NoError(t, db.Model(&models.AuditLog{}).Order("id").Pluck("action", &actions).Error)
	assert.Equal(t, []string{"admin.login", "admin.logout"}, actions)
}

func TestRegisterDevice(t *testing.T) {
	db, err := database.NewDB(&config.DatabaseConfig{Driver: "sqlite", DSN: "file:" + t.Name() + "?mode=memory&cache=shared"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	admins := repository.NewAdminRepository(db)
	u := &models.AdminUser{Email: "a@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)

	svc := NewNotificationService(admins, nil)
	assert.Error(t, svc.RegisterDevice(context.Background(), u.ID, ""))
	require.NoError(t, svc.RegisterDevice(context.Background(), u.ID, "tok"))
	tokens, err := admins.ListFCMTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"tok"}, tokens)

	// Without Firebase, new-order pushes are skipped.
	svc.NotifyNewOrder(context.Background(), &models.Order{ID: 1})
}
