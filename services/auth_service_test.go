package services

import (
	"context"
	"testing"
	"time"

	"github.com/anjiri1684/coursehub/database/dbtest"
	"github.com/anjiri1684/coursehub/models"
	"github.com/anjiri1684/coursehub/notifications"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func newAuthService(t *testing.T) (*AuthService, *notifications.LogMailer) {
	t.Helper()
	mailer := notifications.NewLogMailer(nil)
	svc := NewAuthService(dbtest.Open(t), mailer, testSecret, time.Hour, testLogger())
	svc.hashCost = bcrypt.MinCost
	return svc, mailer
}

func TestRegisterAndLogin(t *testing.T) {
	svc, mailer := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{FullName: "Jane Student", Email: " Jane@Example.com ", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "secret123", user.Password)
	require.Len(t, mailer.Sent(), 1)

	token, logged, err := svc.Login(ctx, "jane@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, user.ID.String(), claims["user_id"])
	assert.Equal(t, models.RoleStudent, claims["role"])
	assert.NotNil(t, claims["exp"])
}

func TestRegisterRejectsDuplicatesAndAdmins(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{FullName: "A Teacher", Email: "t@example.com", Password: "secret123", Role: models.RoleInstructor})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{FullName: "Other", Email: "T@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Register(ctx, RegisterInput{FullName: "Sneaky", Email: "admin@example.com", Password: "secret123", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLoginFailures(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{FullName: "Jane Student", Email: "jane@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "jane@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = svc.Login(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrUnauthorized)

	active, err := svc.IsActive(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, svc.db.Model(user).Update("is_active", false).Error)
	_, _, err = svc.Login(ctx, "jane@example.com", "secret123")
	assert.ErrorIs(t, err, ErrForbidden)

	active, err = svc.IsActive(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, active)

	active, err = svc.IsActive(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, active, "unknown users are not active")
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.SeedAdmin(ctx, "Site Admin", "admin@example.com", "adminpass"))
	require.NoError(t, svc.SeedAdmin(ctx, "Site Admin", "admin@example.com", "adminpass"))
	require.NoError(t, svc.SeedAdmin(ctx, "Nobody", "", ""))

	var admins []models.User
	require.NoError(t, svc.db.Where("role = ?", models.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)

	_, user, err := svc.Login(ctx, "admin@example.com", "adminpass")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestProfile(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{FullName: "Jane Student", Email: "jane@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, user.ID, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := svc.UpdateProfile(ctx, user.ID, "Jane Q. Student")
	require.NoError(t, err)
	assert.Equal(t, "Jane Q. Student", updated.FullName)

	got, err := svc.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Q. Student", got.FullName)

	_, err = svc.Profile(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
