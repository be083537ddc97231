package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/domain"
)

type fakeUserRepo struct {
	byEmail map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) CreateUser(_ context.Context, u *domain.User) error {
	r.byEmail[u.Email] = u
	return nil
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(testLogger(), repo)

	created, err := svc.Register(context.Background(), "ops@empresa.cl", "s3creto", domain.RoleCompany)
	require.NoError(t, err)
	assert.NotEqual(t, "s3creto", created.PasswordHash, "password must be stored hashed")

	user, err := svc.Login(context.Background(), "ops@empresa.cl", "s3creto")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, domain.RoleCompany, user.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(testLogger(), repo)
	_, err := svc.Register(context.Background(), "ops@empresa.cl", "s3creto", domain.RoleCustomer)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "ops@empresa.cl", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := NewUserService(testLogger(), newFakeUserRepo())

	_, err := svc.Login(context.Background(), "nadie@empresa.cl", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}
