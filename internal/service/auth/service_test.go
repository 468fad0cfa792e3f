package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/postgres"
)

type fakeUserRepo struct {
	byEmail map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]domain.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, params *postgres.CreateUserParams) (domain.User, error) {
	if _, ok := f.byEmail[params.Email]; ok {
		return domain.User{}, postgres.ErrAlreadyExists
	}

	user := domain.User{
		Id:           params.Id,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		CreatedAt:    time.Now(),
	}
	f.byEmail[params.Email] = user

	return user, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return domain.User{}, postgres.ErrNotFound
	}

	return user, nil
}

func TestRegisterLoginResolve(t *testing.T) {
	s := NewService(newFakeUserRepo(), "test-secret", time.Hour)
	ctx := context.Background()

	user, err := s.Register(ctx, &RegisterParams{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "hunter22", user.PasswordHash, "password must be stored hashed")

	resp, err := s.Login(ctx, &LoginParams{Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, user.Id, resp.User.Id)

	identity, err := s.Resolve(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.Id, identity.UserId)
	assert.Equal(t, "alice", identity.Username)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := NewService(newFakeUserRepo(), "test-secret", time.Hour)
	ctx := context.Background()

	_, err := s.Register(ctx, &RegisterParams{Username: "alice", Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)

	_, err = s.Register(ctx, &RegisterParams{Username: "alice2", Email: "alice@example.com", Password: "hunter23"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLoginInvalidCredentials(t *testing.T) {
	s := NewService(newFakeUserRepo(), "test-secret", time.Hour)
	ctx := context.Background()

	_, err := s.Register(ctx, &RegisterParams{Username: "alice", Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)

	_, err = s.Login(ctx, &LoginParams{Email: "alice@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(ctx, &LoginParams{Email: "nobody@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolveInvalidToken(t *testing.T) {
	s := NewService(newFakeUserRepo(), "test-secret", time.Hour)
	ctx := context.Background()

	_, err := s.Resolve(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// a token signed with a different secret must be rejected
	other := NewService(newFakeUserRepo(), "other-secret", time.Hour)
	_, regErr := other.Register(ctx, &RegisterParams{Username: "bob", Email: "bob@example.com", Password: "pw123456"})
	require.NoError(t, regErr)
	resp, err := other.Login(ctx, &LoginParams{Email: "bob@example.com", Password: "pw123456"})
	require.NoError(t, err)

	_, err = s.Resolve(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveExpiredToken(t *testing.T) {
	s := NewService(newFakeUserRepo(), "test-secret", -time.Minute)
	ctx := context.Background()

	_, err := s.Register(ctx, &RegisterParams{Username: "alice", Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)
	resp, err := s.Login(ctx, &LoginParams{Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)

	_, err = s.Resolve(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
