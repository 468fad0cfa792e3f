package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/postgres"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserAlreadyExists  = errors.New("user already exists")
)

type iUserRepo interface {
	CreateUser(context.Context, *postgres.CreateUserParams) (domain.User, error)
	GetUserByEmail(context.Context, string) (domain.User, error)
}

type service struct {
	userRepo iUserRepo
	secret   string
	tokenTTL time.Duration
}

func NewService(userRepo iUserRepo, secret string, tokenTTL time.Duration) *service {
	return &service{
		userRepo: userRepo,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

type RegisterParams struct {
	Username string
	Email    string
	Password string
}

func (s service) Register(ctx context.Context, params *RegisterParams) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, &postgres.CreateUserParams{
		Id:           uuid.New(),
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, postgres.ErrAlreadyExists) {
			return domain.User{}, ErrUserAlreadyExists
		}
		return domain.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

type LoginParams struct {
	Email    string
	Password string
}

type LoginResponse struct {
	User        domain.User
	AccessToken string
}

func (s service) Login(ctx context.Context, params *LoginParams) (LoginResponse, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return LoginResponse{}, ErrInvalidCredentials
		}
		return LoginResponse{}, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(params.Password)); err != nil {
		return LoginResponse{}, ErrInvalidCredentials
	}

	token, err := s.generateJWT(&user)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("failed to generate token: %w", err)
	}

	return LoginResponse{
		User:        user,
		AccessToken: token,
	}, nil
}

// Resolve maps a bearer credential to an identity. The rest of the
// server trusts this resolution and never re-validates identity format.
func (s service) Resolve(ctx context.Context, tokenString string) (domain.Identity, error) {
	claims, err := s.parseJWT(tokenString)
	if err != nil {
		return domain.Identity{}, ErrInvalidToken
	}

	return domain.Identity{
		UserId:   claims.UserId,
		Username: claims.Username,
	}, nil
}
