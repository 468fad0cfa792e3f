package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/watchparty/server/internal/domain"
)

type claims struct {
	UserId   uuid.UUID
	Username string
}

func (s service) generateJWT(user *domain.User) (string, error) {
	mapClaims := jwt.MapClaims{
		"user_id":  user.Id.String(),
		"username": user.Username,
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)

	return token.SignedString([]byte(s.secret))
}

func (s service) parseJWT(tokenString string) (*claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}

		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	rawUserId, ok := mapClaims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid user id claim")
	}

	userId, err := uuid.Parse(rawUserId)
	if err != nil {
		return nil, errors.New("invalid user id claim")
	}

	username, ok := mapClaims["username"].(string)
	if !ok {
		return nil, errors.New("invalid username claim")
	}

	return &claims{
		UserId:   userId,
		Username: username,
	}, nil
}
