package service

import (
	"errors"
	"fmt"
	"log/slog"

	"gw-bank-transfer/internal/custom_err"
	"gw-bank-transfer/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Auth проверяет bearer токены. Выдача токенов - задача сервиса идентификации.
type Auth interface {
	ValidateToken(tokenString string) (*models.JWTClaims, error)
}

type AuthService struct {
	jwtSecret []byte
	log       *slog.Logger
}

func NewAuthService(jwtSecret string, log *slog.Logger) Auth {
	return &AuthService{
		jwtSecret: []byte(jwtSecret),
		log:       log,
	}
}

func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, custom_err.ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, custom_err.ErrTokenNotActive
		}

		s.log.Debug("токен отклонен", slog.String("error", err.Error()))
		return nil, custom_err.ErrInvalidToken
	}

	if !token.Valid {
		return nil, custom_err.ErrInvalidToken
	}

	if claims.CustomerID == uuid.Nil {
		return nil, custom_err.ErrInvalidToken
	}

	return claims, nil
}
