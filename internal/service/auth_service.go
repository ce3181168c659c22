package service

import (
	"auticonnect/internal/config"
	"auticonnect/internal/model"
	"auticonnect/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNotProfessional    = errors.New("user is not a therapeutic assistant")
)

const professionalTokenTTL = 7 * 24 * time.Hour

// AuthService handles operator and professional authentication
type AuthService struct {
	operatorUsername string
	operatorPassword string
	jwtSecret        []byte
	users            repository.UserRepo
}

// NewAuthService creates a new auth service
func NewAuthService(cfg config.AuthConfig, users repository.UserRepo) *AuthService {
	return &AuthService{
		operatorUsername: cfg.OperatorUsername,
		operatorPassword: cfg.OperatorPassword,
		jwtSecret:        []byte(cfg.JWTSecret),
		users:            users,
	}
}

// Login validates the chat bridge's credentials and returns a permanent operator token
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	if username != s.operatorUsername || password != s.operatorPassword {
		return nil, ErrInvalidCredentials
	}

	operatorID := "op_" + uuid.New().String()[:8]

	claims := &model.OperatorClaims{
		OperatorID: operatorID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:      tokenString,
		OperatorID: operatorID,
	}, nil
}

// ValidateOperatorToken validates an operator JWT and returns claims
func (s *AuthService) ValidateOperatorToken(tokenString string) (*model.OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.OperatorClaims{}, s.keyFunc)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.OperatorClaims)
	if !ok || !token.Valid || claims.OperatorID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// IssueProfessionalToken creates a token for a therapeutic assistant to receive alerts
func (s *AuthService) IssueProfessionalToken(ctx context.Context, userID string) (*model.ProfessionalTokenResponse, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	if user == nil || model.NormalizeRole(user.Role) != model.RoleTherapeuticAssistant {
		return nil, ErrNotProfessional
	}

	claims := &model.ProfessionalClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(professionalTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.ProfessionalTokenResponse{
		Token:  tokenString,
		UserID: userID,
	}, nil
}

// ValidateProfessionalToken validates a professional JWT and returns claims
func (s *AuthService) ValidateProfessionalToken(tokenString string) (*model.ProfessionalClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.ProfessionalClaims{}, s.keyFunc)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.ProfessionalClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *AuthService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrInvalidToken
	}
	return s.jwtSecret, nil
}
