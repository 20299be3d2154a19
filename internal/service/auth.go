package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"grocermart/internal/model"
	"grocermart/internal/repository"
)

const tokenTTL = 24 * time.Hour

// New accounts start with a perfect rating; reviews pull it toward the mean.
const initialRating = 5.0

type AuthService struct {
	users     UserRepository
	jwtSecret string
}

func NewAuthService(users UserRepository, jwtSecret string) *AuthService {
	return &AuthService{users: users, jwtSecret: jwtSecret}
}

func (s *AuthService) Register(ctx context.Context, username, password string, role model.Role, name, phone string) (*model.User, string, error) {
	if username == "" || password == "" {
		return nil, "", fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	if !role.Valid() {
		return nil, "", fmt.Errorf("%w: role must be customer or shopper", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Name:         name,
		Phone:        phone,
		Rating:       initialRating,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return nil, "", fmt.Errorf("%w: username already taken", ErrConflict)
		}
		return nil, "", err
	}

	token, err := s.buildToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.buildToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) buildToken(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"exp":     time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken resolves a bearer token into an (userId, role) pair. It is
// shared by the HTTP middleware and the WebSocket handshake.
func ParseToken(jwtSecret, tokenString string) (model.Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return model.Actor{}, fmt.Errorf("%w: invalid or expired token", ErrInvalidCredentials)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.Actor{}, fmt.Errorf("%w: invalid claims", ErrInvalidCredentials)
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return model.Actor{}, fmt.Errorf("%w: user_id not found in token", ErrInvalidCredentials)
	}
	role, ok := claims["role"].(string)
	if !ok || !model.Role(role).Valid() {
		return model.Actor{}, fmt.Errorf("%w: role not found in token", ErrInvalidCredentials)
	}

	return model.Actor{UserID: int64(userID), Role: model.Role(role)}, nil
}
