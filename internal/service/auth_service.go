package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sharemycard/sharemycard-backend/internal/config"
	"github.com/sharemycard/sharemycard-backend/internal/repository"
)

// ============================================
// Auth Service
// ============================================

// TokenPair is an access JWT plus an opaque rotating refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*repository.User, *TokenPair, error)
	Login(ctx context.Context, email, password string) (*repository.User, *TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID string) (*repository.User, error)
	ValidateToken(token string) (*jwt.Token, error)
	GetUserIDFromToken(token *jwt.Token) (string, error)
}

type authService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
}

func NewAuthService(cfg *config.Config, userRepo repository.UserRepository) AuthService {
	return &authService{cfg: cfg, userRepo: userRepo}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, name, email, password string) (*repository.User, *TokenPair, error) {
	email = normalizeEmail(email)
	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}
	if existingUser != nil {
		return nil, nil, ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &repository.User{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Password: string(hashedPassword),
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}
	log.Printf("[Auth] ✅ Registered user %s", user.ID)

	tokens, err := s.generateTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	return user, tokens, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*repository.User, *TokenPair, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil || user == nil || !user.IsActive {
		return nil, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.generateTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	return user, tokens, nil
}

// RefreshToken rotates: the presented token is consumed whether or not it is
// still valid.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	rt, err := s.userRepo.FindRefreshToken(ctx, refreshToken)
	if err != nil || rt == nil {
		return nil, ErrInvalidToken
	}

	if err := s.userRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	if time.Now().After(rt.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	tokens, err := s.generateTokens(ctx, rt.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	return tokens, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	return s.userRepo.DeleteRefreshToken(ctx, refreshToken)
}

func (s *authService) Me(ctx context.Context, userID string) (*repository.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *authService) ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithExpirationRequired())
}

func (s *authService) GetUserIDFromToken(token *jwt.Token) (string, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

func (s *authService) generateTokens(ctx context.Context, userID string) (*TokenPair, error) {
	now := time.Now()
	ttl := time.Hour * time.Duration(s.cfg.JWTExpiry)
	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	})

	accessTokenString, err := accessToken.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	rt := &repository.RefreshToken{
		Token:     uuid.New().String(),
		UserID:    userID,
		ExpiresAt: now.Add(time.Hour * 24 * time.Duration(s.cfg.RefreshExpiry)),
	}
	if err := s.userRepo.SaveRefreshToken(ctx, rt); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessTokenString,
		RefreshToken: rt.Token,
		ExpiresIn:    int64(ttl.Seconds()),
	}, nil
}
