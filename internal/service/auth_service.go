package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/intern-portal-api/internal/dto"
	"github.com/noah-isme/intern-portal-api/internal/models"
	"github.com/noah-isme/intern-portal-api/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the email/password pair did not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken indicates a profile already exists for the email.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrInvalidRefreshToken indicates the refresh token is expired or revoked.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// TokenConfig groups the signing material and lifetimes for issued tokens.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// AuthService implements the identity boundary: sign-up, sign-in, token
// refresh with rotation and sign-out with refresh revocation.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.TokenPairResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.TokenPairResponse, error)
	Refresh(ctx context.Context, refreshToken string) (dto.TokenPairResponse, error)
	Logout(ctx context.Context, userID uint) error
}

type authService struct {
	profiles  repository.ProfileRepository
	redis     *redis.Client
	tokens    TokenConfig
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(profiles repository.ProfileRepository, redisClient *redis.Client, tokens TokenConfig, validate *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		profiles:  profiles,
		redis:     redisClient,
		tokens:    tokens,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

// Register creates a developer profile. Evaluator profiles are provisioned
// out of band, never through the public endpoint.
func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.TokenPairResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TokenPairResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))

	if _, err := s.profiles.GetByEmail(ctx, email); err == nil {
		return dto.TokenPairResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.TokenPairResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.TokenPairResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	profile := models.Profile{
		Name:         strings.TrimSpace(payload.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleDeveloper,
	}

	if err := s.profiles.Create(ctx, &profile); err != nil {
		return dto.TokenPairResponse{}, err
	}

	s.logger.Info().Uint("user_id", profile.ID).Msg("profile registered")

	return s.issueTokens(ctx, profile)
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.TokenPairResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TokenPairResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))

	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TokenPairResponse{}, ErrInvalidCredentials
		}
		return dto.TokenPairResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(payload.Password)); err != nil {
		return dto.TokenPairResponse{}, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, profile)
}

// Refresh rotates the token pair. The presented token must carry the JTI
// currently stored for the user; rotation replaces it, so a stolen older
// token stops working.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (dto.TokenPairResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(s.tokens.RefreshSecret), nil
	})
	if err != nil || !token.Valid {
		return dto.TokenPairResponse{}, ErrInvalidRefreshToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return dto.TokenPairResponse{}, ErrInvalidRefreshToken
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return dto.TokenPairResponse{}, ErrInvalidRefreshToken
	}

	var userID uint
	if _, err := fmt.Sscanf(subject, "%d", &userID); err != nil {
		return dto.TokenPairResponse{}, ErrInvalidRefreshToken
	}

	jti, _ := claims["jti"].(string)
	stored, err := s.redis.Get(ctx, refreshKey(userID)).Result()
	if err != nil || stored != jti {
		return dto.TokenPairResponse{}, ErrInvalidRefreshToken
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return dto.TokenPairResponse{}, ErrInvalidRefreshToken
	}

	return s.issueTokens(ctx, profile)
}

func (s *authService) Logout(ctx context.Context, userID uint) error {
	return s.redis.Del(ctx, refreshKey(userID)).Err()
}

func (s *authService) issueTokens(ctx context.Context, profile models.Profile) (dto.TokenPairResponse, error) {
	issuedAt := s.now()

	accessClaims := jwt.MapClaims{
		"sub":   fmt.Sprintf("%d", profile.ID),
		"role":  profile.Role,
		"email": profile.Email,
		"iat":   issuedAt.Unix(),
		"exp":   issuedAt.Add(s.tokens.AccessTTL).Unix(),
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(s.tokens.AccessSecret))
	if err != nil {
		return dto.TokenPairResponse{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	jti := uuid.NewString()
	refreshClaims := jwt.MapClaims{
		"sub": fmt.Sprintf("%d", profile.ID),
		"jti": jti,
		"iat": issuedAt.Unix(),
		"exp": issuedAt.Add(s.tokens.RefreshTTL).Unix(),
	}

	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString([]byte(s.tokens.RefreshSecret))
	if err != nil {
		return dto.TokenPairResponse{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	if err := s.redis.Set(ctx, refreshKey(profile.ID), jti, s.tokens.RefreshTTL).Err(); err != nil {
		return dto.TokenPairResponse{}, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return dto.TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       profile.ID,
		Role:         profile.Role,
	}, nil
}

func refreshKey(userID uint) string {
	return fmt.Sprintf("portal:refresh:%d", userID)
}
