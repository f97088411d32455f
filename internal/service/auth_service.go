package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sipal-api/internal/models"
	"github.com/noah-isme/sipal-api/pkg/config"
	appErrors "github.com/noah-isme/sipal-api/pkg/errors"
)

// AuthConfig defines configuration for admin token issuance.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService authenticates administrators configured at startup.
type AuthService struct {
	admins    map[string]models.AdminAccount
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAdminAccount builds the bootstrap administrator. The id is derived from
// the email so tokens survive restarts.
func NewAdminAccount(cfg config.AdminConfig) models.AdminAccount {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	return models.AdminAccount{
		ID:           uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String(),
		Email:        email,
		FullName:     cfg.Name,
		PasswordHash: cfg.PasswordHash,
		Role:         models.RoleAdmin,
	}
}

// NewAuthService constructs an AuthService instance. Accounts without a
// password hash cannot log in.
func NewAuthService(admins []models.AdminAccount, validate *validator.Validate, logger *zap.Logger, cfg AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if cfg.AccessTokenExpiry <= 0 {
		cfg.AccessTokenExpiry = 12 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "sipal-api"
	}
	byEmail := make(map[string]models.AdminAccount, len(admins))
	for _, a := range admins {
		if a.PasswordHash == "" {
			logger.Warn("admin account has no password hash; login disabled", zap.String("email", a.Email))
			continue
		}
		byEmail[strings.ToLower(a.Email)] = a
	}
	return &AuthService{admins: byEmail, validator: validate, logger: logger, config: cfg, now: time.Now}
}

// Login checks credentials and issues an access token.
func (s *AuthService) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailed(err, "invalid login payload")
	}
	admin, ok := s.admins[strings.ToLower(strings.TrimSpace(req.Email))]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Info("admin login rejected", zap.String("email", admin.Email))
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	token, err := s.generateAccessToken(admin)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	s.logger.Info("admin logged in", zap.String("admin_id", admin.ID))
	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		Admin:       admin,
	}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, jwt.WithIssuer(s.config.Issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) generateAccessToken(admin models.AdminAccount) (string, error) {
	issuedAt := s.now().UTC()
	claims := &models.JWTClaims{
		UserID: admin.ID,
		Email:  admin.Email,
		Role:   admin.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   admin.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
}
