package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dojocal/scheduler-api/internal/dto"
	"github.com/dojocal/scheduler-api/internal/models"
	appErrors "github.com/dojocal/scheduler-api/pkg/errors"
)

type userRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateTimezone(ctx context.Context, username, zone string, updatedAt time.Time) error
}

// ProfileService resolves the acting user's scheduler profile.
type ProfileService struct {
	repo      userRepository
	cache     *CacheService
	ttl       time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs a ProfileService. cache may be nil.
func NewProfileService(repo userRepository, cache *CacheService, ttl time.Duration, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repo: repo, cache: cache, ttl: ttl, validator: validate, logger: logger}
}

// Profile returns the user behind claims. The role always comes from the
// token. A user without a stored profile gets one built from the claims.
func (s *ProfileService) Profile(ctx context.Context, claims *models.JWTClaims) (*models.User, error) {
	if claims == nil || claims.Username == "" {
		return nil, appErrors.ErrUnauthorized
	}

	key := profileCacheKey(claims.Username)
	var cached models.User
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		cached.Role = claims.Role
		return &cached, nil
	}

	user, err := s.repo.FindByUsername(ctx, claims.Username)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
		}
		s.logger.Debug("no stored profile, using token identity", zap.String("username", claims.Username))
		user = &models.User{Username: claims.Username, DisplayName: claims.DisplayName}
	}
	user.Role = claims.Role
	if user.DisplayName == "" {
		user.DisplayName = claims.DisplayName
	}

	_ = s.cache.Set(ctx, key, user, s.ttl)
	return user, nil
}

// UpdateTimezone stores a new timezone override and returns the fresh profile.
func (s *ProfileService) UpdateTimezone(ctx context.Context, claims *models.JWTClaims, req dto.UpdateTimezoneRequest) (*models.User, error) {
	if claims == nil || claims.Username == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timezone payload")
	}

	if err := s.repo.UpdateTimezone(ctx, claims.Username, req.Timezone, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timezone")
	}
	_ = s.cache.Invalidate(ctx, profileCacheKey(claims.Username))
	return s.Profile(ctx, claims)
}
