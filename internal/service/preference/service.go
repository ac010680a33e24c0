package preference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"notification-hub/internal/domain"
	"notification-hub/internal/metrics"
	"notification-hub/internal/repository"
)

var (
	ErrForbidden    = errors.New("only a manager of the owning company may manage its preferences")
	ErrNotFound     = errors.New("entity not found")
	ErrInvalidInput = errors.New("invalid preference")
)

// Store answers whether a channel is enabled for an entity. A missing row
// means enabled, and so does any storage failure.
type Store interface {
	IsEnabled(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, channel domain.Channel) bool
	IsChannelEnabled(ctx context.Context, companyID uuid.UUID, deviceID *uuid.UUID, channel domain.Channel) bool
}

type Service interface {
	Store
	List(ctx context.Context, actorID uuid.UUID, entityType domain.EntityType, entityID uuid.UUID) ([]domain.NotificationPreference, error)
	Set(ctx context.Context, actorID uuid.UUID, input domain.SetPreferenceInput) (*domain.NotificationPreference, error)
}

type service struct {
	prefRepo       repository.PreferenceRepository
	membershipRepo repository.MembershipRepository
	cameraRepo     repository.CameraRepository
	redis          *redis.Client
	ttl            time.Duration
	logger         *zap.Logger
}

// NewService builds the preference service. redis may be nil, in which case
// every lookup goes to Postgres.
func NewService(
	prefRepo repository.PreferenceRepository,
	membershipRepo repository.MembershipRepository,
	cameraRepo repository.CameraRepository,
	redisClient *redis.Client,
	ttl time.Duration,
	logger *zap.Logger,
) Service {
	return &service{
		prefRepo:       prefRepo,
		membershipRepo: membershipRepo,
		cameraRepo:     cameraRepo,
		redis:          redisClient,
		ttl:            ttl,
		logger:         logger,
	}
}

func cacheKey(entityType domain.EntityType, entityID uuid.UUID, channel domain.Channel) string {
	return fmt.Sprintf("notifpref:%s:%s:%s", entityType, entityID, channel)
}

func (s *service) IsEnabled(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, channel domain.Channel) bool {
	key := cacheKey(entityType, entityID, channel)

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, key).Result()
		if err == nil {
			return cached == "1"
		}
		if !errors.Is(err, redis.Nil) {
			s.logger.Debug("preference cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	pref, err := s.prefRepo.Get(ctx, entityType, entityID, channel)
	if err != nil {
		metrics.PreferenceLookupErrors.Inc()
		s.logger.Warn("preference lookup failed, treating as enabled",
			zap.String("entity_type", string(entityType)),
			zap.String("entity_id", entityID.String()),
			zap.String("channel", string(channel)),
			zap.Error(err))
		return true
	}

	enabled := pref == nil || pref.IsEnabled

	if s.redis != nil {
		value := "0"
		if enabled {
			value = "1"
		}
		if err := s.redis.Set(ctx, key, value, s.ttl).Err(); err != nil {
			s.logger.Debug("preference cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return enabled
}

func (s *service) IsChannelEnabled(ctx context.Context, companyID uuid.UUID, deviceID *uuid.UUID, channel domain.Channel) bool {
	if !s.IsEnabled(ctx, domain.EntityCompany, companyID, channel) {
		return false
	}
	if deviceID != nil && !s.IsEnabled(ctx, domain.EntityDevice, *deviceID, channel) {
		return false
	}
	return true
}

func (s *service) List(ctx context.Context, actorID uuid.UUID, entityType domain.EntityType, entityID uuid.UUID) ([]domain.NotificationPreference, error) {
	if !entityType.IsValid() {
		return nil, ErrInvalidInput
	}
	if err := s.authorize(ctx, actorID, entityType, entityID); err != nil {
		return nil, err
	}
	return s.prefRepo.ListByEntity(ctx, entityType, entityID)
}

func (s *service) Set(ctx context.Context, actorID uuid.UUID, input domain.SetPreferenceInput) (*domain.NotificationPreference, error) {
	if !input.EntityType.IsValid() || !input.NotificationType.IsValid() || input.EntityID == uuid.Nil {
		return nil, ErrInvalidInput
	}
	if err := s.authorize(ctx, actorID, input.EntityType, input.EntityID); err != nil {
		return nil, err
	}

	pref := &domain.NotificationPreference{
		EntityType:       input.EntityType,
		EntityID:         input.EntityID,
		NotificationType: input.NotificationType,
		IsEnabled:        input.IsEnabled,
	}
	if err := s.prefRepo.Upsert(ctx, pref); err != nil {
		return nil, fmt.Errorf("failed to save preference: %w", err)
	}

	if s.redis != nil {
		key := cacheKey(pref.EntityType, pref.EntityID, pref.NotificationType)
		if err := s.redis.Del(ctx, key).Err(); err != nil {
			s.logger.Warn("preference cache invalidation failed", zap.String("key", key), zap.Error(err))
		}
	}

	return pref, nil
}

// authorize resolves the company owning the entity and checks that the actor
// manages it. Devices belong to the company of their camera.
func (s *service) authorize(ctx context.Context, actorID uuid.UUID, entityType domain.EntityType, entityID uuid.UUID) error {
	companyID := entityID
	if entityType == domain.EntityDevice {
		camera, err := s.cameraRepo.GetByID(ctx, entityID)
		if err != nil {
			return fmt.Errorf("failed to get camera: %w", err)
		}
		if camera == nil {
			return ErrNotFound
		}
		companyID = camera.CompanyID
	}

	memberships, err := s.membershipRepo.ListByUser(ctx, actorID)
	if err != nil {
		return fmt.Errorf("failed to get memberships: %w", err)
	}
	for _, m := range memberships {
		if m.CompanyID == companyID && m.Role == domain.RoleManager {
			return nil
		}
	}
	return ErrForbidden
}
