package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"notification-hub/internal/domain"
)

type EventRepository struct {
	mock.Mock
}

func (m *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MembershipRepository struct {
	mock.Mock
}

func (m *MembershipRepository) ListMembersByCompany(ctx context.Context, companyID uuid.UUID) ([]domain.Member, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Member), args.Error(1)
}

func (m *MembershipRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.CompanyUser, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CompanyUser), args.Error(1)
}

type CameraRepository struct {
	mock.Mock
}

func (m *CameraRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Camera, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Camera), args.Error(1)
}

type PreferenceRepository struct {
	mock.Mock
}

func (m *PreferenceRepository) Get(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, channel domain.Channel) (*domain.NotificationPreference, error) {
	args := m.Called(ctx, entityType, entityID, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NotificationPreference), args.Error(1)
}

func (m *PreferenceRepository) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) ([]domain.NotificationPreference, error) {
	args := m.Called(ctx, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.NotificationPreference), args.Error(1)
}

func (m *PreferenceRepository) Upsert(ctx context.Context, pref *domain.NotificationPreference) error {
	args := m.Called(ctx, pref)
	return args.Error(0)
}
