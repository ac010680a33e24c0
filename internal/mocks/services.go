package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"notification-hub/internal/domain"
)

type AudienceResolver struct {
	mock.Mock
}

func (m *AudienceResolver) Resolve(ctx context.Context, companyID uuid.UUID, t domain.TypeNotification) ([]domain.Recipient, error) {
	args := m.Called(ctx, companyID, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Recipient), args.Error(1)
}

type PreferenceStore struct {
	mock.Mock
}

func (m *PreferenceStore) IsEnabled(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, channel domain.Channel) bool {
	args := m.Called(ctx, entityType, entityID, channel)
	return args.Bool(0)
}

func (m *PreferenceStore) IsChannelEnabled(ctx context.Context, companyID uuid.UUID, deviceID *uuid.UUID, channel domain.Channel) bool {
	args := m.Called(ctx, companyID, deviceID, channel)
	return args.Bool(0)
}

type EmailService struct {
	mock.Mock
}

func (m *EmailService) SendNotificationEmail(ctx context.Context, toEmail, recipientName string, notif *domain.Notification) error {
	args := m.Called(ctx, toEmail, recipientName, notif)
	return args.Error(0)
}

type TokenVerifier struct {
	mock.Mock
}

func (m *TokenVerifier) VerifyAccessToken(ctx context.Context, token string) (uuid.UUID, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}
