package preference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notification-hub/internal/domain"
	"notification-hub/internal/mocks"
)

func newTestService() (*service, *mocks.PreferenceRepository, *mocks.MembershipRepository, *mocks.CameraRepository) {
	prefRepo := new(mocks.PreferenceRepository)
	membershipRepo := new(mocks.MembershipRepository)
	cameraRepo := new(mocks.CameraRepository)
	svc := NewService(prefRepo, membershipRepo, cameraRepo, nil, time.Minute, zap.NewNop()).(*service)
	return svc, prefRepo, membershipRepo, cameraRepo
}

func TestIsEnabled(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("Defaults to enabled without a row", func(t *testing.T) {
		svc, prefRepo, _, _ := newTestService()
		prefRepo.On("Get", ctx, domain.EntityCompany, companyID, domain.ChannelEmail).Return(nil, nil).Once()

		assert.True(t, svc.IsEnabled(ctx, domain.EntityCompany, companyID, domain.ChannelEmail))
		prefRepo.AssertExpectations(t)
	})

	t.Run("Honours an explicit toggle", func(t *testing.T) {
		svc, prefRepo, _, _ := newTestService()
		prefRepo.On("Get", ctx, domain.EntityCompany, companyID, domain.ChannelSMS).
			Return(&domain.NotificationPreference{IsEnabled: false}, nil).Once()

		assert.False(t, svc.IsEnabled(ctx, domain.EntityCompany, companyID, domain.ChannelSMS))
	})

	t.Run("Fails open on storage error", func(t *testing.T) {
		svc, prefRepo, _, _ := newTestService()
		prefRepo.On("Get", ctx, domain.EntityCompany, companyID, domain.ChannelSystem).
			Return(nil, errors.New("connection refused")).Once()

		assert.True(t, svc.IsEnabled(ctx, domain.EntityCompany, companyID, domain.ChannelSystem))
	})
}

func TestIsChannelEnabled(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	deviceID := uuid.New()

	t.Run("Company disabled short-circuits", func(t *testing.T) {
		svc, prefRepo, _, _ := newTestService()
		prefRepo.On("Get", ctx, domain.EntityCompany, companyID, domain.ChannelEmail).
			Return(&domain.NotificationPreference{IsEnabled: false}, nil).Once()

		assert.False(t, svc.IsChannelEnabled(ctx, companyID, &deviceID, domain.ChannelEmail))
		prefRepo.AssertNotCalled(t, "Get", ctx, domain.EntityDevice, deviceID, domain.ChannelEmail)
	})

	t.Run("Device disabled", func(t *testing.T) {
		svc, prefRepo, _, _ := newTestService()
		prefRepo.On("Get", ctx, domain.EntityCompany, companyID, domain.ChannelSystem).Return(nil, nil).Once()
		prefRepo.On("Get", ctx, domain.EntityDevice, deviceID, domain.ChannelSystem).
			Return(&domain.NotificationPreference{IsEnabled: false}, nil).Once()

		assert.False(t, svc.IsChannelEnabled(ctx, companyID, &deviceID, domain.ChannelSystem))
	})

	t.Run("No device", func(t *testing.T) {
		svc, prefRepo, _, _ := newTestService()
		prefRepo.On("Get", ctx, domain.EntityCompany, companyID, domain.ChannelSystem).Return(nil, nil).Once()

		assert.True(t, svc.IsChannelEnabled(ctx, companyID, nil, domain.ChannelSystem))
		prefRepo.AssertExpectations(t)
	})
}

func TestSet(t *testing.T) {
	ctx := context.Background()
	managerID := uuid.New()
	companyID := uuid.New()
	cameraID := uuid.New()

	t.Run("Manager updates company preference", func(t *testing.T) {
		svc, prefRepo, membershipRepo, _ := newTestService()
		membershipRepo.On("ListByUser", ctx, managerID).Return([]domain.CompanyUser{
			{UserID: managerID, CompanyID: companyID, Role: domain.RoleManager},
		}, nil).Once()
		prefRepo.On("Upsert", ctx, mock.MatchedBy(func(p *domain.NotificationPreference) bool {
			return p.EntityID == companyID && p.NotificationType == domain.ChannelEmail && !p.IsEnabled
		})).Return(nil).Once()

		pref, err := svc.Set(ctx, managerID, domain.SetPreferenceInput{
			EntityType:       domain.EntityCompany,
			EntityID:         companyID,
			NotificationType: domain.ChannelEmail,
			IsEnabled:        false,
		})

		require.NoError(t, err)
		assert.False(t, pref.IsEnabled)
		prefRepo.AssertExpectations(t)
	})

	t.Run("Device resolves to its camera's company", func(t *testing.T) {
		svc, prefRepo, membershipRepo, cameraRepo := newTestService()
		cameraRepo.On("GetByID", ctx, cameraID).Return(&domain.Camera{ID: cameraID, CompanyID: companyID}, nil).Once()
		membershipRepo.On("ListByUser", ctx, managerID).Return([]domain.CompanyUser{
			{UserID: managerID, CompanyID: companyID, Role: domain.RoleManager},
		}, nil).Once()
		prefRepo.On("Upsert", ctx, mock.Anything).Return(nil).Once()

		_, err := svc.Set(ctx, managerID, domain.SetPreferenceInput{
			EntityType:       domain.EntityDevice,
			EntityID:         cameraID,
			NotificationType: domain.ChannelSystem,
			IsEnabled:        true,
		})

		assert.NoError(t, err)
	})

	t.Run("Employee is forbidden", func(t *testing.T) {
		svc, prefRepo, membershipRepo, _ := newTestService()
		membershipRepo.On("ListByUser", ctx, managerID).Return([]domain.CompanyUser{
			{UserID: managerID, CompanyID: companyID, Role: domain.RoleEmployee},
		}, nil).Once()

		_, err := svc.Set(ctx, managerID, domain.SetPreferenceInput{
			EntityType:       domain.EntityCompany,
			EntityID:         companyID,
			NotificationType: domain.ChannelSystem,
		})

		assert.ErrorIs(t, err, ErrForbidden)
		prefRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("Unknown camera", func(t *testing.T) {
		svc, _, _, cameraRepo := newTestService()
		cameraRepo.On("GetByID", ctx, cameraID).Return(nil, nil).Once()

		_, err := svc.Set(ctx, managerID, domain.SetPreferenceInput{
			EntityType:       domain.EntityDevice,
			EntityID:         cameraID,
			NotificationType: domain.ChannelSystem,
		})

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Invalid channel", func(t *testing.T) {
		svc, _, _, _ := newTestService()

		_, err := svc.Set(ctx, managerID, domain.SetPreferenceInput{
			EntityType:       domain.EntityCompany,
			EntityID:         companyID,
			NotificationType: domain.Channel("push"),
		})

		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	managerID := uuid.New()
	companyID := uuid.New()

	svc, prefRepo, membershipRepo, _ := newTestService()
	membershipRepo.On("ListByUser", ctx, managerID).Return([]domain.CompanyUser{
		{UserID: managerID, CompanyID: companyID, Role: domain.RoleManager},
	}, nil).Once()
	prefRepo.On("ListByEntity", ctx, domain.EntityCompany, companyID).Return([]domain.NotificationPreference{
		{EntityType: domain.EntityCompany, EntityID: companyID, NotificationType: domain.ChannelSMS},
	}, nil).Once()

	prefs, err := svc.List(ctx, managerID, domain.EntityCompany, companyID)

	require.NoError(t, err)
	assert.Len(t, prefs, 1)
}
