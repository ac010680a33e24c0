package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notification-hub/internal/domain"
	"notification-hub/internal/mocks"
	"notification-hub/internal/pkg/catalog"
	"notification-hub/internal/service/notification"
)

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Dispatch(ctx context.Context, req notification.DispatchRequest) (notification.DispatchResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(notification.DispatchResult), args.Error(1)
}

func (m *mockDispatcher) Wait() {}

type fixture struct {
	events      *mocks.EventRepository
	cameras     *mocks.CameraRepository
	memberships *mocks.MembershipRepository
	users       *mocks.UserRepository
	dispatcher  *mockDispatcher
	svc         Service
}

func newFixture(t *testing.T) *fixture {
	cat, err := catalog.Load("")
	require.NoError(t, err)

	f := &fixture{
		events:      new(mocks.EventRepository),
		cameras:     new(mocks.CameraRepository),
		memberships: new(mocks.MembershipRepository),
		users:       new(mocks.UserRepository),
		dispatcher:  new(mockDispatcher),
	}
	f.svc = NewService(f.events, f.cameras, f.memberships, f.users, cat, f.dispatcher, zap.NewNop())
	return f
}

func TestRecordCameraAction(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New()
	companyID := uuid.New()
	camera := &domain.Camera{ID: uuid.New(), Name: "Lobby", CompanyID: companyID}
	input := domain.CameraActionInput{Camera: *camera, Action: domain.CameraTurnedOff}

	t.Run("Employee reports camera offline", func(t *testing.T) {
		f := newFixture(t)
		f.cameras.On("GetByID", ctx, camera.ID).Return(camera, nil).Once()
		f.memberships.On("ListByUser", ctx, actorID).Return([]domain.CompanyUser{
			{UserID: actorID, CompanyID: companyID, Role: domain.RoleEmployee},
		}, nil).Once()
		f.users.On("GetByID", ctx, actorID).Return(&domain.User{ID: actorID, FullName: "Sara"}, nil).Once()
		f.events.On("Create", ctx, mock.MatchedBy(func(e *domain.Event) bool {
			return e.EventType == "camera_turned_off" && e.Details["camera_name"] == "Lobby"
		})).Return(nil).Once()
		f.dispatcher.On("Dispatch", ctx, mock.MatchedBy(func(req notification.DispatchRequest) bool {
			return req.CompanyID == companyID &&
				*req.DeviceID == camera.ID &&
				req.Type == domain.TypeOfflineCamera &&
				req.Priority == domain.PriorityHigh &&
				req.Title == "Camera Lobby - Turned off" &&
				req.Description == "Sara performed action 'turned_off' on camera 'Lobby'"
		})).Return(notification.DispatchResult{Created: []*domain.Notification{{}, {}}}, nil).Once()

		result, err := f.svc.RecordCameraAction(ctx, actorID, input)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Notified)
		assert.Zero(t, result.Failed)
		f.dispatcher.AssertExpectations(t)
	})

	t.Run("Created and moved render their own kinds", func(t *testing.T) {
		cases := []struct {
			action   domain.CameraAction
			kind     string
			typ      domain.TypeNotification
			priority domain.Priority
			title    string
		}{
			{domain.CameraCreated, "camera_created", domain.TypeOnlineCamera, domain.PriorityMedium, "Camera Lobby - Created"},
			{domain.CameraMoved, "camera_moved", domain.TypeOfflineCamera, domain.PriorityHigh, "Camera Lobby - Moved"},
		}
		for _, tc := range cases {
			f := newFixture(t)
			f.cameras.On("GetByID", ctx, camera.ID).Return(camera, nil).Once()
			f.memberships.On("ListByUser", ctx, actorID).Return([]domain.CompanyUser{
				{UserID: actorID, CompanyID: companyID, Role: domain.RoleManager},
			}, nil).Once()
			f.users.On("GetByID", ctx, actorID).Return(&domain.User{ID: actorID, FullName: "Sara"}, nil).Once()
			f.events.On("Create", ctx, mock.MatchedBy(func(e *domain.Event) bool {
				return e.EventType == tc.kind && e.Details["action"] == string(tc.action)
			})).Return(nil).Once()
			f.dispatcher.On("Dispatch", ctx, mock.MatchedBy(func(req notification.DispatchRequest) bool {
				return req.Type == tc.typ && req.Priority == tc.priority && req.Title == tc.title
			})).Return(notification.DispatchResult{Created: []*domain.Notification{{}}}, nil).Once()

			result, err := f.svc.RecordCameraAction(ctx, actorID, domain.CameraActionInput{Camera: *camera, Action: tc.action})

			require.NoError(t, err, tc.action)
			assert.Equal(t, 1, result.Notified, tc.action)
			f.events.AssertExpectations(t)
			f.dispatcher.AssertExpectations(t)
		}
	})

	t.Run("Customer is forbidden", func(t *testing.T) {
		f := newFixture(t)
		f.cameras.On("GetByID", ctx, camera.ID).Return(camera, nil).Once()
		f.memberships.On("ListByUser", ctx, actorID).Return([]domain.CompanyUser{
			{UserID: actorID, CompanyID: companyID, Role: domain.RoleCustomer},
		}, nil).Once()

		_, err := f.svc.RecordCameraAction(ctx, actorID, input)

		assert.ErrorIs(t, err, ErrForbidden)
		f.events.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Manager of another company is forbidden", func(t *testing.T) {
		f := newFixture(t)
		f.cameras.On("GetByID", ctx, camera.ID).Return(camera, nil).Once()
		f.memberships.On("ListByUser", ctx, actorID).Return([]domain.CompanyUser{
			{UserID: actorID, CompanyID: uuid.New(), Role: domain.RoleManager},
		}, nil).Once()

		_, err := f.svc.RecordCameraAction(ctx, actorID, input)

		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("Unknown action", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.RecordCameraAction(ctx, actorID, domain.CameraActionInput{Camera: *camera, Action: "rotated"})

		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("Unknown camera", func(t *testing.T) {
		f := newFixture(t)
		f.cameras.On("GetByID", ctx, camera.ID).Return(nil, nil).Once()

		_, err := f.svc.RecordCameraAction(ctx, actorID, input)

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Company mismatch", func(t *testing.T) {
		f := newFixture(t)
		f.cameras.On("GetByID", ctx, camera.ID).Return(camera, nil).Once()
		forged := input
		forged.Camera.CompanyID = uuid.New()

		_, err := f.svc.RecordCameraAction(ctx, actorID, forged)

		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("Event store failure stops dispatch", func(t *testing.T) {
		f := newFixture(t)
		f.cameras.On("GetByID", ctx, camera.ID).Return(camera, nil).Once()
		f.memberships.On("ListByUser", ctx, actorID).Return([]domain.CompanyUser{
			{UserID: actorID, CompanyID: companyID, Role: domain.RoleManager},
		}, nil).Once()
		f.users.On("GetByID", ctx, actorID).Return(&domain.User{ID: actorID, FullName: "Mina"}, nil).Once()
		f.events.On("Create", ctx, mock.Anything).Return(errors.New("disk full")).Once()

		_, err := f.svc.RecordCameraAction(ctx, actorID, input)

		assert.Error(t, err)
		f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	})
}

func TestRecordCustomerCreated(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New()
	companyID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		f.memberships.On("ListByUser", ctx, actorID).Return([]domain.CompanyUser{
			{UserID: actorID, CompanyID: companyID, Role: domain.RoleEmployee},
		}, nil).Once()
		f.users.On("GetByID", ctx, actorID).Return(&domain.User{ID: actorID, FullName: "Sara"}, nil).Once()
		f.events.On("Create", ctx, mock.Anything).Return(nil).Once()
		f.dispatcher.On("Dispatch", ctx, mock.MatchedBy(func(req notification.DispatchRequest) bool {
			return req.DeviceID == nil &&
				req.Type == domain.TypeCreateCustomerByEmployee &&
				req.Title == "New customer Acme"
		})).Return(notification.DispatchResult{
			Created:  []*domain.Notification{{}},
			Failures: []notification.RecipientFailure{{UserID: uuid.New(), Channel: domain.ChannelSystem, Err: errors.New("x")}},
		}, nil).Once()

		result, err := f.svc.RecordCustomerCreated(ctx, actorID, domain.CustomerCreatedInput{CompanyID: companyID, CustomerName: " Acme "})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Notified)
		assert.Equal(t, 1, result.Failed)
	})

	t.Run("Missing name", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.RecordCustomerCreated(ctx, actorID, domain.CustomerCreatedInput{CompanyID: companyID})

		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
