package notification

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
)

func systemRow(receiverID uuid.UUID) *domain.Notification {
	return &domain.Notification{
		ReceiverID:    receiverID,
		Channel:       domain.ChannelSystem,
		Title:         "Camera Lobby - Turned off",
		Priority:      domain.PriorityHigh,
		Type:          domain.TypeOfflineCamera,
		IsTypeEnabled: true,
	}
}

func TestWriteBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Assigns ids and stores every row", func(t *testing.T) {
		repo := new(mocks.NotificationRepository)
		w := NewWriter(repo, zap.NewNop())
		rows := []*domain.Notification{systemRow(uuid.New()), systemRow(uuid.New())}

		repo.On("CreateBatch", ctx, mock.MatchedBy(func(n []*domain.Notification) bool {
			return len(n) == 2 && n[0].ID != uuid.Nil && n[1].State == domain.LifecycleActive
		})).Return([]error{nil, nil}, nil).Once()

		results := w.WriteBatch(ctx, rows)

		require.Len(t, results, 2)
		for _, r := range results {
			assert.NoError(t, r.Err)
			assert.NotEqual(t, uuid.Nil, r.Notification.ID)
		}
		repo.AssertExpectations(t)
	})

	t.Run("Isolates a failing row", func(t *testing.T) {
		repo := new(mocks.NotificationRepository)
		w := NewWriter(repo, zap.NewNop())
		rows := []*domain.Notification{systemRow(uuid.New()), systemRow(uuid.New()), systemRow(uuid.New())}
		badRow := errors.New("violates foreign key constraint")

		repo.On("CreateBatch", ctx, rows).Return([]error{nil, badRow, nil}, nil).Once()

		results := w.WriteBatch(ctx, rows)

		assert.NoError(t, results[0].Err)
		assert.ErrorIs(t, results[1].Err, badRow)
		assert.NoError(t, results[2].Err)
	})

	t.Run("Transaction failure fails every row", func(t *testing.T) {
		repo := new(mocks.NotificationRepository)
		w := NewWriter(repo, zap.NewNop())
		rows := []*domain.Notification{systemRow(uuid.New()), systemRow(uuid.New())}

		repo.On("CreateBatch", ctx, rows).Return(nil, errors.New("connection reset")).Once()

		results := w.WriteBatch(ctx, rows)

		for _, r := range results {
			assert.ErrorIs(t, r.Err, ErrNotStored)
		}
	})

	t.Run("Empty batch skips storage", func(t *testing.T) {
		repo := new(mocks.NotificationRepository)
		w := NewWriter(repo, zap.NewNop())

		assert.Empty(t, w.WriteBatch(ctx, nil))
		repo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	})
}
