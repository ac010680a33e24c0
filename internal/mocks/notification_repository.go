package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"notification-hub/internal/domain"
	"notification-hub/internal/repository"
)

type NotificationRepository struct {
	mock.Mock
}

func (m *NotificationRepository) CreateBatch(ctx context.Context, notifs []*domain.Notification) ([]error, error) {
	args := m.Called(ctx, notifs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]error), args.Error(1)
}

func (m *NotificationRepository) OpenForReceiver(ctx context.Context, id, receiverID uuid.UUID) (*domain.Notification, error) {
	args := m.Called(ctx, id, receiverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *NotificationRepository) List(ctx context.Context, receiverID uuid.UUID, filter domain.ListFilter) (repository.NotificationRows, error) {
	args := m.Called(ctx, receiverID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.NotificationRows), args.Error(1)
}

func (m *NotificationRepository) CountUnread(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	args := m.Called(ctx, receiverID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepository) MarkAsRead(ctx context.Context, id, receiverID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, receiverID)
	return args.Bool(0), args.Error(1)
}

func (m *NotificationRepository) SoftDelete(ctx context.Context, id, receiverID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, receiverID)
	return args.Bool(0), args.Error(1)
}

func (m *NotificationRepository) MarkSelectedAsRead(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, receiverID, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepository) SoftDeleteSelected(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, receiverID, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepository) MarkAllAsRead(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	args := m.Called(ctx, receiverID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepository) SoftDeleteAll(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	args := m.Called(ctx, receiverID)
	return args.Get(0).(int64), args.Error(1)
}

// NotificationRows is an in-memory cursor over a fixed slice. ScanErr is
// returned by every Scan after the first ScanErrAfter rows; IterErr is
// reported by Err once the rows are exhausted.
type NotificationRows struct {
	Rows         []domain.Notification
	ScanErr      error
	ScanErrAfter int
	IterErr      error
	pos          int
	Closed       bool
}

func (r *NotificationRows) Next() bool {
	if r.pos >= len(r.Rows) {
		return false
	}
	r.pos++
	return true
}

func (r *NotificationRows) Scan() (domain.Notification, error) {
	if r.ScanErr != nil && r.pos > r.ScanErrAfter {
		return domain.Notification{}, r.ScanErr
	}
	return r.Rows[r.pos-1], nil
}

func (r *NotificationRows) Err() error { return r.IterErr }

func (r *NotificationRows) Close() error {
	r.Closed = true
	return nil
}
