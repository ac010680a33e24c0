package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"notification-hub/internal/domain"
	"notification-hub/internal/metrics"
	"notification-hub/internal/repository"
)

var ErrNotStored = errors.New("notification was not stored")

type WriteResult struct {
	Notification *domain.Notification
	Err          error
}

// Writer persists a batch of notification rows in one transaction while
// isolating per-row failures.
type Writer interface {
	WriteBatch(ctx context.Context, notifs []*domain.Notification) []WriteResult
}

type writer struct {
	notifRepo repository.NotificationRepository
	logger    *zap.Logger
}

func NewWriter(notifRepo repository.NotificationRepository, logger *zap.Logger) Writer {
	return &writer{notifRepo: notifRepo, logger: logger}
}

func (w *writer) WriteBatch(ctx context.Context, notifs []*domain.Notification) []WriteResult {
	results := make([]WriteResult, len(notifs))
	if len(notifs) == 0 {
		return results
	}

	for _, n := range notifs {
		if n.ID == uuid.Nil {
			n.ID = uuid.New()
		}
		if n.State == "" {
			n.State = domain.LifecycleActive
		}
	}

	rowErrs, err := w.notifRepo.CreateBatch(ctx, notifs)
	if err != nil {
		w.logger.Error("notification batch failed", zap.Int("rows", len(notifs)), zap.Error(err))
	}

	for i, n := range notifs {
		results[i].Notification = n

		var rowErr error
		switch {
		case i < len(rowErrs) && rowErrs[i] != nil:
			rowErr = rowErrs[i]
		case rowErrs == nil && err != nil:
			rowErr = errors.Join(ErrNotStored, err)
		}

		if rowErr != nil {
			results[i].Err = rowErr
			metrics.NotificationWriteFailures.Inc()
			w.logger.Warn("failed to store notification",
				zap.String("receiver_id", n.ReceiverID.String()),
				zap.String("channel", string(n.Channel)),
				zap.Error(rowErr))
			continue
		}
		metrics.NotificationsCreated.WithLabelValues(string(n.Channel)).Inc()
	}

	return results
}
