package inbox

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"notification-hub/internal/domain"
	"notification-hub/internal/repository"
)

var (
	ErrNotFound      = errors.New("notification not found")
	ErrInvalidFilter = errors.New("invalid filter")
	ErrInvalidIDs    = errors.New("invalid notification ids")
)

// MaxSelectedIDs bounds a single bulk request.
const MaxSelectedIDs = 500

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type Service interface {
	List(ctx context.Context, receiverID uuid.UUID, filter domain.ListFilter) (repository.NotificationRows, error)
	Get(ctx context.Context, receiverID, id uuid.UUID) (*domain.Notification, error)
	UnreadCount(ctx context.Context, receiverID uuid.UUID) (int64, error)
	MarkAsRead(ctx context.Context, receiverID, id uuid.UUID) error
	Delete(ctx context.Context, receiverID, id uuid.UUID) error
	MarkSelectedAsRead(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int64, error)
	DeleteSelected(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int64, error)
	MarkAllAsRead(ctx context.Context, receiverID uuid.UUID) (int64, error)
	DeleteAll(ctx context.Context, receiverID uuid.UUID) (int64, error)
}

type service struct {
	notifRepo repository.NotificationRepository
}

func NewService(notifRepo repository.NotificationRepository) Service {
	return &service{notifRepo: notifRepo}
}

// ParseFilter validates raw query values. Empty values leave the field unset.
func ParseFilter(typeParam, priorityParam, fromParam, toParam string) (domain.ListFilter, error) {
	var filter domain.ListFilter

	if typeParam != "" {
		v, err := strconv.Atoi(typeParam)
		t := domain.TypeNotification(v)
		if err != nil || !t.IsValid() {
			return filter, fmt.Errorf("%w: unknown type %q", ErrInvalidFilter, typeParam)
		}
		filter.Type = &t
	}

	if priorityParam != "" {
		v, err := strconv.Atoi(priorityParam)
		p := domain.Priority(v)
		if err != nil || !p.IsValid() {
			return filter, fmt.Errorf("%w: unknown priority %q", ErrInvalidFilter, priorityParam)
		}
		filter.Priority = &p
	}

	if fromParam != "" {
		from, err := parseTime(fromParam)
		if err != nil {
			return filter, fmt.Errorf("%w: from_time %q is not ISO-8601", ErrInvalidFilter, fromParam)
		}
		filter.From = &from
	}

	if toParam != "" {
		to, err := parseTime(toParam)
		if err != nil {
			return filter, fmt.Errorf("%w: to_time %q is not ISO-8601", ErrInvalidFilter, toParam)
		}
		filter.To = &to
	}

	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return filter, fmt.Errorf("%w: from_time is after to_time", ErrInvalidFilter)
	}

	return filter, nil
}

func parseTime(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func validateIDs(ids []uuid.UUID) error {
	if len(ids) > MaxSelectedIDs {
		return fmt.Errorf("%w: at most %d ids per request", ErrInvalidIDs, MaxSelectedIDs)
	}
	for _, id := range ids {
		if id == uuid.Nil {
			return fmt.Errorf("%w: nil id", ErrInvalidIDs)
		}
	}
	return nil
}

func (s *service) List(ctx context.Context, receiverID uuid.UUID, filter domain.ListFilter) (repository.NotificationRows, error) {
	return s.notifRepo.List(ctx, receiverID, filter)
}

// Get returns a visible notification of any channel and marks it read.
func (s *service) Get(ctx context.Context, receiverID, id uuid.UUID) (*domain.Notification, error) {
	notif, err := s.notifRepo.OpenForReceiver(ctx, id, receiverID)
	if err != nil {
		return nil, err
	}
	if notif == nil {
		return nil, ErrNotFound
	}
	return notif, nil
}

func (s *service) UnreadCount(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	return s.notifRepo.CountUnread(ctx, receiverID)
}

func (s *service) MarkAsRead(ctx context.Context, receiverID, id uuid.UUID) error {
	found, err := s.notifRepo.MarkAsRead(ctx, id, receiverID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (s *service) Delete(ctx context.Context, receiverID, id uuid.UUID) error {
	found, err := s.notifRepo.SoftDelete(ctx, id, receiverID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (s *service) MarkSelectedAsRead(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if err := validateIDs(ids); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return s.notifRepo.MarkSelectedAsRead(ctx, receiverID, ids)
}

func (s *service) DeleteSelected(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if err := validateIDs(ids); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return s.notifRepo.SoftDeleteSelected(ctx, receiverID, ids)
}

func (s *service) MarkAllAsRead(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	return s.notifRepo.MarkAllAsRead(ctx, receiverID)
}

func (s *service) DeleteAll(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	return s.notifRepo.SoftDeleteAll(ctx, receiverID)
}
