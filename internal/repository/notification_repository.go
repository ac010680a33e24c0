package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"notification-hub/internal/domain"
)

// ErrBatchAborted marks rows that were not committed because the
// surrounding transaction could not complete.
var ErrBatchAborted = errors.New("notification batch aborted")

const notificationColumns = `id, receiver_id, channel, contact, title, description, priority,
	type_notification, source, event_id, state, is_type_enabled, timestamp, updated_at`

// visibleSystemRows restricts inbox queries and mutations to rows the
// receiver can see.
const visibleSystemRows = `channel = 'system' AND is_type_enabled = true`

type NotificationRepository interface {
	// CreateBatch inserts all rows in one transaction. Each row is guarded by
	// a savepoint, so the returned slice holds one error (or nil) per row and
	// a failed row never discards the others.
	CreateBatch(ctx context.Context, notifs []*domain.Notification) ([]error, error)
	OpenForReceiver(ctx context.Context, id, receiverID uuid.UUID) (*domain.Notification, error)
	List(ctx context.Context, receiverID uuid.UUID, filter domain.ListFilter) (NotificationRows, error)
	CountUnread(ctx context.Context, receiverID uuid.UUID) (int64, error)
	MarkAsRead(ctx context.Context, id, receiverID uuid.UUID) (bool, error)
	SoftDelete(ctx context.Context, id, receiverID uuid.UUID) (bool, error)
	MarkSelectedAsRead(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int64, error)
	SoftDeleteSelected(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int64, error)
	MarkAllAsRead(ctx context.Context, receiverID uuid.UUID) (int64, error)
	SoftDeleteAll(ctx context.Context, receiverID uuid.UUID) (int64, error)
}

// NotificationRows is a forward-only cursor over a listing so large inboxes
// can be streamed without loading them into memory.
type NotificationRows interface {
	Next() bool
	Scan() (domain.Notification, error)
	Err() error
	Close() error
}

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifs []*domain.Notification) ([]error, error) {
	rowErrs := make([]error, len(notifs))
	if len(notifs) == 0 {
		return rowErrs, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin notification batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO notifications (id, receiver_id, channel, contact, title, description, priority,
			type_notification, source, event_id, state, is_type_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING timestamp, updated_at`

	for i, n := range notifs {
		if _, err := tx.ExecContext(ctx, "SAVEPOINT notification_row"); err != nil {
			markAborted(rowErrs, err)
			return rowErrs, fmt.Errorf("failed to open savepoint: %w", err)
		}

		err := tx.QueryRowxContext(ctx, query,
			n.ID, n.ReceiverID, n.Channel, n.Contact, n.Title, n.Description, n.Priority,
			n.Type, n.Source, n.EventID, n.State, n.IsTypeEnabled,
		).Scan(&n.Timestamp, &n.UpdatedAt)
		if err != nil {
			rowErrs[i] = err
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT notification_row"); rbErr != nil {
				markAborted(rowErrs, rbErr)
				return rowErrs, fmt.Errorf("failed to roll back savepoint: %w", rbErr)
			}
			continue
		}

		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT notification_row"); err != nil {
			markAborted(rowErrs, err)
			return rowErrs, fmt.Errorf("failed to release savepoint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		markAborted(rowErrs, err)
		return rowErrs, fmt.Errorf("failed to commit notification batch: %w", err)
	}

	return rowErrs, nil
}

func markAborted(rowErrs []error, cause error) {
	for i := range rowErrs {
		if rowErrs[i] == nil {
			rowErrs[i] = fmt.Errorf("%w: %v", ErrBatchAborted, cause)
		}
	}
}

// OpenForReceiver returns a visible notification of any channel and marks it
// read in the same statement.
func (r *notificationRepository) OpenForReceiver(ctx context.Context, id, receiverID uuid.UUID) (*domain.Notification, error) {
	var notif domain.Notification
	query := `
		UPDATE notifications SET state = 'read', updated_at = NOW()
		WHERE id = $1 AND receiver_id = $2 AND state <> 'deleted' AND is_type_enabled = true
		RETURNING ` + notificationColumns

	err := r.db.GetContext(ctx, &notif, query, id, receiverID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &notif, nil
}

func (r *notificationRepository) List(ctx context.Context, receiverID uuid.UUID, filter domain.ListFilter) (NotificationRows, error) {
	conditions := []string{"receiver_id = $1", "state <> 'deleted'", visibleSystemRows}
	args := []any{receiverID}

	addArg := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Type != nil {
		addArg("type_notification = $%d", *filter.Type)
	}
	if filter.Priority != nil {
		addArg("priority = $%d", *filter.Priority)
	}
	if filter.From != nil {
		addArg("timestamp >= $%d", *filter.From)
	}
	if filter.To != nil {
		addArg("timestamp < $%d", *filter.To)
	} else {
		conditions = append(conditions, "timestamp < NOW()")
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY timestamp DESC`

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &notificationRows{rows: rows}, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM notifications WHERE receiver_id = $1 AND state = 'active' AND ` + visibleSystemRows
	err := r.db.GetContext(ctx, &count, query, receiverID)
	return count, err
}

// MarkAsRead matches read rows too, so repeating the call still reports the
// row as found.
func (r *notificationRepository) MarkAsRead(ctx context.Context, id, receiverID uuid.UUID) (bool, error) {
	query := `
		UPDATE notifications SET state = 'read', updated_at = NOW()
		WHERE id = $1 AND receiver_id = $2 AND state <> 'deleted' AND ` + visibleSystemRows
	return r.execFound(ctx, query, id, receiverID)
}

func (r *notificationRepository) SoftDelete(ctx context.Context, id, receiverID uuid.UUID) (bool, error) {
	query := `
		UPDATE notifications SET state = 'deleted', updated_at = NOW()
		WHERE id = $1 AND receiver_id = $2 AND state <> 'deleted' AND ` + visibleSystemRows
	return r.execFound(ctx, query, id, receiverID)
}

func (r *notificationRepository) MarkSelectedAsRead(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int64, error) {
	query := `
		UPDATE notifications SET state = 'read', updated_at = NOW()
		WHERE receiver_id = $1 AND id = ANY($2::uuid[]) AND state = 'active' AND ` + visibleSystemRows
	return r.execCount(ctx, query, receiverID, pq.Array(uuidStrings(ids)))
}

func (r *notificationRepository) SoftDeleteSelected(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int64, error) {
	query := `
		UPDATE notifications SET state = 'deleted', updated_at = NOW()
		WHERE receiver_id = $1 AND id = ANY($2::uuid[]) AND state <> 'deleted' AND ` + visibleSystemRows
	return r.execCount(ctx, query, receiverID, pq.Array(uuidStrings(ids)))
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	query := `
		UPDATE notifications SET state = 'read', updated_at = NOW()
		WHERE receiver_id = $1 AND state = 'active' AND ` + visibleSystemRows
	return r.execCount(ctx, query, receiverID)
}

func (r *notificationRepository) SoftDeleteAll(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	query := `
		UPDATE notifications SET state = 'deleted', updated_at = NOW()
		WHERE receiver_id = $1 AND state <> 'deleted' AND ` + visibleSystemRows
	return r.execCount(ctx, query, receiverID)
}

func (r *notificationRepository) execFound(ctx context.Context, query string, args ...any) (bool, error) {
	affected, err := r.execCount(ctx, query, args...)
	return affected > 0, err
}

func (r *notificationRepository) execCount(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

type notificationRows struct {
	rows *sqlx.Rows
}

func (n *notificationRows) Next() bool { return n.rows.Next() }

func (n *notificationRows) Scan() (domain.Notification, error) {
	var notif domain.Notification
	err := n.rows.StructScan(&notif)
	return notif, err
}

func (n *notificationRows) Err() error   { return n.rows.Err() }
func (n *notificationRows) Close() error { return n.rows.Close() }
