package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"notification-hub/internal/domain"
)

type PreferenceRepository interface {
	Get(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, channel domain.Channel) (*domain.NotificationPreference, error)
	ListByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) ([]domain.NotificationPreference, error)
	Upsert(ctx context.Context, pref *domain.NotificationPreference) error
}

type preferenceRepository struct {
	db *sqlx.DB
}

func NewPreferenceRepository(db *sqlx.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) Get(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, channel domain.Channel) (*domain.NotificationPreference, error) {
	var pref domain.NotificationPreference
	query := `
		SELECT entity_type, entity_id, notification_type, is_enabled, updated_at
		FROM notification_preferences
		WHERE entity_type = $1 AND entity_id = $2 AND notification_type = $3`

	err := r.db.GetContext(ctx, &pref, query, entityType, entityID, channel)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func (r *preferenceRepository) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) ([]domain.NotificationPreference, error) {
	query := `
		SELECT entity_type, entity_id, notification_type, is_enabled, updated_at
		FROM notification_preferences
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY notification_type`

	var prefs []domain.NotificationPreference
	err := r.db.SelectContext(ctx, &prefs, query, entityType, entityID)
	return prefs, err
}

func (r *preferenceRepository) Upsert(ctx context.Context, pref *domain.NotificationPreference) error {
	query := `
		INSERT INTO notification_preferences (entity_type, entity_id, notification_type, is_enabled)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (entity_type, entity_id, notification_type)
		DO UPDATE SET is_enabled = EXCLUDED.is_enabled, updated_at = NOW()
		RETURNING updated_at`

	return r.db.QueryRowxContext(ctx, query,
		pref.EntityType, pref.EntityID, pref.NotificationType, pref.IsEnabled,
	).Scan(&pref.UpdatedAt)
}
