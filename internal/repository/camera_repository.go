package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"notification-hub/internal/domain"
)

// CameraRepository is a read-only lookup into the camera registry.
type CameraRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Camera, error)
}

type cameraRepository struct {
	db *sqlx.DB
}

func NewCameraRepository(db *sqlx.DB) CameraRepository {
	return &cameraRepository{db: db}
}

func (r *cameraRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Camera, error) {
	var camera domain.Camera
	query := `SELECT id, name, company_id FROM cameras WHERE id = $1`

	err := r.db.GetContext(ctx, &camera, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &camera, nil
}
