package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"notification-hub/internal/domain"
)

type MembershipRepository interface {
	ListMembersByCompany(ctx context.Context, companyID uuid.UUID) ([]domain.Member, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.CompanyUser, error)
}

type membershipRepository struct {
	db *sqlx.DB
}

func NewMembershipRepository(db *sqlx.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) ListMembersByCompany(ctx context.Context, companyID uuid.UUID) ([]domain.Member, error) {
	query := `
		SELECT cu.id, cu.user_id, cu.company_id, cu.role, u.full_name, u.email, u.phone_number
		FROM company_users cu
		JOIN users u ON u.id = cu.user_id
		WHERE cu.company_id = $1 AND u.is_active = true
		ORDER BY cu.role ASC, cu.created_at ASC`

	var members []domain.Member
	err := r.db.SelectContext(ctx, &members, query, companyID)
	return members, err
}

func (r *membershipRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.CompanyUser, error) {
	query := `SELECT id, user_id, company_id, role FROM company_users WHERE user_id = $1`

	var memberships []domain.CompanyUser
	err := r.db.SelectContext(ctx, &memberships, query, userID)
	return memberships, err
}
