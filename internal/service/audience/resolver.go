package audience

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"notification-hub/internal/domain"
	"notification-hub/internal/repository"
)

// Admits is the single policy deciding who may receive a notification of
// type t. Managers see everything, employees see operational types only and
// customers are never direct recipients.
func Admits(role domain.Role, t domain.TypeNotification) bool {
	switch role {
	case domain.RoleManager:
		return true
	case domain.RoleEmployee:
		return t.IsOperational()
	}
	return false
}

// EligibleForManagers reports whether a stored notification is also pushed
// on the shared managers topic.
func EligibleForManagers(role domain.Role, priority domain.Priority, t domain.TypeNotification) bool {
	return priority.IsUrgent() && Admits(role, t)
}

type Resolver interface {
	Resolve(ctx context.Context, companyID uuid.UUID, t domain.TypeNotification) ([]domain.Recipient, error)
}

type resolver struct {
	membershipRepo repository.MembershipRepository
}

func NewResolver(membershipRepo repository.MembershipRepository) Resolver {
	return &resolver{membershipRepo: membershipRepo}
}

// Resolve returns the recipients for one company. Roles are evaluated in that
// company only; a user listed twice keeps the most privileged membership.
func (r *resolver) Resolve(ctx context.Context, companyID uuid.UUID, t domain.TypeNotification) ([]domain.Recipient, error) {
	members, err := r.membershipRepo.ListMembersByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list company members: %w", err)
	}

	index := make(map[uuid.UUID]int, len(members))
	recipients := make([]domain.Recipient, 0, len(members))

	for _, m := range members {
		if !Admits(m.Role, t) {
			continue
		}
		if i, ok := index[m.UserID]; ok {
			if m.Role < recipients[i].Role {
				recipients[i].Role = m.Role
			}
			continue
		}
		index[m.UserID] = len(recipients)
		recipients = append(recipients, domain.Recipient{
			UserID:      m.UserID,
			Role:        m.Role,
			FullName:    m.FullName,
			Email:       m.Email,
			PhoneNumber: m.PhoneNumber,
		})
	}

	return recipients, nil
}
