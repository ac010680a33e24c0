package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the read-only view of an account owned by the membership service.
type User struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Email       *string   `json:"email,omitempty" db:"email"`
	PhoneNumber *string   `json:"phone_number,omitempty" db:"phone_number"`
	FullName    string    `json:"full_name" db:"full_name"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type Role int

const (
	RoleManager Role = iota
	RoleEmployee
	RoleCustomer
)

func (r Role) IsValid() bool {
	return r >= RoleManager && r <= RoleCustomer
}

func (r Role) String() string {
	switch r {
	case RoleManager:
		return "Manager"
	case RoleEmployee:
		return "Employee"
	case RoleCustomer:
		return "Customer"
	}
	return "Unknown"
}

// CompanyUser is a membership of a user in one company. Roles are company
// scoped: the same user may be a manager in one company and a customer in
// another.
type CompanyUser struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CompanyID uuid.UUID `json:"company_id" db:"company_id"`
	Role      Role      `json:"role" db:"role"`
}

// Member is a membership joined with the contact details of its user.
type Member struct {
	CompanyUser
	FullName    string  `db:"full_name"`
	Email       *string `db:"email"`
	PhoneNumber *string `db:"phone_number"`
}

// Recipient is derived per event and never stored.
type Recipient struct {
	UserID      uuid.UUID
	Role        Role
	FullName    string
	Email       *string
	PhoneNumber *string
}

func (r Recipient) HasEmail() bool { return r.Email != nil && *r.Email != "" }
func (r Recipient) HasPhone() bool { return r.PhoneNumber != nil && *r.PhoneNumber != "" }
