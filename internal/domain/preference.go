package domain

import (
	"time"

	"github.com/google/uuid"
)

type EntityType string

const (
	EntityCompany EntityType = "company"
	EntityDevice  EntityType = "device"
)

func (e EntityType) IsValid() bool {
	return e == EntityCompany || e == EntityDevice
}

type NotificationPreference struct {
	EntityType       EntityType `json:"entity_type" db:"entity_type"`
	EntityID         uuid.UUID  `json:"entity_id" db:"entity_id"`
	NotificationType Channel    `json:"notification_type" db:"notification_type"`
	IsEnabled        bool       `json:"is_enabled" db:"is_enabled"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

type SetPreferenceInput struct {
	EntityType       EntityType `json:"entity_type"`
	EntityID         uuid.UUID  `json:"entity_id"`
	NotificationType Channel    `json:"notification_type"`
	IsEnabled        bool       `json:"is_enabled"`
}
