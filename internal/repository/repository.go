package repository

import (
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	User         UserRepository
	Membership   MembershipRepository
	Camera       CameraRepository
	Event        EventRepository
	Preference   PreferenceRepository
	Notification NotificationRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Membership:   NewMembershipRepository(db),
		Camera:       NewCameraRepository(db),
		Event:        NewEventRepository(db),
		Preference:   NewPreferenceRepository(db),
		Notification: NewNotificationRepository(db),
	}
}
