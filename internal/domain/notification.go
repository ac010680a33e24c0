package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) IsValid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

// IsUrgent reports whether the priority warrants a managers broadcast.
func (p Priority) IsUrgent() bool {
	return p == PriorityHigh || p == PriorityCritical
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityHigh:
		return "HIGH"
	case PriorityCritical:
		return "CRITICAL"
	}
	return fmt.Sprintf("PRIORITY(%d)", int(p))
}

func ParsePriority(name string) (Priority, error) {
	for p := PriorityLow; p <= PriorityCritical; p++ {
		if strings.EqualFold(p.String(), name) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q", name)
}

type TypeNotification int

const (
	TypeCreateCustomerByEmployee TypeNotification = iota
	TypeRecordingCamera
	TypeStoppedCamera
	TypeOnlineCamera
	TypeOfflineCamera
)

var typeNotificationNames = map[TypeNotification]string{
	TypeCreateCustomerByEmployee: "CREATE_CUSTOMER_BY_EMPLOYEE",
	TypeRecordingCamera:          "RECORDING_CAMERA",
	TypeStoppedCamera:            "STOPPED_CAMERA",
	TypeOnlineCamera:             "ONLINE_CAMERA",
	TypeOfflineCamera:            "OFFLINE_CAMERA",
}

func (t TypeNotification) IsValid() bool {
	_, ok := typeNotificationNames[t]
	return ok
}

// IsOperational reports whether employees are allowed to see this type.
func (t TypeNotification) IsOperational() bool {
	switch t {
	case TypeOnlineCamera, TypeOfflineCamera, TypeCreateCustomerByEmployee:
		return true
	}
	return false
}

func (t TypeNotification) String() string {
	if name, ok := typeNotificationNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TYPE(%d)", int(t))
}

func ParseTypeNotification(name string) (TypeNotification, error) {
	for t, n := range typeNotificationNames {
		if strings.EqualFold(n, name) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown notification type %q", name)
}

// Channel is the delivery medium of a notification row. Preferences are
// toggled per channel as well.
type Channel string

const (
	ChannelSystem Channel = "system"
	ChannelEmail  Channel = "email"
	ChannelSMS    Channel = "sms"
)

func (c Channel) IsValid() bool {
	switch c {
	case ChannelSystem, ChannelEmail, ChannelSMS:
		return true
	}
	return false
}

// Lifecycle replaces the is_viewed/is_deleted flag pair. Read is reachable
// only from Active; Deleted is terminal and implies viewed.
type Lifecycle string

const (
	LifecycleActive  Lifecycle = "active"
	LifecycleRead    Lifecycle = "read"
	LifecycleDeleted Lifecycle = "deleted"
)

func (l Lifecycle) IsViewed() bool {
	return l == LifecycleRead || l == LifecycleDeleted
}

func (l Lifecycle) IsDeleted() bool {
	return l == LifecycleDeleted
}

// MarkRead returns the state after a mark-as-read and whether the
// notification is still visible. Reading a read notification is a no-op.
func (l Lifecycle) MarkRead() (Lifecycle, bool) {
	if l == LifecycleDeleted {
		return l, false
	}
	return LifecycleRead, true
}

// Delete returns the state after a soft delete and whether anything changed.
func (l Lifecycle) Delete() (Lifecycle, bool) {
	if l == LifecycleDeleted {
		return l, false
	}
	return LifecycleDeleted, true
}

type Notification struct {
	ID            uuid.UUID        `db:"id"`
	ReceiverID    uuid.UUID        `db:"receiver_id"`
	Channel       Channel          `db:"channel"`
	Contact       *string          `db:"contact"`
	Title         string           `db:"title"`
	Description   string           `db:"description"`
	Priority      Priority         `db:"priority"`
	Type          TypeNotification `db:"type_notification"`
	Source        *string          `db:"source"`
	EventID       *uuid.UUID       `db:"event_id"`
	State         Lifecycle        `db:"state"`
	IsTypeEnabled bool             `db:"is_type_enabled"`
	Timestamp     time.Time        `db:"timestamp"`
	UpdatedAt     time.Time        `db:"updated_at"`
}

func (n *Notification) IsViewed() bool  { return n.State.IsViewed() }
func (n *Notification) IsDeleted() bool { return n.State.IsDeleted() }

// IsVisible reports whether the receiver may see the notification in the inbox.
func (n *Notification) IsVisible() bool {
	return !n.State.IsDeleted() && n.IsTypeEnabled
}

// NotificationView is the client-facing projection returned by the HTTP API.
type NotificationView struct {
	ID               uuid.UUID        `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Priority         Priority         `json:"priority"`
	PriorityDisplay  string           `json:"priority_display"`
	IsViewed         bool             `json:"is_viewed"`
	Timestamp        time.Time        `json:"timestamp"`
	Event            *uuid.UUID       `json:"event"`
	TypeNotification TypeNotification `json:"type_notification"`
	Source           *string          `json:"source"`
	Channel          Channel          `json:"channel"`
}

func (n *Notification) View() NotificationView {
	return NotificationView{
		ID:               n.ID,
		Title:            n.Title,
		Description:      n.Description,
		Priority:         n.Priority,
		PriorityDisplay:  n.Priority.String(),
		IsViewed:         n.IsViewed(),
		Timestamp:        n.Timestamp,
		Event:            n.EventID,
		TypeNotification: n.Type,
		Source:           n.Source,
		Channel:          n.Channel,
	}
}

// ListFilter narrows the inbox listing. To is exclusive; a nil To means now.
type ListFilter struct {
	Type     *TypeNotification
	Priority *Priority
	From     *time.Time
	To       *time.Time
}

type SelectedNotificationsInput struct {
	NotificationIDs []uuid.UUID `json:"notification_ids"`
}
