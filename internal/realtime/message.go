package realtime

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"notification-hub/internal/domain"
)

const TopicManagers = "managers"

const MessageTypeNotification = "notification"

// ReadOnlyAck is the reply to any frame a client sends.
var ReadOnlyAck = []byte(`{"message":"This is a read-only WebSocket for receiving notifications."}`)

func UserTopic(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s", userID)
}

// Message is the only payload pushed to clients.
type Message struct {
	Type        string          `json:"type"`
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
	Timestamp   time.Time       `json:"timestamp"`
}

func NewMessage(n *domain.Notification) Message {
	return Message{
		Type:        MessageTypeNotification,
		ID:          n.ID,
		Title:       n.Title,
		Description: n.Description,
		Priority:    n.Priority,
		Timestamp:   n.Timestamp,
	}
}

// Envelope is what travels over the bus. CompanyID scopes the managers topic
// to the managers of that company.
type Envelope struct {
	Topic     string    `json:"topic"`
	CompanyID uuid.UUID `json:"company_id"`
	Message   Message   `json:"message"`
}
