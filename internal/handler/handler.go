package handler

import (
	"time"

	"go.uber.org/zap"

	"notification-hub/internal/realtime"
	"notification-hub/internal/service/event"
	"notification-hub/internal/service/inbox"
	"notification-hub/internal/service/preference"
)

type Handlers struct {
	Notification *NotificationHandler
	Preference   *PreferenceHandler
	Event        *EventHandler
	WebSocket    *WebSocketHandler
}

type Dependencies struct {
	Inbox        inbox.Service
	Preference   preference.Service
	Event        event.Service
	Hub          *realtime.Hub
	PingInterval time.Duration
	Logger       *zap.Logger
}

func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Notification: NewNotificationHandler(deps.Inbox, deps.Logger),
		Preference:   NewPreferenceHandler(deps.Preference),
		Event:        NewEventHandler(deps.Event),
		WebSocket:    NewWebSocketHandler(deps.Hub, deps.PingInterval, deps.Logger),
	}
}
