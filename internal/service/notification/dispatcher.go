package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"notification-hub/internal/domain"
	"notification-hub/internal/realtime"
	"notification-hub/internal/service/audience"
	"notification-hub/internal/service/email"
	"notification-hub/internal/service/preference"
)

const emailSendTimeout = 30 * time.Second

type Publisher interface {
	Publish(req realtime.PublishRequest)
}

// DispatchRequest is one domain occurrence to be turned into notifications
// for the members of CompanyID.
type DispatchRequest struct {
	Event       *domain.Event
	CompanyID   uuid.UUID
	DeviceID    *uuid.UUID
	Type        domain.TypeNotification
	Priority    domain.Priority
	Title       string
	Description string
	Source      *string
}

type RecipientFailure struct {
	UserID  uuid.UUID
	Channel domain.Channel
	Err     error
}

type DispatchResult struct {
	Created  []*domain.Notification
	Failures []RecipientFailure
}

type Dispatcher interface {
	Dispatch(ctx context.Context, req DispatchRequest) (DispatchResult, error)
	// Wait blocks until background email deliveries have finished.
	Wait()
}

type dispatcher struct {
	resolver  audience.Resolver
	prefs     preference.Store
	writer    Writer
	publisher Publisher
	emailSvc  email.Service
	logger    *zap.Logger
	pending   sync.WaitGroup
}

// NewDispatcher wires the fan-out pipeline. emailSvc may be nil, in which
// case email rows are stored but not sent.
func NewDispatcher(
	resolver audience.Resolver,
	prefs preference.Store,
	writer Writer,
	publisher Publisher,
	emailSvc email.Service,
	logger *zap.Logger,
) Dispatcher {
	return &dispatcher{
		resolver:  resolver,
		prefs:     prefs,
		writer:    writer,
		publisher: publisher,
		emailSvc:  emailSvc,
		logger:    logger,
	}
}

type row struct {
	notif     *domain.Notification
	recipient domain.Recipient
}

func (d *dispatcher) Dispatch(ctx context.Context, req DispatchRequest) (DispatchResult, error) {
	var result DispatchResult

	if !req.Type.IsValid() || !req.Priority.IsValid() {
		return result, fmt.Errorf("invalid notification type %d or priority %d", req.Type, req.Priority)
	}

	// Creation must survive the caller going away.
	ctx = context.WithoutCancel(ctx)

	recipients, err := d.resolver.Resolve(ctx, req.CompanyID, req.Type)
	if err != nil {
		return result, err
	}
	if len(recipients) == 0 {
		return result, nil
	}

	systemEnabled := d.prefs.IsChannelEnabled(ctx, req.CompanyID, req.DeviceID, domain.ChannelSystem)
	emailEnabled := d.prefs.IsChannelEnabled(ctx, req.CompanyID, req.DeviceID, domain.ChannelEmail)
	smsEnabled := d.prefs.IsChannelEnabled(ctx, req.CompanyID, req.DeviceID, domain.ChannelSMS)

	rows := make([]row, 0, len(recipients))
	for _, r := range recipients {
		rows = append(rows, row{notif: d.build(req, r, domain.ChannelSystem, nil, systemEnabled), recipient: r})
		if emailEnabled && r.HasEmail() {
			rows = append(rows, row{notif: d.build(req, r, domain.ChannelEmail, r.Email, true), recipient: r})
		}
		if smsEnabled && r.HasPhone() {
			rows = append(rows, row{notif: d.build(req, r, domain.ChannelSMS, r.PhoneNumber, true), recipient: r})
		}
	}

	notifs := make([]*domain.Notification, len(rows))
	for i := range rows {
		notifs[i] = rows[i].notif
	}

	for i, res := range d.writer.WriteBatch(ctx, notifs) {
		r := rows[i]
		if res.Err != nil {
			result.Failures = append(result.Failures, RecipientFailure{
				UserID:  r.recipient.UserID,
				Channel: r.notif.Channel,
				Err:     res.Err,
			})
			continue
		}
		result.Created = append(result.Created, res.Notification)

		switch res.Notification.Channel {
		case domain.ChannelSystem:
			if res.Notification.IsTypeEnabled {
				d.publisher.Publish(realtime.PublishRequest{
					Notification: res.Notification,
					Role:         r.recipient.Role,
					CompanyID:    req.CompanyID,
				})
			}
		case domain.ChannelEmail:
			d.sendEmail(r.recipient, res.Notification)
		}
	}

	return result, nil
}

func (d *dispatcher) build(req DispatchRequest, r domain.Recipient, channel domain.Channel, contact *string, enabled bool) *domain.Notification {
	n := &domain.Notification{
		ID:            uuid.New(),
		ReceiverID:    r.UserID,
		Channel:       channel,
		Contact:       contact,
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		Type:          req.Type,
		Source:        req.Source,
		State:         domain.LifecycleActive,
		IsTypeEnabled: enabled,
	}
	if req.Event != nil {
		eventID := req.Event.ID
		n.EventID = &eventID
	}
	return n
}

func (d *dispatcher) sendEmail(r domain.Recipient, n *domain.Notification) {
	if d.emailSvc == nil || n.Contact == nil {
		return
	}

	d.pending.Add(1)
	go func(toEmail, name string) {
		defer d.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), emailSendTimeout)
		defer cancel()

		if err := d.emailSvc.SendNotificationEmail(ctx, toEmail, name, n); err != nil {
			d.logger.Warn("failed to send notification email",
				zap.String("notification_id", n.ID.String()),
				zap.String("receiver_id", n.ReceiverID.String()),
				zap.Error(err))
		}
	}(*n.Contact, r.FullName)
}

func (d *dispatcher) Wait() {
	d.pending.Wait()
}
