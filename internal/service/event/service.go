package event

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"notification-hub/internal/domain"
	"notification-hub/internal/pkg/catalog"
	"notification-hub/internal/repository"
	"notification-hub/internal/service/notification"
)

var (
	ErrForbidden    = errors.New("only managers and employees of the company may report this event")
	ErrNotFound     = errors.New("camera not found")
	ErrInvalidInput = errors.New("invalid event")
)

type Result struct {
	Event    *domain.Event `json:"event"`
	Notified int           `json:"notified"`
	Failed   int           `json:"failed"`
}

type Service interface {
	RecordCameraAction(ctx context.Context, actorID uuid.UUID, input domain.CameraActionInput) (*Result, error)
	RecordCustomerCreated(ctx context.Context, actorID uuid.UUID, input domain.CustomerCreatedInput) (*Result, error)
}

type service struct {
	eventRepo      repository.EventRepository
	cameraRepo     repository.CameraRepository
	membershipRepo repository.MembershipRepository
	userRepo       repository.UserRepository
	catalog        *catalog.Catalog
	dispatcher     notification.Dispatcher
	logger         *zap.Logger
}

func NewService(
	eventRepo repository.EventRepository,
	cameraRepo repository.CameraRepository,
	membershipRepo repository.MembershipRepository,
	userRepo repository.UserRepository,
	cat *catalog.Catalog,
	dispatcher notification.Dispatcher,
	logger *zap.Logger,
) Service {
	return &service{
		eventRepo:      eventRepo,
		cameraRepo:     cameraRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		catalog:        cat,
		dispatcher:     dispatcher,
		logger:         logger,
	}
}

func (s *service) RecordCameraAction(ctx context.Context, actorID uuid.UUID, input domain.CameraActionInput) (*Result, error) {
	if !input.Action.IsValid() {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, input.Action)
	}

	camera, err := s.cameraRepo.GetByID(ctx, input.Camera.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get camera: %w", err)
	}
	if camera == nil {
		return nil, ErrNotFound
	}
	if input.Camera.CompanyID != uuid.Nil && input.Camera.CompanyID != camera.CompanyID {
		return nil, fmt.Errorf("%w: camera belongs to another company", ErrInvalidInput)
	}

	actorName, err := s.authorizeActor(ctx, actorID, camera.CompanyID)
	if err != nil {
		return nil, err
	}

	kind := "camera_" + string(input.Action)
	fields := map[string]any{
		"camera_id":    camera.ID.String(),
		"camera_name":  camera.Name,
		"action":       string(input.Action),
		"performed_by": actorName,
		"company_id":   camera.CompanyID.String(),
	}
	source := fmt.Sprintf("camera:%s:%s", camera.ID, input.Action)

	return s.record(ctx, kind, fields, camera.CompanyID, &camera.ID, source)
}

func (s *service) RecordCustomerCreated(ctx context.Context, actorID uuid.UUID, input domain.CustomerCreatedInput) (*Result, error) {
	name := strings.TrimSpace(input.CustomerName)
	if input.CompanyID == uuid.Nil || name == "" {
		return nil, fmt.Errorf("%w: company_id and customer_name are required", ErrInvalidInput)
	}

	actorName, err := s.authorizeActor(ctx, actorID, input.CompanyID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{
		"customer_name": name,
		"performed_by":  actorName,
		"company_id":    input.CompanyID.String(),
	}
	source := fmt.Sprintf("company:%s:customer_created", input.CompanyID)

	return s.record(ctx, catalog.KindCustomerCreated, fields, input.CompanyID, nil, source)
}

// authorizeActor checks that the actor is a manager or employee of the
// company and returns the name shown in notifications.
func (s *service) authorizeActor(ctx context.Context, actorID, companyID uuid.UUID) (string, error) {
	memberships, err := s.membershipRepo.ListByUser(ctx, actorID)
	if err != nil {
		return "", fmt.Errorf("failed to get memberships: %w", err)
	}

	allowed := false
	for _, m := range memberships {
		if m.CompanyID == companyID && (m.Role == domain.RoleManager || m.Role == domain.RoleEmployee) {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", ErrForbidden
	}

	user, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return "", fmt.Errorf("failed to get actor: %w", err)
	}
	if user == nil || user.FullName == "" {
		return actorID.String(), nil
	}
	return user.FullName, nil
}

func (s *service) record(ctx context.Context, kind string, fields map[string]any, companyID uuid.UUID, deviceID *uuid.UUID, source string) (*Result, error) {
	rendered, err := s.catalog.Render(kind, fields)
	if err != nil {
		return nil, err
	}

	details := domain.EventDetails{}
	for k, v := range fields {
		details[k] = v
	}
	details["timestamp"] = time.Now().UTC().Format(time.RFC3339)

	event := &domain.Event{
		ID:        uuid.New(),
		EventType: kind,
		Details:   details,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to store event: %w", err)
	}

	dispatched, err := s.dispatcher.Dispatch(ctx, notification.DispatchRequest{
		Event:       event,
		CompanyID:   companyID,
		DeviceID:    deviceID,
		Type:        rendered.Type,
		Priority:    rendered.Priority,
		Title:       rendered.Title,
		Description: rendered.Description,
		Source:      &source,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to dispatch notifications: %w", err)
	}

	for _, f := range dispatched.Failures {
		s.logger.Warn("notification not stored for recipient",
			zap.String("event_id", event.ID.String()),
			zap.String("user_id", f.UserID.String()),
			zap.String("channel", string(f.Channel)),
			zap.Error(f.Err))
	}

	return &Result{
		Event:    event,
		Notified: len(dispatched.Created),
		Failed:   len(dispatched.Failures),
	}, nil
}
