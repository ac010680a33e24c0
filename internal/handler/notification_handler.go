package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"notification-hub/internal/domain"
	"notification-hub/internal/middleware"
	"notification-hub/internal/repository"
	"notification-hub/internal/service/inbox"
)

// streamFlushEvery is how many list items are buffered between flushes.
const streamFlushEvery = 50

type NotificationHandler struct {
	inboxService inbox.Service
	logger       *zap.Logger
}

func NewNotificationHandler(inboxService inbox.Service, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{inboxService: inboxService, logger: logger}
}

// List streams the caller's inbox as a JSON array.
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	filter, err := inbox.ParseFilter(c.Query("type"), c.Query("priority"), c.Query("from_time"), c.Query("to_time"))
	if err != nil {
		return middleware.BadRequest(err.Error())
	}

	rows, err := h.inboxService.List(c.UserContext(), userID, filter)
	if err != nil {
		return err
	}

	c.Status(fiber.StatusOK)
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer rows.Close()
		h.stream(w, rows)
	})
	return nil
}

// stream writes rows as a JSON array. When reading fails midway the array is
// left unterminated so the client sees a truncated body, not a short list.
func (h *NotificationHandler) stream(w *bufio.Writer, rows repository.NotificationRows) {
	_ = w.WriteByte('[')

	written := 0
	for rows.Next() {
		notif, err := rows.Scan()
		if err != nil {
			h.logger.Error("failed to scan notification", zap.Error(err))
			_ = w.Flush()
			return
		}

		payload, err := json.Marshal(notif.View())
		if err != nil {
			h.logger.Error("failed to encode notification", zap.Error(err))
			_ = w.Flush()
			return
		}

		if written > 0 {
			_ = w.WriteByte(',')
		}
		_, _ = w.Write(payload)
		written++

		if written%streamFlushEvery == 0 {
			if err := w.Flush(); err != nil {
				// Client went away.
				return
			}
		}
	}
	if err := rows.Err(); err != nil {
		h.logger.Error("notification listing interrupted", zap.Error(err))
		_ = w.Flush()
		return
	}

	_ = w.WriteByte(']')
	_ = w.Flush()
}

func (h *NotificationHandler) GetUnreadCount(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	count, err := h.inboxService.UnreadCount(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"count": count,
	})
}

// GetByID returns one notification of any channel and marks it read.
func (h *NotificationHandler) GetByID(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	notifID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return middleware.BadRequest("Invalid notification ID")
	}

	notif, err := h.inboxService.Get(c.UserContext(), userID, notifID)
	if err != nil {
		return mapInboxError(err)
	}

	return c.Status(fiber.StatusOK).JSON(notif.View())
}

func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	notifID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return middleware.BadRequest("Invalid notification ID")
	}

	if err := h.inboxService.MarkAsRead(c.UserContext(), userID, notifID); err != nil {
		return mapInboxError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":     notifID,
		"status": domain.LifecycleRead,
	})
}

func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	notifID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return middleware.BadRequest("Invalid notification ID")
	}

	if err := h.inboxService.Delete(c.UserContext(), userID, notifID); err != nil {
		return mapInboxError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":     notifID,
		"status": domain.LifecycleDeleted,
	})
}

func (h *NotificationHandler) MarkSelectedAsRead(c *fiber.Ctx) error {
	return h.selected(c, h.inboxService.MarkSelectedAsRead)
}

func (h *NotificationHandler) DeleteSelected(c *fiber.Ctx) error {
	return h.selected(c, h.inboxService.DeleteSelected)
}

func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	return h.all(c, h.inboxService.MarkAllAsRead)
}

func (h *NotificationHandler) DeleteAll(c *fiber.Ctx) error {
	return h.all(c, h.inboxService.DeleteAll)
}

type selectedAction func(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int64, error)

type allAction func(ctx context.Context, receiverID uuid.UUID) (int64, error)

func (h *NotificationHandler) selected(c *fiber.Ctx, action selectedAction) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	var input domain.SelectedNotificationsInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}
	if input.NotificationIDs == nil {
		return middleware.BadRequest("notification_ids is required")
	}

	count, err := action(c.UserContext(), userID, input.NotificationIDs)
	if err != nil {
		return mapInboxError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"updated_count": count,
	})
}

func (h *NotificationHandler) all(c *fiber.Ctx, action allAction) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	count, err := action(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"updated_count": count,
	})
}

func mapInboxError(err error) error {
	switch {
	case errors.Is(err, inbox.ErrNotFound):
		return middleware.NotFound("Notification not found")
	case errors.Is(err, inbox.ErrInvalidIDs), errors.Is(err, inbox.ErrInvalidFilter):
		return middleware.BadRequest(err.Error())
	}
	return err
}
