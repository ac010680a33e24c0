package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"notification-hub/internal/domain"
	"notification-hub/internal/middleware"
	"notification-hub/internal/service/event"
)

type EventHandler struct {
	eventService event.Service
}

func NewEventHandler(eventService event.Service) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// CameraAction records a camera state change and fans it out to the company.
func (h *EventHandler) CameraAction(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	var input domain.CameraActionInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	result, err := h.eventService.RecordCameraAction(c.UserContext(), userID, input)
	if err != nil {
		return mapEventError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *EventHandler) CustomerCreated(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	var input domain.CustomerCreatedInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	result, err := h.eventService.RecordCustomerCreated(c.UserContext(), userID, input)
	if err != nil {
		return mapEventError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func mapEventError(err error) error {
	switch {
	case errors.Is(err, event.ErrForbidden):
		return middleware.Forbidden(err.Error())
	case errors.Is(err, event.ErrNotFound):
		return middleware.NotFound("Camera not found")
	case errors.Is(err, event.ErrInvalidInput):
		return middleware.BadRequest(err.Error())
	}
	return err
}
