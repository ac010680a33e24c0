package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"notification-hub/internal/domain"
	"notification-hub/internal/middleware"
	"notification-hub/internal/service/preference"
)

type PreferenceHandler struct {
	preferenceService preference.Service
}

func NewPreferenceHandler(preferenceService preference.Service) *PreferenceHandler {
	return &PreferenceHandler{preferenceService: preferenceService}
}

func (h *PreferenceHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	entityType := domain.EntityType(c.Params("entityType"))
	if !entityType.IsValid() {
		return middleware.BadRequest("entity type must be company or device")
	}

	entityID, err := uuid.Parse(c.Params("entityId"))
	if err != nil {
		return middleware.BadRequest("Invalid entity ID")
	}

	prefs, err := h.preferenceService.List(c.UserContext(), userID, entityType, entityID)
	if err != nil {
		return mapPreferenceError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data": prefs,
	})
}

func (h *PreferenceHandler) Set(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	var input domain.SetPreferenceInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	pref, err := h.preferenceService.Set(c.UserContext(), userID, input)
	if err != nil {
		return mapPreferenceError(err)
	}

	return c.Status(fiber.StatusOK).JSON(pref)
}

func mapPreferenceError(err error) error {
	switch {
	case errors.Is(err, preference.ErrForbidden):
		return middleware.Forbidden(err.Error())
	case errors.Is(err, preference.ErrNotFound):
		return middleware.NotFound("Entity not found")
	case errors.Is(err, preference.ErrInvalidInput):
		return middleware.BadRequest(err.Error())
	}
	return err
}
