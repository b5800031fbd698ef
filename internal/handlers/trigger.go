package handlers

import (
	"errors"
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/leadloop/trigger-backend/internal/models"
	"github.com/leadloop/trigger-backend/internal/services"
	"github.com/leadloop/trigger-backend/internal/storage"
)

// TriggerHandler handles trigger configuration requests
type TriggerHandler struct {
	store   storage.Store
	catalog *services.QuestionCatalog
}

// NewTriggerHandler creates a new trigger handler
func NewTriggerHandler(store storage.Store, catalog *services.QuestionCatalog) *TriggerHandler {
	return &TriggerHandler{
		store:   store,
		catalog: catalog,
	}
}

// GetTriggers lists all configured triggers
func (h *TriggerHandler) GetTriggers(c *fiber.Ctx) error {
	triggers, err := h.store.GetAllTriggers()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to load triggers",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    triggers,
	})
}

// CreateTrigger registers a new WhatsApp integration
func (h *TriggerHandler) CreateTrigger(c *fiber.Ctx) error {
	var reg models.TriggerRegistration
	if err := c.BodyParser(&reg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if reg.BusinessName == "" || reg.AppID == "" || reg.PhoneID == "" || reg.AccessToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "business_name, app_id, phone_id and access_token are required",
		})
	}

	callbackBase := os.Getenv("BASE_CALLBACK_URL")
	if callbackBase == "" {
		callbackBase = c.BaseURL()
	}

	trigger, err := h.store.CreateTrigger(&reg, callbackBase)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    trigger,
		"message": "Trigger created successfully!",
	})
}

// ToggleTrigger flips a trigger between active and inactive
func (h *TriggerHandler) ToggleTrigger(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid trigger id",
		})
	}

	trigger, err := h.store.GetTrigger(uint(id))
	if err != nil {
		return triggerNotFound(c, err)
	}

	newStatus := models.TriggerStatusActive
	if trigger.IsActive() {
		newStatus = models.TriggerStatusInactive
	}

	if err := h.store.UpdateTriggerStatus(trigger.ID, newStatus); err != nil {
		return triggerNotFound(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Trigger %s", newStatus),
		"status":  newStatus,
	})
}

// DeleteTrigger removes a trigger along with its messages, leads and questions
func (h *TriggerHandler) DeleteTrigger(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid trigger id",
		})
	}

	trigger, err := h.store.GetTrigger(uint(id))
	if err != nil {
		return triggerNotFound(c, err)
	}

	if err := h.store.DeleteTrigger(trigger.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   fmt.Sprintf("Failed to delete trigger: %v", err),
		})
	}

	h.catalog.Invalidate(trigger.ID)

	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Trigger %q deleted successfully", trigger.BusinessName),
	})
}

// UpdateCompletionMessage edits the custom completion text for a trigger
func (h *TriggerHandler) UpdateCompletionMessage(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid trigger id",
		})
	}

	var body struct {
		CompletionMessage string `json:"completion_message"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if err := h.store.UpdateCompletionMessage(uint(id), body.CompletionMessage); err != nil {
		return triggerNotFound(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Completion message updated successfully",
	})
}

func triggerNotFound(c *fiber.Ctx, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Trigger not found",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}
