package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/leadloop/trigger-backend/internal/models"
	"github.com/leadloop/trigger-backend/internal/storage"
)

// LeadHandler handles administrative lead read/delete requests
type LeadHandler struct {
	store storage.Store
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(store storage.Store) *LeadHandler {
	return &LeadHandler{store: store}
}

// leadView is a lead with its responses decoded for display
func leadView(lead *models.Lead) fiber.Map {
	return fiber.Map{
		"id":               lead.ID,
		"trigger_id":       lead.TriggerID,
		"phone_number":     lead.PhoneNumber,
		"contact_name":     lead.ContactName,
		"status":           lead.Status,
		"current_question": lead.CurrentQuestion,
		"responses":        lead.ResponseMap(),
		"created_at":       lead.CreatedAt,
		"updated_at":       lead.UpdatedAt,
	}
}

// GetLeads lists all leads for a trigger, newest first
func (h *LeadHandler) GetLeads(c *fiber.Ctx) error {
	triggerID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid trigger id",
		})
	}

	leads, err := h.store.GetLeads(uint(triggerID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to load leads",
		})
	}

	views := make([]fiber.Map, 0, len(leads))
	for _, lead := range leads {
		views = append(views, leadView(lead))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    views,
	})
}

// GetLeadByPhone looks up one lead by phone number
func (h *LeadHandler) GetLeadByPhone(c *fiber.Ctx) error {
	triggerID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid trigger id",
		})
	}
	phoneNumber := c.Params("phone_number")

	lead, err := h.store.GetLead(uint(triggerID), phoneNumber)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.JSON(fiber.Map{
				"success": false,
				"message": "Lead not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to load lead",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    leadView(lead),
	})
}

// DeleteLead removes one lead
func (h *LeadHandler) DeleteLead(c *fiber.Ctx) error {
	triggerID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid trigger id",
		})
	}
	leadID, err := c.ParamsInt("lead_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid lead id",
		})
	}

	if err := h.store.DeleteLead(uint(triggerID), uint(leadID)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Lead not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   fmt.Sprintf("Failed to delete lead: %v", err),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Lead deleted successfully",
	})
}

// DeleteLeads removes every lead for a trigger
func (h *LeadHandler) DeleteLeads(c *fiber.Ctx) error {
	triggerID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid trigger id",
		})
	}

	deleted, err := h.store.DeleteLeads(uint(triggerID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   fmt.Sprintf("Failed to delete leads: %v", err),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Deleted %d leads successfully", deleted),
	})
}
