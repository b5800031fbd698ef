package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/leadloop/trigger-backend/internal/models"
	"github.com/leadloop/trigger-backend/internal/services"
	"github.com/leadloop/trigger-backend/internal/storage"
)

// dashboardMessageLimit caps the cross-trigger message feed
const dashboardMessageLimit = 100

// MessageHandler handles message log reads and manual sends
type MessageHandler struct {
	store  storage.Store
	sender services.MessageSender
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(store storage.Store, sender services.MessageSender) *MessageHandler {
	return &MessageHandler{
		store:  store,
		sender: sender,
	}
}

func messageView(msg *models.Message) fiber.Map {
	view := fiber.Map{
		"id":              msg.ID,
		"trigger_id":      msg.TriggerID,
		"sender_number":   msg.SenderNumber,
		"message_content": msg.MessageContent,
		"message_type":    msg.MessageType,
		"contact_name":    msg.ContactName,
		"received_at":     msg.CreatedAt,
		"display_name":    msg.DisplayName(),
	}
	if msg.ContactName != "" {
		view["contact_name_only"] = msg.ContactName
	} else {
		view["contact_name_only"] = nil
	}
	return view
}

// GetTriggerMessages lists the message log for one trigger
func (h *MessageHandler) GetTriggerMessages(c *fiber.Ctx) error {
	triggerID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid trigger id",
		})
	}

	messages, err := h.store.GetMessages(uint(triggerID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to load messages",
		})
	}

	views := make([]fiber.Map, 0, len(messages))
	for _, msg := range messages {
		views = append(views, messageView(msg))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    views,
	})
}

// GetDashboardMessages lists recent messages across all triggers
func (h *MessageHandler) GetDashboardMessages(c *fiber.Ctx) error {
	messages, err := h.store.GetAllMessages(dashboardMessageLimit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to load messages",
		})
	}

	views := make([]fiber.Map, 0, len(messages))
	for _, msg := range messages {
		views = append(views, messageView(msg))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    views,
	})
}

// SendMessage sends a manual outbound text for an active trigger
func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	triggerID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid trigger id",
		})
	}

	trigger, err := h.store.GetTrigger(uint(triggerID))
	if err != nil {
		return triggerNotFound(c, err)
	}

	if !trigger.IsActive() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Trigger is not active",
		})
	}

	var body struct {
		ToNumber string `json:"to_number"`
		Message  string `json:"message"`
	}
	if err := c.BodyParser(&body); err != nil || body.ToNumber == "" || body.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Missing to_number or message",
		})
	}

	if err := h.sender.Send(trigger, services.NewTextMessage(body.ToNumber, body.Message)); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "WhatsApp API Error: " + err.Error(),
		})
	}

	sent := &models.Message{
		TriggerID:      trigger.ID,
		SenderNumber:   "sent_to_" + body.ToNumber,
		MessageContent: body.Message,
		MessageType:    models.MessageTypeSent,
	}
	if err := h.store.LogMessage(sent); err != nil {
		log.Printf("❌ Failed to log sent message: %v", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Message sent successfully",
	})
}
