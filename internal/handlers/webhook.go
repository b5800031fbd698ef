package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/leadloop/trigger-backend/internal/models"
	"github.com/leadloop/trigger-backend/internal/services"
	"github.com/leadloop/trigger-backend/internal/storage"
)

// WebhookHandler handles Meta WhatsApp Cloud API webhook traffic for all triggers
type WebhookHandler struct {
	store  storage.Store
	engine *services.ConversationEngine
	sender services.MessageSender
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(store storage.Store, engine *services.ConversationEngine, sender services.MessageSender) *WebhookHandler {
	return &WebhookHandler{
		store:  store,
		engine: engine,
		sender: sender,
	}
}

// VerifyWebhook answers Meta's webhook verification handshake for a trigger
func (h *WebhookHandler) VerifyWebhook(c *fiber.Ctx) error {
	nodeID := c.Params("node_id")

	trigger, err := h.store.GetTriggerByNodeID(nodeID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("Trigger not found")
		}
		return c.Status(fiber.StatusInternalServerError).SendString("Error")
	}

	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == trigger.VerifyToken {
		return c.SendString(challenge)
	}
	return c.Status(fiber.StatusForbidden).SendString("Verification failed")
}

// ReceiveWebhook processes incoming WhatsApp messages for a trigger.
// Once the trigger is resolved, the provider always gets a 200 back:
// internal failures are logged, never surfaced, so Meta does not redeliver.
func (h *WebhookHandler) ReceiveWebhook(c *fiber.Ctx) error {
	nodeID := c.Params("node_id")
	log.Printf("🔔 Webhook received for node_id: %s", nodeID)

	trigger, err := h.store.GetTriggerByNodeID(nodeID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Printf("❌ Trigger not found for node_id: %s", nodeID)
			return c.Status(fiber.StatusNotFound).SendString("Trigger not found")
		}
		log.Printf("❌ Error looking up trigger %s: %v", nodeID, err)
		return c.Status(fiber.StatusInternalServerError).SendString("Error")
	}

	if !trigger.IsActive() {
		log.Printf("⚠️ Trigger %s is inactive, ignoring message", nodeID)
		return c.SendString("Trigger is inactive")
	}

	var payload WebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("❌ Error parsing webhook payload: %v", err)
		return c.SendString("OK")
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			// Status and delivery notifications carry no messages and are
			// ignored entirely: no lead lookup, no lead creation.
			if len(change.Value.Messages) == 0 {
				continue
			}

			log.Printf("💬 Processing %d messages for %s", len(change.Value.Messages), trigger.BusinessName)

			// Contact display names come once per payload, keyed by wa_id
			contactNames := make(map[string]string)
			for _, contact := range change.Value.Contacts {
				if contact.WaID != "" && contact.Profile.Name != "" {
					contactNames[contact.WaID] = contact.Profile.Name
				}
			}

			for _, message := range change.Value.Messages {
				h.processMessage(trigger, message, contactNames[message.From])
			}
		}
	}

	return c.SendString("OK")
}

// processMessage logs one inbound message and runs it through the
// conversation engine. Any failure makes this turn a no-op.
func (h *WebhookHandler) processMessage(trigger *models.Trigger, message InboundMessage, contactName string) {
	content, messageType := describeMessage(message)

	logEntry := &models.Message{
		TriggerID:      trigger.ID,
		SenderNumber:   message.From,
		MessageContent: content,
		MessageType:    messageType,
		ContactName:    contactName,
	}
	if err := h.store.LogMessage(logEntry); err != nil {
		log.Printf("❌ Failed to log message from %s: %v", message.From, err)
	}

	event := services.InboundEvent{Text: content}
	if reply := message.ButtonReply(); reply != nil {
		log.Printf("🔘 Button clicked: %s (ID: %s)", reply.Title, reply.ID)
		event = services.InboundEvent{ButtonID: reply.ID, ButtonTitle: reply.Title}
	}

	directive, err := h.engine.HandleInbound(trigger, message.From, contactName, event)
	if err != nil {
		log.Printf("❌ Error processing message from %s: %v", message.From, err)
		return
	}
	if directive == nil {
		return
	}

	outbound := directive.Render(trigger, message.From)
	if err := h.sender.Send(trigger, outbound); err != nil {
		// Delivery failure does not roll back the lead mutation
		log.Printf("❌ Failed to deliver %s message to %s: %v", directive.Kind, message.From, err)
	}
}

// describeMessage maps an inbound message onto the logged content and type.
func describeMessage(message InboundMessage) (string, string) {
	switch {
	case message.Text != nil:
		return message.Text.Body, models.MessageTypeText
	case message.Interactive != nil:
		if reply := message.ButtonReply(); reply != nil {
			return "[Button Clicked] " + reply.Title, models.MessageTypeInteractive
		}
		return "[Interactive Message]", models.MessageTypeInteractive
	default:
		return "[Media Message]", models.MessageTypeMedia
	}
}

// --- Webhook payload ---
// Mirrors the structure sent by Meta's WhatsApp Cloud API webhook callbacks.

type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Value WebhookValue `json:"value"`
	Field string       `json:"field"`
}

type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Metadata         WebhookMetadata  `json:"metadata"`
	Contacts         []WebhookContact `json:"contacts"`
	Messages         []InboundMessage `json:"messages"`
	Statuses         []MessageStatus  `json:"statuses"`
}

type WebhookMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type WebhookContact struct {
	Profile ContactProfile `json:"profile"`
	WaID    string         `json:"wa_id"`
}

type ContactProfile struct {
	Name string `json:"name"`
}

type InboundMessage struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"`
	Text        *TextContent        `json:"text,omitempty"`
	Interactive *InteractiveContent `json:"interactive,omitempty"`
}

// ButtonReply returns the pressed button, or nil for other message kinds.
func (m InboundMessage) ButtonReply() *ButtonReplyContent {
	if m.Interactive != nil && m.Interactive.Type == "button_reply" {
		return m.Interactive.ButtonReply
	}
	return nil
}

type TextContent struct {
	Body string `json:"body"`
}

type InteractiveContent struct {
	Type        string              `json:"type"`
	ButtonReply *ButtonReplyContent `json:"button_reply,omitempty"`
}

type ButtonReplyContent struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type MessageStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}
