package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/leadloop/trigger-backend/internal/models"
)

const defaultGraphAPIBaseURL = "https://graph.facebook.com/v18.0"

// MessageSender delivers an outbound message for a trigger. Delivery is
// fire-and-forget from the engine's point of view: the result is logged,
// never fed back into lead state.
type MessageSender interface {
	Send(trigger *models.Trigger, message *SendMessageRequest) error
}

// WhatsAppService sends messages through the Meta WhatsApp Cloud API using
// each trigger's own phone number ID and access token.
type WhatsAppService struct {
	client  *http.Client
	baseURL string
}

// NewWhatsAppService creates a new Cloud API sender.
// WHATSAPP_API_BASE_URL overrides the Graph endpoint (used in tests).
func NewWhatsAppService() *WhatsAppService {
	baseURL := os.Getenv("WHATSAPP_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultGraphAPIBaseURL
	}

	return &WhatsAppService{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
	}
}

// Send posts the message to the Cloud API. Failures are terminal for the
// turn: callers log and move on, there is no retry here.
func (w *WhatsAppService) Send(trigger *models.Trigger, message *SendMessageRequest) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", w.baseURL, trigger.PhoneID)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+trigger.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp message: %v", err)
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Printf("❌ WhatsApp API error %d: %s", resp.StatusCode, string(respBody))
		return fmt.Errorf("whatsapp api returned status %d", resp.StatusCode)
	}

	log.Printf("✅ WhatsApp message sent to %s via %s", message.To, trigger.BusinessName)
	return nil
}

// SendText is a convenience wrapper for plain text messages.
func (w *WhatsAppService) SendText(trigger *models.Trigger, to, text string) error {
	return w.Send(trigger, NewTextMessage(to, text))
}

// --- Cloud API outbound payload ---
// Reference: https://developers.facebook.com/docs/whatsapp/cloud-api/messages

// SendMessageRequest is the Cloud API send-message body.
type SendMessageRequest struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             *TextBody    `json:"text,omitempty"`
	Interactive      *Interactive `json:"interactive,omitempty"`
}

type TextBody struct {
	Body string `json:"body"`
}

type Interactive struct {
	Type   string            `json:"type"`
	Body   InteractiveBody   `json:"body"`
	Action InteractiveAction `json:"action"`
}

type InteractiveBody struct {
	Text string `json:"text"`
}

type InteractiveAction struct {
	Buttons []Button `json:"buttons"`
}

type Button struct {
	Type  string      `json:"type"`
	Reply ReplyButton `json:"reply"`
}

type ReplyButton struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// NewTextMessage builds a plain text Cloud API message.
func NewTextMessage(to, body string) *SendMessageRequest {
	return &SendMessageRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &TextBody{Body: body},
	}
}

// NewInteractiveMessage builds a reply-button Cloud API message.
func NewInteractiveMessage(to, body string, buttons []ReplyButton) *SendMessageRequest {
	wrapped := make([]Button, 0, len(buttons))
	for _, b := range buttons {
		wrapped = append(wrapped, Button{Type: "reply", Reply: b})
	}

	return &SendMessageRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
		Interactive: &Interactive{
			Type:   "button",
			Body:   InteractiveBody{Text: body},
			Action: InteractiveAction{Buttons: wrapped},
		},
	}
}
