package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Trigger status values
const (
	TriggerStatusInactive = "inactive"
	TriggerStatusActive   = "active"
)

// Trigger represents one configured WhatsApp Business integration:
// one phone line, one webhook, one business.
type Trigger struct {
	// gorm.Model gives us ID (uint), CreatedAt, UpdatedAt, DeletedAt automatically
	gorm.Model

	NodeID       string `json:"node_id" gorm:"uniqueIndex"` // short public identifier used in the webhook URL
	BusinessName string `json:"business_name"`
	AppID        string `json:"app_id"`
	PhoneID      string `json:"phone_id"`     // Meta phone number ID for the Cloud API
	AccessToken  string `json:"access_token"` // Cloud API bearer token
	CallbackURL  string `json:"callback_url"`
	VerifyToken  string `json:"verify_token"` // used by Meta's webhook verification handshake
	Status       string `json:"status" gorm:"default:inactive"`

	// Optional custom text sent when a lead answers the last question.
	// Blank means the default templated thank-you is used.
	CompletionMessage string `json:"completion_message"`
}

// BeforeCreate hook to auto-generate NodeID and VerifyToken
func (t *Trigger) BeforeCreate(tx *gorm.DB) error {
	if t.NodeID == "" {
		t.NodeID = strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	}
	if t.VerifyToken == "" {
		t.VerifyToken = strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	}
	if t.Status == "" {
		t.Status = TriggerStatusInactive
	}
	return nil
}

// IsActive reports whether inbound messages should be processed for this trigger.
func (t *Trigger) IsActive() bool {
	return t.Status == TriggerStatusActive
}

// TriggerRegistration is used when creating a new trigger via the API
type TriggerRegistration struct {
	BusinessName string `json:"business_name" validate:"required"`
	AppID        string `json:"app_id" validate:"required"`
	PhoneID      string `json:"phone_id" validate:"required"`
	AccessToken  string `json:"access_token" validate:"required"`
}
