package models

import "gorm.io/gorm"

// Message types for the message log
const (
	MessageTypeText        = "text"
	MessageTypeInteractive = "interactive"
	MessageTypeMedia       = "media"
	MessageTypeSent        = "sent"
)

// Message is one logged inbound or outbound WhatsApp payload.
// The engine only ever appends; reads are for the dashboard.
type Message struct {
	gorm.Model

	TriggerID      uint   `json:"trigger_id" gorm:"index"`
	SenderNumber   string `json:"sender_number"`
	MessageContent string `json:"message_content"`
	MessageType    string `json:"message_type" gorm:"default:text"`
	ContactName    string `json:"contact_name"`
}

// DisplayName formats the sender the way the dashboard shows it.
func (m *Message) DisplayName() string {
	if m.ContactName != "" {
		return m.ContactName + " (" + m.SenderNumber + ")"
	}
	return m.SenderNumber
}
