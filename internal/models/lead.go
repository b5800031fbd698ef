package models

import (
	"encoding/json"

	"gorm.io/gorm"
)

// Lead status values
const (
	LeadStatusActive    = "active"
	LeadStatusCompleted = "completed"
)

// Lead is the per-phone-number conversation cursor for a trigger's
// question flow: which question is next, what has been answered so far.
type Lead struct {
	gorm.Model

	TriggerID   uint   `json:"trigger_id" gorm:"uniqueIndex:idx_trigger_phone"`
	PhoneNumber string `json:"phone_number" gorm:"uniqueIndex:idx_trigger_phone"`
	ContactName string `json:"contact_name"`
	Status      string `json:"status" gorm:"default:active"`

	// CurrentQuestion is the zero-based index of the next unanswered
	// question. It only ever moves forward, except for an explicit
	// restart via the start button.
	CurrentQuestion int `json:"current_question" gorm:"default:0"`

	// Responses holds a JSON object mapping "q<question_id>" to the raw
	// answer text, in answer order.
	Responses string `json:"responses" gorm:"default:'{}'"`
}

// ResponseMap decodes the stored responses. A broken value decodes
// to an empty map so a lead can always keep answering.
func (l *Lead) ResponseMap() map[string]string {
	responses := make(map[string]string)
	if l.Responses != "" {
		_ = json.Unmarshal([]byte(l.Responses), &responses)
	}
	return responses
}

// IsCompleted reports whether the lead has answered every question.
func (l *Lead) IsCompleted() bool {
	return l.Status == LeadStatusCompleted
}
