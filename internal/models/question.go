package models

import (
	"encoding/json"

	"gorm.io/gorm"
)

// Question types
const (
	QuestionTypeText           = "text"
	QuestionTypeMultipleChoice = "multiple_choice"
)

// LeadQuestion is one lead-qualification question configured for a trigger.
// Questions are asked in OrderIndex order (ties broken by creation order).
type LeadQuestion struct {
	gorm.Model

	TriggerID    uint   `json:"trigger_id" gorm:"index"`
	QuestionText string `json:"question_text"`
	QuestionType string `json:"question_type" gorm:"default:text"`
	Options      string `json:"options" gorm:"default:'[]'"` // JSON array of option strings, multiple_choice only
	IsRequired   bool   `json:"is_required" gorm:"default:true"`
	OrderIndex   int    `json:"order_index" gorm:"default:0"`
}

// OptionList decodes the stored options. A broken or empty value
// is treated as no options rather than an error.
func (q *LeadQuestion) OptionList() []string {
	var opts []string
	if err := json.Unmarshal([]byte(q.Options), &opts); err != nil {
		return nil
	}
	return opts
}

// QuestionInput is the request body for creating a lead question
type QuestionInput struct {
	QuestionText string   `json:"question_text" validate:"required"`
	QuestionType string   `json:"question_type"`
	Options      []string `json:"options"`
	IsRequired   *bool    `json:"is_required"`
	OrderIndex   int      `json:"order_index"`
}
