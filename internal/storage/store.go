package storage

import (
	"errors"

	"github.com/leadloop/trigger-backend/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

var storeInstance Store

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	return storeInstance
}

// Store defines the interface for storage operations
type Store interface {
	// Trigger operations
	CreateTrigger(reg *models.TriggerRegistration, callbackBase string) (*models.Trigger, error)
	GetTrigger(id uint) (*models.Trigger, error)
	GetTriggerByNodeID(nodeID string) (*models.Trigger, error)
	GetAllTriggers() ([]*models.Trigger, error)
	UpdateTriggerStatus(id uint, status string) error
	UpdateCompletionMessage(id uint, message string) error
	DeleteTrigger(id uint) error

	// Question operations. Listing is stable by order_index, then creation order.
	CreateQuestion(question *models.LeadQuestion) (*models.LeadQuestion, error)
	GetQuestions(triggerID uint) ([]*models.LeadQuestion, error)

	// Lead operations. UpdateLeadProgress must apply responses, cursor and
	// status as a single atomic write.
	GetLead(triggerID uint, phoneNumber string) (*models.Lead, error)
	CreateLead(triggerID uint, phoneNumber, contactName string) (*models.Lead, error)
	UpdateLeadProgress(leadID uint, currentQuestion int, status string, responses map[string]string) error
	GetLeads(triggerID uint) ([]*models.Lead, error)
	DeleteLead(triggerID, leadID uint) error
	DeleteLeads(triggerID uint) (int64, error)

	// Message log operations
	LogMessage(message *models.Message) error
	GetMessages(triggerID uint) ([]*models.Message, error)
	GetAllMessages(limit int) ([]*models.Message, error)
}
