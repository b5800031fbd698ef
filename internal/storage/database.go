package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/leadloop/trigger-backend/internal/models"
)

// DatabaseStore implements Store backed by PostgreSQL via GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a new database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Trigger operations

func (d *DatabaseStore) CreateTrigger(reg *models.TriggerRegistration, callbackBase string) (*models.Trigger, error) {
	trigger := &models.Trigger{
		BusinessName: reg.BusinessName,
		AppID:        reg.AppID,
		PhoneID:      reg.PhoneID,
		AccessToken:  reg.AccessToken,
		Status:       models.TriggerStatusInactive,
	}

	if err := d.db.Create(trigger).Error; err != nil {
		return nil, err
	}

	// NodeID is generated in BeforeCreate, so the callback URL is set afterwards
	trigger.CallbackURL = fmt.Sprintf("%s/whatsapp/%s", callbackBase, trigger.NodeID)
	if err := d.db.Model(trigger).Update("callback_url", trigger.CallbackURL).Error; err != nil {
		return nil, err
	}

	return trigger, nil
}

func (d *DatabaseStore) GetTrigger(id uint) (*models.Trigger, error) {
	var trigger models.Trigger
	if err := d.db.First(&trigger, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &trigger, nil
}

func (d *DatabaseStore) GetTriggerByNodeID(nodeID string) (*models.Trigger, error) {
	var trigger models.Trigger
	if err := d.db.Where("node_id = ?", nodeID).First(&trigger).Error; err != nil {
		return nil, translateError(err)
	}
	return &trigger, nil
}

func (d *DatabaseStore) GetAllTriggers() ([]*models.Trigger, error) {
	var triggers []*models.Trigger
	if err := d.db.Order("created_at DESC").Find(&triggers).Error; err != nil {
		return nil, err
	}
	return triggers, nil
}

func (d *DatabaseStore) UpdateTriggerStatus(id uint, status string) error {
	result := d.db.Model(&models.Trigger{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) UpdateCompletionMessage(id uint, message string) error {
	result := d.db.Model(&models.Trigger{}).Where("id = ?", id).Update("completion_message", message)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) DeleteTrigger(id uint) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Unscoped().Delete(&models.Trigger{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Unscoped().Where("trigger_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("trigger_id = ?", id).Delete(&models.Lead{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("trigger_id = ?", id).Delete(&models.LeadQuestion{}).Error
	})
}

// Question operations

func (d *DatabaseStore) CreateQuestion(question *models.LeadQuestion) (*models.LeadQuestion, error) {
	if question.QuestionType == "" {
		question.QuestionType = models.QuestionTypeText
	}
	if question.Options == "" {
		question.Options = "[]"
	}
	if err := d.db.Create(question).Error; err != nil {
		return nil, err
	}
	return question, nil
}

func (d *DatabaseStore) GetQuestions(triggerID uint) ([]*models.LeadQuestion, error) {
	var questions []*models.LeadQuestion
	err := d.db.Where("trigger_id = ?", triggerID).
		Order("order_index ASC, id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// Lead operations

func (d *DatabaseStore) GetLead(triggerID uint, phoneNumber string) (*models.Lead, error) {
	var lead models.Lead
	err := d.db.Where("trigger_id = ? AND phone_number = ?", triggerID, phoneNumber).
		First(&lead).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &lead, nil
}

func (d *DatabaseStore) CreateLead(triggerID uint, phoneNumber, contactName string) (*models.Lead, error) {
	lead := &models.Lead{
		TriggerID:       triggerID,
		PhoneNumber:     phoneNumber,
		ContactName:     contactName,
		Status:          models.LeadStatusActive,
		CurrentQuestion: 0,
		Responses:       "{}",
	}
	if err := d.db.Create(lead).Error; err != nil {
		return nil, err
	}
	return lead, nil
}

// UpdateLeadProgress writes responses, cursor and status in one UPDATE so a
// partial mutation is never visible.
func (d *DatabaseStore) UpdateLeadProgress(leadID uint, currentQuestion int, status string, responses map[string]string) error {
	encoded, err := json.Marshal(responses)
	if err != nil {
		return fmt.Errorf("failed to encode responses: %w", err)
	}

	result := d.db.Model(&models.Lead{}).Where("id = ?", leadID).Updates(map[string]interface{}{
		"current_question": currentQuestion,
		"status":           status,
		"responses":        string(encoded),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) GetLeads(triggerID uint) ([]*models.Lead, error) {
	var leads []*models.Lead
	err := d.db.Where("trigger_id = ?", triggerID).
		Order("created_at DESC").
		Find(&leads).Error
	if err != nil {
		return nil, err
	}
	return leads, nil
}

func (d *DatabaseStore) DeleteLead(triggerID, leadID uint) error {
	result := d.db.Unscoped().
		Where("id = ? AND trigger_id = ?", leadID, triggerID).
		Delete(&models.Lead{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) DeleteLeads(triggerID uint) (int64, error) {
	result := d.db.Unscoped().Where("trigger_id = ?", triggerID).Delete(&models.Lead{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Message log operations

func (d *DatabaseStore) LogMessage(message *models.Message) error {
	return d.db.Create(message).Error
}

func (d *DatabaseStore) GetMessages(triggerID uint) ([]*models.Message, error) {
	var messages []*models.Message
	err := d.db.Where("trigger_id = ?", triggerID).
		Order("created_at DESC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (d *DatabaseStore) GetAllMessages(limit int) ([]*models.Message, error) {
	var messages []*models.Message
	query := d.db.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}
