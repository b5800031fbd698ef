package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/leadloop/trigger-backend/internal/models"
)

// MemoryStore holds all data in memory for testing and local development
type MemoryStore struct {
	triggers  map[uint]*models.Trigger
	questions map[uint]*models.LeadQuestion
	leads     map[uint]*models.Lead
	messages  []*models.Message

	// Mutexes for thread safety
	triggerMu  sync.RWMutex
	questionMu sync.RWMutex
	leadMu     sync.RWMutex
	messageMu  sync.RWMutex

	// Counters for ID generation
	triggerCounter  uint
	questionCounter uint
	leadCounter     uint
	messageCounter  uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		triggers:  make(map[uint]*models.Trigger),
		questions: make(map[uint]*models.LeadQuestion),
		leads:     make(map[uint]*models.Lead),
	}
}

// Trigger operations

func (m *MemoryStore) CreateTrigger(reg *models.TriggerRegistration, callbackBase string) (*models.Trigger, error) {
	m.triggerMu.Lock()
	defer m.triggerMu.Unlock()

	m.triggerCounter++
	trigger := &models.Trigger{
		BusinessName: reg.BusinessName,
		AppID:        reg.AppID,
		PhoneID:      reg.PhoneID,
		AccessToken:  reg.AccessToken,
		Status:       models.TriggerStatusInactive,
	}
	trigger.ID = m.triggerCounter
	trigger.CreatedAt = time.Now()
	trigger.UpdatedAt = time.Now()

	// BeforeCreate normally runs inside gorm; apply it here too
	if err := trigger.BeforeCreate(nil); err != nil {
		return nil, err
	}
	trigger.CallbackURL = fmt.Sprintf("%s/whatsapp/%s", callbackBase, trigger.NodeID)

	m.triggers[trigger.ID] = trigger
	return trigger, nil
}

func (m *MemoryStore) GetTrigger(id uint) (*models.Trigger, error) {
	m.triggerMu.RLock()
	defer m.triggerMu.RUnlock()

	trigger, exists := m.triggers[id]
	if !exists {
		return nil, ErrNotFound
	}
	return trigger, nil
}

func (m *MemoryStore) GetTriggerByNodeID(nodeID string) (*models.Trigger, error) {
	m.triggerMu.RLock()
	defer m.triggerMu.RUnlock()

	for _, trigger := range m.triggers {
		if trigger.NodeID == nodeID {
			return trigger, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetAllTriggers() ([]*models.Trigger, error) {
	m.triggerMu.RLock()
	defer m.triggerMu.RUnlock()

	triggers := make([]*models.Trigger, 0, len(m.triggers))
	for _, trigger := range m.triggers {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool {
		return triggers[i].CreatedAt.After(triggers[j].CreatedAt)
	})
	return triggers, nil
}

func (m *MemoryStore) UpdateTriggerStatus(id uint, status string) error {
	m.triggerMu.Lock()
	defer m.triggerMu.Unlock()

	trigger, exists := m.triggers[id]
	if !exists {
		return ErrNotFound
	}
	trigger.Status = status
	trigger.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) UpdateCompletionMessage(id uint, message string) error {
	m.triggerMu.Lock()
	defer m.triggerMu.Unlock()

	trigger, exists := m.triggers[id]
	if !exists {
		return ErrNotFound
	}
	trigger.CompletionMessage = message
	trigger.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) DeleteTrigger(id uint) error {
	m.triggerMu.Lock()
	if _, exists := m.triggers[id]; !exists {
		m.triggerMu.Unlock()
		return ErrNotFound
	}
	delete(m.triggers, id)
	m.triggerMu.Unlock()

	// Cascade: messages, leads and questions belong to the trigger
	m.messageMu.Lock()
	kept := m.messages[:0]
	for _, msg := range m.messages {
		if msg.TriggerID != id {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	m.messageMu.Unlock()

	m.leadMu.Lock()
	for leadID, lead := range m.leads {
		if lead.TriggerID == id {
			delete(m.leads, leadID)
		}
	}
	m.leadMu.Unlock()

	m.questionMu.Lock()
	for questionID, question := range m.questions {
		if question.TriggerID == id {
			delete(m.questions, questionID)
		}
	}
	m.questionMu.Unlock()

	return nil
}

// Question operations

func (m *MemoryStore) CreateQuestion(question *models.LeadQuestion) (*models.LeadQuestion, error) {
	m.questionMu.Lock()
	defer m.questionMu.Unlock()

	m.questionCounter++
	question.ID = m.questionCounter
	question.CreatedAt = time.Now()
	question.UpdatedAt = time.Now()
	if question.QuestionType == "" {
		question.QuestionType = models.QuestionTypeText
	}
	if question.Options == "" {
		question.Options = "[]"
	}

	m.questions[question.ID] = question
	return question, nil
}

func (m *MemoryStore) GetQuestions(triggerID uint) ([]*models.LeadQuestion, error) {
	m.questionMu.RLock()
	defer m.questionMu.RUnlock()

	var questions []*models.LeadQuestion
	for _, question := range m.questions {
		if question.TriggerID == triggerID {
			questions = append(questions, question)
		}
	}
	sort.Slice(questions, func(i, j int) bool {
		if questions[i].OrderIndex != questions[j].OrderIndex {
			return questions[i].OrderIndex < questions[j].OrderIndex
		}
		return questions[i].ID < questions[j].ID
	})
	return questions, nil
}

// Lead operations

func (m *MemoryStore) GetLead(triggerID uint, phoneNumber string) (*models.Lead, error) {
	m.leadMu.RLock()
	defer m.leadMu.RUnlock()

	for _, lead := range m.leads {
		if lead.TriggerID == triggerID && lead.PhoneNumber == phoneNumber {
			copied := *lead
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateLead(triggerID uint, phoneNumber, contactName string) (*models.Lead, error) {
	m.leadMu.Lock()
	defer m.leadMu.Unlock()

	for _, lead := range m.leads {
		if lead.TriggerID == triggerID && lead.PhoneNumber == phoneNumber {
			return nil, fmt.Errorf("lead already exists for %s", phoneNumber)
		}
	}

	m.leadCounter++
	lead := &models.Lead{
		TriggerID:       triggerID,
		PhoneNumber:     phoneNumber,
		ContactName:     contactName,
		Status:          models.LeadStatusActive,
		CurrentQuestion: 0,
		Responses:       "{}",
	}
	lead.ID = m.leadCounter
	lead.CreatedAt = time.Now()
	lead.UpdatedAt = time.Now()

	m.leads[lead.ID] = lead
	copied := *lead
	return &copied, nil
}

func (m *MemoryStore) UpdateLeadProgress(leadID uint, currentQuestion int, status string, responses map[string]string) error {
	m.leadMu.Lock()
	defer m.leadMu.Unlock()

	lead, exists := m.leads[leadID]
	if !exists {
		return ErrNotFound
	}

	encoded, err := json.Marshal(responses)
	if err != nil {
		return fmt.Errorf("failed to encode responses: %w", err)
	}

	lead.CurrentQuestion = currentQuestion
	lead.Status = status
	lead.Responses = string(encoded)
	lead.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) GetLeads(triggerID uint) ([]*models.Lead, error) {
	m.leadMu.RLock()
	defer m.leadMu.RUnlock()

	var leads []*models.Lead
	for _, lead := range m.leads {
		if lead.TriggerID == triggerID {
			copied := *lead
			leads = append(leads, &copied)
		}
	}
	sort.Slice(leads, func(i, j int) bool {
		return leads[i].CreatedAt.After(leads[j].CreatedAt)
	})
	return leads, nil
}

func (m *MemoryStore) DeleteLead(triggerID, leadID uint) error {
	m.leadMu.Lock()
	defer m.leadMu.Unlock()

	lead, exists := m.leads[leadID]
	if !exists || lead.TriggerID != triggerID {
		return ErrNotFound
	}
	delete(m.leads, leadID)
	return nil
}

func (m *MemoryStore) DeleteLeads(triggerID uint) (int64, error) {
	m.leadMu.Lock()
	defer m.leadMu.Unlock()

	var deleted int64
	for leadID, lead := range m.leads {
		if lead.TriggerID == triggerID {
			delete(m.leads, leadID)
			deleted++
		}
	}
	return deleted, nil
}

// Message log operations

func (m *MemoryStore) LogMessage(message *models.Message) error {
	m.messageMu.Lock()
	defer m.messageMu.Unlock()

	m.messageCounter++
	message.ID = m.messageCounter
	message.CreatedAt = time.Now()
	message.UpdatedAt = time.Now()

	m.messages = append(m.messages, message)
	return nil
}

func (m *MemoryStore) GetMessages(triggerID uint) ([]*models.Message, error) {
	m.messageMu.RLock()
	defer m.messageMu.RUnlock()

	var messages []*models.Message
	for _, msg := range m.messages {
		if msg.TriggerID == triggerID {
			messages = append(messages, msg)
		}
	}
	// Newest first, matching the dashboard ordering
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].ID > messages[j].ID
	})
	return messages, nil
}

func (m *MemoryStore) GetAllMessages(limit int) ([]*models.Message, error) {
	m.messageMu.RLock()
	defer m.messageMu.RUnlock()

	messages := make([]*models.Message, len(m.messages))
	copy(messages, m.messages)
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].ID > messages[j].ID
	})
	if limit > 0 && len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}
