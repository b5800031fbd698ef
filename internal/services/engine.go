package services

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/leadloop/trigger-backend/internal/models"
	"github.com/leadloop/trigger-backend/internal/storage"
)

// InboundEvent is one inbound WhatsApp event after wire-format extraction:
// either free text or an interactive button reply.
type InboundEvent struct {
	Text        string
	ButtonID    string
	ButtonTitle string
}

// Content is the text the engine records as an answer. Button replies are
// recorded as the button title, matching how the menu selection reads to
// the operator reviewing responses.
func (e InboundEvent) Content() string {
	if e.ButtonID != "" {
		return e.ButtonTitle
	}
	return e.Text
}

// ConversationEngine decides, for each inbound event, how the lead advances
// and which outbound message (if any) goes back. It mutates lead state
// through the store and returns at most one directive; rendering and
// delivery belong to the caller.
type ConversationEngine struct {
	store   storage.Store
	catalog *QuestionCatalog

	// Per-(trigger, phone) locks serialize lead read-modify-write so two
	// closely spaced answers cannot both advance from the same cursor.
	leadMu    sync.Mutex
	leadLocks map[string]*sync.Mutex
}

// NewConversationEngine creates an engine backed by the given store.
func NewConversationEngine(store storage.Store, catalog *QuestionCatalog) *ConversationEngine {
	return &ConversationEngine{
		store:     store,
		catalog:   catalog,
		leadLocks: make(map[string]*sync.Mutex),
	}
}

// lockLead acquires the mutex for one (trigger, phone) conversation.
func (e *ConversationEngine) lockLead(triggerID uint, phoneNumber string) *sync.Mutex {
	key := fmt.Sprintf("%d:%s", triggerID, phoneNumber)

	e.leadMu.Lock()
	mu, ok := e.leadLocks[key]
	if !ok {
		mu = &sync.Mutex{}
		e.leadLocks[key] = mu
	}
	e.leadMu.Unlock()

	mu.Lock()
	return mu
}

// HandleInbound processes one inbound event for an active trigger and
// returns the directive to send, or nil when the turn produces no outbound
// message. Callers must not invoke it for inactive triggers.
func (e *ConversationEngine) HandleInbound(trigger *models.Trigger, phoneNumber, contactName string, event InboundEvent) (*Directive, error) {
	mu := e.lockLead(trigger.ID, phoneNumber)
	defer mu.Unlock()

	lead, err := e.store.GetLead(trigger.ID, phoneNumber)
	if errors.Is(err, storage.ErrNotFound) {
		// First contact: create the lead and greet. No question is asked
		// yet and nothing is recorded as an answer.
		if _, err := e.store.CreateLead(trigger.ID, phoneNumber, contactName); err != nil {
			return nil, fmt.Errorf("failed to create lead: %w", err)
		}
		log.Printf("🆕 Created new lead for %s (trigger %d)", phoneNumber, trigger.ID)
		return WelcomeDirective(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load lead: %w", err)
	}

	switch event.ButtonID {
	case ButtonStartLeadGeneration:
		return e.startQuestionFlow(trigger, lead)
	case ButtonViewServices:
		return PlainTextDirective(msgViewServices), nil
	case ButtonContactSupport:
		return PlainTextDirective(msgContactSupport), nil
	}

	return e.recordAnswer(trigger, lead, event)
}

// startQuestionFlow rewinds the lead to the first question. Previous
// responses are kept; re-answering overwrites them per question.
func (e *ConversationEngine) startQuestionFlow(trigger *models.Trigger, lead *models.Lead) (*Directive, error) {
	questions, err := e.catalog.Questions(trigger.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	if len(questions) == 0 {
		return PlainTextDirective(msgNoQuestions), nil
	}

	if err := e.store.UpdateLeadProgress(lead.ID, 0, models.LeadStatusActive, lead.ResponseMap()); err != nil {
		return nil, fmt.Errorf("failed to restart lead: %w", err)
	}
	return QuestionDirective(questions[0]), nil
}

// recordAnswer stores the event content as the answer to the current
// question and advances the cursor.
func (e *ConversationEngine) recordAnswer(trigger *models.Trigger, lead *models.Lead, event InboundEvent) (*Directive, error) {
	questions, err := e.catalog.Questions(trigger.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	if lead.CurrentQuestion >= len(questions) {
		// Completed lead or no questions configured: nothing to record.
		log.Printf("📋 All questions already answered for %s", lead.PhoneNumber)
		return nil, nil
	}

	current := questions[lead.CurrentQuestion]
	responses := lead.ResponseMap()
	responses[fmt.Sprintf("q%d", current.ID)] = event.Content()

	next := lead.CurrentQuestion + 1
	status := models.LeadStatusActive
	if next >= len(questions) {
		status = models.LeadStatusCompleted
	}

	// Responses, cursor and status land in one atomic store write
	if err := e.store.UpdateLeadProgress(lead.ID, next, status, responses); err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}

	if status == models.LeadStatusCompleted {
		log.Printf("✅ Lead completed for %s", lead.PhoneNumber)
		return CompletionDirective(), nil
	}

	log.Printf("📝 Lead progress for %s: %d/%d questions answered", lead.PhoneNumber, next, len(questions))
	return QuestionDirective(questions[next]), nil
}
