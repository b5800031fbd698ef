package storage

import (
	"errors"
	"testing"

	"github.com/leadloop/trigger-backend/internal/models"
)

func newStoreWithTrigger(t *testing.T) (*MemoryStore, *models.Trigger) {
	t.Helper()

	store := NewMemoryStore()
	trigger, err := store.CreateTrigger(&models.TriggerRegistration{
		BusinessName: "Acme Plumbing",
		AppID:        "app-1",
		PhoneID:      "phone-1",
		AccessToken:  "token-1",
	}, "https://example.test")
	if err != nil {
		t.Fatalf("failed to create trigger: %v", err)
	}
	return store, trigger
}

func TestCreateTriggerGeneratesIdentity(t *testing.T) {
	_, trigger := newStoreWithTrigger(t)

	if trigger.NodeID == "" || len(trigger.NodeID) != 8 {
		t.Errorf("node id = %q, want 8 characters", trigger.NodeID)
	}
	if trigger.VerifyToken == "" {
		t.Error("verify token should be generated")
	}
	if trigger.Status != models.TriggerStatusInactive {
		t.Errorf("status = %q, new triggers start inactive", trigger.Status)
	}
	if want := "https://example.test/whatsapp/" + trigger.NodeID; trigger.CallbackURL != want {
		t.Errorf("callback url = %q, want %q", trigger.CallbackURL, want)
	}
}

func TestGetTriggerByNodeID(t *testing.T) {
	store, trigger := newStoreWithTrigger(t)

	found, err := store.GetTriggerByNodeID(trigger.NodeID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.ID != trigger.ID {
		t.Errorf("found trigger %d, want %d", found.ID, trigger.ID)
	}

	if _, err := store.GetTriggerByNodeID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing node id should return ErrNotFound, got %v", err)
	}
}

func TestQuestionOrdering(t *testing.T) {
	store, trigger := newStoreWithTrigger(t)

	// Created out of order; same order_index resolves by creation order
	for _, q := range []*models.LeadQuestion{
		{TriggerID: trigger.ID, QuestionText: "third", OrderIndex: 2},
		{TriggerID: trigger.ID, QuestionText: "first", OrderIndex: 0},
		{TriggerID: trigger.ID, QuestionText: "second-a", OrderIndex: 1},
		{TriggerID: trigger.ID, QuestionText: "second-b", OrderIndex: 1},
	} {
		if _, err := store.CreateQuestion(q); err != nil {
			t.Fatalf("failed to create question: %v", err)
		}
	}

	questions, err := store.GetQuestions(trigger.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []string
	for _, q := range questions {
		got = append(got, q.QuestionText)
	}
	want := []string{"first", "second-a", "second-b", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestUpdateLeadProgressIsAtomic(t *testing.T) {
	store, trigger := newStoreWithTrigger(t)

	lead, err := store.CreateLead(trigger.ID, "+1555", "Alice")
	if err != nil {
		t.Fatalf("failed to create lead: %v", err)
	}

	responses := map[string]string{"q1": "Alice"}
	if err := store.UpdateLeadProgress(lead.ID, 1, models.LeadStatusActive, responses); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, _ := store.GetLead(trigger.ID, "+1555")
	if updated.CurrentQuestion != 1 || updated.Status != models.LeadStatusActive {
		t.Errorf("cursor/status = %d/%q, want 1/active", updated.CurrentQuestion, updated.Status)
	}
	if got := updated.ResponseMap(); got["q1"] != "Alice" {
		t.Errorf("responses = %v, want {q1: Alice}", got)
	}

	if err := store.UpdateLeadProgress(999, 1, models.LeadStatusActive, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown lead should return ErrNotFound, got %v", err)
	}
}

func TestDuplicateLeadRejected(t *testing.T) {
	store, trigger := newStoreWithTrigger(t)

	if _, err := store.CreateLead(trigger.ID, "+1555", ""); err != nil {
		t.Fatalf("failed to create lead: %v", err)
	}
	if _, err := store.CreateLead(trigger.ID, "+1555", ""); err == nil {
		t.Error("second lead for the same (trigger, phone) should fail")
	}
}

func TestDeleteTriggerCascades(t *testing.T) {
	store, trigger := newStoreWithTrigger(t)

	if _, err := store.CreateQuestion(&models.LeadQuestion{TriggerID: trigger.ID, QuestionText: "Name?"}); err != nil {
		t.Fatalf("failed to create question: %v", err)
	}
	if _, err := store.CreateLead(trigger.ID, "+1555", ""); err != nil {
		t.Fatalf("failed to create lead: %v", err)
	}
	if err := store.LogMessage(&models.Message{TriggerID: trigger.ID, SenderNumber: "+1555", MessageContent: "hi"}); err != nil {
		t.Fatalf("failed to log message: %v", err)
	}

	if err := store.DeleteTrigger(trigger.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if questions, _ := store.GetQuestions(trigger.ID); len(questions) != 0 {
		t.Error("questions should be deleted with the trigger")
	}
	if leads, _ := store.GetLeads(trigger.ID); len(leads) != 0 {
		t.Error("leads should be deleted with the trigger")
	}
	if messages, _ := store.GetMessages(trigger.ID); len(messages) != 0 {
		t.Error("messages should be deleted with the trigger")
	}
}

func TestDashboardMessagesNewestFirstWithLimit(t *testing.T) {
	store, trigger := newStoreWithTrigger(t)

	for i := 0; i < 5; i++ {
		msg := &models.Message{TriggerID: trigger.ID, SenderNumber: "+1555", MessageContent: "hi"}
		if err := store.LogMessage(msg); err != nil {
			t.Fatalf("failed to log message: %v", err)
		}
	}

	messages, err := store.GetAllMessages(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(messages))
	}
	if messages[0].ID < messages[1].ID {
		t.Error("messages should be newest first")
	}
}
