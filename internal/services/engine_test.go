package services

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/leadloop/trigger-backend/internal/models"
	"github.com/leadloop/trigger-backend/internal/storage"
)

// newTestEngine builds an engine over a fresh memory store with one active
// trigger and the given questions.
func newTestEngine(t *testing.T, questions ...*models.LeadQuestion) (*ConversationEngine, *storage.MemoryStore, *models.Trigger) {
	t.Helper()

	store := storage.NewMemoryStore()
	trigger, err := store.CreateTrigger(&models.TriggerRegistration{
		BusinessName: "Acme Plumbing",
		AppID:        "app-1",
		PhoneID:      "phone-1",
		AccessToken:  "token-1",
	}, "https://example.test")
	if err != nil {
		t.Fatalf("failed to create trigger: %v", err)
	}
	if err := store.UpdateTriggerStatus(trigger.ID, models.TriggerStatusActive); err != nil {
		t.Fatalf("failed to activate trigger: %v", err)
	}

	for _, q := range questions {
		q.TriggerID = trigger.ID
		if _, err := store.CreateQuestion(q); err != nil {
			t.Fatalf("failed to create question: %v", err)
		}
	}

	engine := NewConversationEngine(store, NewQuestionCatalog(store))
	return engine, store, trigger
}

func textQuestion(text string, order int) *models.LeadQuestion {
	return &models.LeadQuestion{
		QuestionText: text,
		QuestionType: models.QuestionTypeText,
		OrderIndex:   order,
	}
}

func choiceQuestion(text string, order int, options string) *models.LeadQuestion {
	return &models.LeadQuestion{
		QuestionText: text,
		QuestionType: models.QuestionTypeMultipleChoice,
		Options:      options,
		OrderIndex:   order,
	}
}

func TestFirstContactCreatesLeadAndWelcomes(t *testing.T) {
	engine, store, trigger := newTestEngine(t, textQuestion("Name?", 0))

	directive, err := engine.HandleInbound(trigger, "+1555", "Alice", InboundEvent{Text: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if directive == nil || directive.Kind != DirectiveWelcome {
		t.Fatalf("expected welcome directive, got %+v", directive)
	}

	lead, err := store.GetLead(trigger.ID, "+1555")
	if err != nil {
		t.Fatalf("lead not created: %v", err)
	}
	if lead.CurrentQuestion != 0 {
		t.Errorf("new lead cursor = %d, want 0", lead.CurrentQuestion)
	}
	if lead.Status != models.LeadStatusActive {
		t.Errorf("new lead status = %q, want active", lead.Status)
	}
	if got := lead.ResponseMap(); len(got) != 0 {
		t.Errorf("new lead responses = %v, want empty", got)
	}
	if lead.ContactName != "Alice" {
		t.Errorf("contact name = %q, want Alice", lead.ContactName)
	}
}

func TestStartButtonAsksFirstQuestion(t *testing.T) {
	engine, store, trigger := newTestEngine(t, textQuestion("Name?", 0), textQuestion("Budget?", 1))

	// First contact creates the lead
	if _, err := engine.HandleInbound(trigger, "+1555", "", InboundEvent{Text: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	directive, err := engine.HandleInbound(trigger, "+1555", "", InboundEvent{
		ButtonID:    ButtonStartLeadGeneration,
		ButtonTitle: "📋 Get Started",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if directive == nil || directive.Kind != DirectiveQuestion {
		t.Fatalf("expected question directive, got %+v", directive)
	}
	if directive.Question.QuestionText != "Name?" {
		t.Errorf("asked %q, want first question", directive.Question.QuestionText)
	}

	// The start button never records an answer
	lead, _ := store.GetLead(trigger.ID, "+1555")
	if got := lead.ResponseMap(); len(got) != 0 {
		t.Errorf("responses after start button = %v, want empty", got)
	}
}

func TestStartButtonWithoutQuestions(t *testing.T) {
	engine, store, trigger := newTestEngine(t)

	if _, err := engine.HandleInbound(trigger, "+1555", "", InboundEvent{Text: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before, _ := store.GetLead(trigger.ID, "+1555")

	directive, err := engine.HandleInbound(trigger, "+1555", "", InboundEvent{
		ButtonID:    ButtonStartLeadGeneration,
		ButtonTitle: "📋 Get Started",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if directive == nil || directive.Kind != DirectivePlainText {
		t.Fatalf("expected plain-text directive, got %+v", directive)
	}
	if directive.Text != msgNoQuestions {
		t.Errorf("text = %q, want the no-questions apology", directive.Text)
	}

	after, _ := store.GetLead(trigger.ID, "+1555")
	if after.UpdatedAt != before.UpdatedAt || after.CurrentQuestion != before.CurrentQuestion {
		t.Error("start button with no questions must not mutate the lead")
	}
}

func TestInfoButtonsDoNotMutateLead(t *testing.T) {
	engine, store, trigger := newTestEngine(t, textQuestion("Name?", 0))

	if _, err := engine.HandleInbound(trigger, "+1555", "", InboundEvent{Text: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, buttonID := range []string{ButtonViewServices, ButtonContactSupport} {
		directive, err := engine.HandleInbound(trigger, "+1555", "", InboundEvent{
			ButtonID:    buttonID,
			ButtonTitle: "whatever",
		})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", buttonID, err)
		}
		if directive == nil || directive.Kind != DirectivePlainText {
			t.Fatalf("%s: expected plain-text directive, got %+v", buttonID, directive)
		}

		lead, _ := store.GetLead(trigger.ID, "+1555")
		if lead.CurrentQuestion != 0 || len(lead.ResponseMap()) != 0 {
			t.Errorf("%s mutated the lead: %+v", buttonID, lead)
		}
	}
}

func TestAnswerAdvancesCursorAndRecordsResponse(t *testing.T) {
	engine, store, trigger := newTestEngine(t, textQuestion("Name?", 0), textQuestion("City?", 1))

	if _, err := engine.HandleInbound(trigger, "+1555", "", InboundEvent{Text: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	directive, err := engine.HandleInbound(trigger, "+1555", "", InboundEvent{Text: "Alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if directive == nil || directive.Kind != DirectiveQuestion || directive.Question.QuestionText != "City?" {
		t.Fatalf("expected next question directive, got %+v", directive)
	}

	lead, _ := store.GetLead(trigger.ID, "+1555")
	if lead.CurrentQuestion != 1 {
		t.Errorf("cursor = %d, want 1", lead.CurrentQuestion)
	}
	responses := lead.ResponseMap()
	if len(responses) != 1 || responses["q1"] != "Alice" {
		t.Errorf("responses = %v, want {q1: Alice}", responses)
	}
	if lead.Status != models.LeadStatusActive {
		t.Errorf("status = %q, want active", lead.Status)
	}
}

func TestLastAnswerCompletesLead(t *testing.T) {
	engine, store, trigger := newTestEngine(t, textQuestion("Name?", 0))

	if _, err := engine.HandleInbound(trigger, "+1555", "", InboundEvent{Text: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	directive, err := engine.HandleInbound(trigger, "+1555", "", InboundEvent{Text: "Alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if directive == nil || directive.Kind != DirectiveCompletion {
		t.Fatalf("expected completion directive, got %+v", directive)
	}

	lead, _ := store.GetLead(trigger.ID, "+1555")
	if !lead.IsCompleted() {
		t.Errorf("status = %q, want completed", lead.Status)
	}
	if lead.CurrentQuestion != 1 {
		t.Errorf("cursor = %d, want 1", lead.CurrentQuestion)
	}
}

func TestCompletedLeadIsNoOp(t *testing.T) {
	engine, store, trigger := newTestEngine(t, textQuestion("Name?", 0))

	if _, err := engine.HandleInbound(trigger, "+1555", "", InboundEvent{Text: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := engine.HandleInbound(trigger, "+1555", "", InboundEvent{Text: "Alice"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before, _ := store.GetLead(trigger.ID, "+1555")

	directive, err := engine.HandleInbound(trigger, "+1555", "", InboundEvent{Text: "anything else"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if directive != nil {
		t.Fatalf("expected no directive for completed lead, got %+v", directive)
	}

	after, _ := store.GetLead(trigger.ID, "+1555")
	if after.CurrentQuestion != before.CurrentQuestion || after.Responses != before.Responses || after.Status != before.Status {
		t.Errorf("completed lead mutated: before %+v after %+v", before, after)
	}
}

func TestStartButtonRestartsCompletedLead(t *testing.T) {
	engine, store, trigger := newTestEngine(t, textQuestion("Name?", 0))

	if _, err := engine.HandleInbound(trigger, "+1555", "", InboundEvent{Text: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := engine.HandleInbound(trigger, "+1555", "", InboundEvent{Text: "Alice"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	directive, err := engine.HandleInbound(trigger, "+1555", "", InboundEvent{
		ButtonID:    ButtonStartLeadGeneration,
		ButtonTitle: "📋 Get Started",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if directive == nil || directive.Kind != DirectiveQuestion {
		t.Fatalf("expected question directive after restart, got %+v", directive)
	}

	lead, _ := store.GetLead(trigger.ID, "+1555")
	if lead.CurrentQuestion != 0 {
		t.Errorf("cursor after restart = %d, want 0", lead.CurrentQuestion)
	}
	if lead.Status != models.LeadStatusActive {
		t.Errorf("status after restart = %q, want active", lead.Status)
	}
}

func TestConcurrentAnswersNeverLoseAnUpdate(t *testing.T) {
	engine, store, trigger := newTestEngine(t, textQuestion("Name?", 0), textQuestion("City?", 1))

	if _, err := engine.HandleInbound(trigger, "+1555", "", InboundEvent{Text: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := engine.HandleInbound(trigger, "+1555", "", InboundEvent{Text: fmt.Sprintf("answer %d", n)})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// Serialization means both answers land: one on each question
	lead, _ := store.GetLead(trigger.ID, "+1555")
	if lead.CurrentQuestion != 2 {
		t.Errorf("cursor = %d, want 2 (one answer was lost)", lead.CurrentQuestion)
	}
	if got := lead.ResponseMap(); len(got) != 2 {
		t.Errorf("responses = %v, want two entries", got)
	}
	if !lead.IsCompleted() {
		t.Errorf("status = %q, want completed", lead.Status)
	}
}

// TestQualificationScenario walks the complete two-question flow: welcome,
// start button, open answer, multiple-choice answer, completion.
func TestQualificationScenario(t *testing.T) {
	engine, store, trigger := newTestEngine(t,
		textQuestion("Name?", 0),
		choiceQuestion("Budget?", 1, `["<1k","1k-5k",">5k"]`),
	)

	// "hi" from a fresh number
	directive, err := engine.HandleInbound(trigger, "+1555", "Alice", InboundEvent{Text: "hi"})
	if err != nil {
		t.Fatalf("step 1: %v", err)
	}
	if directive.Kind != DirectiveWelcome {
		t.Fatalf("step 1: got %s, want welcome", directive.Kind)
	}

	// Start button
	directive, err = engine.HandleInbound(trigger, "+1555", "Alice", InboundEvent{
		ButtonID:    ButtonStartLeadGeneration,
		ButtonTitle: "📋 Get Started",
	})
	if err != nil {
		t.Fatalf("step 2: %v", err)
	}
	if directive.Kind != DirectiveQuestion || directive.Question.QuestionText != "Name?" {
		t.Fatalf("step 2: got %+v, want Name? question", directive)
	}

	// Open answer
	directive, err = engine.HandleInbound(trigger, "+1555", "Alice", InboundEvent{Text: "Alice"})
	if err != nil {
		t.Fatalf("step 3: %v", err)
	}
	if directive.Kind != DirectiveQuestion || directive.Question.QuestionText != "Budget?" {
		t.Fatalf("step 3: got %+v, want Budget? question", directive)
	}
	rendered := directive.Render(trigger, "+1555")
	if rendered.Interactive == nil || len(rendered.Interactive.Action.Buttons) != 3 {
		t.Fatalf("step 3: budget question should render 3 buttons, got %+v", rendered)
	}

	// Multiple-choice answer
	directive, err = engine.HandleInbound(trigger, "+1555", "Alice", InboundEvent{Text: "1k-5k"})
	if err != nil {
		t.Fatalf("step 4: %v", err)
	}
	if directive.Kind != DirectiveCompletion {
		t.Fatalf("step 4: got %s, want completion", directive.Kind)
	}

	lead, _ := store.GetLead(trigger.ID, "+1555")
	responses := lead.ResponseMap()
	if responses["q1"] != "Alice" || responses["q2"] != "1k-5k" {
		t.Errorf("responses = %v, want {q1: Alice, q2: 1k-5k}", responses)
	}
	if !lead.IsCompleted() {
		t.Errorf("status = %q, want completed", lead.Status)
	}

	// The completion renders with the default template and business name
	completion := directive.Render(trigger, "+1555")
	if completion.Text == nil {
		t.Fatal("completion should render as text")
	}
	if want := "Acme Plumbing"; !strings.Contains(completion.Text.Body, want) {
		t.Errorf("completion text should mention %q, got %q", want, completion.Text.Body)
	}
}

func TestButtonReplyRecordedAsTitle(t *testing.T) {
	engine, store, trigger := newTestEngine(t, choiceQuestion("Budget?", 0, `["<1k","1k-5k"]`))

	if _, err := engine.HandleInbound(trigger, "+1555", "", InboundEvent{Text: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A question-option button reply is treated as the answer text
	_, err := engine.HandleInbound(trigger, "+1555", "", InboundEvent{
		ButtonID:    "q1_option_1",
		ButtonTitle: "1k-5k",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lead, _ := store.GetLead(trigger.ID, "+1555")
	if got := lead.ResponseMap()["q1"]; got != "1k-5k" {
		t.Errorf("recorded answer = %q, want the button title", got)
	}
}
