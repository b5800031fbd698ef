package services

import (
	"fmt"
	"strings"

	"github.com/leadloop/trigger-backend/internal/models"
)

// Directive kinds
const (
	DirectiveWelcome    = "welcome"
	DirectiveQuestion   = "question"
	DirectiveCompletion = "completion"
	DirectivePlainText  = "plain_text"
)

// Fixed button IDs offered by the welcome menu
const (
	ButtonStartLeadGeneration = "start_lead_generation"
	ButtonViewServices        = "view_services"
	ButtonContactSupport      = "contact_support"
)

// WhatsApp platform limits for interactive button messages
const (
	maxInteractiveButtons = 3
	maxButtonTitleLength  = 20
)

// Fixed informational replies
const (
	msgNoQuestions    = "Sorry, no questions are configured yet. Please contact support."
	msgViewServices   = "Here are our services... (This can be customized per business)"
	msgContactSupport = "Our support team will get back to you shortly. Thank you for contacting us!"
)

// Directive is an abstract instruction to send one kind of outbound
// message. Rendering into a concrete Cloud API payload happens in Render,
// where trigger configuration (business name, completion message) is applied.
type Directive struct {
	Kind     string
	Question *models.LeadQuestion // set for DirectiveQuestion
	Text     string               // set for DirectivePlainText
}

// WelcomeDirective greets a brand new contact with the fixed three-option menu.
func WelcomeDirective() *Directive {
	return &Directive{Kind: DirectiveWelcome}
}

// QuestionDirective prompts for one question.
func QuestionDirective(question *models.LeadQuestion) *Directive {
	return &Directive{Kind: DirectiveQuestion, Question: question}
}

// CompletionDirective thanks the lead after the last answer.
func CompletionDirective() *Directive {
	return &Directive{Kind: DirectiveCompletion}
}

// PlainTextDirective sends a verbatim string.
func PlainTextDirective(text string) *Directive {
	return &Directive{Kind: DirectivePlainText, Text: text}
}

// Render converts the directive into a concrete Cloud API message for the
// given trigger and recipient. It is a pure mapping with no side effects.
func (d *Directive) Render(trigger *models.Trigger, to string) *SendMessageRequest {
	switch d.Kind {
	case DirectiveWelcome:
		body := fmt.Sprintf("Hi 👋, thanks for reaching out to %s! How can we help you today?", trigger.BusinessName)
		return NewInteractiveMessage(to, body, []ReplyButton{
			{ID: ButtonStartLeadGeneration, Title: "📋 Get Started"},
			{ID: ButtonViewServices, Title: "📌 Our Services"},
			{ID: ButtonContactSupport, Title: "📞 Talk to Us"},
		})

	case DirectiveQuestion:
		return renderQuestion(d.Question, to)

	case DirectiveCompletion:
		return NewTextMessage(to, completionText(trigger))

	case DirectivePlainText:
		return NewTextMessage(to, d.Text)
	}
	return nil
}

func renderQuestion(question *models.LeadQuestion, to string) *SendMessageRequest {
	if question.QuestionType != models.QuestionTypeMultipleChoice {
		// Open-ended questions go out as plain text
		return NewTextMessage(to, question.QuestionText)
	}

	options := question.OptionList()
	if len(options) > maxInteractiveButtons {
		options = options[:maxInteractiveButtons]
	}

	buttons := make([]ReplyButton, 0, len(options))
	for i, option := range options {
		title := option
		if runes := []rune(title); len(runes) > maxButtonTitleLength {
			title = string(runes[:maxButtonTitleLength])
		}
		buttons = append(buttons, ReplyButton{
			// The option index is encoded in the ID so a reply can be
			// correlated back to the question
			ID:    fmt.Sprintf("q%d_option_%d", question.ID, i),
			Title: title,
		})
	}

	return NewInteractiveMessage(to, question.QuestionText, buttons)
}

func completionText(trigger *models.Trigger) string {
	if strings.TrimSpace(trigger.CompletionMessage) != "" {
		return trigger.CompletionMessage
	}

	return fmt.Sprintf(`🎉 Thank you for providing all the information!

Our team at %s has received your details and will contact you within 24 hours to discuss your requirements.

We appreciate your interest and look forward to helping you!

If you have any urgent questions, feel free to message us anytime.

Best regards,
%s Team`, trigger.BusinessName, trigger.BusinessName)
}
