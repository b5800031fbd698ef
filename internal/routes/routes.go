package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/leadloop/trigger-backend/internal/handlers"
	"github.com/leadloop/trigger-backend/internal/services"
	"github.com/leadloop/trigger-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, store storage.Store, engine *services.ConversationEngine, catalog *services.QuestionCatalog, sender services.MessageSender) {
	triggerHandler := handlers.NewTriggerHandler(store, catalog)
	questionHandler := handlers.NewQuestionHandler(store, catalog)
	leadHandler := handlers.NewLeadHandler(store)
	messageHandler := handlers.NewMessageHandler(store, sender)
	webhookHandler := handlers.NewWebhookHandler(store, engine, sender)

	// API routes
	api := app.Group("/api")

	// Trigger configuration
	triggers := api.Group("/triggers")
	triggers.Get("/", triggerHandler.GetTriggers)
	triggers.Post("/", triggerHandler.CreateTrigger)
	triggers.Post("/:id/toggle", triggerHandler.ToggleTrigger)
	triggers.Delete("/:id", triggerHandler.DeleteTrigger)
	triggers.Put("/:id/completion-message", triggerHandler.UpdateCompletionMessage)

	// Lead questions
	triggers.Get("/:id/questions", questionHandler.GetQuestions)
	triggers.Post("/:id/questions", questionHandler.CreateQuestion)

	// Leads
	triggers.Get("/:id/leads", leadHandler.GetLeads)
	triggers.Get("/:id/leads/:phone_number", leadHandler.GetLeadByPhone)
	triggers.Delete("/:id/leads/:lead_id", leadHandler.DeleteLead)
	triggers.Delete("/:id/leads", leadHandler.DeleteLeads)

	// Message log and manual sends
	triggers.Get("/:id/messages", messageHandler.GetTriggerMessages)
	triggers.Post("/:id/send", messageHandler.SendMessage)
	api.Get("/dashboard/messages", messageHandler.GetDashboardMessages)

	// ========== WEBHOOK ROUTES ==========
	// One webhook per trigger, addressed by its node_id
	app.Get("/whatsapp/:node_id", webhookHandler.VerifyWebhook)
	app.Post("/whatsapp/:node_id", webhookHandler.ReceiveWebhook)
}
