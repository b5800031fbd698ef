package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/leadloop/trigger-backend/internal/models"
	"github.com/leadloop/trigger-backend/internal/services"
	"github.com/leadloop/trigger-backend/internal/storage"
)

// QuestionHandler handles lead-question configuration requests
type QuestionHandler struct {
	store   storage.Store
	catalog *services.QuestionCatalog
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(store storage.Store, catalog *services.QuestionCatalog) *QuestionHandler {
	return &QuestionHandler{
		store:   store,
		catalog: catalog,
	}
}

// GetQuestions lists a trigger's questions in ask order
func (h *QuestionHandler) GetQuestions(c *fiber.Ctx) error {
	triggerID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid trigger id",
		})
	}

	questions, err := h.store.GetQuestions(uint(triggerID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to load questions",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    questions,
	})
}

// CreateQuestion adds a question to a trigger's sequence
func (h *QuestionHandler) CreateQuestion(c *fiber.Ctx) error {
	triggerID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid trigger id",
		})
	}

	var input models.QuestionInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if input.QuestionText == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "question_text is required",
		})
	}

	options, err := json.Marshal(input.Options)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid options",
		})
	}

	isRequired := true
	if input.IsRequired != nil {
		isRequired = *input.IsRequired
	}

	question := &models.LeadQuestion{
		TriggerID:    uint(triggerID),
		QuestionText: input.QuestionText,
		QuestionType: input.QuestionType,
		Options:      string(options),
		IsRequired:   isRequired,
		OrderIndex:   input.OrderIndex,
	}

	created, err := h.store.CreateQuestion(question)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create question",
		})
	}

	// Cached sequences go stale on any edit
	h.catalog.Invalidate(uint(triggerID))

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"id": created.ID},
	})
}
