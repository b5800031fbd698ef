package services

import (
	"sync"

	"github.com/leadloop/trigger-backend/internal/models"
	"github.com/leadloop/trigger-backend/internal/storage"
)

// QuestionCatalog is a read-through cache of each trigger's ordered question
// sequence. The catalog is read on every inbound turn but edited rarely, so
// handlers invalidate on question create and trigger delete. A turn always
// works with whatever sequence it read; staleness within a turn is fine.
type QuestionCatalog struct {
	store storage.Store

	mu    sync.RWMutex
	cache map[uint][]*models.LeadQuestion
}

// NewQuestionCatalog creates a catalog backed by the given store.
func NewQuestionCatalog(store storage.Store) *QuestionCatalog {
	return &QuestionCatalog{
		store: store,
		cache: make(map[uint][]*models.LeadQuestion),
	}
}

// Questions returns the trigger's question sequence, ordered by order_index
// then creation order.
func (c *QuestionCatalog) Questions(triggerID uint) ([]*models.LeadQuestion, error) {
	c.mu.RLock()
	questions, ok := c.cache[triggerID]
	c.mu.RUnlock()
	if ok {
		return questions, nil
	}

	questions, err := c.store.GetQuestions(triggerID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[triggerID] = questions
	c.mu.Unlock()

	return questions, nil
}

// Invalidate drops the cached sequence for a trigger. Call after any
// question edit or when the trigger is deleted.
func (c *QuestionCatalog) Invalidate(triggerID uint) {
	c.mu.Lock()
	delete(c.cache, triggerID)
	c.mu.Unlock()
}
