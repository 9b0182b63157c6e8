package submission

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clin-sim/clinsim-grader/internal/grading"
)

// MemoryStore is a Store for tests and single-process dev runs.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]Conversation
	submissions   map[string]Submission // keyed by conversation id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: map[string]Conversation{},
		submissions:   map[string]Submission{},
	}
}

func (m *MemoryStore) CreateConversation(_ context.Context, userID, caseID string) (Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := Conversation{
		ID:                 uuid.NewString(),
		UserID:             userID,
		CaseID:             caseID,
		Status:             StatusInProgress,
		Messages:           []grading.Message{},
		SupplementalInputs: map[string]string{},
		StartedAt:          time.Now().Unix(),
	}
	m.conversations[c.ID] = c
	return c, nil
}

func (m *MemoryStore) GetConversation(_ context.Context, id string) (Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conversations[id]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return c, nil
}

func (m *MemoryStore) AppendMessage(_ context.Context, id string, msg grading.Message) (Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	if c.Status == StatusSubmitted {
		return Conversation{}, ErrAlreadySubmitted
	}
	c.Messages = append(c.Messages, msg)
	m.conversations[id] = c
	return c, nil
}

func (m *MemoryStore) SetSupplementalInput(_ context.Context, id, key, text string) (Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	if c.Status == StatusSubmitted {
		return Conversation{}, ErrAlreadySubmitted
	}
	if c.SupplementalInputs == nil {
		c.SupplementalInputs = map[string]string{}
	}
	c.SupplementalInputs[key] = text
	m.conversations[id] = c
	return c, nil
}

func (m *MemoryStore) MarkSubmitted(_ context.Context, id string, at int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = StatusSubmitted
	c.SubmittedAt = &at
	m.conversations[id] = c
	return nil
}

func (m *MemoryStore) GetSubmission(_ context.Context, conversationID string) (Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.submissions[conversationID]
	if !ok {
		return Submission{}, ErrNoSubmission
	}
	return sub, nil
}

func (m *MemoryStore) PutSubmission(_ context.Context, sub Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions[sub.ConversationID] = sub
	return nil
}
