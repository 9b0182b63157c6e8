// Package submission owns conversation persistence and the graded-once
// contract: a conversation is graded exactly once and re-submission
// returns the stored result unchanged.
package submission

import (
	"context"
	"errors"

	"github.com/clin-sim/clinsim-grader/internal/grading"
)

const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
)

var (
	ErrNotFound         = errors.New("conversation not found")
	ErrNoSubmission     = errors.New("no submission for conversation")
	ErrAlreadySubmitted = errors.New("conversation already submitted")
	ErrForbidden        = errors.New("conversation belongs to another user")
)

// Conversation is an ordered, append-only message list. Once submitted it
// is frozen; AppendMessage and SetSupplementalInput reject further writes.
type Conversation struct {
	ID                 string            `json:"id"`
	UserID             string            `json:"user_id"`
	CaseID             string            `json:"case_id"`
	Status             string            `json:"status"`
	Messages           []grading.Message `json:"messages"`
	SupplementalInputs map[string]string `json:"supplemental_inputs,omitempty"`
	StartedAt          int64             `json:"started_at"`
	SubmittedAt        *int64            `json:"submitted_at,omitempty"`
}

// Submission is the stored grading outcome. ResultJSON holds the complete
// GradingResult exactly as first computed.
type Submission struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Score          int    `json:"score"`
	Feedback       string `json:"feedback"`
	ResultJSON     string `json:"-"`
	CreatedAt      int64  `json:"created_at"`
}

type Store interface {
	CreateConversation(ctx context.Context, userID, caseID string) (Conversation, error)
	GetConversation(ctx context.Context, id string) (Conversation, error)
	AppendMessage(ctx context.Context, id string, m grading.Message) (Conversation, error)
	SetSupplementalInput(ctx context.Context, id, key, text string) (Conversation, error)
	MarkSubmitted(ctx context.Context, id string, at int64) error

	GetSubmission(ctx context.Context, conversationID string) (Submission, error)
	PutSubmission(ctx context.Context, sub Submission) error
}
