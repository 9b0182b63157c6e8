package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/clin-sim/clinsim-grader/internal/casefile"
	"github.com/clin-sim/clinsim-grader/internal/grading"
)

// CaseSource supplies the per-case documents grading needs.
type CaseSource interface {
	LoadCase(caseID string) (*casefile.Case, error)
	LoadGrading(caseID string) (*grading.GradingConfig, error)
}

// Grader is satisfied by *grading.Engine.
type Grader interface {
	Grade(ctx context.Context, in grading.GradeInput) grading.GradingResult
}

// Service enforces the grade-once contract around the engine: the first
// submit grades and stores, every later submit returns the stored result
// without touching the judge again.
type Service struct {
	store  Store
	cases  CaseSource
	engine Grader
	events *EventRepo // optional
}

func NewService(store Store, cases CaseSource, engine Grader, events *EventRepo) *Service {
	return &Service{store: store, cases: cases, engine: engine, events: events}
}

// Submit grades the conversation, or returns the previously stored result
// when it was graded before. userID, when non-empty, must own the
// conversation.
func (s *Service) Submit(ctx context.Context, conversationID, userID string) (grading.GradingResult, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return grading.GradingResult{}, err
	}
	if userID != "" && conv.UserID != userID {
		return grading.GradingResult{}, ErrForbidden
	}

	if sub, err := s.store.GetSubmission(ctx, conversationID); err == nil {
		return decodeResult(sub)
	} else if !errors.Is(err, ErrNoSubmission) {
		return grading.GradingResult{}, err
	}

	caseData, err := s.cases.LoadCase(conv.CaseID)
	if err != nil {
		return grading.GradingResult{}, fmt.Errorf("load case %s: %w", conv.CaseID, err)
	}
	gradingData, err := s.cases.LoadGrading(conv.CaseID)
	if err != nil {
		return grading.GradingResult{}, fmt.Errorf("load grading %s: %w", conv.CaseID, err)
	}

	result := s.engine.Grade(ctx, grading.GradeInput{
		Case:               caseData.Info(),
		Grading:            gradingData,
		Conversation:       conv.Messages,
		SupplementalInputs: conv.SupplementalInputs,
	})

	buf, err := json.Marshal(result)
	if err != nil {
		return grading.GradingResult{}, err
	}
	now := time.Now().Unix()
	sub := Submission{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Score:          result.Score,
		Feedback:       result.Feedback,
		ResultJSON:     string(buf),
		CreatedAt:      now,
	}
	if err := s.store.PutSubmission(ctx, sub); err != nil {
		return grading.GradingResult{}, err
	}
	if err := s.store.MarkSubmitted(ctx, conv.ID, now); err != nil {
		return grading.GradingResult{}, err
	}
	if s.events != nil {
		if err := s.events.Append(ctx, Event{Type: EventSubmissionGraded, Key: conv.ID, DataJSON: sub.ResultJSON}); err != nil {
			log.Printf("submission: event log append failed: %v", err)
		}
	}
	return result, nil
}

// Result returns the stored grading result without ever grading.
func (s *Service) Result(ctx context.Context, conversationID, userID string) (grading.GradingResult, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return grading.GradingResult{}, err
	}
	if userID != "" && conv.UserID != userID {
		return grading.GradingResult{}, ErrForbidden
	}
	sub, err := s.store.GetSubmission(ctx, conversationID)
	if err != nil {
		return grading.GradingResult{}, err
	}
	return decodeResult(sub)
}

func decodeResult(sub Submission) (grading.GradingResult, error) {
	var res grading.GradingResult
	if err := json.Unmarshal([]byte(sub.ResultJSON), &res); err != nil {
		return grading.GradingResult{}, fmt.Errorf("stored result for %s is unreadable: %w", sub.ConversationID, err)
	}
	return res, nil
}
