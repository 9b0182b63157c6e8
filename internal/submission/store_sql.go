package submission

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clin-sim/clinsim-grader/internal/grading"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) CreateConversation(ctx context.Context, userID, caseID string) (Conversation, error) {
	c := Conversation{
		ID:                 uuid.NewString(),
		UserID:             userID,
		CaseID:             caseID,
		Status:             StatusInProgress,
		Messages:           []grading.Message{},
		SupplementalInputs: map[string]string{},
		StartedAt:          time.Now().Unix(),
	}
	mj, _ := json.Marshal(c.Messages)
	sj, _ := json.Marshal(c.SupplementalInputs)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id,user_id,case_id,status,messages_json,supplemental_json,started_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		c.ID, c.UserID, c.CaseID, c.Status, string(mj), string(sj), c.StartedAt)
	if err != nil {
		return Conversation{}, err
	}
	return c, nil
}

func (s *SQLStore) GetConversation(ctx context.Context, id string) (Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,user_id,case_id,status,messages_json,supplemental_json,started_at,submitted_at
		 FROM conversations WHERE id=$1`, id)
	var c Conversation
	var mjson, sjson string
	var submittedAt sql.NullInt64
	if err := row.Scan(&c.ID, &c.UserID, &c.CaseID, &c.Status, &mjson, &sjson, &c.StartedAt, &submittedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Conversation{}, ErrNotFound
		}
		return Conversation{}, err
	}
	if err := json.Unmarshal([]byte(mjson), &c.Messages); err != nil {
		c.Messages = []grading.Message{}
	}
	if err := json.Unmarshal([]byte(sjson), &c.SupplementalInputs); err != nil {
		c.SupplementalInputs = map[string]string{}
	}
	if submittedAt.Valid {
		v := submittedAt.Int64
		c.SubmittedAt = &v
	}
	return c, nil
}

func (s *SQLStore) AppendMessage(ctx context.Context, id string, m grading.Message) (Conversation, error) {
	c, err := s.GetConversation(ctx, id)
	if err != nil {
		return Conversation{}, err
	}
	if c.Status == StatusSubmitted {
		return Conversation{}, ErrAlreadySubmitted
	}
	c.Messages = append(c.Messages, m)
	buf, _ := json.Marshal(c.Messages)
	_, err = s.db.ExecContext(ctx, `UPDATE conversations SET messages_json=$1 WHERE id=$2`, string(buf), id)
	if err != nil {
		return Conversation{}, err
	}
	return c, nil
}

func (s *SQLStore) SetSupplementalInput(ctx context.Context, id, key, text string) (Conversation, error) {
	c, err := s.GetConversation(ctx, id)
	if err != nil {
		return Conversation{}, err
	}
	if c.Status == StatusSubmitted {
		return Conversation{}, ErrAlreadySubmitted
	}
	if c.SupplementalInputs == nil {
		c.SupplementalInputs = map[string]string{}
	}
	c.SupplementalInputs[key] = text
	buf, _ := json.Marshal(c.SupplementalInputs)
	_, err = s.db.ExecContext(ctx, `UPDATE conversations SET supplemental_json=$1 WHERE id=$2`, string(buf), id)
	if err != nil {
		return Conversation{}, err
	}
	return c, nil
}

func (s *SQLStore) MarkSubmitted(ctx context.Context, id string, at int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET status=$1, submitted_at=$2 WHERE id=$3`,
		StatusSubmitted, at, id)
	return err
}

func (s *SQLStore) GetSubmission(ctx context.Context, conversationID string) (Submission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,conversation_id,score,feedback,result_json,created_at
		 FROM submissions WHERE conversation_id=$1`, conversationID)
	var sub Submission
	if err := row.Scan(&sub.ID, &sub.ConversationID, &sub.Score, &sub.Feedback, &sub.ResultJSON, &sub.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, ErrNoSubmission
		}
		return Submission{}, err
	}
	return sub, nil
}

func (s *SQLStore) PutSubmission(ctx context.Context, sub Submission) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (id,conversation_id,score,feedback,result_json,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		sub.ID, sub.ConversationID, sub.Score, sub.Feedback, sub.ResultJSON, sub.CreatedAt)
	return err
}
