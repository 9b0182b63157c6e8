package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/clin-sim/clinsim-grader/internal/auth/middleware"
	"github.com/clin-sim/clinsim-grader/internal/grading"
	"github.com/clin-sim/clinsim-grader/internal/submission"
)

func storeStatus(err error) int {
	switch {
	case errors.Is(err, submission.ErrNotFound), errors.Is(err, submission.ErrNoSubmission):
		return http.StatusNotFound
	case errors.Is(err, submission.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, submission.ErrAlreadySubmitted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// POST /conversations  { "case_id": "..." }
func CreateConversationHandler(store submission.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CaseID string `json:"case_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.CaseID == "" {
			http.Error(w, "case_id required", http.StatusBadRequest)
			return
		}
		c, err := store.CreateConversation(r.Context(), auth.SubjectFrom(r.Context()), req.CaseID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(c)
	}
}

// POST /conversations/{conversationID}/messages  { "role": "...", "content": "..." }
func AppendMessageHandler(store submission.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "conversationID")
		var msg grading.Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if msg.Role == "" || msg.Content == "" {
			http.Error(w, "role and content required", http.StatusBadRequest)
			return
		}
		c, err := store.AppendMessage(r.Context(), id, msg)
		if err != nil {
			http.Error(w, err.Error(), storeStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(c)
	}
}

// POST /conversations/{conversationID}/inputs  { "key": "hpi", "text": "..." }
func SetSupplementalInputHandler(store submission.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "conversationID")
		var req struct {
			Key  string `json:"key"`
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Key == "" {
			http.Error(w, "key required", http.StatusBadRequest)
			return
		}
		c, err := store.SetSupplementalInput(r.Context(), id, req.Key, req.Text)
		if err != nil {
			http.Error(w, err.Error(), storeStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(c)
	}
}

// GET /conversations/{conversationID}
func GetConversationHandler(store submission.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "conversationID")
		c, err := store.GetConversation(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), storeStatus(err))
			return
		}
		if sub := auth.SubjectFrom(r.Context()); sub != "" && c.UserID != sub {
			http.Error(w, submission.ErrForbidden.Error(), http.StatusForbidden)
			return
		}
		_ = json.NewEncoder(w).Encode(c)
	}
}
