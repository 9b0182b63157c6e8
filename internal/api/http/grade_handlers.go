package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/clin-sim/clinsim-grader/internal/auth/middleware"
	"github.com/clin-sim/clinsim-grader/internal/casefile"
	"github.com/clin-sim/clinsim-grader/internal/grading"
	"github.com/clin-sim/clinsim-grader/internal/submission"
)

// POST /conversations/{conversationID}/submit
// First call grades and stores; later calls return the stored result.
func SubmitConversationHandler(svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "conversationID")
		result, err := svc.Submit(r.Context(), id, auth.SubjectFrom(r.Context()))
		if err != nil {
			if errors.Is(err, casefile.ErrNotFound) {
				http.Error(w, "case or grading rubric not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), storeStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(result)
	}
}

// GET /conversations/{conversationID}/result
func GetResultHandler(svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "conversationID")
		result, err := svc.Result(r.Context(), id, auth.SubjectFrom(r.Context()))
		if err != nil {
			http.Error(w, err.Error(), storeStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(result)
	}
}

type gradeReq struct {
	CaseID             string            `json:"case_id"`
	Conversation       []grading.Message `json:"conversation"`
	SupplementalInputs map[string]string `json:"supplemental_inputs,omitempty"`
}

// POST /grade — stateless grading for tooling and rubric calibration; no
// result is stored.
func GradeHandler(cases submission.CaseSource, engine submission.Grader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gradeReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.CaseID == "" || req.Conversation == nil {
			http.Error(w, "case_id and conversation are required", http.StatusBadRequest)
			return
		}
		caseData, err := cases.LoadCase(req.CaseID)
		if err != nil {
			if errors.Is(err, casefile.ErrNotFound) {
				http.Error(w, "case or grading rubric not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		gradingData, err := cases.LoadGrading(req.CaseID)
		if err != nil {
			if errors.Is(err, casefile.ErrNotFound) {
				http.Error(w, "case or grading rubric not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		result := engine.Grade(r.Context(), grading.GradeInput{
			Case:               caseData.Info(),
			Grading:            gradingData,
			Conversation:       req.Conversation,
			SupplementalInputs: req.SupplementalInputs,
		})
		_ = json.NewEncoder(w).Encode(result)
	}
}
