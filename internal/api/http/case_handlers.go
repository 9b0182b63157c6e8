package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clin-sim/clinsim-grader/internal/casefile"
)

// GET /cases
func ListCasesHandler(loader *casefile.Loader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cases, err := loader.ListCases()
		if err != nil {
			http.Error(w, "list cases: "+err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(cases)
	}
}

// GET /cases/{caseID} — full case document minus the hidden truth.
func GetCaseHandler(loader *casefile.Loader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "caseID")
		c, err := loader.LoadCase(id)
		if err != nil {
			if errors.Is(err, casefile.ErrNotFound) {
				http.Error(w, "case not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(c.Raw, &doc); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		delete(doc, "hidden_truth")
		_ = json.NewEncoder(w).Encode(doc)
	}
}
