package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/clin-sim/clinsim-grader/internal/storage"
)

// MountAssets serves case assets (patient images and attachments) from the
// blob store.
func MountAssets(r chi.Router, bs storage.BlobStore) {
	// POST /assets/{caseID}
	r.Post("/{caseID}", func(w http.ResponseWriter, r *http.Request) {
		caseID := chi.URLParam(r, "caseID")
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		key := "assets/" + caseID + "/" + hdr.Filename
		if _, err := bs.Put(key, f); err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"key": key})
	})

	// GET /assets/*   -> returns the blob at whatever follows /assets/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		key = strings.TrimPrefix(key, "/")
		rc, err := bs.Get("assets/" + key)
		if err != nil {
			http.Error(w, "not found: "+err.Error(), http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	})
}
