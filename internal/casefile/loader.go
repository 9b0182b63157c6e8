// Package casefile loads case and grading documents from the blob store.
// A case <id> lives at cases/<id>.json with its rubric or checklist at
// cases/<id>_grading.json.
package casefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/clin-sim/clinsim-grader/internal/grading"
	"github.com/clin-sim/clinsim-grader/internal/storage"
)

var ErrNotFound = errors.New("case not found")

const casesPrefix = "cases/"

// Case is the case document. Typed fields cover what grading needs; Raw
// keeps the full document for presentation callers.
type Case struct {
	CaseID       string `json:"case_id"`
	DisplayTitle string `json:"display_title"`
	HiddenTruth  struct {
		RedFlags []string `json:"red_flags"`
	} `json:"hidden_truth"`
	Raw json.RawMessage `json:"-"`
}

// Info returns the engine's read-only view of the case.
func (c *Case) Info() grading.CaseInfo {
	return grading.CaseInfo{CaseID: c.CaseID, RedFlags: c.HiddenTruth.RedFlags}
}

type Summary struct {
	CaseID string `json:"case_id"`
	Title  string `json:"title"`
}

type Loader struct {
	blobs storage.BlobStore
}

func NewLoader(blobs storage.BlobStore) *Loader { return &Loader{blobs: blobs} }

func (l *Loader) readJSON(key string, v any) error {
	rc, err := l.blobs.Get(key)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if c, ok := v.(*Case); ok {
		c.Raw = raw
	}
	return nil
}

// ListCases summarizes every case bundle, sorted by case id.
func (l *Loader) ListCases() ([]Summary, error) {
	keys, err := l.blobs.List(strings.TrimSuffix(casesPrefix, "/"))
	if err != nil {
		return nil, err
	}
	out := []Summary{}
	for _, key := range keys {
		name := strings.TrimPrefix(key, casesPrefix)
		if !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, "_grading.json") || strings.Contains(name, "/") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		var c Case
		if err := l.readJSON(key, &c); err != nil {
			return nil, err
		}
		if c.CaseID == "" {
			c.CaseID = id
		}
		title := c.DisplayTitle
		if title == "" {
			title = id
		}
		out = append(out, Summary{CaseID: c.CaseID, Title: title})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CaseID < out[j].CaseID })
	return out, nil
}

func (l *Loader) LoadCase(caseID string) (*Case, error) {
	var c Case
	if err := l.readJSON(casesPrefix+caseID+".json", &c); err != nil {
		return nil, err
	}
	if c.CaseID == "" {
		c.CaseID = caseID
	}
	return &c, nil
}

func (l *Loader) LoadGrading(caseID string) (*grading.GradingConfig, error) {
	var cfg grading.GradingConfig
	if err := l.readJSON(casesPrefix+caseID+"_grading.json", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
