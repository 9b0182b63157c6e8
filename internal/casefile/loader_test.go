package casefile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/clin-sim/clinsim-grader/internal/storage"
)

func newTestLoader(t *testing.T, files map[string]string) *Loader {
	t.Helper()
	base := t.TempDir()
	for name, body := range files {
		path := filepath.Join(base, "cases", name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	bs, err := storage.NewFSStore(base)
	if err != nil {
		t.Fatalf("fs store: %v", err)
	}
	return NewLoader(bs)
}

func TestLoadCase(t *testing.T) {
	l := newTestLoader(t, map[string]string{
		"chest_pain.json": `{
			"case_id": "chest_pain",
			"display_title": "Chest Pain",
			"hidden_truth": {"red_flags": ["diaphoresis"]},
			"patient_profile": {"age": 54}
		}`,
	})

	c, err := l.LoadCase("chest_pain")
	if err != nil {
		t.Fatalf("LoadCase: %v", err)
	}
	if c.CaseID != "chest_pain" || c.DisplayTitle != "Chest Pain" {
		t.Fatalf("case = %+v", c)
	}
	info := c.Info()
	if diff := cmp.Diff([]string{"diaphoresis"}, info.RedFlags); diff != "" {
		t.Fatalf("red flags mismatch (-want +got):\n%s", diff)
	}
	if len(c.Raw) == 0 {
		t.Fatalf("raw document not retained")
	}
}

func TestLoadCaseDefaultsIDFromFilename(t *testing.T) {
	l := newTestLoader(t, map[string]string{"anon.json": `{}`})
	c, err := l.LoadCase("anon")
	if err != nil {
		t.Fatalf("LoadCase: %v", err)
	}
	if c.CaseID != "anon" {
		t.Fatalf("case id = %q", c.CaseID)
	}
}

func TestLoadCaseNotFound(t *testing.T) {
	l := newTestLoader(t, nil)
	if _, err := l.LoadCase("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if _, err := l.LoadGrading("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("grading err = %v", err)
	}
}

func TestLoadGrading(t *testing.T) {
	l := newTestLoader(t, map[string]string{
		"chest_pain_grading.json": `{
			"rubric": {
				"criteria": [{"id": "intro", "points": 1, "rule": {"any": ["my name is"]}}]
			}
		}`,
	})
	cfg, err := l.LoadGrading("chest_pain")
	if err != nil {
		t.Fatalf("LoadGrading: %v", err)
	}
	if !cfg.Rubric.HasCriteria() {
		t.Fatalf("rubric criteria not decoded: %+v", cfg)
	}
}

func TestListCases(t *testing.T) {
	l := newTestLoader(t, map[string]string{
		"zeta.json":           `{"display_title": "Zeta"}`,
		"alpha.json":          `{"case_id": "alpha", "display_title": "Alpha"}`,
		"alpha_grading.json":  `{}`,
		"notes.txt":           "not a case",
		"nested/ignored.json": `{}`,
	})

	got, err := l.ListCases()
	if err != nil {
		t.Fatalf("ListCases: %v", err)
	}
	want := []Summary{
		{CaseID: "alpha", Title: "Alpha"},
		{CaseID: "zeta", Title: "Zeta"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("summaries mismatch (-want +got):\n%s", diff)
	}
}
