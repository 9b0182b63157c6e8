package grading

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var validateWhitelist = []Criterion{
	{ID: "intro", Points: 2},
	{ID: "onset", Points: 4},
	{ID: "zero", Points: 0},
}

func TestValidateJudgePayloadMetOverridesEarned(t *testing.T) {
	raw := &RawJudgePayload{Results: []RawJudgeRow{
		{ID: "intro", Status: "met", EarnedPoints: float64(0)},
	}}
	ok, results, _ := ValidateJudgePayload(raw, validateWhitelist)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got := results["intro"].EarnedPoints; got != 2 {
		t.Fatalf("met earned = %g, want full 2", got)
	}
}

func TestValidateJudgePayloadNotMetZeroes(t *testing.T) {
	raw := &RawJudgePayload{Results: []RawJudgeRow{
		{ID: "onset", Status: "not met", EarnedPoints: float64(4)},
	}}
	ok, results, _ := ValidateJudgePayload(raw, validateWhitelist)
	if !ok {
		t.Fatalf("expected ok")
	}
	r := results["onset"]
	if r.Status != StatusNotMet || r.EarnedPoints != 0 {
		t.Fatalf("not_met result = %+v", r)
	}
}

func TestValidateJudgePayloadPartialCredit(t *testing.T) {
	cases := []struct {
		name   string
		earned any
		want   float64
	}{
		{"absent earned gets midpoint", nil, 2},
		{"in range kept", float64(3), 3},
		{"above max clamped then midpoint", float64(9), 2},
		{"zero forced to midpoint", float64(0), 2},
		{"string number parsed", "1.5", 1.5},
	}
	for _, tc := range cases {
		raw := &RawJudgePayload{Results: []RawJudgeRow{
			{ID: "onset", Status: "partial", EarnedPoints: tc.earned},
		}}
		ok, results, _ := ValidateJudgePayload(raw, validateWhitelist)
		if !ok {
			t.Fatalf("%s: expected ok", tc.name)
		}
		if got := results["onset"].EarnedPoints; got != tc.want {
			t.Fatalf("%s: earned = %g, want %g", tc.name, got, tc.want)
		}
	}
}

func TestValidateJudgePayloadDropsUnknownAndInvalid(t *testing.T) {
	raw := &RawJudgePayload{Results: []RawJudgeRow{
		{ID: "not_in_rubric", Status: "met"},
		{ID: "intro", Status: "absolutely nailed it"},
		{ID: "onset", Status: "Partially Met"},
	}}
	ok, results, diags := ValidateJudgePayload(raw, validateWhitelist)
	if !ok {
		t.Fatalf("expected ok; one valid row remains")
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 surviving result, got %v", results)
	}
	if results["onset"].Status != StatusPartiallyMet {
		t.Fatalf("status = %q", results["onset"].Status)
	}
	if len(diags) != 2 {
		t.Fatalf("expected 2 diags, got %v", diags)
	}
}

func TestValidateJudgePayloadCapsEvidenceAndRationale(t *testing.T) {
	long := strings.Repeat("x", 500)
	raw := &RawJudgePayload{Results: []RawJudgeRow{
		{
			ID:        "intro",
			Status:    "met",
			Evidence:  []any{"a quote", long, "another", "dropped fourth", "dropped fifth"},
			Rationale: long,
		},
	}}
	ok, results, _ := ValidateJudgePayload(raw, validateWhitelist)
	if !ok {
		t.Fatalf("expected ok")
	}
	r := results["intro"]
	if len(r.Evidence) != maxEvidenceItems {
		t.Fatalf("evidence count = %d, want %d", len(r.Evidence), maxEvidenceItems)
	}
	if len(r.Evidence[1]) != maxEvidenceLen {
		t.Fatalf("evidence item not truncated: %d chars", len(r.Evidence[1]))
	}
	if len(r.Rationale) != maxRationaleLen {
		t.Fatalf("rationale not truncated: %d chars", len(r.Rationale))
	}
}

func TestValidateJudgePayloadNilOrEmpty(t *testing.T) {
	if ok, _, diags := ValidateJudgePayload(nil, validateWhitelist); ok || len(diags) == 0 {
		t.Fatalf("nil payload must be rejected with a diag")
	}
	if ok, _, _ := ValidateJudgePayload(&RawJudgePayload{}, validateWhitelist); ok {
		t.Fatalf("payload with no usable rows must report ok=false")
	}
}

func TestNormalizeStatusSpellings(t *testing.T) {
	cases := map[string]string{
		"met":            StatusMet,
		"YES":            StatusMet,
		"Not Met":        StatusNotMet,
		"missed":         StatusNotMet,
		"no":             StatusNotMet,
		"partial":        StatusPartiallyMet,
		"Partially-Met":  StatusPartiallyMet,
		"partially_met":  StatusPartiallyMet,
		"superb":         "",
		"":               "",
		"met but barely": "",
	}
	for in, want := range cases {
		if got := normalizeStatus(in); got != want {
			t.Fatalf("normalizeStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCoerceStringList(t *testing.T) {
	got := coerceStringList([]any{" a ", "", float64(3), true})
	want := []string{"a", "3", "true"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("coerceStringList mismatch (-want +got):\n%s", diff)
	}
	if got := coerceStringList("solo"); len(got) != 1 || got[0] != "solo" {
		t.Fatalf("scalar coercion = %v", got)
	}
	if got := coerceStringList(nil); got != nil {
		t.Fatalf("nil coercion = %v", got)
	}
}
