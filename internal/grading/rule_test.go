package grading

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEvaluateRuleAll(t *testing.T) {
	rule := &Rule{All: StringList{"fever", "chills"}}

	got := EvaluateRule(NormalizeText("Patient reports fever and chills"), rule)
	if !got.Matched {
		t.Fatalf("expected match when every keyword is present")
	}
	if diff := cmp.Diff([]string{"fever", "chills"}, got.Evidence); diff != "" {
		t.Fatalf("evidence mismatch (-want +got):\n%s", diff)
	}

	got = EvaluateRule(NormalizeText("Patient reports fever"), rule)
	if got.Matched {
		t.Fatalf("expected no match when an all keyword is missing")
	}
	if len(got.Evidence) != 0 {
		t.Fatalf("failed rule must not carry evidence, got %v", got.Evidence)
	}
}

func TestEvaluateRuleAny(t *testing.T) {
	rule := &Rule{Any: StringList{"headache", "migraine", "head pain", "pounding head"}}

	got := EvaluateRule("i have a migraine and head pain and a pounding head all day", rule)
	if !got.Matched {
		t.Fatalf("expected match")
	}
	// at most 3 any-matches recorded
	if len(got.Evidence) != 3 {
		t.Fatalf("expected 3 evidence entries, got %v", got.Evidence)
	}

	if got := EvaluateRule("no relevant complaint", rule); got.Matched {
		t.Fatalf("expected no match")
	}
}

func TestEvaluateRuleGroupsAllRequired(t *testing.T) {
	rule := &Rule{Groups: [][]string{
		{"when did", "how long", "onset"},
		{"how bad", "severity", "scale of"},
	}}

	got := EvaluateRule("when did it start and how bad is it", rule)
	if !got.Matched {
		t.Fatalf("expected match with one hit per group")
	}
	if diff := cmp.Diff([]string{"when did", "how bad"}, got.Evidence); diff != "" {
		t.Fatalf("evidence mismatch (-want +got):\n%s", diff)
	}

	if got := EvaluateRule("when did it start", rule); got.Matched {
		t.Fatalf("expected no match when a group has no hit")
	}
}

func TestEvaluateRuleGroupsThreshold(t *testing.T) {
	min := 2
	rule := &Rule{
		MinGroupsMatched: &min,
		Groups: [][]string{
			{"onset"},
			{"severity"},
			{"radiation"},
		},
	}

	if got := EvaluateRule("asked about onset and severity", rule); !got.Matched {
		t.Fatalf("expected match with 2 of 3 groups")
	}
	if got := EvaluateRule("asked about onset only", rule); got.Matched {
		t.Fatalf("expected no match with 1 of 3 groups")
	}
}

func TestEvaluateRuleEmptyFailsClosed(t *testing.T) {
	if got := EvaluateRule("anything at all", &Rule{}); got.Matched {
		t.Fatalf("rule with no keywords must never match")
	}
	if got := EvaluateRule("anything at all", nil); got.Matched {
		t.Fatalf("nil rule must never match")
	}
}

func TestEvaluateRuleEvidenceDedupedAndCapped(t *testing.T) {
	rule := &Rule{
		All: StringList{"pain", "pain"},
		Any: StringList{"pain", "ache", "sore", "hurt"},
		Groups: [][]string{
			{"pain"},
			{"ache"},
			{"sore"},
		},
	}
	got := EvaluateRule("pain ache sore hurt", rule)
	if !got.Matched {
		t.Fatalf("expected match")
	}
	if len(got.Evidence) > 5 {
		t.Fatalf("evidence must be capped at 5, got %d", len(got.Evidence))
	}
	seen := map[string]bool{}
	for _, e := range got.Evidence {
		if seen[e] {
			t.Fatalf("duplicate evidence %q", e)
		}
		seen[e] = true
	}
}
