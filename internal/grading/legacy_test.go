package grading

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func legacyInput() GradeInput {
	return GradeInput{
		Case: CaseInfo{
			CaseID:   "abdo_pain_legacy",
			RedFlags: []string{"Blood in stool"},
		},
		Grading: &GradingConfig{
			RequiredHistoryTopics: []string{
				"Ask about onset of pain",
				"Ask about fever history",
			},
			RequiredActions: []string{"Order abdominal ultrasound"},
			CriticalFails:   []string{"Assess allergy status"},
			Scoring: &LegacyScoring{
				HistoryTopicPoints:  30,
				ActionPoints:        40,
				CriticalFailPenalty: 20,
				PassingScore:        70,
			},
		},
		Conversation: []Message{
			{Role: "user", Content: "When was the onset of your pain? Any fever? I'll order an abdominal ultrasound. Do you have any allergy?"},
			{Role: "assistant", Content: "It started yesterday. Yes, blood in my stool."},
		},
	}
}

func TestGradeLegacyArithmetic(t *testing.T) {
	e := NewEngine()
	res := e.Grade(context.Background(), legacyInput())

	// 2 history topics x30 + 1 action x40, no penalties, clamped at 100
	if res.Score != 100 || !res.Passed {
		t.Fatalf("score = %d passed = %v", res.Score, res.Passed)
	}
	if res.EarnedPoints != nil || res.AvailablePoints != nil || res.TotalPoints != nil {
		t.Fatalf("legacy results must not carry point totals")
	}
	if len(res.CriteriaResults) != 0 || len(res.SectionScores) != 0 {
		t.Fatalf("legacy results carry empty criteria and section slices")
	}
}

func TestGradeLegacyMissesAndPenalty(t *testing.T) {
	in := legacyInput()
	in.Conversation = []Message{
		{Role: "user", Content: "When was the onset of your pain?"},
	}

	e := NewEngine()
	res := e.Grade(context.Background(), in)

	// 1 history topic x30 - 1 critical fail x20
	if res.Score != 10 {
		t.Fatalf("score = %d, want 10", res.Score)
	}
	if res.Passed {
		t.Fatalf("10%% must not pass a 70%% threshold")
	}
	if diff := cmp.Diff([]string{"Ask about fever history"}, res.MissedRequiredQuestions); diff != "" {
		t.Fatalf("missed history mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Blood in stool"}, res.MissedRedFlags); diff != "" {
		t.Fatalf("missed red flags mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Assess allergy status"}, res.CriticalFailsTriggered); diff != "" {
		t.Fatalf("critical fails mismatch (-want +got):\n%s", diff)
	}
}

func TestGradeLegacyScoreClampedAtZero(t *testing.T) {
	in := legacyInput()
	in.Conversation = []Message{{Role: "user", Content: "Hello."}}

	e := NewEngine()
	res := e.Grade(context.Background(), in)
	if res.Score != 0 {
		t.Fatalf("score = %d, want clamp to 0", res.Score)
	}
}

func TestGradeLegacyKeywordOverrides(t *testing.T) {
	in := legacyInput()
	in.Grading.KeywordOverrides = &KeywordOverrides{
		HistoryTopics: map[string]StringList{
			"ask about fever history": {"running a temperature"},
		},
	}
	in.Conversation = []Message{
		{Role: "user", Content: "When was the onset of your pain? Are you running a temperature? I'll order an abdominal ultrasound. Do you have any allergy?"},
	}

	e := NewEngine()
	res := e.Grade(context.Background(), in)
	if len(res.MissedRequiredQuestions) != 0 {
		t.Fatalf("override keywords should cover the topic, missed %v", res.MissedRequiredQuestions)
	}
}

func TestGradeLegacyPatientTextIgnored(t *testing.T) {
	in := legacyInput()
	in.Conversation = []Message{
		{Role: "assistant", Content: "When was the onset of your pain? Any fever? Order an abdominal ultrasound. Any allergy? Blood in stool."},
	}

	e := NewEngine()
	res := e.Grade(context.Background(), in)
	if res.Score != 0 {
		t.Fatalf("patient text must not earn checklist credit, score = %d", res.Score)
	}
}

func TestGradeLegacyNilGradingConfig(t *testing.T) {
	e := NewEngine()
	res := e.Grade(context.Background(), GradeInput{
		Conversation: []Message{{Role: "user", Content: "Hello."}},
	})
	if res.Score != 0 {
		t.Fatalf("score = %d", res.Score)
	}
	if res.PassingScore != defaultPassingScore {
		t.Fatalf("passing = %g", res.PassingScore)
	}
	if res.MissedRequiredQuestions == nil || res.CriticalFailsTriggered == nil {
		t.Fatalf("list fields must be empty, not nil")
	}
}
