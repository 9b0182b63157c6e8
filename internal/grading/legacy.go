package grading

import (
	"fmt"
	"math"
	"strings"
)

// Legacy checklist grading for cases that predate structured rubrics:
// keyword coverage of required history topics and actions over the
// student's text, with per-case keyword overrides and a flat penalty per
// critical fail. No judge is involved.

func matchChecklistItem(text, item string, overrides map[string]StringList) bool {
	keywords := normalizeKeywords(overrides[NormalizeText(item)])
	if len(keywords) == 0 {
		keywords = keywordsFromPhrase(item)
	}
	return len(keywords) > 0 && includesAny(text, keywords)
}

func (e *Engine) gradeLegacy(in GradeInput) GradingResult {
	cfg := in.Grading
	if cfg == nil {
		cfg = &GradingConfig{}
	}
	overrides := cfg.KeywordOverrides
	if overrides == nil {
		overrides = &KeywordOverrides{}
	}

	historyTopics := cfg.RequiredHistoryTopics
	actions := cfg.RequiredActions
	criticalFails := cfg.CriticalFails
	redFlags := in.Case.RedFlags

	userText := CollectText(in.Conversation, StringList{"user"}, nil)

	coveredHistory := 0
	missedRequired := []string{}
	for _, topic := range historyTopics {
		if matchChecklistItem(userText, topic, overrides.HistoryTopics) {
			coveredHistory++
		} else {
			missedRequired = append(missedRequired, topic)
		}
	}

	coveredActions := 0
	for _, action := range actions {
		if matchChecklistItem(userText, action, overrides.Actions) {
			coveredActions++
		}
	}

	missedRedFlags := []string{}
	for _, flag := range redFlags {
		if !matchChecklistItem(userText, flag, overrides.RedFlags) {
			missedRedFlags = append(missedRedFlags, flag)
		}
	}

	triggered := []string{}
	for _, item := range criticalFails {
		if !matchChecklistItem(userText, item, overrides.CriticalFails) {
			triggered = append(triggered, item)
		}
	}

	var historyPoints, actionPoints, criticalPenalty, passing float64
	if cfg.Scoring != nil {
		historyPoints = cfg.Scoring.HistoryTopicPoints
		actionPoints = cfg.Scoring.ActionPoints
		criticalPenalty = cfg.Scoring.CriticalFailPenalty
		passing = cfg.Scoring.PassingScore
	}
	if passing == 0 {
		passing = e.defaultPassing
	}

	score := float64(coveredHistory)*historyPoints +
		float64(coveredActions)*actionPoints -
		float64(len(triggered))*criticalPenalty
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	passed := score >= passing

	parts := []string{
		fmt.Sprintf("Legacy checklist score: %g%%", score),
		fmt.Sprintf("Passing threshold: %g%%.", passing),
		fmt.Sprintf("History topics covered: %d/%d.", coveredHistory, len(historyTopics)),
		fmt.Sprintf("Actions covered: %d/%d.", coveredActions, len(actions)),
	}
	if len(missedRequired) > 0 {
		parts = append(parts, "Missed history topics: "+strings.Join(missedRequired, ", ")+".")
	}
	if len(missedRedFlags) > 0 {
		parts = append(parts, "Missed red flags: "+strings.Join(missedRedFlags, ", ")+".")
	}
	if len(triggered) > 0 {
		parts = append(parts, "Critical fails: "+strings.Join(triggered, ", ")+".")
	}

	return GradingResult{
		Score:                   int(math.Round(score)),
		PassingScore:            passing,
		Passed:                  passed,
		CanUnlockNextCase:       passed,
		SectionScores:           []SectionScore{},
		CriteriaResults:         []CriterionResult{},
		MissedRequiredQuestions: missedRequired,
		MissedRedFlags:          missedRedFlags,
		CriticalFailsTriggered:  triggered,
		Feedback:                strings.Join(parts, " "),
	}
}
