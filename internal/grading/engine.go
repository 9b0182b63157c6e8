package grading

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
)

const defaultPassingScore = 84

// Engine grades one frozen conversation against a case's grading config.
// It holds no per-call state; concurrent Grade calls are safe.
type Engine struct {
	judge          Judge
	defaultPassing float64
	debug          bool
}

type Option func(*Engine)

// WithJudge installs the external judge. Without one, llm criteria miss
// and llm_or_rule criteria run their fallback rules.
func WithJudge(j Judge) Option                 { return func(e *Engine) { e.judge = j } }
func WithDefaultPassingScore(v float64) Option { return func(e *Engine) { e.defaultPassing = v } }
func WithDebug(b bool) Option                  { return func(e *Engine) { e.debug = b } }

func NewEngine(opts ...Option) *Engine {
	e := &Engine{defaultPassing: defaultPassingScore}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) debugf(format string, args ...any) {
	if e.debug {
		log.Printf("[grading] "+format, args...)
	}
}

// Grade produces a complete GradingResult. It never fails: judge problems
// degrade to rule fallbacks or missed criteria, and a malformed grading
// config degrades to the legacy zero-score checklist.
func (e *Engine) Grade(ctx context.Context, in GradeInput) GradingResult {
	supp := NormalizeSupplementalInputs(in.SupplementalInputs)
	if in.Grading != nil && in.Grading.Rubric.HasCriteria() {
		return e.gradeWithRubric(ctx, in, supp)
	}
	return e.gradeLegacy(in)
}

func (e *Engine) gradeWithRubric(ctx context.Context, in GradeInput, supp map[string]string) GradingResult {
	rubric := in.Grading.Rubric
	criteria := ExpandCriteria(rubric)
	for _, w := range ValidateRubric(rubric) {
		log.Printf("grading: rubric warning: %s", w)
	}

	judged := e.evaluateWithJudge(ctx, in.Case.CaseID, criteria, in.Conversation, supp)

	results := make([]CriterionResult, 0, len(criteria))
	for i := range criteria {
		results = append(results, e.evaluateCriterion(&criteria[i], judged, in.Conversation, supp))
	}

	sectionScores := summarizeSections(rubric.Sections, results)

	var totalPoints, availablePoints, earnedPoints float64
	missedCount := 0
	for _, r := range results {
		totalPoints += r.Points
		if r.Status != StatusOmitted {
			availablePoints += r.Points
			earnedPoints += r.EarnedPoints
		}
		if r.Status == StatusMissed {
			missedCount++
		}
	}
	omittedPoints := totalPoints - availablePoints

	score := 0
	if availablePoints > 0 {
		score = int(math.Round(earnedPoints / availablePoints * 100))
	}
	passing := rubric.PassingScore
	if passing == 0 && in.Grading.Scoring != nil {
		passing = in.Grading.Scoring.PassingScore
	}
	if passing == 0 {
		passing = e.defaultPassing
	}
	passed := float64(score) >= passing

	missedRequired := missedByTag(results, TagRequiredHistory)
	missedRedFlags := missedByTag(results, TagRedFlag)
	criticalFails := missedByTag(results, TagCriticalFail)

	parts := []string{
		fmt.Sprintf("Rubric score: %d%% (%g/%g available points).", score, roundTo(earnedPoints, 2), roundTo(availablePoints, 2)),
		fmt.Sprintf("Passing threshold: %g%%.", passing),
	}
	if omittedPoints > 0 {
		parts = append(parts, fmt.Sprintf("Omitted criteria points removed from denominator: %g.", roundTo(omittedPoints, 2)))
	}
	parts = append(parts, fmt.Sprintf("Criteria met: %d/%d.", len(results)-missedCount, len(results)))
	if len(missedRequired) > 0 {
		parts = append(parts, "Missed required history items: "+strings.Join(missedRequired, ", ")+".")
	}
	if len(missedRedFlags) > 0 {
		parts = append(parts, "Missed red flags: "+strings.Join(missedRedFlags, ", ")+".")
	}
	if len(criticalFails) > 0 {
		parts = append(parts, "Critical fails: "+strings.Join(criticalFails, ", ")+".")
	}

	return GradingResult{
		Score:                   score,
		PassingScore:            passing,
		Passed:                  passed,
		CanUnlockNextCase:       passed,
		EarnedPoints:            ptr(roundTo(earnedPoints, 2)),
		AvailablePoints:         ptr(roundTo(availablePoints, 2)),
		TotalPoints:             ptr(roundTo(totalPoints, 2)),
		OmittedPoints:           roundTo(omittedPoints, 2),
		SectionScores:           sectionScores,
		CriteriaResults:         results,
		MissedRequiredQuestions: missedRequired,
		MissedRedFlags:          missedRedFlags,
		CriticalFailsTriggered:  criticalFails,
		Feedback:                strings.Join(parts, " "),
	}
}

// evaluateWithJudge issues the single batched judge call for the enabled
// llm and llm_or_rule criteria and returns only validated results. Any
// failure along the way (transport, parse, validation) returns an empty
// map so every consumer falls back deterministically.
func (e *Engine) evaluateWithJudge(ctx context.Context, caseID string, criteria []Criterion, conv []Message, supp map[string]string) map[string]ValidatedResult {
	eligible := make([]Criterion, 0, len(criteria))
	for _, c := range criteria {
		if !c.IsEnabled() {
			continue
		}
		switch ParseMode(string(c.Mode)) {
		case ModeLLM, ModeLLMOrRule:
			eligible = append(eligible, c)
		case ModeRule:
		}
	}
	if len(eligible) == 0 || e.judge == nil {
		e.debugf("no judge criteria enabled; skipping judge evaluation")
		return map[string]ValidatedResult{}
	}
	e.debugf("evaluating %d judge criteria for case %s", len(eligible), caseID)

	req := BuildJudgeRequest(caseID, eligible, conv, supp)
	resp, err := e.judge.EvaluateRubric(ctx, req)
	if err != nil {
		log.Printf("grading: judge call failed, falling back: %v", err)
		return map[string]ValidatedResult{}
	}

	raw := ParseJudgePayload(resp)
	if raw == nil {
		log.Printf("grading: judge response was not valid JSON; falling back")
	}
	ok, validated, diags := ValidateJudgePayload(raw, eligible)
	for _, d := range diags {
		e.debugf("judge validation: %s", d)
	}
	if !ok {
		// discard everything rather than partially trust a bad payload
		log.Printf("grading: judge output failed validation; falling back")
		return map[string]ValidatedResult{}
	}
	return validated
}

const defaultOmitReason = "Marked not applicable for this case"

func (e *Engine) evaluateCriterion(c *Criterion, judged map[string]ValidatedResult, conv []Message, supp map[string]string) CriterionResult {
	tags := normalizeTags(c.Tags)

	if !c.IsEnabled() {
		reason := c.OmitReason
		if reason == "" {
			reason = defaultOmitReason
		}
		return CriterionResult{
			ID:         c.ID,
			Section:    c.Section,
			Label:      c.DisplayLabel(),
			Tags:       tags,
			Points:     c.Points,
			Status:     StatusOmitted,
			OmitReason: reason,
			Evidence:   []string{},
		}
	}

	rawText := CollectRawText(conv, c.Source, supp)
	text := NormalizeText(rawText)

	switch ParseMode(string(c.Mode)) {
	case ModeLLM:
		res, discardReason := e.applyJudgeResult(c, judged, rawText, tags)
		if res != nil {
			return *res
		}
		rationale := discardReason
		if rationale == "" {
			rationale = "judge missing result"
		}
		return CriterionResult{
			ID:        c.ID,
			Section:   c.Section,
			Label:     c.DisplayLabel(),
			Tags:      tags,
			Points:    c.Points,
			Status:    StatusMissed,
			Evidence:  []string{},
			Rationale: rationale,
		}

	case ModeLLMOrRule:
		res, discardReason := e.applyJudgeResult(c, judged, rawText, tags)
		if res != nil {
			return *res
		}
		cause := "judge missing result"
		if discardReason != "" {
			cause = discardReason
		}
		out := e.evaluateByRule(c, text, tags)
		out.Rationale = fmt.Sprintf("Fallback rule used (%s).", cause)
		return out

	case ModeRule:
		return e.evaluateByRule(c, text, tags)
	}

	// unreachable: ParseMode is total
	return e.evaluateByRule(c, text, tags)
}

// applyJudgeResult resolves a criterion from the validated judge results.
// A nil result means no usable verdict; the second return carries the
// discard reason when the evidence guard rejected one.
func (e *Engine) applyJudgeResult(c *Criterion, judged map[string]ValidatedResult, rawText string, tags []string) (*CriterionResult, string) {
	v, ok := judged[c.ID]
	if !ok {
		return nil, ""
	}
	check := checkEvidenceSource(v, rawText)
	if !check.ok {
		reason := check.reason
		if reason == "" {
			reason = "evidence/source mismatch"
		}
		e.debugf("discarding judge result for %s: %s (source %v)", c.ID, reason, c.Source)
		return nil, reason
	}

	status := StatusMissed
	switch v.Status {
	case StatusMet:
		status = StatusMet
	case StatusPartiallyMet:
		status = StatusPartiallyMet
	}
	evidence := check.matchedEvidence
	if evidence == nil {
		evidence = []string{}
	}
	return &CriterionResult{
		ID:           c.ID,
		Section:      c.Section,
		Label:        c.DisplayLabel(),
		Tags:         tags,
		Points:       c.Points,
		EarnedPoints: v.EarnedPoints,
		Status:       status,
		Evidence:     evidence,
		Rationale:    v.Rationale,
	}, ""
}

func (e *Engine) evaluateByRule(c *Criterion, text string, tags []string) CriterionResult {
	rule := c.FallbackRule
	if rule == nil {
		rule = c.Rule
	}
	match := EvaluateRule(text, rule)

	status := StatusMissed
	earned := 0.0
	if match.Matched {
		status = StatusMet
		earned = c.Points
	}
	evidence := match.Evidence
	if evidence == nil {
		evidence = []string{}
	}
	return CriterionResult{
		ID:           c.ID,
		Section:      c.Section,
		Label:        c.DisplayLabel(),
		Tags:         tags,
		Points:       c.Points,
		EarnedPoints: earned,
		Status:       status,
		Evidence:     evidence,
	}
}
