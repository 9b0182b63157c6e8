package grading

import (
	"encoding/json"
	"fmt"
)

// Mode selects how a criterion is resolved. It is a closed set; every
// switch over Mode handles all three values.
type Mode string

const (
	ModeRule      Mode = "rule"
	ModeLLM       Mode = "llm"
	ModeLLMOrRule Mode = "llm_or_rule"
)

// ParseMode maps unknown or empty mode strings to ModeRule.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeRule, ModeLLM, ModeLLMOrRule:
		return Mode(s)
	default:
		return ModeRule
	}
}

// StringList accepts either a single JSON string or an array of strings.
// Rubric authors write both forms.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*l = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("expected string or string array: %w", err)
	}
	*l = StringList(many)
	return nil
}

// Rule is a deterministic keyword predicate over normalized text.
type Rule struct {
	Any              StringList `json:"any,omitempty"`
	All              StringList `json:"all,omitempty"`
	Groups           [][]string `json:"groups,omitempty"`
	MinGroupsMatched *int       `json:"min_groups_matched,omitempty"`
}

type Section struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	MaxPoints float64 `json:"max_points"`
}

// Criterion is one scored rubric line item. Source names one role, a list
// of roles, "all", or a supplemental-input key; empty means "user".
type Criterion struct {
	ID           string     `json:"id"`
	Section      string     `json:"section"`
	Label        string     `json:"label"`
	PromptHint   string     `json:"prompt_hint,omitempty"`
	Points       float64    `json:"points"`
	Source       StringList `json:"source,omitempty"`
	Mode         Mode       `json:"mode,omitempty"`
	Rule         *Rule      `json:"rule,omitempty"`
	FallbackRule *Rule      `json:"fallback_rule,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Enabled      *bool      `json:"enabled,omitempty"`
	OmitReason   string     `json:"omit_reason,omitempty"`
}

// IsEnabled treats a missing enabled field as true.
func (c *Criterion) IsEnabled() bool { return c.Enabled == nil || *c.Enabled }

func (c *Criterion) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return c.ID
}

// CommonRef is one common_criteria entry: either a bare template id or an
// object carrying the id plus override fields. The raw override JSON is
// kept so only the fields the author actually wrote get merged.
type CommonRef struct {
	ID       string
	Override json.RawMessage
}

func (r *CommonRef) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		r.ID = id
		r.Override = nil
		return nil
	}
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return fmt.Errorf("common_criteria entry must be id or object: %w", err)
	}
	r.ID = probe.ID
	r.Override = append(json.RawMessage(nil), b...)
	return nil
}

func (r CommonRef) MarshalJSON() ([]byte, error) {
	if r.Override != nil {
		return r.Override, nil
	}
	return json.Marshal(r.ID)
}

type Rubric struct {
	Sections       []Section   `json:"sections,omitempty"`
	Criteria       []Criterion `json:"criteria,omitempty"`
	CommonCriteria []CommonRef `json:"common_criteria,omitempty"`
	PassingScore   float64     `json:"passing_score,omitempty"`
}

// HasCriteria reports whether the structured rubric path applies.
func (r *Rubric) HasCriteria() bool {
	return r != nil && (len(r.Criteria) > 0 || len(r.CommonCriteria) > 0)
}

// KeywordOverrides are the legacy path's per-case keyword substitutions,
// keyed by the checklist phrase (normalized at lookup).
type KeywordOverrides struct {
	HistoryTopics map[string]StringList `json:"history_topics,omitempty"`
	Actions       map[string]StringList `json:"actions,omitempty"`
	RedFlags      map[string]StringList `json:"red_flags,omitempty"`
	CriticalFails map[string]StringList `json:"critical_fails,omitempty"`
}

type LegacyScoring struct {
	HistoryTopicPoints  float64 `json:"history_topic_points,omitempty"`
	ActionPoints        float64 `json:"action_points,omitempty"`
	CriticalFailPenalty float64 `json:"critical_fail_penalty,omitempty"`
	PassingScore        float64 `json:"passing_score,omitempty"`
}

// GradingConfig is the per-case grading document: either a structured
// rubric or the legacy checklist fields.
type GradingConfig struct {
	Rubric                *Rubric           `json:"rubric,omitempty"`
	RequiredHistoryTopics []string          `json:"required_history_topics,omitempty"`
	RequiredActions       []string          `json:"required_actions,omitempty"`
	CriticalFails         []string          `json:"critical_fails,omitempty"`
	KeywordOverrides      *KeywordOverrides `json:"keyword_overrides,omitempty"`
	Scoring               *LegacyScoring    `json:"scoring,omitempty"`
}

const (
	TagRequiredHistory = "required_history"
	TagRedFlag         = "red_flag"
	TagCriticalFail    = "critical_fail"
)

// knownTags is the tag vocabulary the aggregator understands. Unknown tags
// are allowed (case authors extend rubrics freely) but flagged at load.
var knownTags = map[string]bool{
	TagRequiredHistory: true,
	TagRedFlag:         true,
	TagCriticalFail:    true,
	"professional":     true,
}

// ValidateRubric returns configuration warnings: unknown section
// references, negative points, disabled criteria without an omit reason,
// and tags outside the known vocabulary. Warnings never block grading.
func ValidateRubric(r *Rubric) []string {
	if r == nil {
		return nil
	}
	declared := make(map[string]bool, len(r.Sections))
	for _, s := range r.Sections {
		declared[s.ID] = true
	}
	var warns []string
	for _, c := range ExpandCriteria(r) {
		if c.Section != "" && !declared[c.Section] {
			warns = append(warns, fmt.Sprintf("criterion %s references undeclared section %q", c.ID, c.Section))
		}
		if c.Points < 0 {
			warns = append(warns, fmt.Sprintf("criterion %s has negative points", c.ID))
		}
		if !c.IsEnabled() && c.OmitReason == "" {
			warns = append(warns, fmt.Sprintf("criterion %s is disabled without omit_reason", c.ID))
		}
		for _, t := range c.Tags {
			if !knownTags[NormalizeText(t)] {
				warns = append(warns, fmt.Sprintf("criterion %s has unknown tag %q", c.ID, t))
			}
		}
	}
	return warns
}
