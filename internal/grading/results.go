package grading

// CaseInfo is the engine's read-only view of the case file. RedFlags
// feeds the legacy path only; rubric cases carry red flags as tags.
type CaseInfo struct {
	CaseID   string
	RedFlags []string
}

// GradeInput bundles everything one grading call consumes. All fields are
// read-only for the duration of the call.
type GradeInput struct {
	Case               CaseInfo
	Grading            *GradingConfig
	Conversation       []Message
	SupplementalInputs map[string]string
}

// CriterionResult is the trusted per-criterion outcome.
type CriterionResult struct {
	ID           string   `json:"id"`
	Section      string   `json:"section"`
	Label        string   `json:"label"`
	Tags         []string `json:"tags"`
	Points       float64  `json:"points"`
	EarnedPoints float64  `json:"earned_points"`
	Status       string   `json:"status"`
	OmitReason   string   `json:"omit_reason,omitempty"`
	Evidence     []string `json:"evidence"`
	Rationale    string   `json:"rationale,omitempty"`
}

type SectionScore struct {
	Section         string  `json:"section"`
	Label           string  `json:"label"`
	EarnedPoints    float64 `json:"earned_points"`
	AvailablePoints float64 `json:"available_points"`
	TotalPoints     float64 `json:"total_points"`
}

// GradingResult is the complete outcome of one submission. Point totals
// are nil on the legacy path, which reports a bare percentage.
type GradingResult struct {
	Score                   int               `json:"score"`
	PassingScore            float64           `json:"passing_score"`
	Passed                  bool              `json:"passed"`
	CanUnlockNextCase       bool              `json:"can_unlock_next_case"`
	EarnedPoints            *float64          `json:"earned_points"`
	AvailablePoints         *float64          `json:"available_points"`
	TotalPoints             *float64          `json:"total_points"`
	OmittedPoints           float64           `json:"omitted_points"`
	SectionScores           []SectionScore    `json:"section_scores"`
	CriteriaResults         []CriterionResult `json:"criteria_results"`
	MissedRequiredQuestions []string          `json:"missed_required_questions"`
	MissedRedFlags          []string          `json:"missed_red_flags"`
	CriticalFailsTriggered  []string          `json:"critical_fails_triggered"`
	Feedback                string            `json:"feedback"`
}

func ptr(v float64) *float64 { return &v }
