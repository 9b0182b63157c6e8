package grading

import (
	"math"
	"strconv"
	"strings"
)

// Judge statuses after normalization.
const (
	StatusMet          = "met"
	StatusPartiallyMet = "partially_met"
	StatusNotMet       = "not_met"
)

// Criterion result statuses.
const (
	StatusMissed  = "missed"
	StatusOmitted = "omitted"
)

// ValidatedResult is a judge verdict that survived validation. Only
// ValidateJudgePayload constructs these.
type ValidatedResult struct {
	Status       string
	EarnedPoints float64
	Evidence     []string
	Rationale    string
}

const (
	maxEvidenceItems = 3
	maxEvidenceLen   = 180
	maxRationaleLen  = 320
)

// ValidateJudgePayload sanitizes the judge's payload against the whitelist
// of criteria that were actually sent. It verifies structure, drops rows
// with unknown ids or unrecognizable statuses, caps evidence and
// rationale, and overrides earned points to stay consistent with status:
// met earns full points, not_met earns zero, and partial credit is clamped
// to (0, max) with an absent or degenerate value forced to max/2. ok is
// false when nothing usable remains; callers must then discard the payload
// entirely. diags are for logging only.
func ValidateJudgePayload(raw *RawJudgePayload, whitelist []Criterion) (ok bool, results map[string]ValidatedResult, diags []string) {
	results = map[string]ValidatedResult{}

	maxByID := make(map[string]float64, len(whitelist))
	for _, c := range whitelist {
		if c.ID != "" {
			maxByID[c.ID] = c.Points
		}
	}

	if raw == nil {
		return false, results, []string{"judge output is not a JSON object with results[]"}
	}

	for _, row := range raw.Results {
		id := strings.TrimSpace(coerceString(row.ID))
		if id == "" {
			continue
		}
		maxPoints, known := maxByID[id]
		if !known {
			diags = append(diags, "unknown criterion id ignored: "+id)
			continue
		}

		status := normalizeStatus(coerceString(row.Status))
		if status == "" {
			diags = append(diags, "invalid status for "+id)
			continue
		}

		evidence := capStrings(coerceStringList(row.Evidence), maxEvidenceItems, maxEvidenceLen)
		rationale := capString(coerceString(row.Rationale), maxRationaleLen)

		earned, hasEarned := coerceFloat(row.EarnedPoints)
		switch status {
		case StatusMet:
			earned = maxPoints
		case StatusNotMet:
			earned = 0
		case StatusPartiallyMet:
			if !hasEarned {
				earned = maxPoints / 2
			}
			earned = clamp(earned, 0, maxPoints)
			// partial credit stays strictly interior when points exist
			if maxPoints > 0 && (earned == 0 || earned == maxPoints) {
				earned = maxPoints / 2
			}
		}
		earned = roundTo(clamp(earned, 0, maxPoints), 2)

		results[id] = ValidatedResult{
			Status:       status,
			EarnedPoints: earned,
			Evidence:     evidence,
			Rationale:    rationale,
		}
	}

	return len(results) > 0, results, diags
}

// normalizeStatus maps the judge's loose spellings onto the three
// canonical statuses; anything else is rejected.
func normalizeStatus(raw string) string {
	switch NormalizeText(raw) {
	case "met", "yes":
		return StatusMet
	case "missed", "not met", "no":
		return StatusNotMet
	case "partial", "partially met":
		return StatusPartiallyMet
	default:
		return ""
	}
}

func capStrings(in []string, maxItems, maxLen int) []string {
	out := make([]string, 0, maxItems)
	for _, s := range in {
		if len(out) == maxItems {
			break
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if len(s) > maxLen {
			s = s[:maxLen]
		}
		out = append(out, s)
	}
	return out
}

func capString(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}

func clamp(v, min, max float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return min
	}
	return math.Min(max, math.Max(min, v))
}

func roundTo(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func coerceStringList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s := strings.TrimSpace(coerceString(e)); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := strings.TrimSpace(coerceString(v)); s != "" {
			return []string{s}
		}
		return nil
	}
}

func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
