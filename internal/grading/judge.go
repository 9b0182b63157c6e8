package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Judge is the external text-evaluation service. One grading call makes at
// most one EvaluateRubric call, batching every judge-eligible criterion.
// Whatever comes back is untrusted until it passes ValidateJudgePayload.
type Judge interface {
	EvaluateRubric(ctx context.Context, req JudgeRequest) (string, error)
}

// JudgeRequest is the assembled prompt pair sent to the judge.
type JudgeRequest struct {
	System string
	User   string
}

// RawJudgePayload is the judge's decoded response before validation. It
// must never reach scoring directly; ValidateJudgePayload is the only way
// to turn it into trusted results.
type RawJudgePayload struct {
	Results []RawJudgeRow `json:"results"`
}

// RawJudgeRow keeps loosely typed fields because the judge does not
// reliably honor the schema.
type RawJudgeRow struct {
	ID           any `json:"id"`
	Status       any `json:"status"`
	EarnedPoints any `json:"earned_points"`
	Evidence     any `json:"evidence"`
	Rationale    any `json:"rationale"`
}

var fenceRE = regexp.MustCompile("(?i)```json|```")

// ParseJudgePayload strips markdown fences and decodes the judge's output.
// Anything that is not an object with a results array yields nil.
func ParseJudgePayload(text string) *RawJudgePayload {
	cleaned := strings.TrimSpace(fenceRE.ReplaceAllString(text, ""))
	if cleaned == "" {
		return nil
	}
	var probe struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal([]byte(cleaned), &probe); err != nil {
		return nil
	}
	var rows []RawJudgeRow
	if err := json.Unmarshal(probe.Results, &rows); err != nil {
		return nil
	}
	return &RawJudgePayload{Results: rows}
}

const judgeSystemPrompt = `You are a strict clinical OSCE rubric grader.

Evaluate each criterion using ONLY the provided transcript and supplemental inputs.
Do NOT infer missing information.
If not explicitly stated, mark as "not_met".

Source handling:
- If criterion source is user/assistant/all, use the Transcript section.
- If criterion source is a custom source (example: hpi), use matching text from Supplemental Inputs.

Return STRICT JSON only.
No markdown.
No commentary.
No extra keys.

You MUST return this exact schema:

{
  "results": [
    {
      "id": "criterion_id",
      "status": "met | partially_met | not_met",
      "earned_points": number,
      "evidence": ["exact quote from transcript"],
      "rationale": "brief reason"
    }
  ]
}

Rules:
- Include ALL criteria listed.
- Do NOT invent ids.
- Respect each criterion's source strictly:
  - source=user -> use student/user text only.
  - source=assistant -> use patient/assistant text only.
  - source=all -> use full transcript.
  - custom sources (e.g., hpi) -> use matching Supplemental Inputs text only.
- Evidence quotes must come from that criterion's source text only.
- For status met/partially_met, include 1-2 short exact quotes from source text.
- If you cannot quote source text for that criterion, mark not_met.
- earned_points must be 0 if status is not_met.
- earned_points must equal full points if status is met.
- partially_met must be between 0 and full points.`

// BuildJudgeRequest assembles the single batched prompt: the criteria list
// with scoring guidance, per-source text views, the numbered transcript,
// and the supplemental inputs. Deterministic for identical inputs.
func BuildJudgeRequest(caseID string, criteria []Criterion, conv []Message, supp map[string]string) JudgeRequest {
	if caseID == "" {
		caseID = "unknown"
	}

	var crit strings.Builder
	for _, c := range criteria {
		source := "user"
		if len(c.Source) > 0 {
			source = strings.Join(c.Source, ",")
		}
		guidance := c.PromptHint
		if guidance == "" {
			rule := c.Rule
			if rule == nil {
				rule = c.FallbackRule
			}
			guidance = describeRule(rule)
		}
		fmt.Fprintf(&crit, "- id: %s\n  label: %s\n  points: %g\n  source: %s", c.ID, c.DisplayLabel(), c.Points, source)
		if guidance != "" {
			fmt.Fprintf(&crit, "\n  guidance: %s", guidance)
		}
		crit.WriteString("\n")
	}

	var views strings.Builder
	for _, src := range []string{"user", "assistant", "all"} {
		text := strings.TrimSpace(CollectRawText(conv, StringList{src}, supp))
		if text == "" {
			text = "(none)"
		}
		fmt.Fprintf(&views, "- source: %s\n  text: %s\n", src, text)
	}

	var suppBlock strings.Builder
	for _, key := range sortedKeys(supp) {
		fmt.Fprintf(&suppBlock, "- source: %s\n  text: %s\n", key, strings.TrimSpace(supp[key]))
	}
	suppText := strings.TrimRight(suppBlock.String(), "\n")
	if suppText == "" {
		suppText = "- none"
	}

	user := strings.Join([]string{
		"Case ID: " + caseID,
		"Criteria:\n" + strings.TrimRight(crit.String(), "\n"),
		"Source Views:\n" + strings.TrimRight(views.String(), "\n"),
		"Transcript:\n" + BuildTranscript(conv),
		"Supplemental Inputs:\n" + suppText,
	}, "\n\n")

	return JudgeRequest{System: judgeSystemPrompt, User: user}
}

// BuildTranscript renders the conversation as numbered uppercase-role lines.
func BuildTranscript(conv []Message) string {
	lines := make([]string, 0, len(conv))
	for i, m := range conv {
		role := strings.ToUpper(m.Role)
		if role == "" {
			role = "UNKNOWN"
		}
		lines = append(lines, fmt.Sprintf("%d. %s: %s", i+1, role, strings.TrimSpace(m.Content)))
	}
	return strings.Join(lines, "\n")
}

// describeRule summarizes a rule as grading guidance for the judge.
func describeRule(rule *Rule) string {
	if rule == nil {
		return ""
	}
	var parts []string
	if all := normalizeKeywords(rule.All); len(all) > 0 {
		parts = append(parts, "Must include all concepts: "+strings.Join(all, ", "))
	}
	if anyKw := normalizeKeywords(rule.Any); len(anyKw) > 0 {
		parts = append(parts, "Can match any of: "+strings.Join(anyKw, ", "))
	}
	if groups := normalizeKeywordGroups(rule.Groups); len(groups) > 0 {
		rendered := make([]string, 0, len(groups))
		for _, g := range groups {
			rendered = append(rendered, "["+strings.Join(g, ", ")+"]")
		}
		parts = append(parts, "For each group, mention at least one concept: "+strings.Join(rendered, " + "))
	}
	return strings.Join(parts, " ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
