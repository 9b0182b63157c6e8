package grading

import "strings"

// The judge receives several role-scoped text views in one request and is
// not trusted to keep them separate. Before a met or partially_met verdict
// counts, every cited quote must occur in the criterion's own source text.

const minEvidenceLen = 6

type evidenceCheck struct {
	ok              bool
	matchedEvidence []string
	reason          string
}

func statusNeedsEvidence(status string) bool {
	return status == StatusMet || status == StatusPartiallyMet
}

// splitEvidenceBySourceMatch partitions evidence into quotes found in the
// normalized source text and quotes that are not. Snippets under six
// normalized characters are dropped from both sides; they match almost
// anything.
func splitEvidenceBySourceMatch(sourceText string, evidence []string) (matched, unmatched []string) {
	normalizedSource := NormalizeText(sourceText)
	cleaned := cleanEvidenceList(evidence)

	if normalizedSource == "" || len(cleaned) == 0 {
		return nil, cleaned
	}
	for _, snippet := range cleaned {
		normalized := NormalizeText(snippet)
		if len(normalized) < minEvidenceLen {
			continue
		}
		if strings.Contains(normalizedSource, normalized) {
			matched = append(matched, snippet)
		} else {
			unmatched = append(unmatched, snippet)
		}
	}
	return matched, unmatched
}

// checkEvidenceSource decides whether a validated judge verdict may stand
// for a criterion whose permitted raw source text is sourceText. Verdicts
// that require no evidence pass through. Otherwise every quote must match;
// a partial match still rejects but keeps the matching subset for logs.
func checkEvidenceSource(v ValidatedResult, sourceText string) evidenceCheck {
	if !statusNeedsEvidence(v.Status) {
		return evidenceCheck{ok: true, matchedEvidence: cleanEvidenceList(v.Evidence)}
	}

	matched, unmatched := splitEvidenceBySourceMatch(sourceText, v.Evidence)

	if len(matched) == 0 {
		return evidenceCheck{reason: "no evidence quotes found in criterion source text"}
	}
	if len(unmatched) > 0 {
		return evidenceCheck{
			matchedEvidence: matched,
			reason:          "some evidence quotes were outside the criterion source text",
		}
	}
	return evidenceCheck{ok: true, matchedEvidence: matched}
}

func cleanEvidenceList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
		if len(out) == 6 {
			break
		}
	}
	return out
}
