package grading

import "strings"

// RuleMatch is the outcome of evaluating one rule.
type RuleMatch struct {
	Matched  bool
	Evidence []string
}

// EvaluateRule runs one keyword rule against normalized text. "all"
// keywords must every one appear; "any" needs at least one; each group
// needs one of its synonyms, all groups unless min_groups_matched lowers
// the bar. A rule with none of the three configured never matches.
func EvaluateRule(text string, rule *Rule) RuleMatch {
	if rule == nil {
		return RuleMatch{}
	}
	anyKeywords := normalizeKeywords(rule.Any)
	allKeywords := normalizeKeywords(rule.All)
	groups := normalizeKeywordGroups(rule.Groups)

	var evidence []string

	for _, k := range allKeywords {
		if !strings.Contains(text, k) {
			return RuleMatch{}
		}
		evidence = append(evidence, k)
	}

	if len(anyKeywords) > 0 {
		var matched []string
		for _, k := range anyKeywords {
			if strings.Contains(text, k) {
				matched = append(matched, k)
			}
		}
		if len(matched) == 0 {
			return RuleMatch{}
		}
		if len(matched) > 3 {
			matched = matched[:3]
		}
		evidence = append(evidence, matched...)
	}

	if len(groups) > 0 {
		minGroups := -1
		if rule.MinGroupsMatched != nil {
			minGroups = *rule.MinGroupsMatched
		}
		matchedCount := 0
		for _, group := range groups {
			found := ""
			for _, k := range group {
				if strings.Contains(text, k) {
					found = k
					break
				}
			}
			if found != "" {
				matchedCount++
				evidence = append(evidence, found)
			} else if minGroups < 0 {
				// every group is required unless a threshold is set
				return RuleMatch{}
			}
		}
		if minGroups >= 0 && matchedCount < minGroups {
			return RuleMatch{}
		}
	}

	if len(allKeywords) == 0 && len(anyKeywords) == 0 && len(groups) == 0 {
		return RuleMatch{}
	}

	return RuleMatch{Matched: true, Evidence: dedupeCap(evidence, 5)}
}

func dedupeCap(in []string, max int) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == max {
			break
		}
	}
	return out
}
