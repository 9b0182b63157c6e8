package grading

import "strings"

// Message is one conversation turn. The list is frozen by the caller
// before grading.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NormalizeSupplementalInputs lowercases and trims keys, trims values, and
// drops empty entries. Supplemental inputs are consulted only when a
// criterion's source names the key.
func NormalizeSupplementalInputs(in map[string]string) map[string]string {
	out := map[string]string{}
	for k, v := range in {
		key := strings.ToLower(strings.TrimSpace(k))
		text := strings.TrimSpace(v)
		if key == "" || text == "" {
			continue
		}
		out[key] = text
	}
	return out
}

// CollectRawText returns the raw text view a criterion is allowed to see:
// a supplemental input when source names one, the whole transcript for
// "all", otherwise the content of messages whose role matches (case-
// insensitive), joined by single spaces. Empty source means "user".
func CollectRawText(conv []Message, source StringList, supp map[string]string) string {
	target := source
	if len(target) == 0 {
		target = StringList{"user"}
	}

	if len(target) == 1 {
		key := strings.ToLower(strings.TrimSpace(target[0]))
		if key != "" && key != "all" {
			if text, ok := supp[key]; ok {
				return strings.TrimSpace(text)
			}
		}
		if key == "all" {
			parts := make([]string, 0, len(conv))
			for _, m := range conv {
				if c := strings.TrimSpace(m.Content); c != "" {
					parts = append(parts, c)
				}
			}
			return strings.Join(parts, " ")
		}
	}

	roles := make(map[string]bool, len(target))
	for _, r := range target {
		roles[strings.ToLower(r)] = true
	}
	var parts []string
	for _, m := range conv {
		if !roles[strings.ToLower(m.Role)] {
			continue
		}
		if c := strings.TrimSpace(m.Content); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

// CollectText is the normalized view used for rule matching.
func CollectText(conv []Message, source StringList, supp map[string]string) string {
	return NormalizeText(CollectRawText(conv, source, supp))
}
