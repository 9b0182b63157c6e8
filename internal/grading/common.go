package grading

import (
	"encoding/json"
	"log"
)

// commonCriteria is the shared template library, keyed by criterion id.
// Built once at init and never mutated; expansion always clones.
var commonCriteria = map[string]Criterion{
	"professional_intro_name_title": {
		ID:         "professional_intro_name_title",
		Section:    "professional",
		Label:      "Introduces self with name and title",
		PromptHint: "Student introduces self and clearly states a professional clinical role/title.",
		Points:     1,
		Source:     StringList{"user"},
		Tags:       []string{"professional"},
		Mode:       ModeLLM,
		FallbackRule: &Rule{
			Groups: [][]string{
				{"my name is", "my name", "i am", "i'm", "im", "this is"},
				{
					"dnp student", "np student", "nurse practitioner student",
					"nurse practitioner", "family nurse practitioner", "fnp",
					"aprn", "provider", "md", "doctor", "physician",
				},
			},
		},
	},
	"professional_preferred_name": {
		ID:         "professional_preferred_name",
		Section:    "professional",
		Label:      "Asks preferred name",
		PromptHint: "Student asks how the patient prefers to be addressed.",
		Points:     1,
		Source:     StringList{"user"},
		Tags:       []string{"professional"},
		Mode:       ModeRule,
		Rule: &Rule{
			Any: StringList{"may i call you", "preferred name", "what name do you prefer", "can i call you"},
		},
	},
	"professional_opening_question": {
		ID:         "professional_opening_question",
		Section:    "professional",
		Label:      "Asks opening question",
		PromptHint: "Student invites the chief complaint (for example, what brings you in today).",
		Points:     1,
		Source:     StringList{"user"},
		Tags:       []string{"professional"},
		Mode:       ModeLLM,
		FallbackRule: &Rule{
			Any: StringList{
				"how can i help you today",
				"what brings you in today",
				"what brings you today",
				"what brings you in",
			},
		},
	},
	"professional_identity_two_identifiers": {
		ID:         "professional_identity_two_identifiers",
		Section:    "professional",
		Label:      "Confirms patient identity using two identifiers",
		PromptHint: "Student verifies identity with at least two identifiers, including name and date of birth.",
		Points:     1,
		Source:     StringList{"user"},
		Tags:       []string{"professional"},
		Mode:       ModeLLMOrRule,
		FallbackRule: &Rule{
			Groups: [][]string{
				{"full name", "name and date of birth", "your name", "confirm your name", "verify your name"},
				{"date of birth", "dob", "birth date", "birthday", "month and day of birth", "identifier"},
			},
		},
	},
}

// cloneCriterion deep-copies a template through JSON so overrides never
// alias library-owned slices across cases.
func cloneCriterion(c Criterion) Criterion {
	buf, _ := json.Marshal(c)
	var out Criterion
	_ = json.Unmarshal(buf, &out)
	return out
}

// ExpandCriteria resolves common_criteria references against the template
// library and concatenates them, in declared order, with the case-specific
// criteria. Unknown template ids are skipped so older cases keep grading
// against newer libraries. Unmarshalling the raw override into the clone
// overwrites exactly the fields the author wrote; a present rule or
// fallback_rule object merges into the cloned rule key by key.
func ExpandCriteria(r *Rubric) []Criterion {
	if r == nil {
		return nil
	}
	out := make([]Criterion, 0, len(r.CommonCriteria)+len(r.Criteria))
	for _, ref := range r.CommonCriteria {
		base, ok := commonCriteria[ref.ID]
		if !ok {
			if ref.ID != "" {
				log.Printf("grading: unknown common criterion %q skipped", ref.ID)
			}
			continue
		}
		c := cloneCriterion(base)
		if len(ref.Override) > 0 {
			if err := json.Unmarshal(ref.Override, &c); err != nil {
				log.Printf("grading: bad override for common criterion %q: %v", ref.ID, err)
			}
		}
		out = append(out, c)
	}
	out = append(out, r.Criteria...)
	return out
}
