package grading

// summarizeSections folds criterion results into per-section totals.
// Sections keep rubric-declared order; section ids that appear only on
// criteria are appended after, in first-seen order. Omitted criteria count
// toward total_points but not available or earned.
func summarizeSections(sections []Section, results []CriterionResult) []SectionScore {
	byID := map[string]*SectionScore{}
	order := make([]string, 0, len(sections))

	for _, s := range sections {
		if s.ID == "" || byID[s.ID] != nil {
			continue
		}
		label := s.Label
		if label == "" {
			label = s.ID
		}
		byID[s.ID] = &SectionScore{Section: s.ID, Label: label}
		order = append(order, s.ID)
	}

	for _, r := range results {
		key := r.Section
		if key == "" {
			key = "other"
		}
		sec := byID[key]
		if sec == nil {
			sec = &SectionScore{Section: key, Label: key}
			byID[key] = sec
			order = append(order, key)
		}
		sec.TotalPoints += r.Points
		if r.Status != StatusOmitted {
			sec.AvailablePoints += r.Points
			sec.EarnedPoints += r.EarnedPoints
		}
	}

	out := make([]SectionScore, 0, len(order))
	for _, id := range order {
		sec := *byID[id]
		sec.EarnedPoints = roundTo(sec.EarnedPoints, 2)
		sec.AvailablePoints = roundTo(sec.AvailablePoints, 2)
		sec.TotalPoints = roundTo(sec.TotalPoints, 2)
		out = append(out, sec)
	}
	return out
}

// missedByTag lists the labels of criteria carrying the tag whose status
// is missed or partially met. Partial counts as missed here: the lists
// flag follow-up topics, and point impact already happened via earned
// points.
func missedByTag(results []CriterionResult, tag string) []string {
	normalized := NormalizeText(tag)
	out := []string{}
	for _, r := range results {
		if r.Status != StatusMissed && r.Status != StatusPartiallyMet {
			continue
		}
		for _, t := range r.Tags {
			if t == normalized {
				out = append(out, r.Label)
				break
			}
		}
	}
	return out
}
