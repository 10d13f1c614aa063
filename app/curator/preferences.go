package curator

// PreferenceEngine derives exclusion rules and usage statistics from the
// historical feedback stream. Both methods are pure reducers: nothing is
// mutated or cached, the profile is recomputed on demand each call.
type PreferenceEngine struct {
	threshold int
}

func NewPreferenceEngine(threshold int) *PreferenceEngine {
	return &PreferenceEngine{threshold: threshold}
}

// ComputeExclusions groups dismissed reactions by the axis and source of
// the associated item, joined by URL. Any axis or source accumulating at
// least the threshold count of dismissals is excluded. Dismissals never
// expire from this computation.
func (e *PreferenceEngine) ComputeExclusions(events []FeedbackEvent, facts map[string]ItemFacts) Exclusions {
	axisCounts := make(map[string]int)
	sourceCounts := make(map[string]int)

	for _, ev := range events {
		if ev.Reaction != ReactionDismissed {
			continue
		}
		f, ok := facts[ev.ItemURL]
		if !ok {
			continue
		}
		if f.AxisName != "" {
			axisCounts[f.AxisName]++
		}
		if f.Source != "" {
			sourceCounts[f.Source]++
		}
	}

	var excl Exclusions
	for axis, count := range axisCounts {
		if count >= e.threshold {
			excl.Axes = append(excl.Axes, axis)
		}
	}
	for source, count := range sourceCounts {
		if count >= e.threshold {
			excl.Sources = append(excl.Sources, source)
		}
	}

	return excl
}

// ComputeWeeklyStats aggregates status counts and axis distribution over
// the cards passed in. Callers supply the 7-day card slice; the reducer
// does not touch storage.
func (e *PreferenceEngine) ComputeWeeklyStats(cards []ScoredCard) WeeklyStats {
	stats := WeeklyStats{
		Total:      len(cards),
		AxisCounts: make(map[string]int),
	}

	for _, sc := range cards {
		switch sc.Status {
		case StatusStarred:
			stats.Starred++
			stats.StarredCards = append(stats.StarredCards, sc.Card)
		case StatusArchived:
			stats.Archived++
		case StatusSkipped:
			stats.Skipped++
		default:
			stats.Sent++
		}

		axis := sc.Card.AxisName
		if axis == "" {
			axis = "Unknown"
		}
		stats.AxisCounts[axis]++
	}

	return stats
}
