// Package analytics turns raw usage counts into ranked and percentage views.
// Everything here is pure; callers fetch the counts.
package analytics

import (
	"math"
	"slices"
)

type QuestionCount struct {
	Question string `json:"question"`
	Count    int64  `json:"count"`
}

type CategoryShare struct {
	Category   string  `json:"category"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// RankPopularQuestions sorts questions by count, highest first. Equal counts
// keep their first-seen order.
func RankPopularQuestions(counts Counts) []QuestionCount {
	out := make([]QuestionCount, 0, len(counts))
	for _, kv := range counts {
		out = append(out, QuestionCount{Question: kv.Key, Count: kv.Count})
	}
	slices.SortStableFunc(out, func(a, b QuestionCount) int {
		switch {
		case a.Count > b.Count:
			return -1
		case a.Count < b.Count:
			return 1
		}
		return 0
	})
	return out
}

// CategoryDistribution reports each category's share of the total, rounded to
// one decimal, in input order. A zero total yields 0.0 for every category.
func CategoryDistribution(counts Counts) []CategoryShare {
	out := make([]CategoryShare, 0, len(counts))
	total := counts.Total()
	for _, kv := range counts {
		pct := 0.0
		if total != 0 {
			pct = roundTenth(100 * float64(kv.Count) / float64(total))
		}
		out = append(out, CategoryShare{Category: kv.Key, Count: kv.Count, Percentage: pct})
	}
	return out
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
