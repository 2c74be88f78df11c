package archive

import (
	"math"
	"slices"
	"strings"

	"earsip/internal/domain"
)

// ComputeStats counts over the whole collection, whatever view is active.
func ComputeStats(letters []domain.Letter) domain.Stats {
	stats := domain.Stats{Total: len(letters)}
	for _, l := range letters {
		switch l.Direction {
		case domain.DirectionIncoming:
			stats.Incoming++
		case domain.DirectionOutgoing:
			stats.Outgoing++
		}
		switch l.Status {
		case domain.StatusInProgress:
			stats.InProgress++
		case domain.StatusCompleted:
			stats.Completed++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.Completed) / float64(stats.Total) * 100))
	}
	return stats
}

// Recent returns up to n letters with the highest ids.
func Recent(letters []domain.Letter, n int) []domain.Letter {
	sorted := slices.Clone(letters)
	slices.SortStableFunc(sorted, func(a, b domain.Letter) int {
		return compareIDs(b.ID, a.ID)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// compareIDs orders timestamp ids numerically: a shorter digit string is smaller.
func compareIDs(a, b string) int {
	if len(a) != len(b) && isDigits(a) && isDigits(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
