package archive

import (
	"fmt"
	"strings"

	"earsip/internal/domain"
)

// Scope is the category tab a list is viewed through.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeIncoming Scope = "incoming"
	ScopeOutgoing Scope = "outgoing"
	// ScopeNone is used by views that show no list; it always filters to nothing.
	ScopeNone Scope = "none"
)

// StatusAll disables the status filter.
const StatusAll = "all"

// ParseScope accepts the scope names plus the dashboard and system tab aliases.
func ParseScope(raw string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all", "dashboard":
		return ScopeAll, nil
	case "incoming":
		return ScopeIncoming, nil
	case "outgoing":
		return ScopeOutgoing, nil
	case "none", "system":
		return ScopeNone, nil
	}
	return "", fmt.Errorf("unknown scope %q", raw)
}

// Direction is the letter direction a scope restricts to, if any.
func (s Scope) Direction() (domain.Direction, bool) {
	switch s {
	case ScopeIncoming:
		return domain.DirectionIncoming, true
	case ScopeOutgoing:
		return domain.DirectionOutgoing, true
	}
	return "", false
}

// Query is the full filter state of a list view.
type Query struct {
	Scope Scope
	Term  string
	// Status is an exact status; empty or StatusAll matches every status.
	Status string
	// Start and End bound archiveDate inclusively; empty is unbounded.
	Start string
	End   string
}

// Filter returns the letters matching every predicate of q, in collection order.
func Filter(letters []domain.Letter, q Query) []domain.Letter {
	if q.Scope == ScopeNone {
		return []domain.Letter{}
	}

	direction, restricted := q.Scope.Direction()
	term := strings.ToLower(q.Term)

	out := make([]domain.Letter, 0, len(letters))
	for _, l := range letters {
		if restricted && l.Direction != direction {
			continue
		}
		if !matchesTerm(l, term) {
			continue
		}
		if q.Status != "" && q.Status != StatusAll && string(l.Status) != q.Status {
			continue
		}
		if q.Start != "" && l.ArchiveDate < q.Start {
			continue
		}
		if q.End != "" && l.ArchiveDate > q.End {
			continue
		}
		out = append(out, l)
	}
	return out
}

func matchesTerm(l domain.Letter, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.Subject), term) ||
		strings.Contains(strings.ToLower(l.LetterNumber), term) ||
		strings.Contains(strings.ToLower(l.Counterparty), term)
}
