package archive

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earsip/internal/domain"
)

func numbered(n int, direction domain.Direction) []domain.Letter {
	out := make([]domain.Letter, 0, n)
	for i := n; i >= 1; i-- {
		out = append(out, domain.Letter{
			ID:        fmt.Sprint(i),
			Subject:   fmt.Sprintf("Surat %d", i),
			Direction: direction,
			Status:    domain.StatusInProgress,
		})
	}
	return out
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 1, PageCount(0, 5))
	assert.Equal(t, 1, PageCount(5, 5))
	assert.Equal(t, 2, PageCount(6, 5))
	assert.Equal(t, 3, PageCount(12, 5))
}

func TestPaginate(t *testing.T) {
	letters := numbered(12, domain.DirectionIncoming)

	first := Paginate(letters, 5, 1)
	assert.Equal(t, []string{"12", "11", "10", "9", "8"}, ids(first.Items))
	assert.Equal(t, 3, first.PageCount)
	assert.Equal(t, 12, first.Total)

	last := Paginate(letters, 5, 3)
	assert.Equal(t, []string{"2", "1"}, ids(last.Items))

	past := Paginate(letters, 5, 4)
	assert.Empty(t, past.Items)
	assert.NotNil(t, past.Items)
}

func TestViewStateFilterChangeResetsPage(t *testing.T) {
	// Twelve incoming letters, page size five: page three shows two.
	letters := numbered(12, domain.DirectionIncoming)
	state := NewViewState()
	state.SetScope(ScopeIncoming)

	page := state.View(letters, 5)
	assert.Equal(t, 3, page.PageCount)

	state.Next(page.PageCount)
	state.Next(page.PageCount)
	page = state.View(letters, 5)
	require.Equal(t, 3, page.Page)
	assert.Len(t, page.Items, 2)

	state.SetTerm("Surat 1")
	page = state.View(letters, 5)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, []string{"12", "11", "10", "1"}, ids(page.Items))
}

func TestViewStateNavigationIsClamped(t *testing.T) {
	letters := numbered(7, domain.DirectionOutgoing)
	state := NewViewState()

	state.Prev(2)
	assert.Equal(t, 1, state.Page())

	state.GoTo(10, 2)
	assert.Equal(t, 2, state.Page())

	state.Next(2)
	assert.Equal(t, 2, state.Page())

	state.SetPage(40)
	page := state.View(letters, 5)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Items, 2)
}

func TestViewStateResetKeepsScope(t *testing.T) {
	state := NewViewState()
	state.SetScope(ScopeOutgoing)
	state.SetTerm("x")
	state.SetStatus("Urgent")
	state.SetDateRange("2024-01-01", "2024-12-31")
	state.SetPage(3)

	state.Reset()

	assert.Equal(t, Query{Scope: ScopeOutgoing}, state.Query())
	assert.Equal(t, 1, state.Page())
}

func TestViewStateNoneScopeShowsNothing(t *testing.T) {
	state := NewViewState()
	state.SetScope(ScopeNone)

	page := state.View(numbered(3, domain.DirectionIncoming), 5)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.PageCount)
}

func TestPaginateMiddlePage(t *testing.T) {
	letters := numbered(12, domain.DirectionIncoming)

	page := Paginate(letters, 5, 2)

	require.Len(t, page.Items, 5)
	assert.Equal(t, letters[5:10], page.Items)
	assert.Equal(t, 2, page.Page)
}

func TestPagesCoverFilteredListExactly(t *testing.T) {
	for _, total := range []int{0, 1, 4, 5, 6, 12, 23} {
		for _, size := range []int{1, 3, 5, 10} {
			letters := numbered(total, domain.DirectionIncoming)
			count := PageCount(total, size)

			joined := []domain.Letter{}
			for p := 1; p <= count; p++ {
				joined = append(joined, Paginate(letters, size, p).Items...)
			}

			assert.Equal(t, ids(letters), ids(joined), "total %d size %d", total, size)
		}
	}
}
