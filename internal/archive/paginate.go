package archive

import "earsip/internal/domain"

// Page is one fixed-size slice of a filtered list.
type Page struct {
	Items     []domain.Letter `json:"items"`
	Page      int             `json:"page"`
	PageSize  int             `json:"pageSize"`
	PageCount int             `json:"pageCount"`
	Total     int             `json:"total"`
}

// PageCount is ceil(total/pageSize), never less than one.
func PageCount(total, pageSize int) int {
	if pageSize < 1 {
		pageSize = 1
	}
	count := (total + pageSize - 1) / pageSize
	if count < 1 {
		return 1
	}
	return count
}

// Paginate returns the 1-indexed page of seq. A page past the end is empty.
func Paginate(seq []domain.Letter, pageSize, page int) Page {
	if pageSize < 1 {
		pageSize = 1
	}
	if page < 1 {
		page = 1
	}

	result := Page{
		Items:     []domain.Letter{},
		Page:      page,
		PageSize:  pageSize,
		PageCount: PageCount(len(seq), pageSize),
		Total:     len(seq),
	}

	start := (page - 1) * pageSize
	if start >= len(seq) {
		return result
	}
	end := min(start+pageSize, len(seq))
	result.Items = seq[start:end]
	return result
}

// ViewState is the filter and page state of one list view. Every filter
// change sends the view back to page one.
type ViewState struct {
	query Query
	page  int
}

func NewViewState() *ViewState {
	return &ViewState{query: Query{Scope: ScopeAll}, page: 1}
}

func (v *ViewState) Query() Query { return v.query }

func (v *ViewState) Page() int { return v.page }

func (v *ViewState) SetScope(s Scope) {
	v.query.Scope = s
	v.page = 1
}

func (v *ViewState) SetTerm(term string) {
	v.query.Term = term
	v.page = 1
}

func (v *ViewState) SetStatus(status string) {
	v.query.Status = status
	v.page = 1
}

func (v *ViewState) SetDateRange(start, end string) {
	v.query.Start = start
	v.query.End = end
	v.page = 1
}

// Reset clears every filter but keeps the scope.
func (v *ViewState) Reset() {
	v.query = Query{Scope: v.query.Scope}
	v.page = 1
}

// SetPage jumps to page without clamping to the page count; View clamps it.
func (v *ViewState) SetPage(page int) {
	v.page = max(1, page)
}

// GoTo moves to page, clamped to [1, pageCount].
func (v *ViewState) GoTo(page, pageCount int) {
	v.page = max(1, min(page, pageCount))
}

func (v *ViewState) Next(pageCount int) { v.GoTo(v.page+1, pageCount) }

func (v *ViewState) Prev(pageCount int) { v.GoTo(v.page-1, pageCount) }

// View filters and paginates letters with the current state.
func (v *ViewState) View(letters []domain.Letter, pageSize int) Page {
	filtered := Filter(letters, v.query)
	v.GoTo(v.page, PageCount(len(filtered), pageSize))
	return Paginate(filtered, pageSize, v.page)
}
