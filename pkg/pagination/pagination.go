package pagination

import (
	"net/url"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// reserved lists query parameters that carry paging, not filters.
var reserved = map[string]bool{
	"page":  true,
	"limit": true,
}

// Query is the wire-level request for one page of a collection. Page is
// 1-indexed.
type Query struct {
	Page    int
	Limit   int
	Filters map[string]string
}

// FromIndex builds a Query from 0-indexed page state as kept by a list view.
func FromIndex(index, size int, filters map[string]string) Query {
	if index < 0 {
		index = 0
	}
	if size <= 0 {
		size = DefaultLimit
	}
	return Query{Page: index + 1, Limit: size, Filters: filters}
}

// Values encodes the query as page=<n>&limit=<n>&<filters>. Empty filter
// values are dropped.
func (q Query) Values() url.Values {
	v := url.Values{}
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if reserved[k] || q.Filters[k] == "" {
			continue
		}
		v.Set(k, q.Filters[k])
	}
	return v
}

// Meta is the pagination block reported by the server. Derived is set when
// the server sent no pagination block and the values were filled from the
// request and the item count.
type Meta struct {
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Derived bool `json:"-"`
}

// TotalPages returns the number of pages implied by the meta.
func (m Meta) TotalPages() int {
	if m.Limit <= 0 {
		return 0
	}
	return (m.Total + m.Limit - 1) / m.Limit
}

// HasNext returns true if there are more results after the current page.
func (m Meta) HasNext() bool {
	return m.Page*m.Limit < m.Total
}

// HasPrevious returns true if there are results before the current page.
func (m Meta) HasPrevious() bool {
	return m.Page > 1
}

// Page is one loaded page of a collection.
type Page[T any] struct {
	Items []T
	Meta  Meta
}

// Params holds pagination parameters extracted from a request.
type Params struct {
	Page    int
	Limit   int
	Offset  int
	Filters map[string]string
}

// FromContext extracts page, limit and the remaining filter parameters from
// the echo context.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	filters := make(map[string]string)
	for key, values := range c.QueryParams() {
		if reserved[key] {
			continue
		}
		if len(values) > 0 && values[0] != "" {
			filters[key] = values[0]
		}
	}

	return Params{Page: page, Limit: limit, Offset: (page - 1) * limit, Filters: filters}
}

// Window returns the [start, end) bounds of this page within n items.
func (p Params) Window(n int) (int, int) {
	start := p.Offset
	if start > n {
		start = n
	}
	end := start + p.Limit
	if end > n {
		end = n
	}
	return start, end
}

// ListData is the list payload placed under the envelope's data key.
type ListData struct {
	Data       interface{} `json:"data"`
	Pagination Meta        `json:"pagination"`
}

func NewListData(data interface{}, total int, p Params) *ListData {
	return &ListData{
		Data:       data,
		Pagination: Meta{Total: total, Page: p.Page, Limit: p.Limit},
	}
}
