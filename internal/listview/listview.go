// Package listview sorts and paginates arbitrary record collections.
//
// A Controller owns a source collection, a sort state and a page cursor and
// derives the visible page on demand. Records are never mutated, only
// reordered and sliced. Out-of-range input is clamped, never reported.
package listview

import (
	"cmp"
	"slices"
)

// DefaultPageSize is used when a controller is created with a non-positive page size.
const DefaultPageSize = 20

// Direction is the sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// Field describes how records of type T are ordered by one column.
type Field[T any] struct {
	// Present reports whether the record carries a value for the field.
	// Nil means every record has a value.
	Present func(T) bool

	// Compare orders two records that both have a value, ascending.
	Compare func(a, b T) int
}

// OrderedField builds a field from a getter whose values are always present.
func OrderedField[T any, V cmp.Ordered](get func(T) V) Field[T] {
	return Field[T]{
		Compare: func(a, b T) int { return cmp.Compare(get(a), get(b)) },
	}
}

// OptionalField builds a field from a getter that may report the value as absent.
func OptionalField[T any, V cmp.Ordered](get func(T) (V, bool)) Field[T] {
	return Field[T]{
		Present: func(rec T) bool {
			_, ok := get(rec)
			return ok
		},
		Compare: func(a, b T) int {
			va, _ := get(a)
			vb, _ := get(b)
			return cmp.Compare(va, vb)
		},
	}
}

func (f Field[T]) present(rec T) bool {
	return f.Present == nil || f.Present(rec)
}

// SortState is the active sort column and direction.
// When Active is false the view preserves input order.
type SortState[K comparable] struct {
	Column    K
	Active    bool
	Direction Direction
}

// View is one derived page of the sorted collection.
type View[T any, K comparable] struct {
	Items       []T
	CurrentPage int
	TotalPages  int
	Total       int
	Sort        SortState[K]
}

// Controller sorts and paginates a collection of T keyed by columns of type K.
// It is not safe for concurrent use.
type Controller[T any, K comparable] struct {
	fields   map[K]Field[T]
	source   []T
	sorted   []T
	sort     SortState[K]
	pageSize int
	page     int
}

// New creates a controller with the given page size and sortable fields.
func New[T any, K comparable](pageSize int, fields map[K]Field[T]) *Controller[T, K] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	copied := make(map[K]Field[T], len(fields))
	for k, f := range fields {
		if f.Compare == nil {
			continue
		}
		copied[k] = f
	}
	return &Controller[T, K]{
		fields:   copied,
		pageSize: pageSize,
		page:     1,
	}
}

// SetSource replaces the backing collection and resets to page 1.
func (c *Controller[T, K]) SetSource(items []T) {
	c.source = slices.Clone(items)
	c.page = 1
	c.resort()
}

// SortBy makes column the active sort column. Repeating the active column
// toggles the direction; a new column starts ascending. The page resets to 1.
// Columns without a registered field are ignored and false is returned.
func (c *Controller[T, K]) SortBy(column K) bool {
	if _, ok := c.fields[column]; !ok {
		return false
	}
	if c.sort.Active && c.sort.Column == column {
		c.sort.Direction = c.sort.Direction.Toggle()
	} else {
		c.sort = SortState[K]{Column: column, Active: true, Direction: Ascending}
	}
	c.page = 1
	c.resort()
	return true
}

// ClearSort restores input order and resets to page 1.
func (c *Controller[T, K]) ClearSort() {
	c.sort = SortState[K]{}
	c.page = 1
	c.resort()
}

// Sort returns the active sort state.
func (c *Controller[T, K]) Sort() SortState[K] {
	return c.sort
}

// HasColumn reports whether column can be sorted.
func (c *Controller[T, K]) HasColumn(column K) bool {
	_, ok := c.fields[column]
	return ok
}

// GoToPage clamps n into [1, TotalPages] and makes it current.
func (c *Controller[T, K]) GoToPage(n int) {
	c.page = clamp(n, 1, c.TotalPages())
}

func (c *Controller[T, K]) NextPage() { c.GoToPage(c.page + 1) }
func (c *Controller[T, K]) PrevPage() { c.GoToPage(c.page - 1) }

// SetPageSize changes the page size (minimum 1) and resets to page 1.
func (c *Controller[T, K]) SetPageSize(n int) {
	if n < 1 {
		n = 1
	}
	c.pageSize = n
	c.page = 1
}

func (c *Controller[T, K]) PageSize() int { return c.pageSize }

// TotalPages is ceil(N / pageSize), never less than 1.
func (c *Controller[T, K]) TotalPages() int {
	n := len(c.sorted)
	if n == 0 {
		return 1
	}
	return (n-1)/c.pageSize + 1
}

// View returns the current page. The returned slice is a copy.
func (c *Controller[T, K]) View() View[T, K] {
	total := c.TotalPages()
	page := clamp(c.page, 1, total)
	start := (page - 1) * c.pageSize
	end := min(start+c.pageSize, len(c.sorted))
	var items []T
	if start < end {
		items = slices.Clone(c.sorted[start:end])
	}
	return View[T, K]{
		Items:       items,
		CurrentPage: page,
		TotalPages:  total,
		Total:       len(c.sorted),
		Sort:        c.sort,
	}
}

func (c *Controller[T, K]) resort() {
	sorted := slices.Clone(c.source)
	if c.sort.Active {
		if field, ok := c.fields[c.sort.Column]; ok {
			slices.SortStableFunc(sorted, comparator(field, c.sort.Direction))
		}
	}
	c.sorted = sorted
}

// comparator orders records by field. Records without a value sort after
// every record with one, whatever the direction.
func comparator[T any](field Field[T], dir Direction) func(a, b T) int {
	return func(a, b T) int {
		pa, pb := field.present(a), field.present(b)
		switch {
		case !pa && !pb:
			return 0
		case !pa:
			return 1
		case !pb:
			return -1
		}
		r := field.Compare(a, b)
		if dir == Descending {
			r = -r
		}
		return r
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
