package listview

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type run struct {
	name string
	gpus int
	loss float64
	// hasLoss is false for runs that have not reported a loss yet.
	hasLoss bool
}

func testFields() map[string]Field[run] {
	return map[string]Field[run]{
		"name": OrderedField(func(r run) string { return r.name }),
		"gpus": OrderedField(func(r run) int { return r.gpus }),
		"loss": OptionalField(func(r run) (float64, bool) { return r.loss, r.hasLoss }),
	}
}

func names(items []run) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.name)
	}
	return out
}

func TestUnsortedViewPreservesInputOrder(t *testing.T) {
	c := New(10, testFields())
	c.SetSource([]run{{name: "c"}, {name: "a"}, {name: "b"}})

	v := c.View()
	require.Equal(t, []string{"c", "a", "b"}, names(v.Items))
	require.False(t, v.Sort.Active)
}

func TestSortByToggleReversesOrder(t *testing.T) {
	c := New(10, testFields())
	c.SetSource([]run{
		{name: "r1", gpus: 64},
		{name: "r2", gpus: 8},
		{name: "r3", gpus: 256},
		{name: "r4", gpus: 16},
	})

	require.True(t, c.SortBy("gpus"))
	asc := names(c.View().Items)
	require.Equal(t, []string{"r2", "r4", "r1", "r3"}, asc)
	require.Equal(t, Ascending, c.Sort().Direction)

	require.True(t, c.SortBy("gpus"))
	desc := names(c.View().Items)
	require.Equal(t, Descending, c.Sort().Direction)
	for i := range asc {
		require.Equal(t, asc[i], desc[len(desc)-1-i])
	}
}

func TestNewColumnResetsDirectionToAscending(t *testing.T) {
	c := New(10, testFields())
	c.SetSource([]run{{name: "b", gpus: 1}, {name: "a", gpus: 2}})

	c.SortBy("gpus")
	c.SortBy("gpus")
	require.Equal(t, Descending, c.Sort().Direction)

	c.SortBy("name")
	require.Equal(t, SortState[string]{Column: "name", Active: true, Direction: Ascending}, c.Sort())
	require.Equal(t, []string{"a", "b"}, names(c.View().Items))
}

func TestAbsentValuesSortLastInBothDirections(t *testing.T) {
	c := New(10, testFields())
	c.SetSource([]run{
		{name: "pending-a"},
		{name: "low", loss: 0.5, hasLoss: true},
		{name: "pending-b"},
		{name: "high", loss: 2.5, hasLoss: true},
		{name: "mid", loss: 1.25, hasLoss: true},
	})

	c.SortBy("loss")
	require.Equal(t, []string{"low", "mid", "high", "pending-a", "pending-b"}, names(c.View().Items))

	c.SortBy("loss")
	require.Equal(t, []string{"high", "mid", "low", "pending-a", "pending-b"}, names(c.View().Items))
}

func TestSortIsStableForEqualKeys(t *testing.T) {
	c := New(10, testFields())
	c.SetSource([]run{
		{name: "x1", gpus: 8},
		{name: "y", gpus: 4},
		{name: "x2", gpus: 8},
		{name: "x3", gpus: 8},
	})

	c.SortBy("gpus")
	require.Equal(t, []string{"y", "x1", "x2", "x3"}, names(c.View().Items))
}

func TestSortByUnknownColumnIsIgnored(t *testing.T) {
	c := New(2, testFields())
	c.SetSource([]run{{name: "b"}, {name: "a"}, {name: "c"}})
	c.SortBy("name")
	c.GoToPage(2)

	require.False(t, c.SortBy("owner"))
	require.Equal(t, "name", c.Sort().Column)
	require.Equal(t, 2, c.View().CurrentPage)
	require.False(t, c.HasColumn("owner"))
}

func TestTotalPagesAndClamping(t *testing.T) {
	for _, n := range []int{0, 1, 7, 8, 9, 16, 17, 100} {
		for _, size := range []int{1, 3, 8, 50, math.MaxInt / 2, math.MaxInt} {
			t.Run(fmt.Sprintf("n=%d/size=%d", n, size), func(t *testing.T) {
				c := New(size, testFields())
				c.SetSource(make([]run, n))

				want := int(math.Max(1, math.Ceil(float64(n)/float64(size))))
				require.Equal(t, want, c.TotalPages())

				for _, page := range []int{math.MinInt, -5, 0, 1, 2, want, want + 1, 1 << 30, math.MaxInt} {
					c.GoToPage(page)
					v := c.View()
					require.GreaterOrEqual(t, v.CurrentPage, 1)
					require.LessOrEqual(t, v.CurrentPage, want)
				}
			})
		}
	}
}

func TestHugePageSizeKeepsOnePage(t *testing.T) {
	c := New(math.MaxInt, testFields())
	c.SetSource([]run{{name: "c"}, {name: "a"}, {name: "b"}})
	c.GoToPage(5)

	v := c.View()
	require.Equal(t, 1, c.TotalPages())
	require.Equal(t, 1, v.TotalPages)
	require.Equal(t, 1, v.CurrentPage)
	require.Len(t, v.Items, 3)

	c.SetPageSize(math.MaxInt - 1)
	c.NextPage()
	require.Equal(t, 1, c.View().CurrentPage)
	require.Equal(t, 1, c.View().TotalPages)
}

func TestEmptyCollectionHasOneEmptyPage(t *testing.T) {
	c := New(8, testFields())
	c.SetSource(nil)
	c.SortBy("gpus")

	v := c.View()
	assert.Empty(t, v.Items)
	assert.Equal(t, 1, v.CurrentPage)
	assert.Equal(t, 1, v.TotalPages)
	assert.Equal(t, 0, v.Total)
}

func TestSourceAndSortChangesResetPage(t *testing.T) {
	c := New(2, testFields())
	src := []run{{name: "a"}, {name: "b"}, {name: "c"}, {name: "d"}, {name: "e"}}
	c.SetSource(src)

	c.GoToPage(3)
	require.Equal(t, 3, c.View().CurrentPage)
	c.SortBy("name")
	require.Equal(t, 1, c.View().CurrentPage)

	c.GoToPage(2)
	c.SortBy("name")
	require.Equal(t, 1, c.View().CurrentPage)

	c.GoToPage(3)
	c.SetSource(src[:3])
	require.Equal(t, 1, c.View().CurrentPage)

	c.GoToPage(2)
	c.ClearSort()
	require.Equal(t, 1, c.View().CurrentPage)
}

func TestTenRecordsPageSizeEight(t *testing.T) {
	src := make([]run, 0, 10)
	for _, g := range []int{90, 10, 70, 30, 100, 50, 20, 80, 60, 40} {
		src = append(src, run{name: fmt.Sprintf("job-%d", g), gpus: g})
	}
	c := New(8, testFields())
	c.SetSource(src)
	c.SortBy("gpus")

	page1 := c.View()
	require.Equal(t, 2, page1.TotalPages)
	require.Len(t, page1.Items, 8)
	for i, it := range page1.Items {
		require.Equal(t, (i+1)*10, it.gpus)
	}

	c.GoToPage(2)
	page2 := c.View()
	require.Equal(t, 2, page2.CurrentPage)
	require.Len(t, page2.Items, 2)
	require.Equal(t, 90, page2.Items[0].gpus)
	require.Equal(t, 100, page2.Items[1].gpus)
}

func TestViewDoesNotAliasSource(t *testing.T) {
	src := []run{{name: "a"}, {name: "b"}}
	c := New(5, testFields())
	c.SetSource(src)

	src[0].name = "mutated"
	v := c.View()
	require.Equal(t, "a", v.Items[0].name)

	v.Items[1].name = "changed"
	require.Equal(t, "b", c.View().Items[1].name)
}

func TestPageNavigationAndSize(t *testing.T) {
	c := New(0, testFields())
	require.Equal(t, DefaultPageSize, c.PageSize())

	c.SetSource(make([]run, 5))
	c.SetPageSize(-3)
	require.Equal(t, 1, c.PageSize())
	require.Equal(t, 5, c.TotalPages())

	c.PrevPage()
	require.Equal(t, 1, c.View().CurrentPage)
	c.NextPage()
	c.NextPage()
	require.Equal(t, 3, c.View().CurrentPage)
	for i := 0; i < 10; i++ {
		c.NextPage()
	}
	require.Equal(t, 5, c.View().CurrentPage)
}
