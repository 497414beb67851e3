package listing

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPaginate(t *testing.T) {
	p := Paginate(3, 5, 23)
	require.Equal(t, 5, p.TotalPages)
	require.Equal(t, 11, p.Start)
	require.Equal(t, 15, p.End)
	require.Equal(t, []int{1, 2, 3, 4, 5}, p.Window)
	require.Equal(t, "Showing 11-15 of 23", p.RangeLabel())
	require.True(t, p.HasPrev())
	require.True(t, p.HasNext())

	last := Paginate(5, 5, 23)
	require.Equal(t, 21, last.Start)
	require.Equal(t, 23, last.End)
	require.False(t, last.HasNext())
}

func TestPaginate_Empty(t *testing.T) {
	p := Paginate(1, 5, 0)
	require.Equal(t, 1, p.TotalPages)
	require.Equal(t, "No items", p.RangeLabel())
	require.Equal(t, []int{1}, p.Window)
	require.False(t, p.HasPrev())
	require.False(t, p.HasNext())
}

func TestPaginate_WindowClamped(t *testing.T) {
	require.Equal(t, []int{1, 2, 3}, Paginate(1, 5, 50).Window)
	require.Equal(t, []int{8, 9, 10}, Paginate(10, 5, 50).Window)
	require.Equal(t, []int{4, 5, 6, 7, 8}, Paginate(6, 5, 50).Window)
}

func TestPager_WindowLabel(t *testing.T) {
	require.Equal(t, "[1] 2 3", Paginate(1, 5, 50).WindowLabel(nil))
	require.Equal(t, "4 5 [6] 7 8", Paginate(6, 5, 50).WindowLabel(nil))
	require.Equal(t, "[1]", Paginate(1, 5, 0).WindowLabel(nil))

	marked := Paginate(2, 5, 12).WindowLabel(func(s string) string { return "*" + s + "*" })
	require.Equal(t, "1 *[2]* 3", marked)
}

func TestPaginate_DefaultsAndClamping(t *testing.T) {
	p := Paginate(9, 0, 12)
	require.Equal(t, DefaultPageSize, p.PageSize)
	require.Equal(t, 3, p.TotalPages)
	require.Equal(t, 3, p.Page)

	require.Equal(t, 1, Paginate(-4, 5, 12).Page)
	require.Equal(t, 0, Paginate(1, 5, -3).TotalCount)
}

func TestClamp(t *testing.T) {
	require.Equal(t, 1, Clamp(0, 5))
	require.Equal(t, 5, Clamp(7, 5))
	require.Equal(t, 3, Clamp(3, 5))
	require.Equal(t, 1, Clamp(3, 0))
}

func TestPaginate_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(0, 1000).Draw(t, "total")
		size := rapid.IntRange(1, 50).Draw(t, "size")
		pages := TotalPages(total, size)
		page := rapid.IntRange(1, pages).Draw(t, "page")

		p := Paginate(page, size, total)

		if p.TotalPages < 1 || (p.TotalPages-1)*size >= max(total, 1) {
			t.Fatalf("total pages %d wrong for total=%d size=%d", p.TotalPages, total, size)
		}
		if total == 0 {
			if p.RangeLabel() != "No items" {
				t.Fatalf("want No items, got %q", p.RangeLabel())
			}
		} else {
			if p.Start != (page-1)*size+1 || p.End != min(page*size, total) || p.Start > p.End {
				t.Fatalf("range %d-%d wrong for page=%d size=%d total=%d", p.Start, p.End, page, size, total)
			}
		}
		if len(p.Window) == 0 || len(p.Window) > 2*WindowPadding+1 {
			t.Fatalf("window %v has bad length", p.Window)
		}
		for i, n := range p.Window {
			if n < 1 || n > p.TotalPages || (i > 0 && n != p.Window[i-1]+1) {
				t.Fatalf("window %v out of bounds or not contiguous", p.Window)
			}
		}
		if p.Window[0] > page || p.Window[len(p.Window)-1] < page {
			t.Fatalf("window %v does not contain page %d", p.Window, page)
		}
	})
}
