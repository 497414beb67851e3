package listing

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultPageSize applies when the server does not report page_size.
	DefaultPageSize = 5

	// WindowPadding is how many page numbers are shown on each side of the current page.
	WindowPadding = 2
)

// Pager is the presentation of one page position.
type Pager struct {
	Page       int
	PageSize   int
	TotalCount int
	TotalPages int

	// Start and End are the 1-based inclusive item range; both 0 when TotalCount is 0.
	Start int
	End   int

	// Window lists the page numbers to render, ascending.
	Window []int
}

// Paginate computes the pager for page. A non-positive pageSize means
// DefaultPageSize; page is clamped to [1, TotalPages].
func Paginate(page, pageSize, totalCount int) Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if totalCount < 0 {
		totalCount = 0
	}

	totalPages := TotalPages(totalCount, pageSize)
	page = Clamp(page, totalPages)

	p := Pager{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
	if totalCount > 0 {
		p.Start = (page-1)*pageSize + 1
		p.End = min(page*pageSize, totalCount)
	}

	lo := max(1, page-WindowPadding)
	hi := min(totalPages, page+WindowPadding)
	p.Window = make([]int, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		p.Window = append(p.Window, n)
	}
	return p
}

// TotalPages is ceil(totalCount/pageSize), at least 1.
func TotalPages(totalCount, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if totalCount <= 0 {
		return 1
	}
	return (totalCount + pageSize - 1) / pageSize
}

// Clamp bounds page to [1, totalPages].
func Clamp(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	return max(1, min(page, totalPages))
}

// RangeLabel is "No items" or "Showing <start>-<end> of <total>".
func (p Pager) RangeLabel() string {
	if p.TotalCount == 0 {
		return "No items"
	}
	return fmt.Sprintf("Showing %d-%d of %d", p.Start, p.End, p.TotalCount)
}

// WindowLabel joins the window with spaces, wrapping the current page in
// brackets. A non-nil mark styles the bracketed current page.
func (p Pager) WindowLabel(mark func(string) string) string {
	parts := make([]string, 0, len(p.Window))
	for _, n := range p.Window {
		s := strconv.Itoa(n)
		if n == p.Page {
			s = "[" + s + "]"
			if mark != nil {
				s = mark(s)
			}
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

func (p Pager) HasPrev() bool { return p.Page > 1 }

func (p Pager) HasNext() bool { return p.Page < p.TotalPages }
