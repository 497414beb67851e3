// Package listing keeps the orders/quotes history view in sync with the
// backend: account and tab selection, debounced and cancellable page
// fetches, mapping into view rows, local quote deletions and pagination.
package listing

import (
	"errors"
	"fmt"

	"github.com/zjrosen/portal/internal/money"
	"github.com/zjrosen/portal/internal/portal"
)

// ResultType selects orders or quotes.
type ResultType string

const (
	Order ResultType = "ORDER"
	Quote ResultType = "QUOTE"
)

// Kind is the account-data type parameter.
func (t ResultType) Kind() string {
	if t == Order {
		return portal.KindOrders
	}
	return portal.KindQuotes
}

// Title is the tab title.
func (t ResultType) Title() string {
	if t == Order {
		return "Orders"
	}
	return "Quotes"
}

// ParseResultType accepts "orders"/"quotes" as well as ORDER/QUOTE.
func ParseResultType(s string) (ResultType, error) {
	switch s {
	case portal.KindOrders, string(Order):
		return Order, nil
	case portal.KindQuotes, string(Quote), "":
		return Quote, nil
	default:
		return "", fmt.Errorf("unknown result type %q", s)
	}
}

// ErrNoAccount means the selection resolves to no backend label.
// It is a quiescent state, not a failure.
var ErrNoAccount = errors.New("no account to fetch")

// LineItem is one line of an order or quote.
type LineItem struct {
	PartID      string
	Name        string
	Qty         int
	UnitPrice   money.Cents
	Status      string
	TrackingRef string
}

// LineTotal is UnitPrice × Qty.
func (l LineItem) LineTotal() money.Cents {
	return l.UnitPrice.Times(l.Qty)
}

// Row is a view-ready order or quote.
type Row struct {
	ID        string
	Kind      ResultType
	Status    string
	LineItems []LineItem
	Total     money.Cents
}

// TotalQty sums line quantities.
func (r Row) TotalQty() int {
	n := 0
	for _, l := range r.LineItems {
		n += l.Qty
	}
	return n
}

// TrackingRef is the first line's tracking reference.
func (r Row) TrackingRef() string {
	if len(r.LineItems) == 0 {
		return ""
	}
	return r.LineItems[0].TrackingRef
}

// RemotePage is the last successfully fetched page.
type RemotePage struct {
	Key        RequestKey
	Raw        portal.AccountData
	Rows       []Row
	TotalCount int
	PageSize   int
}

// PageMeta is the pagination part of a RemotePage. It outlives the rows
// after a failed fetch.
type PageMeta struct {
	TotalCount int
	PageSize   int
}
