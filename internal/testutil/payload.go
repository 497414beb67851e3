// Package testutil provides builders for backend payloads and test databases.
package testutil

import "github.com/zjrosen/portal/internal/portal"

// LineOption configures a RawLine.
type LineOption func(*portal.RawLine)

func LineStatus(status string) LineOption {
	return func(l *portal.RawLine) { l.Status = status }
}

func LineDescription(desc string) LineOption {
	return func(l *portal.RawLine) { l.Description = desc }
}

func LineTracking(ref string) LineOption {
	return func(l *portal.RawLine) { l.Tracking = ref }
}

// Line builds a line with numeric qty and price.
func Line(name string, qty, price float64, opts ...LineOption) portal.RawLine {
	l := portal.RawLine{Name: name, Qty: portal.Num(qty), Price: portal.Num(price)}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// QuoteOption configures a RawQuote.
type QuoteOption func(*portal.RawQuote)

func QuoteStatus(status string) QuoteOption {
	return func(q *portal.RawQuote) { q.Status = status }
}

func QuoteTotal(total float64) QuoteOption {
	return func(q *portal.RawQuote) { q.Total = portal.Num(total) }
}

func QuoteLines(lines ...portal.RawLine) QuoteOption {
	return func(q *portal.RawQuote) { q.Lines = append(q.Lines, lines...) }
}

// Quote builds a quote. An empty name leaves the id to the mapper.
func Quote(name string, opts ...QuoteOption) portal.RawQuote {
	q := portal.RawQuote{Name: name}
	for _, opt := range opts {
		opt(&q)
	}
	return q
}

// OrderOption configures a RawOrder.
type OrderOption func(*portal.RawOrder)

func OrderStatus(status string) OrderOption {
	return func(o *portal.RawOrder) { o.Status = status }
}

func OrderLines(lines ...portal.RawLine) OrderOption {
	return func(o *portal.RawOrder) { o.Lines = append(o.Lines, lines...) }
}

// OrderShipment appends a shipment whose tracking_link is link.
func OrderShipment(link string) OrderOption {
	return func(o *portal.RawOrder) {
		o.Shipments = append(o.Shipments, portal.Shipment{TrackingLink: link})
	}
}

func Order(name string, opts ...OrderOption) portal.RawOrder {
	o := portal.RawOrder{Name: name}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// QuotesPage builds an account-data payload of quotes.
func QuotesPage(total, pageSize int, quotes ...portal.RawQuote) portal.AccountData {
	return portal.AccountData{
		Quotes:      quotes,
		TotalQuotes: portal.Num(float64(total)),
		PageSize:    portal.Num(float64(pageSize)),
	}
}

// OrdersPage builds an account-data payload of orders.
func OrdersPage(total, pageSize int, orders ...portal.RawOrder) portal.AccountData {
	return portal.AccountData{
		Orders:      orders,
		TotalOrders: portal.Num(float64(total)),
		PageSize:    portal.Num(float64(pageSize)),
	}
}

// Site builds a valid site.
func Site(id int, slug, label string, isDefault bool) portal.Site {
	return portal.Site{ID: id, Slug: slug, Label: label, IsDefault: isDefault}
}
