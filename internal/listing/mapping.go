package listing

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/zjrosen/portal/internal/log"
	"github.com/zjrosen/portal/internal/money"
	"github.com/zjrosen/portal/internal/portal"
)

// DefaultStatus is used when neither a line nor its parent has a status.
const DefaultStatus = "Open"

var (
	hrefPattern = regexp.MustCompile(`(?i)href=["']([^"']+)["']`)
	urlPattern  = regexp.MustCompile(`https?://[^\s'"]+`)
)

// MapRows maps a payload into rows of the given kind. It is pure: the same
// input always yields the same rows, including placeholder ids.
func MapRows(data portal.AccountData, kind ResultType) []Row {
	if kind == Order {
		return mapOrders(data.Orders)
	}
	return mapQuotes(data.Quotes)
}

func mapQuotes(quotes []portal.RawQuote) []Row {
	names := make([]string, len(quotes))
	for i, q := range quotes {
		names[i] = q.Name
	}
	ids := assignIDs(names, "Q-")

	rows := make([]Row, 0, len(quotes))
	for i, q := range quotes {
		status := orDefault(q.Status, DefaultStatus)
		lines := make([]LineItem, 0, len(q.Lines))
		for _, l := range q.Lines {
			lines = append(lines, mapLine(l, status, ""))
		}
		rows = append(rows, Row{
			ID:        ids[i],
			Kind:      Quote,
			Status:    status,
			LineItems: lines,
			Total:     total(q.Total, lines),
		})
	}
	return rows
}

func mapOrders(orders []portal.RawOrder) []Row {
	names := make([]string, len(orders))
	for i, o := range orders {
		names[i] = o.Name
	}
	ids := assignIDs(names, "ORD-")

	rows := make([]Row, 0, len(orders))
	for i, o := range orders {
		status := orDefault(o.Status, DefaultStatus)
		tracking := ExtractTracking(o.Shipments)
		lines := make([]LineItem, 0, len(o.Lines))
		for _, l := range o.Lines {
			lines = append(lines, mapLine(l, status, tracking))
		}
		rows = append(rows, Row{
			ID:        ids[i],
			Kind:      Order,
			Status:    status,
			LineItems: lines,
			Total:     total(o.Total, lines),
		})
	}
	return rows
}

func mapLine(l portal.RawLine, parentStatus, tracking string) LineItem {
	qty := l.Qty
	if !qty.Valid {
		qty = l.Quantity
	}
	name := strings.TrimSpace(l.Description)
	if name == "" {
		name = orDefault(l.Name, "Item")
	}
	return LineItem{
		PartID:      orDefault(l.Name, "UNKNOWN"),
		Name:        name,
		Qty:         int(math.Round(qty.Or(0))),
		UnitPrice:   money.FromFloat(l.Price.Or(0)),
		Status:      orDefault(l.Status, parentStatus),
		TrackingRef: orDefault(l.Tracking, tracking),
	}
}

// total is the sum over lines. The server total is only used for a row
// without lines, and only when it is a usable amount.
func total(server portal.Number, lines []LineItem) money.Cents {
	if len(lines) == 0 {
		if server.Valid && server.Value >= 0 {
			return money.FromFloat(server.Value)
		}
		return 0
	}
	var sum money.Cents
	for _, l := range lines {
		sum += l.LineTotal()
	}
	if server.Valid && money.FromFloat(server.Value) != sum {
		log.Debug(log.CatFetch, "Server total disagrees with lines", "server", server.Value, "lines", sum.String())
	}
	return sum
}

// ExtractTracking reads the first shipment's tracking field. An HTML anchor
// yields its href, otherwise the first URL, otherwise the text itself.
func ExtractTracking(shipments []portal.Shipment) string {
	if len(shipments) == 0 {
		return ""
	}
	first := shipments[0]
	raw := first.TrackingLink
	if raw == "" {
		raw = first.Tracking
	}
	if raw == "" {
		raw = first.TrackingLinkHTML
	}
	if raw == "" {
		return ""
	}
	if m := hrefPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	if m := urlPattern.FindString(raw); m != "" {
		return m
	}
	return raw
}

// assignIDs keeps server names and gives unnamed rows a placeholder
// prefix+position that collides with nothing else on the page.
func assignIDs(names []string, prefix string) []string {
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			taken[n] = true
		}
	}

	ids := make([]string, len(names))
	for i, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			ids[i] = n
			continue
		}
		id := prefix + strconv.Itoa(i+1)
		for suffix := 2; taken[id]; suffix++ {
			id = prefix + strconv.Itoa(i+1) + "-" + strconv.Itoa(suffix)
		}
		taken[id] = true
		ids[i] = id
	}
	return ids
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
