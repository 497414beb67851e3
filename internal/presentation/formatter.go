package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/zjrosen/portal/internal/listing"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
	json   bool
}

// NewFormatter creates a formatter printing tables, or JSON when asJSON is set.
func NewFormatter(writer io.Writer, asJSON bool) *Formatter {
	return &Formatter{
		writer: writer,
		json:   asJSON,
	}
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...)
}

func (f *Formatter) render(t *table.Table) error {
	_, err := fmt.Fprintln(f.writer, t.Render())
	return err
}

// FormatSites prints sites, marking the default with "*".
func (f *Formatter) FormatSites(sites []SiteDTO) error {
	if f.json {
		return f.encode(sites)
	}
	if len(sites) == 0 {
		_, err := fmt.Fprintln(f.writer, "No saved sites.")
		return err
	}
	t := newTable("", "ID", "LABEL", "SLUG", "ADDRESS")
	for _, s := range sites {
		mark := ""
		if s.Default {
			mark = "*"
		}
		t.Row(mark, strconv.Itoa(s.ID), s.Label, s.Slug, s.Address)
	}
	return f.render(t)
}

// FormatBasket prints items followed by the totals block.
func (f *Formatter) FormatBasket(b BasketDTO) error {
	if f.json {
		return f.encode(b)
	}
	if len(b.Items) == 0 {
		_, err := fmt.Fprintf(f.writer, "Your %s is empty.\n", b.Kind)
		return err
	}
	t := newTable("PART", "NAME", "PRICE", "QTY", "TOTAL")
	for _, it := range b.Items {
		t.Row(it.PartNumber, it.Name, "$"+it.UnitPrice, strconv.Itoa(it.Quantity), "$"+it.LineTotal)
	}
	if err := f.render(t); err != nil {
		return err
	}

	lines := [][2]string{{"Items", strconv.Itoa(b.Totals.TotalItems)}, {"Subtotal", "$" + b.Totals.Subtotal}}
	if b.Totals.Tax != "" {
		lines = append(lines, [2]string{"Tax", "$" + b.Totals.Tax})
	}
	if b.Totals.Shipping != "" {
		lines = append(lines, [2]string{"Shipping", "$" + b.Totals.Shipping})
	}
	lines = append(lines, [2]string{"Total", "$" + b.Totals.Total})
	for _, l := range lines {
		if _, err := fmt.Fprintf(f.writer, "%-10s %s\n", l[0], l[1]); err != nil {
			return err
		}
	}
	return nil
}

// FormatPage prints one page of orders or quotes with its range label.
func (f *Formatter) FormatPage(p PageDTO) error {
	if f.json {
		return f.encode(p)
	}
	if len(p.Rows) == 0 {
		_, err := fmt.Fprintf(f.writer, "No %s found.\n", p.Type)
		return err
	}
	headers := []string{"ID", "STATUS", "QTY", "TOTAL"}
	if p.Type == "orders" {
		headers = append(headers, "TRACKING")
	}
	t := newTable(headers...)
	for _, r := range p.Rows {
		cells := []string{r.ID, r.Status, strconv.Itoa(r.Qty), "$" + r.Total}
		if p.Type == "orders" {
			cells = append(cells, r.Tracking)
		}
		t.Row(cells...)
	}
	if err := f.render(t); err != nil {
		return err
	}
	pager := listing.Pager{Page: p.Page, Window: p.Window}
	_, err := fmt.Fprintf(f.writer, "%s · Page %d of %d · %s\n", p.Range, p.Page, p.TotalPages, pager.WindowLabel(nil))
	return err
}

// FormatSettings prints one "label  value" line per setting.
func (f *Formatter) FormatSettings(s SettingsDTO) error {
	if f.json {
		return f.encode(s)
	}
	return f.fields([][2]string{
		{"First name", s.FirstName},
		{"Last name", s.LastName},
		{"Job title", s.JobTitle},
		{"Amazon site", s.AmazonSite},
		{"Other accounts", strings.Join(s.OtherAccounts, ", ")},
	})
}

// FormatShipping prints the address one field per line.
func (f *Formatter) FormatShipping(s ShippingDTO) error {
	if f.json {
		return f.encode(s)
	}
	return f.fields([][2]string{
		{"Ship to", s.ShipTo},
		{"Address 1", s.Address1},
		{"Address 2", s.Address2},
		{"City", s.City},
		{"State", s.State},
		{"ZIP", s.Zip},
		{"Country", s.Country},
	})
}

func (f *Formatter) fields(rows [][2]string) error {
	for _, r := range rows {
		value := r[1]
		if value == "" {
			value = "-"
		}
		if _, err := fmt.Fprintf(f.writer, "%-15s %s\n", r[0], value); err != nil {
			return err
		}
	}
	return nil
}

// FormatResult prints any value as JSON.
func (f *Formatter) FormatResult(result any) error {
	return f.encode(result)
}
