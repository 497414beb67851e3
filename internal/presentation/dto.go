// Package presentation converts domain values into the shapes printed by
// the one-shot commands.
package presentation

import (
	"time"

	"github.com/zjrosen/portal/internal/basket"
	"github.com/zjrosen/portal/internal/listing"
	"github.com/zjrosen/portal/internal/portal"
)

// SiteDTO represents a saved site for presentation
type SiteDTO struct {
	ID      int    `json:"id"`
	Label   string `json:"label"`
	Slug    string `json:"site_slug"`
	Address string `json:"address,omitempty"`
	Default bool   `json:"is_default"`
}

// FromSites converts sites in backend order.
func FromSites(sites []portal.Site) []SiteDTO {
	out := make([]SiteDTO, 0, len(sites))
	for _, s := range sites {
		out = append(out, SiteDTO{
			ID:      s.ID,
			Label:   s.DisplayLabel(),
			Slug:    s.Slug,
			Address: s.Address,
			Default: s.IsDefault,
		})
	}
	return out
}

type BasketItemDTO struct {
	PartNumber string    `json:"part_number"`
	Name       string    `json:"name"`
	UnitPrice  string    `json:"unit_price"`
	Quantity   int       `json:"quantity"`
	LineTotal  string    `json:"line_total"`
	Notes      string    `json:"notes,omitempty"`
	AddedAt    time.Time `json:"added_at"`
}

// TotalsDTO carries amounts as two-decimal strings. Tax and shipping are
// omitted for quote drafts.
type TotalsDTO struct {
	TotalItems int    `json:"total_items"`
	Subtotal   string `json:"subtotal"`
	Tax        string `json:"tax,omitempty"`
	Shipping   string `json:"shipping,omitempty"`
	Total      string `json:"total"`
}

type BasketDTO struct {
	Kind   string          `json:"kind"`
	Items  []BasketItemDTO `json:"items"`
	Totals TotalsDTO       `json:"totals"`
}

// FromBasket converts a basket and its summary.
func FromBasket(kind basket.Kind, items []basket.Item) BasketDTO {
	dto := BasketDTO{Kind: string(kind), Items: make([]BasketItemDTO, 0, len(items))}
	for _, it := range items {
		dto.Items = append(dto.Items, BasketItemDTO{
			PartNumber: it.PartNumber,
			Name:       it.Name,
			UnitPrice:  it.UnitPrice.String(),
			Quantity:   it.Quantity,
			LineTotal:  it.LineTotal().String(),
			Notes:      it.Notes,
			AddedAt:    it.AddedAt,
		})
	}

	t := basket.Summarize(kind, items)
	dto.Totals = TotalsDTO{
		TotalItems: t.TotalItems,
		Subtotal:   t.Subtotal.String(),
		Total:      t.Total.String(),
	}
	if kind == basket.Cart {
		dto.Totals.Tax = t.Tax.String()
		dto.Totals.Shipping = t.Shipping.String()
	}
	return dto
}

type LineDTO struct {
	PartID    string `json:"part_id"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
	UnitPrice string `json:"unit_price"`
	Status    string `json:"status"`
	Tracking  string `json:"tracking,omitempty"`
}

type RowDTO struct {
	ID       string    `json:"id"`
	Status   string    `json:"status"`
	Total    string    `json:"total"`
	Qty      int       `json:"qty"`
	Tracking string    `json:"tracking,omitempty"`
	Lines    []LineDTO `json:"lines"`
}

// PageDTO is one fetched page of orders or quotes.
type PageDTO struct {
	Type       string   `json:"type"`
	Account    string   `json:"account"`
	Page       int      `json:"page"`
	TotalPages int      `json:"total_pages"`
	TotalCount int      `json:"total_count"`
	Range      string   `json:"range"`
	Window     []int    `json:"window"`
	Rows       []RowDTO `json:"rows"`
}

// FromPage converts rows and their pager.
func FromPage(rt listing.ResultType, account string, rows []listing.Row, pager listing.Pager) PageDTO {
	dto := PageDTO{
		Type:       rt.Kind(),
		Account:    account,
		Page:       pager.Page,
		TotalPages: pager.TotalPages,
		TotalCount: pager.TotalCount,
		Range:      pager.RangeLabel(),
		Window:     pager.Window,
		Rows:       make([]RowDTO, 0, len(rows)),
	}
	for _, r := range rows {
		row := RowDTO{
			ID:       r.ID,
			Status:   r.Status,
			Total:    r.Total.String(),
			Qty:      r.TotalQty(),
			Tracking: r.TrackingRef(),
			Lines:    make([]LineDTO, 0, len(r.LineItems)),
		}
		for _, l := range r.LineItems {
			row.Lines = append(row.Lines, LineDTO{
				PartID:    l.PartID,
				Name:      l.Name,
				Qty:       l.Qty,
				UnitPrice: l.UnitPrice.String(),
				Status:    l.Status,
				Tracking:  l.TrackingRef,
			})
		}
		dto.Rows = append(dto.Rows, row)
	}
	return dto
}

// SettingsDTO is the user's profile settings.
type SettingsDTO struct {
	FirstName     string   `json:"first_name"`
	LastName      string   `json:"last_name"`
	JobTitle      string   `json:"job_title"`
	AmazonSite    string   `json:"amazon_site"`
	OtherAccounts []string `json:"other_accounts"`
}

func FromSettings(s portal.Settings) SettingsDTO {
	accounts := []string(s.OtherAccounts)
	if accounts == nil {
		accounts = []string{}
	}
	return SettingsDTO{
		FirstName:     s.FirstName,
		LastName:      s.LastName,
		JobTitle:      s.JobTitle,
		AmazonSite:    s.AmazonSite,
		OtherAccounts: accounts,
	}
}

// ShippingDTO is the saved ship-to address.
type ShippingDTO struct {
	ShipTo   string `json:"shipto"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
}

func FromShipping(s portal.Shipping) ShippingDTO {
	return ShippingDTO(s)
}
