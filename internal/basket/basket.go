// Package basket manages the cart and the quote draft: items keyed by
// part number, quantity edits and totals.
package basket

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zjrosen/portal/internal/log"
	"github.com/zjrosen/portal/internal/money"
)

// Kind names a basket.
type Kind string

const (
	Cart  Kind = "cart"
	Quote Kind = "quote"
)

// ParseKind accepts "cart" or "quote".
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Cart:
		return Cart, nil
	case Quote:
		return Quote, nil
	default:
		return "", fmt.Errorf("unknown basket %q", s)
	}
}

const (
	// TaxPercent applies to the cart subtotal.
	TaxPercent = 8.0

	// FlatShipping is charged on a non-empty cart.
	FlatShipping money.Cents = 999
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrInvalidItem  = errors.New("invalid item")
)

// Item is one line of a basket.
type Item struct {
	PartNumber string
	Name       string
	UnitPrice  money.Cents
	Quantity   int
	Notes      string
	AddedAt    time.Time
}

// LineTotal is UnitPrice × Quantity.
func (i Item) LineTotal() money.Cents {
	return i.UnitPrice.Times(i.Quantity)
}

// Repository persists basket items. Implementations keep insertion order.
type Repository interface {
	List(ctx context.Context, kind Kind) ([]Item, error)
	Get(ctx context.Context, kind Kind, partNumber string) (Item, error)
	Save(ctx context.Context, kind Kind, item Item) error
	Delete(ctx context.Context, kind Kind, partNumber string) error
	Clear(ctx context.Context, kind Kind) error
}

// Totals summarises a basket. Tax and Shipping are zero for quote drafts.
type Totals struct {
	TotalItems int
	Subtotal   money.Cents
	Tax        money.Cents
	Shipping   money.Cents
	Total      money.Cents
}

// Service applies basket rules on top of a Repository.
type Service struct {
	repo Repository
	kind Kind
	now  func() time.Time
}

func NewService(repo Repository, kind Kind) *Service {
	return &Service{repo: repo, kind: kind, now: time.Now}
}

func (s *Service) Kind() Kind { return s.kind }

// Items lists the basket in the order items were first added.
func (s *Service) Items(ctx context.Context) ([]Item, error) {
	return s.repo.List(ctx, s.kind)
}

// Add puts item in the basket, adding to the quantity of an existing line
// with the same part number.
func (s *Service) Add(ctx context.Context, item Item) (Item, error) {
	item.PartNumber = strings.TrimSpace(item.PartNumber)
	if item.PartNumber == "" {
		return Item{}, fmt.Errorf("%w: part number is required", ErrInvalidItem)
	}
	if item.Quantity <= 0 {
		return Item{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidItem)
	}
	if item.UnitPrice < 0 {
		return Item{}, fmt.Errorf("%w: price must not be negative", ErrInvalidItem)
	}

	existing, err := s.repo.Get(ctx, s.kind, item.PartNumber)
	switch {
	case err == nil:
		existing.Quantity += item.Quantity
		item = existing
	case errors.Is(err, ErrItemNotFound):
		if item.Name == "" {
			item.Name = item.PartNumber
		}
		item.AddedAt = s.now()
	default:
		return Item{}, err
	}

	if err := s.repo.Save(ctx, s.kind, item); err != nil {
		return Item{}, err
	}
	log.Debug(log.CatStore, "Basket item added", "basket", string(s.kind), "part", item.PartNumber, "qty", item.Quantity)
	return item, nil
}

// Remove drops the line for partNumber.
func (s *Service) Remove(ctx context.Context, partNumber string) error {
	return s.repo.Delete(ctx, s.kind, strings.TrimSpace(partNumber))
}

// UpdateQuantity sets the quantity of a line; qty <= 0 removes it.
func (s *Service) UpdateQuantity(ctx context.Context, partNumber string, qty int) error {
	partNumber = strings.TrimSpace(partNumber)
	if qty <= 0 {
		return s.Remove(ctx, partNumber)
	}
	item, err := s.repo.Get(ctx, s.kind, partNumber)
	if err != nil {
		return err
	}
	item.Quantity = qty
	return s.repo.Save(ctx, s.kind, item)
}

func (s *Service) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx, s.kind)
}

// Totals computes the summary for the current items.
func (s *Service) Totals(ctx context.Context) (Totals, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return Totals{}, err
	}
	return Summarize(s.kind, items), nil
}

// Summarize computes totals for items in a basket of kind.
func Summarize(kind Kind, items []Item) Totals {
	var t Totals
	for _, it := range items {
		t.TotalItems += it.Quantity
		t.Subtotal += it.LineTotal()
	}
	if kind == Cart {
		t.Tax = t.Subtotal.Percent(TaxPercent)
		if len(items) > 0 {
			t.Shipping = FlatShipping
		}
	}
	t.Total = t.Subtotal + t.Tax + t.Shipping
	return t
}
