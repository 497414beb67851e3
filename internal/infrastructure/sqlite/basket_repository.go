package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/portal/internal/basket"
	"github.com/zjrosen/portal/internal/money"
)

const basketColumns = `part_number, name, unit_price_cents, quantity, notes, added_at`

type basketRepository struct {
	db  *sql.DB
	now func() time.Time
}

func newBasketRepository(db *sql.DB) *basketRepository {
	return &basketRepository{db: db, now: time.Now}
}

var _ basket.Repository = (*basketRepository)(nil)

func scanItem(scanner interface{ Scan(...any) error }) (basket.Item, error) {
	var (
		item    basket.Item
		price   int64
		addedAt int64
	)
	if err := scanner.Scan(&item.PartNumber, &item.Name, &price, &item.Quantity, &item.Notes, &addedAt); err != nil {
		return basket.Item{}, err
	}
	item.UnitPrice = money.Cents(price)
	item.AddedAt = time.Unix(0, addedAt)
	return item, nil
}

// List returns items in insertion order. Upserts keep the original rowid.
func (r *basketRepository) List(ctx context.Context, kind basket.Kind) ([]basket.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+basketColumns+` FROM basket_items WHERE kind = ? ORDER BY rowid`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("listing %s items: %w", kind, err)
	}
	defer func() { _ = rows.Close() }()

	var items []basket.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s item: %w", kind, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *basketRepository) Get(ctx context.Context, kind basket.Kind, partNumber string) (basket.Item, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+basketColumns+` FROM basket_items WHERE kind = ? AND part_number = ?`,
		string(kind), partNumber)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return basket.Item{}, fmt.Errorf("%w: %s", basket.ErrItemNotFound, partNumber)
	}
	if err != nil {
		return basket.Item{}, fmt.Errorf("loading %s item %s: %w", kind, partNumber, err)
	}
	return item, nil
}

func (r *basketRepository) Save(ctx context.Context, kind basket.Kind, item basket.Item) error {
	addedAt := item.AddedAt
	if addedAt.IsZero() {
		addedAt = r.now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO basket_items (kind, part_number, name, unit_price_cents, quantity, notes, added_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (kind, part_number) DO UPDATE SET
			name = excluded.name,
			unit_price_cents = excluded.unit_price_cents,
			quantity = excluded.quantity,
			notes = excluded.notes,
			updated_at = excluded.updated_at`,
		string(kind), item.PartNumber, item.Name, int64(item.UnitPrice), item.Quantity, item.Notes,
		addedAt.UnixNano(), r.now().UnixNano())
	if err != nil {
		return fmt.Errorf("saving %s item %s: %w", kind, item.PartNumber, err)
	}
	return nil
}

func (r *basketRepository) Delete(ctx context.Context, kind basket.Kind, partNumber string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM basket_items WHERE kind = ? AND part_number = ?`, string(kind), partNumber)
	if err != nil {
		return fmt.Errorf("deleting %s item %s: %w", kind, partNumber, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", basket.ErrItemNotFound, partNumber)
	}
	return nil
}

func (r *basketRepository) Clear(ctx context.Context, kind basket.Kind) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM basket_items WHERE kind = ?`, string(kind)); err != nil {
		return fmt.Errorf("clearing %s: %w", kind, err)
	}
	return nil
}
