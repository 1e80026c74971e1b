package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/restaurant-pos/internal/catalog/domain"
	"github.com/dmehra2102/restaurant-pos/pkg/money"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY position, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM branches WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Branch{}
	for rows.Next() {
		var b domain.Branch
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListItems returns items with their variations and add-ons; an empty
// categoryID means the whole menu.
func (r *Repository) ListItems(ctx context.Context, categoryID string) ([]domain.Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, category_id, image, price_cents, available
		FROM menu_items
		WHERE $1 = '' OR category_id = $1
		ORDER BY name`, categoryID)
	if err != nil {
		return nil, err
	}

	items := []domain.Item{}
	index := map[string]int{}
	for rows.Next() {
		var it domain.Item
		var price int64
		if err := rows.Scan(&it.ID, &it.Name, &it.CategoryID, &it.Image, &price, &it.Available); err != nil {
			rows.Close()
			return nil, err
		}
		it.Price = money.Amount(price)
		it.Variations = []domain.Variation{}
		it.Addons = []domain.Addon{}
		index[it.ID] = len(items)
		items = append(items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}

	vrows, err := r.pool.Query(ctx, `SELECT id, item_id, name, price_cents FROM item_variations WHERE item_id = ANY($1) ORDER BY position, id`, ids)
	if err != nil {
		return nil, err
	}
	for vrows.Next() {
		var v domain.Variation
		var itemID string
		var price int64
		if err := vrows.Scan(&v.ID, &itemID, &v.Name, &price); err != nil {
			vrows.Close()
			return nil, err
		}
		v.Price = money.Amount(price)
		i := index[itemID]
		items[i].Variations = append(items[i].Variations, v)
	}
	vrows.Close()
	if err := vrows.Err(); err != nil {
		return nil, err
	}

	arows, err := r.pool.Query(ctx, `SELECT id, item_id, name, price_cents FROM item_addons WHERE item_id = ANY($1) ORDER BY position, id`, ids)
	if err != nil {
		return nil, err
	}
	defer arows.Close()
	for arows.Next() {
		var a domain.Addon
		var itemID string
		var price int64
		if err := arows.Scan(&a.ID, &itemID, &a.Name, &price); err != nil {
			return nil, err
		}
		a.Price = money.Amount(price)
		i := index[itemID]
		items[i].Addons = append(items[i].Addons, a)
	}
	return items, arows.Err()
}
