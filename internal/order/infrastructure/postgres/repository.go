package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/restaurant-pos/internal/order/domain"
	"github.com/dmehra2102/restaurant-pos/pkg/money"
	"github.com/dmehra2102/restaurant-pos/pkg/outbox"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) SaveWithOutbox(ctx context.Context, o domain.Order, ev outbox.Event) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `INSERT INTO orders (id, branch_id, type, source, payment_method, payment_status, status,
				customer_name, customer_phone, delivery_address, table_number, subtotal_cents, total_cents, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		o.ID, o.BranchID, o.Type, o.Source, o.PaymentMethod, o.PaymentStatus, o.Status,
		o.CustomerName, o.CustomerPhone, o.DeliveryAddress, o.TableNumber, int64(o.Subtotal), int64(o.Total), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, item := range o.Items {
		addons := item.AddonIDs
		if addons == nil {
			addons = []string{}
		}
		batch.Queue(`INSERT INTO order_items (order_id, line_no, menu_item_id, quantity, price_cents, variation_id, addon_ids)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			o.ID, i, item.MenuItemID, item.Quantity, int64(item.Price), item.VariationID, addons)
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	if err = outbox.Insert(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	var (
		o               domain.Order
		subtotal, total int64
	)
	err := r.pool.QueryRow(ctx, `SELECT id, branch_id, type, source, payment_method, payment_status, status,
			customer_name, customer_phone, delivery_address, table_number, subtotal_cents, total_cents, created_at, updated_at
		FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.BranchID, &o.Type, &o.Source, &o.PaymentMethod, &o.PaymentStatus, &o.Status,
			&o.CustomerName, &o.CustomerPhone, &o.DeliveryAddress, &o.TableNumber, &subtotal, &total, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	o.Subtotal, o.Total = money.Amount(subtotal), money.Amount(total)

	rows, err := r.pool.Query(ctx, `SELECT menu_item_id, quantity, price_cents, variation_id, addon_ids
		FROM order_items WHERE order_id=$1 ORDER BY line_no`, id)
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			item  domain.OrderItem
			price int64
		)
		if err := rows.Scan(&item.MenuItemID, &item.Quantity, &price, &item.VariationID, &item.AddonIDs); err != nil {
			return domain.Order{}, err
		}
		item.Price = money.Amount(price)
		if len(item.AddonIDs) == 0 {
			item.AddonIDs = nil
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}
