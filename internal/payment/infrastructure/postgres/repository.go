package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/restaurant-pos/internal/payment/domain"
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

func (r *Repository) OrderTotal(ctx context.Context, orderID string) (money.Amount, bool, error) {
	var (
		total  int64
		status string
	)
	err := r.pool.QueryRow(ctx, `SELECT total_cents, payment_status FROM orders WHERE id=$1`, orderID).Scan(&total, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, domain.ErrOrderNotFound
	}
	if err != nil {
		return 0, false, err
	}
	return money.Amount(total), status == "paid", nil
}

func (r *Repository) SaveIntent(ctx context.Context, in domain.Intent) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO payment_intents (id, order_id, amount_cents, client_secret, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		in.ID, in.OrderID, int64(in.Amount), in.ClientSecret, in.Status, in.CreatedAt, in.UpdatedAt)
	return err
}

func (r *Repository) Intent(ctx context.Context, id string) (domain.Intent, error) {
	var (
		in     domain.Intent
		amount int64
	)
	err := r.pool.QueryRow(ctx, `SELECT id, order_id, amount_cents, client_secret, status, created_at, updated_at
		FROM payment_intents WHERE id=$1`, id).
		Scan(&in.ID, &in.OrderID, &amount, &in.ClientSecret, &in.Status, &in.CreatedAt, &in.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Intent{}, domain.ErrIntentNotFound
	}
	if err != nil {
		return domain.Intent{}, err
	}
	in.Amount = money.Amount(amount)
	return in, nil
}

func (r *Repository) SettleWithOutbox(ctx context.Context, p domain.Payment, intent domain.IntentStatus, ev outbox.Event) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ct, err := tx.Exec(ctx, `UPDATE payment_intents SET status=$2, updated_at=$3 WHERE id=$1 AND status='requires_payment'`,
		p.IntentID, intent, p.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrAlreadySettled
	}

	_, err = tx.Exec(ctx, `INSERT INTO payments (order_id, intent_id, amount_cents, status, reason, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (order_id) DO UPDATE SET intent_id=$2, amount_cents=$3, status=$4, reason=$5, updated_at=$7`,
		p.OrderID, p.IntentID, int64(p.Amount), p.Status, p.Reason, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}

	paymentStatus := "failed"
	if p.Status == domain.StatusProcessed {
		paymentStatus = "paid"
	}
	_, err = tx.Exec(ctx, `UPDATE orders SET payment_status=$2, updated_at=$3 WHERE id=$1 AND payment_status <> 'paid'`,
		p.OrderID, paymentStatus, p.UpdatedAt)
	if err != nil {
		return err
	}

	if err := outbox.Insert(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
