// Package coins — repository.go: журнал транзакций в PostgreSQL.
package coins

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository работает с таблицей coin_transactions.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Balance возвращает баланс игрока — сумму всех его транзакций.
func (r *Repository) Balance(ctx context.Context, chatID, userID int64) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM coin_transactions
		 WHERE chat_id = $1 AND user_id = $2`,
		chatID, userID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("ошибка запроса баланса: %w", err)
	}
	return balance, nil
}

// Append добавляет запись в журнал.
func (r *Repository) Append(ctx context.Context, tx *Transaction) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO coin_transactions (chat_id, user_id, amount, type, meta)
		 VALUES ($1, $2, $3, $4, $5)`,
		tx.ChatID, tx.UserID, tx.Amount, tx.Type, tx.Meta)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}
	return nil
}

// AppendPair атомарно добавляет две записи журнала (перевод:
// списание у отправителя и зачисление получателю).
func (r *Repository) AppendPair(ctx context.Context, out, in *Transaction) error {
	dbtx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer dbtx.Rollback(ctx)

	for _, t := range []*Transaction{out, in} {
		_, err = dbtx.Exec(ctx,
			`INSERT INTO coin_transactions (chat_id, user_id, amount, type, meta)
			 VALUES ($1, $2, $3, $4, $5)`,
			t.ChatID, t.UserID, t.Amount, t.Type, t.Meta)
		if err != nil {
			return fmt.Errorf("ошибка записи транзакции перевода: %w", err)
		}
	}
	return dbtx.Commit(ctx)
}
