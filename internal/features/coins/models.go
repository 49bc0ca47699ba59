// Package coins — экономика пидоркойнов: награды за победы
// и переводы между игроками. Баланс нигде не хранится как число —
// он всегда сумма неизменяемого журнала транзакций.
package coins

import "time"

// TxType — тип транзакции.
type TxType string

const (
	// TxWinReward — награда за победу в ежедневном розыгрыше
	TxWinReward TxType = "win_reward"
	// TxTransferOut — списание при переводе другому игроку
	TxTransferOut TxType = "transfer_out"
	// TxTransferIn — зачисление при переводе от другого игрока
	TxTransferIn TxType = "transfer_in"
)

// Transaction — одна запись журнала. Amount со знаком:
// положительный при зачислении, отрицательный при списании.
type Transaction struct {
	ID        int64     `db:"id"`
	ChatID    int64     `db:"chat_id"`
	UserID    int64     `db:"user_id"`
	Amount    int64     `db:"amount"`
	Type      TxType    `db:"type"`
	Meta      string    `db:"meta"` // свободный комментарий: год победы, контрагент перевода
	CreatedAt time.Time `db:"created_at"`
}
