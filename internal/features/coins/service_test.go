package coins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vodka-429/pidor-bot-2/internal/common"
	"github.com/vodka-429/pidor-bot-2/internal/config"
	"github.com/vodka-429/pidor-bot-2/internal/features/players"
)

type fakeLedger struct {
	txs []*Transaction
}

func (l *fakeLedger) Balance(_ context.Context, chatID, userID int64) (int64, error) {
	var sum int64
	for _, tx := range l.txs {
		if tx.ChatID == chatID && tx.UserID == userID {
			sum += tx.Amount
		}
	}
	return sum, nil
}

func (l *fakeLedger) Append(_ context.Context, tx *Transaction) error {
	l.txs = append(l.txs, tx)
	return nil
}

func (l *fakeLedger) AppendPair(_ context.Context, out, in *Transaction) error {
	l.txs = append(l.txs, out, in)
	return nil
}

type fakeLookup struct {
	known map[int64]*players.Player
}

func (f *fakeLookup) Get(_ context.Context, _ int64, userID int64) (*players.Player, error) {
	return f.known[userID], nil
}

func (f *fakeLookup) GetByUsername(_ context.Context, _ int64, username string) (*players.Player, error) {
	for _, p := range f.known {
		if p.Username == username {
			return p, nil
		}
	}
	return nil, nil
}

const chat int64 = -42

func newTestService() (*Service, *fakeLedger) {
	ledger := &fakeLedger{}
	lookup := &fakeLookup{known: map[int64]*players.Player{
		1: {UserID: 1, Username: "alice"},
		2: {UserID: 2, Username: "bob"},
	}}
	cfg := &config.Config{GameCoinsPerWin: 4, GameTransferMin: 2}
	return NewService(ledger, lookup, cfg), ledger
}

func TestAwardWin(t *testing.T) {
	ctx := context.Background()
	svc, ledger := newTestService()

	require.NoError(t, svc.AwardWin(ctx, chat, 1, 2025))
	require.NoError(t, svc.AwardWin(ctx, chat, 1, 2025))

	balance, err := svc.Balance(ctx, chat, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(8), balance)
	assert.Len(t, ledger.txs, 2)
	assert.Equal(t, TxWinReward, ledger.txs[0].Type)
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	require.NoError(t, svc.AwardWin(ctx, chat, 1, 2025)) // баланс 4

	require.NoError(t, svc.Transfer(ctx, chat, 1, 2, 3))

	from, err := svc.Balance(ctx, chat, 1)
	require.NoError(t, err)
	to, err := svc.Balance(ctx, chat, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), from)
	assert.Equal(t, int64(3), to)
}

func TestTransferErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	require.NoError(t, svc.AwardWin(ctx, chat, 1, 2025)) // баланс 4

	t.Run("меньше минимальной суммы", func(t *testing.T) {
		assert.ErrorIs(t, svc.Transfer(ctx, chat, 1, 2, 1), common.ErrInvalidAmount)
	})
	t.Run("перевод самому себе", func(t *testing.T) {
		assert.ErrorIs(t, svc.Transfer(ctx, chat, 1, 1, 3), common.ErrSelfTransfer)
	})
	t.Run("незарегистрированный получатель", func(t *testing.T) {
		assert.ErrorIs(t, svc.Transfer(ctx, chat, 1, 999, 3), common.ErrUnknownPlayer)
	})
	t.Run("недостаточно средств", func(t *testing.T) {
		assert.ErrorIs(t, svc.Transfer(ctx, chat, 1, 2, 100), common.ErrInsufficientBalance)
	})
	t.Run("баланс не изменился", func(t *testing.T) {
		balance, err := svc.Balance(ctx, chat, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(4), balance)
	})
}

func TestResolveTarget(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	p, err := svc.ResolveTarget(ctx, chat, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.UserID)

	_, err = svc.ResolveTarget(ctx, chat, "nobody")
	assert.ErrorIs(t, err, common.ErrUnknownPlayer)
}
