// Package coins — service.go: бизнес-логика экономики.
package coins

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vodka-429/pidor-bot-2/internal/common"
	"github.com/vodka-429/pidor-bot-2/internal/config"
	"github.com/vodka-429/pidor-bot-2/internal/features/players"
)

// Ledger — журнал транзакций. Реализуется Repository и фейком в тестах.
type Ledger interface {
	Balance(ctx context.Context, chatID, userID int64) (int64, error)
	Append(ctx context.Context, tx *Transaction) error
	AppendPair(ctx context.Context, out, in *Transaction) error
}

// PlayerLookup — поиск игроков для переводов по @username.
type PlayerLookup interface {
	Get(ctx context.Context, chatID, userID int64) (*players.Player, error)
	GetByUsername(ctx context.Context, chatID int64, username string) (*players.Player, error)
}

// Service — операции с пидоркойнами одного процесса.
// Переводы сериализуются мьютексом: проверка баланса и списание
// не атомарны на уровне БД.
type Service struct {
	ledger  Ledger
	lookup  PlayerLookup
	cfg     *config.Config
	transMu sync.Mutex
}

// NewService создаёт сервис экономики.
func NewService(ledger Ledger, lookup PlayerLookup, cfg *config.Config) *Service {
	return &Service{ledger: ledger, lookup: lookup, cfg: cfg}
}

// Balance возвращает баланс игрока.
func (s *Service) Balance(ctx context.Context, chatID, userID int64) (int64, error) {
	return s.ledger.Balance(ctx, chatID, userID)
}

// AwardWin начисляет награду за победу в розыгрыше.
// Реализует game.Rewarder.
func (s *Service) AwardWin(ctx context.Context, chatID, userID int64, year int) error {
	err := s.ledger.Append(ctx, &Transaction{
		ChatID: chatID,
		UserID: userID,
		Amount: s.cfg.GameCoinsPerWin,
		Type:   TxWinReward,
		Meta:   fmt.Sprintf("победа %d", year),
	})
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"chat_id": chatID,
		"user_id": userID,
		"amount":  s.cfg.GameCoinsPerWin,
	}).Debug("Награда за победу начислена")
	return nil
}

// Transfer переводит койны от одного игрока другому.
// Минимальная сумма — GameTransferMin, себе переводить нельзя,
// уходить в минус нельзя.
func (s *Service) Transfer(ctx context.Context, chatID, fromID, toID, amount int64) error {
	if amount < s.cfg.GameTransferMin {
		return common.ErrInvalidAmount
	}
	if fromID == toID {
		return common.ErrSelfTransfer
	}

	target, err := s.lookup.Get(ctx, chatID, toID)
	if err != nil {
		return err
	}
	if target == nil {
		return common.ErrUnknownPlayer
	}

	s.transMu.Lock()
	defer s.transMu.Unlock()

	balance, err := s.ledger.Balance(ctx, chatID, fromID)
	if err != nil {
		return err
	}
	if balance < amount {
		return common.ErrInsufficientBalance
	}

	err = s.ledger.AppendPair(ctx,
		&Transaction{
			ChatID: chatID,
			UserID: fromID,
			Amount: -amount,
			Type:   TxTransferOut,
			Meta:   fmt.Sprintf("перевод игроку %d", toID),
		},
		&Transaction{
			ChatID: chatID,
			UserID: toID,
			Amount: amount,
			Type:   TxTransferIn,
			Meta:   fmt.Sprintf("перевод от игрока %d", fromID),
		})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"chat_id": chatID,
		"from":    fromID,
		"to":      toID,
		"amount":  amount,
	}).Info("Перевод койнов выполнен")
	return nil
}

// ResolveTarget находит получателя перевода по @username.
func (s *Service) ResolveTarget(ctx context.Context, chatID int64, username string) (*players.Player, error) {
	p, err := s.lookup.GetByUsername(ctx, chatID, username)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, common.ErrUnknownPlayer
	}
	return p, nil
}
