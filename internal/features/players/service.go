// Package players — service.go содержит бизнес-логику регистрации игроков.
package players

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vodka-429/pidor-bot-2/internal/common"
)

// Service управляет игроками чата.
type Service struct {
	repo *Repository
}

// NewService создаёт новый сервис игроков.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Register регистрирует игрока в игре чата (/pidoreg).
// Повторная регистрация возвращает ErrAlreadyRegistered.
func (s *Service) Register(ctx context.Context, chatID, userID int64, username, firstName, lastName string) error {
	exists, err := s.repo.Exists(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if exists {
		return common.ErrAlreadyRegistered
	}

	p := &Player{
		ChatID:    chatID,
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("ошибка регистрации: %w", err)
	}

	log.WithFields(log.Fields{
		"chat_id":  chatID,
		"user_id":  userID,
		"username": username,
	}).Info("Игрок зарегистрирован")

	return nil
}

// RefreshInfo обновляет имя/username уже зарегистрированного игрока.
// Вызывается на каждом сообщении игрока — имена в Telegram меняются.
func (s *Service) RefreshInfo(ctx context.Context, chatID, userID int64, username, firstName, lastName string) error {
	exists, err := s.repo.Exists(ctx, chatID, userID)
	if err != nil || !exists {
		return err
	}
	return s.repo.Create(ctx, &Player{
		ChatID:    chatID,
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
	})
}

// Get возвращает игрока чата или (nil, nil), если он не зарегистрирован.
func (s *Service) Get(ctx context.Context, chatID, userID int64) (*Player, error) {
	return s.repo.GetByUserID(ctx, chatID, userID)
}

// GetByUsername возвращает игрока чата по @username (без @).
func (s *Service) GetByUsername(ctx context.Context, chatID int64, username string) (*Player, error) {
	return s.repo.GetByUsername(ctx, chatID, username)
}

// List возвращает всех игроков чата в стабильном порядке (по user_id).
func (s *Service) List(ctx context.Context, chatID int64) ([]*Player, error) {
	return s.repo.List(ctx, chatID)
}
