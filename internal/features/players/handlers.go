// Package players — handlers.go обрабатывает команду /pidoreg.
package players

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vodka-429/pidor-bot-2/internal/common"
)

// Handler обрабатывает команды регистрации.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт новый обработчик команд регистрации.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleRegister обрабатывает /pidoreg — вступление в игру чата.
func (h *Handler) HandleRegister(ctx context.Context, chatID int64, user *tgbotapi.User) {
	err := h.service.Register(ctx, chatID, user.ID, user.UserName, user.FirstName, user.LastName)
	if errors.Is(err, common.ErrAlreadyRegistered) {
		h.sendMessage(chatID, "Ты уже в игре, дружок-пирожок 😏")
		return
	}
	if err != nil {
		log.WithError(err).Error("Ошибка регистрации игрока")
		h.sendMessage(chatID, "❌ Не получилось зарегистрироваться, попробуй ещё раз")
		return
	}
	h.sendMessage(chatID, "Поздравляю! Теперь ты участвуешь в игре «Пидор дня» 🎉")
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
