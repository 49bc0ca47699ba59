// Package coins — handlers.go: команды /pidorcoins и /pidortransfer.
package coins

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vodka-429/pidor-bot-2/internal/common"
	"github.com/vodka-429/pidor-bot-2/internal/config"
)

// Handler обрабатывает команды экономики.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
	cfg     *config.Config
}

// NewHandler создаёт обработчик команд экономики.
func NewHandler(service *Service, bot *tgbotapi.BotAPI, cfg *config.Config) *Handler {
	return &Handler{service: service, bot: bot, cfg: cfg}
}

// HandleCoins обрабатывает /pidorcoins — показ баланса.
func (h *Handler) HandleCoins(ctx context.Context, chatID int64, user *tgbotapi.User) {
	balance, err := h.service.Balance(ctx, chatID, user.ID)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка запроса баланса")
		h.sendMessage(chatID, "❌ Не удалось получить баланс")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("💰 Твой баланс: %s", common.FormatCoins(balance)))
}

// HandleTransfer обрабатывает /pidortransfer @username сумма.
func (h *Handler) HandleTransfer(ctx context.Context, chatID int64, user *tgbotapi.User, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		h.sendMessage(chatID, "Формат: /pidortransfer @username сумма")
		return
	}

	username := strings.TrimPrefix(fields[0], "@")
	amount, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || username == "" {
		h.sendMessage(chatID, "Формат: /pidortransfer @username сумма")
		return
	}

	target, err := h.service.ResolveTarget(ctx, chatID, username)
	if errors.Is(err, common.ErrUnknownPlayer) {
		h.sendMessage(chatID, fmt.Sprintf("Игрок @%s не зарегистрирован в этом чате", username))
		return
	}
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка поиска получателя перевода")
		h.sendMessage(chatID, "❌ Не удалось выполнить перевод")
		return
	}

	err = h.service.Transfer(ctx, chatID, user.ID, target.UserID, amount)
	switch {
	case errors.Is(err, common.ErrInvalidAmount):
		h.sendMessage(chatID, fmt.Sprintf("Минимальная сумма перевода — %s", common.FormatCoins(h.cfg.GameTransferMin)))
	case errors.Is(err, common.ErrSelfTransfer):
		h.sendMessage(chatID, "Перекладывать койны из кармана в карман нельзя 🙃")
	case errors.Is(err, common.ErrInsufficientBalance):
		h.sendMessage(chatID, "Недостаточно койнов. Баланс: /pidorcoins")
	case err != nil:
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка перевода")
		h.sendMessage(chatID, "❌ Не удалось выполнить перевод")
	default:
		h.sendMessage(chatID, fmt.Sprintf("✅ Перевод %s игроку %s выполнен!",
			common.FormatCoins(amount), target.DisplayName()))
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
