// Package jobs — фоновые задачи по расписанию.
// Вечернее напоминание о непроведённом розыгрыше и объявление
// окна финального голосования 29 декабря. Всё расписание живёт
// в часовом поясе бота.
package jobs

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/vodka-429/pidor-bot-2/internal/common"
	"github.com/vodka-429/pidor-bot-2/internal/config"
	"github.com/vodka-429/pidor-bot-2/internal/features/game"
)

// Scheduler запускает фоновые задачи бота.
type Scheduler struct {
	cron    *cron.Cron
	cfg     *config.Config
	bot     *tgbotapi.BotAPI
	gameSvc *game.Service
}

// NewScheduler создаёт планировщик в часовом поясе бота.
func NewScheduler(cfg *config.Config, bot *tgbotapi.BotAPI, gameSvc *game.Service) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(cfg.Location())),
		cfg:     cfg,
		bot:     bot,
		gameSvc: gameSvc,
	}
}

// Start регистрирует задачи и запускает планировщик.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.FeatureRemindersEnabled {
		spec := fmt.Sprintf("0 %d * * *", s.cfg.GameReminderHour)
		if _, err := s.cron.AddFunc(spec, func() { s.remindDraw(ctx) }); err != nil {
			return fmt.Errorf("ошибка регистрации напоминания: %w", err)
		}
	}

	// полдень 29 декабря — открылось окно финального голосования
	if _, err := s.cron.AddFunc("0 12 29 12 *", func() { s.announceVoteWindow(ctx) }); err != nil {
		return fmt.Errorf("ошибка регистрации объявления голосования: %w", err)
	}

	s.cron.Start()
	log.Info("Планировщик фоновых задач запущен")
	return nil
}

// Stop останавливает планировщик и дожидается текущих задач.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info("Планировщик фоновых задач остановлен")
}

// remindDraw напоминает чатам, где сегодня ещё не было розыгрыша.
func (s *Scheduler) remindDraw(ctx context.Context) {
	now := timeNow(s.cfg)
	for _, chatID := range s.cfg.ChatIDs {
		drawn, err := s.gameSvc.TodayDrawn(ctx, chatID, now)
		if err != nil {
			log.WithError(err).WithField("chat_id", chatID).Error("Ошибка проверки розыгрыша для напоминания")
			continue
		}
		if drawn {
			continue
		}
		s.send(chatID, "⏰ Напоминаю: пидор дня ещё не определён! Не копите пропуски: /pidor")
	}
}

// announceVoteWindow объявляет об открытии окна финального голосования
// в чатах, которым оно доступно (есть пропуски, но меньше лимита).
func (s *Scheduler) announceVoteWindow(ctx context.Context) {
	now := timeNow(s.cfg)
	for _, chatID := range s.cfg.ChatIDs {
		missed, err := s.gameSvc.ListMissed(ctx, chatID, now)
		if err != nil {
			log.WithError(err).WithField("chat_id", chatID).Error("Ошибка проверки пропусков для объявления")
			continue
		}
		if len(missed) == 0 || len(missed) >= s.cfg.GameMaxMissedForVote {
			continue
		}
		s.send(chatID, fmt.Sprintf(
			"🗳 Сегодня и завтра открыто окно финального голосования!\nВ этом году пропущено %d %s — их можно раздать одному счастливчику: /pidorfinal",
			len(missed), common.PluralizeDays(len(missed))))
	}
}

func timeNow(cfg *config.Config) time.Time {
	return time.Now().In(cfg.Location())
}

func (s *Scheduler) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := s.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения задачи")
	}
}
