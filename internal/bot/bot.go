// Package bot — приём апдейтов Telegram и маршрутизация команд.
package bot

import (
	"context"
	"regexp"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vodka-429/pidor-bot-2/internal/bot/filters"
	"github.com/vodka-429/pidor-bot-2/internal/bot/middleware"
	"github.com/vodka-429/pidor-bot-2/internal/config"
	"github.com/vodka-429/pidor-bot-2/internal/features/coins"
	"github.com/vodka-429/pidor-bot-2/internal/features/game"
	"github.com/vodka-429/pidor-bot-2/internal/features/players"
)

// Архивные команды статистики: /pidor2024, /pidor2025, ...
var archiveStatsRe = regexp.MustCompile(`^pidor(\d{4})$`)

// Bot принимает апдейты long polling-ом и раздаёт их обработчикам.
type Bot struct {
	api     *tgbotapi.BotAPI
	cfg     *config.Config
	filter  *filters.ChatFilter
	handler middleware.HandlerFunc

	playersSvc     *players.Service
	playersHandler *players.Handler
	gameHandler    *game.Handler
	coinsHandler   *coins.Handler // nil, если экономика выключена
}

// New создаёт бота с цепочкой middleware: recovery → logger → ratelimit.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	playersSvc *players.Service,
	playersHandler *players.Handler,
	gameHandler *game.Handler,
	coinsHandler *coins.Handler,
) *Bot {
	b := &Bot{
		api:            api,
		cfg:            cfg,
		filter:         filters.NewChatFilter(cfg.ChatIDs),
		playersSvc:     playersSvc,
		playersHandler: playersHandler,
		gameHandler:    gameHandler,
		coinsHandler:   coinsHandler,
	}
	b.handler = middleware.Chain(
		b.dispatch,
		middleware.Recovery(),
		middleware.Logger(),
		middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow),
	)
	return b
}

// Run запускает приём апдейтов и блокируется до отмены контекста.
// Апдейты обрабатываются параллельно, но не больше BotMaxInflight
// одновременно.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds
	updates := b.api.GetUpdatesChan(u)

	log.WithField("bot", b.api.Self.UserName).Info("Бот запущен, принимаю апдейты")

	inflight := make(chan struct{}, b.cfg.BotMaxInflight)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			log.Info("Приём апдейтов остановлен")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if !b.filter.Allow(update) {
				continue
			}
			inflight <- struct{}{}
			go func(update tgbotapi.Update) {
				defer func() { <-inflight }()
				b.handler(ctx, update)
			}(update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.gameHandler.HandleVoteCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.refreshSender(ctx, update.Message)
		b.routeCommand(ctx, update.Message)
	case update.Message != nil:
		b.refreshSender(ctx, update.Message)
	}
}

// refreshSender обновляет имя отправителя в справочнике игроков:
// в Telegram имена и @username меняются, а бот показывает их в статистике.
func (b *Bot) refreshSender(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}
	err := b.playersSvc.RefreshInfo(ctx, msg.Chat.ID,
		msg.From.ID, msg.From.UserName, msg.From.FirstName, msg.From.LastName)
	if err != nil {
		log.WithError(err).WithField("user_id", msg.From.ID).Warn("Не удалось обновить данные игрока")
	}
}

func (b *Bot) routeCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	// Command() уже отрезал слэш и @имя_бота
	cmd := msg.Command()

	switch cmd {
	case "pidor":
		b.gameHandler.HandlePidor(ctx, chatID)
	case "pidoreg":
		b.playersHandler.HandleRegister(ctx, chatID, msg.From)
	case "pidorules":
		b.gameHandler.HandleRules(chatID)
	case "pidorstats":
		b.gameHandler.HandleStats(ctx, chatID, time.Now().In(b.cfg.Location()).Year())
	case "pidorall":
		b.gameHandler.HandleAll(ctx, chatID)
	case "pidorme":
		b.gameHandler.HandleMe(ctx, chatID, msg.From)
	case "pidormissed":
		b.gameHandler.HandleMissed(ctx, chatID)
	case "pidorfinal":
		b.gameHandler.HandleFinal(ctx, chatID)
	case "pidorfinalstatus":
		b.gameHandler.HandleFinalStatus(ctx, chatID)
	case "pidorfinalclose":
		b.gameHandler.HandleFinalClose(ctx, chatID, msg.From)
	case "pidorcoins":
		if b.coinsHandler != nil {
			b.coinsHandler.HandleCoins(ctx, chatID, msg.From)
		}
	case "pidortransfer":
		if b.coinsHandler != nil {
			b.coinsHandler.HandleTransfer(ctx, chatID, msg.From, msg.CommandArguments())
		}
	default:
		if m := archiveStatsRe.FindStringSubmatch(cmd); m != nil {
			year, err := strconv.Atoi(m[1])
			if err == nil {
				b.gameHandler.HandleStats(ctx, chatID, year)
			}
		}
		// незнакомые команды молча игнорируются: в групповом чате
		// могут жить и другие боты
	}
}
