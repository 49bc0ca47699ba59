// Package game — handlers.go: обработчики игровых команд.
// Слой между Telegram и сервисом: парсит входящее, зовёт сервис,
// форматирует ответ. «Сегодня» всегда берётся в часовом поясе бота
// и передаётся сервису явно.
package game

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vodka-429/pidor-bot-2/internal/common"
	"github.com/vodka-429/pidor-bot-2/internal/config"
)

const rulesText = `Правила игры «Пидор дня» 📜

1. Зарегистрируйся: /pidoreg
2. Раз в день любой участник запускает розыгрыш: /pidor
3. Бот выбирает пидора дня случайно и равновероятно. Все дни — новые дни: вчерашние заслуги не влияют.
4. Результат дня окончательный: перерозыгрыша нет.
5. Пропустили день — никто не виноват, но бот всё помнит: /pidormissed
6. 29-30 декабря, если пропущено меньше 10 дней, чат может раздать их голосованием: /pidorfinal. Вес голоса равен числу твоих побед в этом году.

Статистика: /pidorstats — за год, /pidorall — за всё время, /pidorme — личная. Архив: /pidor2024 и т.п.`

// Handler обрабатывает игровые команды.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
	cfg     *config.Config
}

// NewHandler создаёт обработчик игровых команд.
func NewHandler(service *Service, bot *tgbotapi.BotAPI, cfg *config.Config) *Handler {
	return &Handler{service: service, bot: bot, cfg: cfg}
}

func (h *Handler) now() time.Time {
	return time.Now().In(h.cfg.Location())
}

// HandlePidor обрабатывает /pidor — ежедневный розыгрыш.
// Сначала, если с прошлого розыгрыша были пропуски, уходит
// драматическое сообщение, затем четыре этапа интриги с паузами.
func (h *Handler) HandlePidor(ctx context.Context, chatID int64) {
	result, err := h.service.PerformDraw(ctx, chatID, h.now())

	var already *AlreadyDrawnError
	switch {
	case errors.As(err, &already):
		h.sendMessage(chatID, fmt.Sprintf(
			"Сегодня пидор дня уже определён — это %s! Следующий розыгрыш завтра 😉",
			already.Winner.DisplayName()))
		return
	case errors.Is(err, common.ErrNotEnoughPlayers):
		h.sendMessage(chatID, fmt.Sprintf(
			"Маловато участников! Для игры нужно хотя бы %d. Зовите друзей: /pidoreg",
			h.cfg.GameMinPlayers))
		return
	case err != nil:
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка розыгрыша")
		h.sendMessage(chatID, "❌ Что-то пошло не так, попробуйте ещё раз")
		return
	}

	if drama := DramaticMessage(result.Gap.Severity, result.Gap.GapDays); drama != "" {
		h.sendMessage(chatID, drama)
		time.Sleep(h.cfg.GameStageDelay)
	}

	stages := h.service.Stages()
	for _, s := range stages[:3] {
		h.sendMessage(chatID, s)
		time.Sleep(h.cfg.GameStageDelay)
	}
	h.sendMessage(chatID, fmt.Sprintf(stages[3], result.Winner.DisplayName()))
}

// HandleMissed обрабатывает /pidormissed — список пропущенных дней года.
func (h *Handler) HandleMissed(ctx context.Context, chatID int64) {
	today := h.now()
	missed, err := h.service.ListMissed(ctx, chatID, today)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка запроса пропущенных дней")
		h.sendMessage(chatID, "❌ Не удалось получить список пропущенных дней")
		return
	}

	if len(missed) == 0 {
		h.sendMessage(chatID, fmt.Sprintf("Пропущенных дней в %d году нет. Так держать! 💪", today.Year()))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Пропущено в %d году: %d %s",
		today.Year(), len(missed), common.PluralizeDays(len(missed)))

	if len(missed) < h.cfg.GameMaxMissedForVote {
		sb.WriteString("\n")
		for _, d := range missed {
			fmt.Fprintf(&sb, "\n• %s", common.FormatDayMonth(DayToDate(today.Year(), d, h.cfg.Location())))
		}
		sb.WriteString("\n\n29-30 декабря их можно раздать финальным голосованием: /pidorfinal")
	} else {
		fmt.Fprintf(&sb, "\n\nСлишком много для финального голосования (лимит — меньше %d). Эти дни так и останутся без пидора 🕳",
			h.cfg.GameMaxMissedForVote)
	}
	h.sendMessage(chatID, sb.String())
}

// HandleFinal обрабатывает /pidorfinal — открытие финального голосования.
func (h *Handler) HandleFinal(ctx context.Context, chatID int64) {
	opening, err := h.service.OpenVote(ctx, chatID, h.now())

	var inel *IneligibleError
	switch {
	case errors.As(err, &inel):
		h.sendMessage(chatID, "🚫 "+inel.Reason)
		return
	case errors.Is(err, common.ErrVoteFinished):
		h.sendMessage(chatID, "Финальное голосование этого года уже состоялось. Итоги: /pidorfinalstatus")
		return
	case err != nil:
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка открытия голосования")
		h.sendMessage(chatID, "❌ Не удалось открыть голосование")
		return
	}

	var sb strings.Builder
	if opening.AlreadyOpen {
		sb.WriteString("Голосование уже идёт! Напоминаю расклад.\n\n")
	} else {
		sb.WriteString("🗳 ФИНАЛЬНОЕ ГОЛОСОВАНИЕ ГОДА!\n\n")
	}
	fmt.Fprintf(&sb, "На кону %d %s без пидора. Кому чат присудит их все?\n\n",
		len(opening.MissedDays), common.PluralizeDays(len(opening.MissedDays)))
	sb.WriteString("Вес твоего голоса равен числу твоих побед в этом году. Переголосовать можно — считается последний выбор.")

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = h.voteKeyboard(opening)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки голосования")
	}
}

func (h *Handler) voteKeyboard(opening *VoteOpening) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(opening.Candidates))
	for _, c := range opening.Candidates {
		label := fmt.Sprintf("%s (%d %s)",
			c.DisplayName(), opening.Weights[c.UserID], common.PluralizeWins(opening.Weights[c.UserID]))
		data := fmt.Sprintf("vote_%d_%d", opening.Session.Year, c.UserID)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, data)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// HandleVoteCallback обрабатывает нажатие кнопки голосования.
// Формат callback data: vote_<год>_<user_id>.
func (h *Handler) HandleVoteCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	parts := strings.Split(query.Data, "_")
	if len(parts) != 3 || parts[0] != "vote" {
		h.answerCallback(query.ID, "Непонятная кнопка 🤔")
		return
	}
	year, err1 := strconv.Atoi(parts[1])
	targetID, err2 := strconv.ParseInt(parts[2], 10, 64)
	if err1 != nil || err2 != nil {
		h.answerCallback(query.ID, "Непонятная кнопка 🤔")
		return
	}

	today := h.now()
	if year != today.Year() {
		h.answerCallback(query.ID, "Это голосование прошлого года")
		return
	}

	err := h.service.CastBallot(ctx, chatID, query.From.ID, targetID, today)
	switch {
	case errors.Is(err, common.ErrVoteNotOpen):
		h.answerCallback(query.ID, "Голосование сейчас не идёт")
	case errors.Is(err, common.ErrUnknownPlayer):
		h.answerCallback(query.ID, "Этот игрок не зарегистрирован")
	case err != nil:
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка приёма голоса")
		h.answerCallback(query.ID, "Не удалось принять голос, попробуй ещё раз")
	default:
		h.answerCallback(query.ID, "Голос принят! ✅")
	}
}

// HandleFinalStatus обрабатывает /pidorfinalstatus — состояние голосования.
func (h *Handler) HandleFinalStatus(ctx context.Context, chatID int64) {
	st, err := h.service.VoteStatus(ctx, chatID, h.now())
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка запроса статуса голосования")
		h.sendMessage(chatID, "❌ Не удалось получить статус голосования")
		return
	}

	switch st.State {
	case SessionOpen:
		h.sendMessage(chatID, fmt.Sprintf(
			"🗳 Голосование идёт с %s.\nПодано: %d %s. На кону: %d %s.\nЗакрыть и подсчитать (только админ): /pidorfinalclose",
			common.FormatDateTime(st.OpenedAt),
			st.BallotCount, common.PluralizeVotes(st.BallotCount),
			st.MissedCount, common.PluralizeDays(st.MissedCount)))
	case SessionTallied:
		winner := "неизвестный герой"
		if st.Winner != nil {
			winner = st.Winner.DisplayName()
		}
		h.sendMessage(chatID, fmt.Sprintf(
			"Голосование завершено %s.\nПобедитель: %s, зачислено %d %s 🏆",
			common.FormatDateTime(*st.TalliedAt),
			winner, st.AwardedDays, common.PluralizeDays(st.AwardedDays)))
	default:
		h.sendMessage(chatID, fmt.Sprintf(
			"Голосование не запущено. Пропущено дней: %d.\nОткрыть можно 29-30 декабря: /pidorfinal",
			st.MissedCount))
	}
}

// HandleFinalClose обрабатывает /pidorfinalclose — подсчёт голосов.
// Доступно только администраторам чата.
func (h *Handler) HandleFinalClose(ctx context.Context, chatID int64, user *tgbotapi.User) {
	admin, err := h.isAdmin(chatID, user.ID)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка проверки прав администратора")
		h.sendMessage(chatID, "❌ Не удалось проверить права, попробуйте ещё раз")
		return
	}
	if !admin {
		h.sendMessage(chatID, "Закрывать голосование может только администратор чата 👮")
		return
	}

	result, err := h.service.Tally(ctx, chatID, h.now())
	switch {
	case errors.Is(err, common.ErrVoteNotOpen):
		h.sendMessage(chatID, "Нечего закрывать: голосование не открыто")
		return
	case errors.Is(err, common.ErrNoBallots):
		h.sendMessage(chatID, "Ни одного голоса! Голосование остаётся открытым — жмите кнопки 🗳")
		return
	case err != nil:
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка подсчёта голосов")
		h.sendMessage(chatID, "❌ Не удалось подсчитать голоса")
		return
	}

	var sb strings.Builder
	sb.WriteString("🏁 ИТОГИ ФИНАЛЬНОГО ГОЛОСОВАНИЯ!\n\n")
	fmt.Fprintf(&sb, "Победитель — %s со взвешенным счётом %d!\n", result.Winner.DisplayName(), result.Score)
	fmt.Fprintf(&sb, "Все %d %s пропусков записаны на его счёт. Поздравляем! 🎊",
		result.AwardedDays, common.PluralizeDays(result.AwardedDays))
	h.sendMessage(chatID, sb.String())
}

// HandleRules обрабатывает /pidorules.
func (h *Handler) HandleRules(chatID int64) {
	h.sendMessage(chatID, rulesText)
}

// HandleStats обрабатывает /pidorstats и архивные /pidor20XX.
func (h *Handler) HandleStats(ctx context.Context, chatID int64, year int) {
	stats, err := h.service.YearStats(ctx, chatID, year)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка запроса статистики")
		h.sendMessage(chatID, "❌ Не удалось получить статистику")
		return
	}
	h.sendStatsTable(chatID, fmt.Sprintf("Пидоры %d года", year), stats)
}

// HandleAll обрабатывает /pidorall — статистика за всё время.
func (h *Handler) HandleAll(ctx context.Context, chatID int64) {
	stats, err := h.service.AllTimeStats(ctx, chatID)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка запроса статистики")
		h.sendMessage(chatID, "❌ Не удалось получить статистику")
		return
	}
	h.sendStatsTable(chatID, "Пидоры всех времён", stats)
}

// HandleMe обрабатывает /pidorme — личная статистика.
func (h *Handler) HandleMe(ctx context.Context, chatID int64, user *tgbotapi.User) {
	wins, err := h.service.PersonalWins(ctx, chatID, user.ID)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка запроса личной статистики")
		h.sendMessage(chatID, "❌ Не удалось получить статистику")
		return
	}
	if wins == 0 {
		h.sendMessage(chatID, "Ты ещё ни разу не был пидором дня. Чистая карма! 😇")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("Ты был пидором дня %d %s 🏅", wins, common.PluralizeWins(wins)))
}

func (h *Handler) sendStatsTable(chatID int64, title string, stats []PlayerWins) {
	if len(stats) == 0 {
		h.sendMessage(chatID, "Статистика пуста: розыгрышей ещё не было. Начните: /pidor")
		return
	}

	medals := []string{"🥇", "🥈", "🥉"}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:\n", title)
	for i, s := range stats {
		prefix := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			prefix = medals[i]
		}
		fmt.Fprintf(&sb, "\n%s %s — %d %s", prefix, s.Player.DisplayName(), s.Wins, common.PluralizeWins(s.Wins))
	}
	h.sendMessage(chatID, sb.String())
}

// isAdmin проверяет, является ли пользователь администратором чата.
func (h *Handler) isAdmin(chatID, userID int64) (bool, error) {
	member, err := h.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	if err != nil {
		return false, fmt.Errorf("ошибка запроса участника чата: %w", err)
	}
	return member.Status == "creator" || member.Status == "administrator", nil
}

func (h *Handler) answerCallback(callbackID, text string) {
	cb := tgbotapi.NewCallback(callbackID, text)
	if _, err := h.bot.Request(cb); err != nil {
		log.WithError(err).Error("Ошибка ответа на callback")
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
