// Package game — service.go: бизнес-логика игры.
// Оркестратор розыгрыша (4.5), анализ пропусков (4.1), журнал
// пропущенных дней (4.3) и машина состояний финального голосования (4.4).
//
// Сервис никогда не читает часы: «сегодня» передаётся явным параметром
// каждой операции — так поведение детерминировано в тестах. Генератор
// случайных чисел тоже внедряется снаружи.
package game

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vodka-429/pidor-bot-2/internal/common"
	"github.com/vodka-429/pidor-bot-2/internal/config"
	"github.com/vodka-429/pidor-bot-2/internal/features/players"
)

// Store — хранилище игровых данных. Реализуется Repository (PostgreSQL)
// и фейком в тестах. Методы, возвращающие указатель, отдают (nil, nil),
// когда записи нет.
type Store interface {
	// Розыгрыши
	DrawnDays(ctx context.Context, chatID int64, year int) ([]int, error)
	GetDraw(ctx context.Context, chatID int64, year, day int) (*DrawRecord, error)
	CreateDraw(ctx context.Context, rec *DrawRecord) error

	// Победы: количество за год (розыгрыши + дни, розданные голосованием)
	WinCounts(ctx context.Context, chatID int64, year int) (map[int64]int, error)
	WinCountsAllTime(ctx context.Context, chatID int64) (map[int64]int, error)

	// Журнал пропущенных дней: отметка «роздано по день N включительно»
	ResolvedThrough(ctx context.Context, chatID int64, year int) (int, error)

	// Финальное голосование
	GetSession(ctx context.Context, chatID int64, year int) (*VoteSession, error)
	OpenSession(ctx context.Context, chatID int64, year, missedCount int, openedAt time.Time) error
	SaveBallot(ctx context.Context, b *Ballot) error
	Ballots(ctx context.Context, chatID int64, year int) ([]Ballot, error)
	// FinalizeSession атомарно: переводит сессию в tallied, записывает
	// победителя и зачисленные дни, сдвигает отметку журнала.
	FinalizeSession(ctx context.Context, chatID int64, year int, winnerID int64, awarded, resolvedThrough int, talliedAt time.Time) error
}

// Directory — справочник игроков чата (реализуется players.Service).
type Directory interface {
	List(ctx context.Context, chatID int64) ([]*players.Player, error)
	Get(ctx context.Context, chatID, userID int64) (*players.Player, error)
}

// Rewarder начисляет награду за победу в розыгрыше (реализуется
// coins.Service). Может быть nil — тогда наград нет.
type Rewarder interface {
	AwardWin(ctx context.Context, chatID, userID int64, year int) error
}

// Service — ядро игры одного процесса. Все мутации сериализуются
// замком по (чат, год); чтения идут без замка.
type Service struct {
	store   Store
	dir     Directory
	rewards Rewarder
	cfg     *config.Config
	locks   *keyedLocks

	// rand.Rand не потокобезопасен, а розыгрыши разных чатов идут параллельно
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService создаёт сервис игры. rewards может быть nil.
func NewService(store Store, dir Directory, rewards Rewarder, cfg *config.Config, rng *rand.Rand) *Service {
	return &Service{
		store:   store,
		dir:     dir,
		rewards: rewards,
		cfg:     cfg,
		locks:   newKeyedLocks(),
		rng:     rng,
	}
}

func (s *Service) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

// Stages возвращает реплики этапов интриги для обработчика.
func (s *Service) Stages() [4]string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return DrawStages(s.rng)
}

// Gap анализирует пропуск с последнего розыгрыша. Только чтение.
func (s *Service) Gap(ctx context.Context, chatID int64, today time.Time) (GapReport, error) {
	year, day := today.Year(), DayOfYear(today)

	drawn, err := s.store.DrawnDays(ctx, chatID, year)
	if err != nil {
		return GapReport{}, err
	}
	return s.gapFromDrawn(drawn, year, day), nil
}

func (s *Service) gapFromDrawn(drawn []int, year, day int) GapReport {
	last := lastDay(drawn)
	gap := GapSinceLastDraw(last, day)
	return GapReport{
		Year:        year,
		LastDrawDay: last,
		GapDays:     gap,
		Severity:    ClassifyGap(gap),
	}
}

// TodayDrawn сообщает, проведён ли сегодня розыгрыш. Только чтение.
func (s *Service) TodayDrawn(ctx context.Context, chatID int64, today time.Time) (bool, error) {
	rec, err := s.store.GetDraw(ctx, chatID, today.Year(), DayOfYear(today))
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// PerformDraw проводит ежедневный розыгрыш:
//  1. считает пропуск с последнего розыгрыша (для драматического
//     сообщения — оно уйдёт перед объявлением, но розыгрыш не блокирует);
//  2. если сегодня уже есть победитель — AlreadyDrawnError с ним;
//  3. иначе равновероятно выбирает победителя среди зарегистрированных
//     игроков, создаёт запись розыгрыша и начисляет награду.
//
// Журнал пропущенных дней здесь не трогается: разрывы остаются
// открытыми до финального голосования.
func (s *Service) PerformDraw(ctx context.Context, chatID int64, today time.Time) (*DrawResult, error) {
	year, day := today.Year(), DayOfYear(today)
	defer s.locks.lock(chatID, year)()

	list, err := s.dir.List(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if len(list) < s.cfg.GameMinPlayers {
		return nil, common.ErrNotEnoughPlayers
	}

	drawn, err := s.store.DrawnDays(ctx, chatID, year)
	if err != nil {
		return nil, err
	}
	gap := s.gapFromDrawn(drawn, year, day)

	existing, err := s.store.GetDraw(ctx, chatID, year, day)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		winner, err := s.dir.Get(ctx, chatID, existing.WinnerID)
		if err != nil {
			return nil, err
		}
		return nil, &AlreadyDrawnError{Winner: winner}
	}

	winner := list[s.intn(len(list))]
	rec := &DrawRecord{
		ChatID:   chatID,
		Year:     year,
		Day:      day,
		WinnerID: winner.UserID,
	}
	if err := s.store.CreateDraw(ctx, rec); err != nil {
		return nil, fmt.Errorf("ошибка записи результата розыгрыша: %w", err)
	}

	log.WithFields(log.Fields{
		"chat_id": chatID,
		"year":    year,
		"day":     day,
		"winner":  winner.UserID,
		"gap":     gap.GapDays,
	}).Info("Розыгрыш проведён")

	// Награда не должна ломать уже состоявшийся розыгрыш
	if s.rewards != nil {
		if err := s.rewards.AwardWin(ctx, chatID, winner.UserID, year); err != nil {
			log.WithError(err).WithField("user_id", winner.UserID).Error("Ошибка начисления награды за победу")
		}
	}

	return &DrawResult{Winner: winner, Gap: gap}, nil
}

// ListMissed возвращает нерешённые пропущенные дни года по возрастанию:
// все дни с 1 января по вчера без розыгрыша, ещё не розданные
// голосованием. Только чтение, повторные вызовы дают тот же результат.
func (s *Service) ListMissed(ctx context.Context, chatID int64, today time.Time) ([]int, error) {
	year, day := today.Year(), DayOfYear(today)

	drawn, err := s.store.DrawnDays(ctx, chatID, year)
	if err != nil {
		return nil, err
	}
	resolved, err := s.store.ResolvedThrough(ctx, chatID, year)
	if err != nil {
		return nil, err
	}
	return MissedDays(drawn, day, resolved), nil
}

// OpenVote открывает финальное голосование за раздачу пропущенных дней.
// Доступно только 29-30 декабря (в часовом поясе бота), только если
// пропуски вообще есть и их МЕНЬШЕ GameMaxMissedForVote (ровно 10 —
// уже нельзя).
// Повторный вызов при открытой сессии сообщает AlreadyOpen, после
// подсчёта — ErrVoteFinished.
func (s *Service) OpenVote(ctx context.Context, chatID int64, today time.Time) (*VoteOpening, error) {
	year := today.Year()
	defer s.locks.lock(chatID, year)()

	if !inVoteWindow(today) {
		return nil, &IneligibleError{
			Reason: "финальное голосование доступно только 29 и 30 декабря",
		}
	}

	missed, err := s.ListMissed(ctx, chatID, today)
	if err != nil {
		return nil, err
	}

	sess, err := s.store.GetSession(ctx, chatID, year)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		switch sess.State {
		case SessionTallied:
			return nil, common.ErrVoteFinished
		case SessionOpen:
			candidates, weights, err := s.voteContext(ctx, chatID, year)
			if err != nil {
				return nil, err
			}
			return &VoteOpening{
				Session:     sess,
				Candidates:  candidates,
				Weights:     weights,
				MissedDays:  missed,
				AlreadyOpen: true,
			}, nil
		}
	}

	if len(missed) == 0 {
		return nil, &IneligibleError{
			Reason: "пропущенных дней в этом году нет, раздавать нечего",
		}
	}
	if len(missed) >= s.cfg.GameMaxMissedForVote {
		return nil, &IneligibleError{
			Reason:      fmt.Sprintf("пропущено слишком много дней: %d (лимит — меньше %d)", len(missed), s.cfg.GameMaxMissedForVote),
			MissedCount: len(missed),
		}
	}

	// Открытие поверх закрытой сессии чистит голоса прежней
	// прерванной попытки этого же года.
	if err := s.store.OpenSession(ctx, chatID, year, len(missed), today); err != nil {
		return nil, fmt.Errorf("ошибка открытия голосования: %w", err)
	}
	sess, err = s.store.GetSession(ctx, chatID, year)
	if err != nil {
		return nil, err
	}

	candidates, weights, err := s.voteContext(ctx, chatID, year)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"chat_id": chatID,
		"year":    year,
		"missed":  len(missed),
	}).Info("Финальное голосование открыто")

	return &VoteOpening{
		Session:    sess,
		Candidates: candidates,
		Weights:    weights,
		MissedDays: missed,
	}, nil
}

func (s *Service) voteContext(ctx context.Context, chatID int64, year int) ([]*players.Player, map[int64]int, error) {
	candidates, err := s.dir.List(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	weights, err := s.store.WinCounts(ctx, chatID, year)
	if err != nil {
		return nil, nil, err
	}
	return candidates, weights, nil
}

// CastBallot принимает голос. Голосовать можно только в открытой
// сессии и только за зарегистрированного игрока. Повторный голос
// того же участника ЗАМЕНЯЕТ предыдущий.
func (s *Service) CastBallot(ctx context.Context, chatID, voterID, targetID int64, today time.Time) error {
	year := today.Year()
	defer s.locks.lock(chatID, year)()

	sess, err := s.store.GetSession(ctx, chatID, year)
	if err != nil {
		return err
	}
	if sess == nil || sess.State != SessionOpen {
		return common.ErrVoteNotOpen
	}

	target, err := s.dir.Get(ctx, chatID, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return common.ErrUnknownPlayer
	}

	return s.store.SaveBallot(ctx, &Ballot{
		ChatID:    chatID,
		Year:      year,
		VoterID:   voterID,
		TargetID:  targetID,
		UpdatedAt: today,
	})
}

// VoteStatus возвращает снимок состояния голосования. Только чтение,
// корректно в любом состоянии.
func (s *Service) VoteStatus(ctx context.Context, chatID int64, today time.Time) (*VoteStatus, error) {
	year := today.Year()

	missed, err := s.ListMissed(ctx, chatID, today)
	if err != nil {
		return nil, err
	}

	sess, err := s.store.GetSession(ctx, chatID, year)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return &VoteStatus{State: SessionClosed, MissedCount: len(missed)}, nil
	}

	ballots, err := s.store.Ballots(ctx, chatID, year)
	if err != nil {
		return nil, err
	}

	st := &VoteStatus{
		State:       sess.State,
		BallotCount: len(ballots),
		MissedCount: len(missed),
		OpenedAt:    sess.OpenedAt,
		TalliedAt:   sess.TalliedAt,
		AwardedDays: sess.AwardedDays,
	}
	if sess.WinnerID != nil {
		winner, err := s.dir.Get(ctx, chatID, *sess.WinnerID)
		if err != nil {
			return nil, err
		}
		st.Winner = winner
	}
	return st, nil
}

// Tally подсчитывает голоса и раздаёт пропущенные дни.
// Взвешенный счёт кандидата — сумма побед его избирателей в текущем
// году. При равенстве побеждает кандидат с МЕНЬШИМ Telegram user ID —
// правило произвольное, но воспроизводимое. Ноль голосов — ErrNoBallots,
// сессия остаётся открытой. Успех атомарно: зачисляет победителю
// столько побед, сколько дней пропущено на момент подсчёта, очищает
// журнал и переводит сессию в tallied. Повторный подсчёт невозможен.
func (s *Service) Tally(ctx context.Context, chatID int64, today time.Time) (*TallyResult, error) {
	year, day := today.Year(), DayOfYear(today)
	defer s.locks.lock(chatID, year)()

	sess, err := s.store.GetSession(ctx, chatID, year)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.State != SessionOpen {
		return nil, common.ErrVoteNotOpen
	}

	ballots, err := s.store.Ballots(ctx, chatID, year)
	if err != nil {
		return nil, err
	}
	if len(ballots) == 0 {
		return nil, common.ErrNoBallots
	}

	weights, err := s.store.WinCounts(ctx, chatID, year)
	if err != nil {
		return nil, err
	}

	scores := make(map[int64]int, len(ballots))
	for _, b := range ballots {
		scores[b.TargetID] += weights[b.VoterID]
	}

	// Кандидаты по возрастанию user_id — при равном счёте побеждает первый
	ids := make([]int64, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	winnerID, best := ids[0], scores[ids[0]]
	for _, id := range ids[1:] {
		if scores[id] > best {
			winnerID, best = id, scores[id]
		}
	}

	// Раздаётся то, что пропущено НА МОМЕНТ ПОДСЧЁТА: между открытием
	// и подсчётом мог пройти ещё день без розыгрыша.
	missed, err := s.ListMissed(ctx, chatID, today)
	if err != nil {
		return nil, err
	}
	awarded := len(missed)

	if err := s.store.FinalizeSession(ctx, chatID, year, winnerID, awarded, day-1, today); err != nil {
		return nil, fmt.Errorf("ошибка фиксации результата голосования: %w", err)
	}

	winner, err := s.dir.Get(ctx, chatID, winnerID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"chat_id": chatID,
		"year":    year,
		"winner":  winnerID,
		"score":   best,
		"awarded": awarded,
	}).Info("Финальное голосование подсчитано")

	return &TallyResult{
		Winner:      winner,
		Score:       best,
		AwardedDays: awarded,
		Scores:      scores,
	}, nil
}

// YearStats возвращает таблицу побед за год: по убыванию побед,
// при равенстве — по возрастанию user_id.
func (s *Service) YearStats(ctx context.Context, chatID int64, year int) ([]PlayerWins, error) {
	counts, err := s.store.WinCounts(ctx, chatID, year)
	if err != nil {
		return nil, err
	}
	return s.buildStats(ctx, chatID, counts)
}

// AllTimeStats возвращает таблицу побед за всё время.
func (s *Service) AllTimeStats(ctx context.Context, chatID int64) ([]PlayerWins, error) {
	counts, err := s.store.WinCountsAllTime(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return s.buildStats(ctx, chatID, counts)
}

// PersonalWins возвращает количество побед игрока за всё время.
func (s *Service) PersonalWins(ctx context.Context, chatID, userID int64) (int, error) {
	counts, err := s.store.WinCountsAllTime(ctx, chatID)
	if err != nil {
		return 0, err
	}
	return counts[userID], nil
}

func (s *Service) buildStats(ctx context.Context, chatID int64, counts map[int64]int) ([]PlayerWins, error) {
	stats := make([]PlayerWins, 0, len(counts))
	for userID, wins := range counts {
		p, err := s.dir.Get(ctx, chatID, userID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			// победитель мог быть зарегистрирован в другом процессе жизни
			// чата; статистику не роняем
			continue
		}
		stats = append(stats, PlayerWins{Player: p, Wins: wins})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Wins != stats[j].Wins {
			return stats[i].Wins > stats[j].Wins
		}
		return stats[i].Player.UserID < stats[j].Player.UserID
	})
	return stats, nil
}
