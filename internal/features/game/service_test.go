package game

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vodka-429/pidor-bot-2/internal/common"
	"github.com/vodka-429/pidor-bot-2/internal/config"
	"github.com/vodka-429/pidor-bot-2/internal/features/players"
)

// --- фейковое хранилище в памяти ---

type drawKey struct {
	chat      int64
	year, day int
}

type yearKey struct {
	chat int64
	year int
}

type fakeStore struct {
	draws    map[drawKey]*DrawRecord
	sessions map[yearKey]*VoteSession
	ballots  map[yearKey]map[int64]*Ballot
	resolved map[yearKey]int
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		draws:    make(map[drawKey]*DrawRecord),
		sessions: make(map[yearKey]*VoteSession),
		ballots:  make(map[yearKey]map[int64]*Ballot),
		resolved: make(map[yearKey]int),
	}
}

func (s *fakeStore) DrawnDays(_ context.Context, chatID int64, year int) ([]int, error) {
	var days []int
	for k := range s.draws {
		if k.chat == chatID && k.year == year {
			days = append(days, k.day)
		}
	}
	sort.Ints(days)
	return days, nil
}

func (s *fakeStore) GetDraw(_ context.Context, chatID int64, year, day int) (*DrawRecord, error) {
	return s.draws[drawKey{chatID, year, day}], nil
}

func (s *fakeStore) CreateDraw(_ context.Context, rec *DrawRecord) error {
	k := drawKey{rec.ChatID, rec.Year, rec.Day}
	if s.draws[k] != nil {
		return fmt.Errorf("дубликат розыгрыша %v", k)
	}
	s.nextID++
	rec.ID = s.nextID
	rec.CreatedAt = time.Now()
	s.draws[k] = rec
	return nil
}

func (s *fakeStore) WinCounts(_ context.Context, chatID int64, year int) (map[int64]int, error) {
	counts := make(map[int64]int)
	for k, rec := range s.draws {
		if k.chat == chatID && k.year == year {
			counts[rec.WinnerID]++
		}
	}
	if sess := s.sessions[yearKey{chatID, year}]; sess != nil && sess.State == SessionTallied && sess.WinnerID != nil {
		counts[*sess.WinnerID] += sess.AwardedDays
	}
	return counts, nil
}

func (s *fakeStore) WinCountsAllTime(_ context.Context, chatID int64) (map[int64]int, error) {
	counts := make(map[int64]int)
	for k, rec := range s.draws {
		if k.chat == chatID {
			counts[rec.WinnerID]++
		}
	}
	for k, sess := range s.sessions {
		if k.chat == chatID && sess.State == SessionTallied && sess.WinnerID != nil {
			counts[*sess.WinnerID] += sess.AwardedDays
		}
	}
	return counts, nil
}

func (s *fakeStore) ResolvedThrough(_ context.Context, chatID int64, year int) (int, error) {
	return s.resolved[yearKey{chatID, year}], nil
}

func (s *fakeStore) GetSession(_ context.Context, chatID int64, year int) (*VoteSession, error) {
	return s.sessions[yearKey{chatID, year}], nil
}

func (s *fakeStore) OpenSession(_ context.Context, chatID int64, year, missedCount int, openedAt time.Time) error {
	k := yearKey{chatID, year}
	s.nextID++
	s.sessions[k] = &VoteSession{
		ID:          s.nextID,
		ChatID:      chatID,
		Year:        year,
		State:       SessionOpen,
		MissedCount: missedCount,
		OpenedAt:    openedAt,
	}
	delete(s.ballots, k)
	return nil
}

func (s *fakeStore) SaveBallot(_ context.Context, b *Ballot) error {
	k := yearKey{b.ChatID, b.Year}
	if s.ballots[k] == nil {
		s.ballots[k] = make(map[int64]*Ballot)
	}
	s.ballots[k][b.VoterID] = b
	return nil
}

func (s *fakeStore) Ballots(_ context.Context, chatID int64, year int) ([]Ballot, error) {
	var out []Ballot
	for _, b := range s.ballots[yearKey{chatID, year}] {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VoterID < out[j].VoterID })
	return out, nil
}

func (s *fakeStore) FinalizeSession(_ context.Context, chatID int64, year int, winnerID int64, awarded, resolvedThrough int, talliedAt time.Time) error {
	k := yearKey{chatID, year}
	sess := s.sessions[k]
	if sess == nil || sess.State != SessionOpen {
		return fmt.Errorf("сессия %d/%d не открыта", chatID, year)
	}
	sess.State = SessionTallied
	sess.WinnerID = &winnerID
	sess.AwardedDays = awarded
	sess.TalliedAt = &talliedAt
	if resolvedThrough > s.resolved[k] {
		s.resolved[k] = resolvedThrough
	}
	return nil
}

// --- фейковый справочник игроков ---

type fakeDirectory struct {
	players []*players.Player
}

func newFakeDirectory(userIDs ...int64) *fakeDirectory {
	d := &fakeDirectory{}
	for _, id := range userIDs {
		d.players = append(d.players, &players.Player{
			UserID:    id,
			Username:  fmt.Sprintf("player%d", id),
			FirstName: fmt.Sprintf("Игрок%d", id),
		})
	}
	sort.Slice(d.players, func(i, j int) bool { return d.players[i].UserID < d.players[j].UserID })
	return d
}

func (d *fakeDirectory) List(_ context.Context, _ int64) ([]*players.Player, error) {
	return d.players, nil
}

func (d *fakeDirectory) Get(_ context.Context, _ int64, userID int64) (*players.Player, error) {
	for _, p := range d.players {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, nil
}

// --- фейковые награды ---

type fakeRewarder struct {
	awards []int64
}

func (r *fakeRewarder) AwardWin(_ context.Context, _ int64, userID int64, _ int) error {
	r.awards = append(r.awards, userID)
	return nil
}

// --- помощники ---

const testChat int64 = -100500

var msk = time.FixedZone("MSK", 3*60*60)

func mskDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, msk)
}

func testConfig() *config.Config {
	return &config.Config{
		GameMinPlayers:       2,
		GameMaxMissedForVote: 10,
		GameCoinsPerWin:      4,
		GameTransferMin:      2,
	}
}

func newTestService(store *fakeStore, dir *fakeDirectory, rewards Rewarder) *Service {
	return NewService(store, dir, rewards, testConfig(), rand.New(rand.NewSource(1)))
}

// seedDraws записывает победы игрока в заданные дни года.
func seedDraws(store *fakeStore, year int, winnerID int64, days ...int) {
	for _, d := range days {
		store.draws[drawKey{testChat, year, d}] = &DrawRecord{
			ChatID: testChat, Year: year, Day: d, WinnerID: winnerID,
		}
	}
}

// --- розыгрыш ---

func TestPerformDraw(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	dir := newFakeDirectory(1, 2, 3)
	rewards := &fakeRewarder{}
	svc := newTestService(store, dir, rewards)

	today := mskDate(2025, time.March, 10)
	result, err := svc.PerformDraw(ctx, testChat, today)
	require.NoError(t, err)
	require.NotNil(t, result.Winner)

	// победитель — один из зарегистрированных
	found := false
	for _, p := range dir.players {
		if p.UserID == result.Winner.UserID {
			found = true
		}
	}
	assert.True(t, found)

	// запись розыгрыша создана на сегодняшний день
	rec, err := store.GetDraw(ctx, testChat, 2025, DayOfYear(today))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, result.Winner.UserID, rec.WinnerID)

	// награда начислена
	assert.Equal(t, []int64{result.Winner.UserID}, rewards.awards)
}

func TestPerformDrawTwiceSameDay(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, newFakeDirectory(1, 2, 3), nil)

	today := mskDate(2025, time.March, 10)
	first, err := svc.PerformDraw(ctx, testChat, today)
	require.NoError(t, err)

	_, err = svc.PerformDraw(ctx, testChat, today)
	var already *AlreadyDrawnError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, first.Winner.UserID, already.Winner.UserID)

	// второй записи нет, победа не задвоилась
	counts, err := store.WinCounts(ctx, testChat, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[first.Winner.UserID])
	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, 1, total)
}

func TestPerformDrawNotEnoughPlayers(t *testing.T) {
	svc := newTestService(newFakeStore(), newFakeDirectory(1), nil)
	_, err := svc.PerformDraw(context.Background(), testChat, mskDate(2025, time.March, 10))
	assert.ErrorIs(t, err, common.ErrNotEnoughPlayers)
}

func TestPerformDrawReportsGap(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, newFakeDirectory(1, 2), nil)

	// последний розыгрыш — 10 марта, сегодня 14-е → пропущено 3 дня
	seedDraws(store, 2025, 1, DayOfYear(mskDate(2025, time.March, 10)))
	result, err := svc.PerformDraw(ctx, testChat, mskDate(2025, time.March, 14))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Gap.GapDays)
	assert.Equal(t, SeverityNotable, result.Gap.Severity)

	// назавтра пропуска нет
	result, err = svc.PerformDraw(ctx, testChat, mskDate(2025, time.March, 15))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Gap.GapDays)
	assert.Equal(t, SeverityNone, result.Gap.Severity)
}

// --- журнал пропущенных дней ---

func TestListMissed(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, newFakeDirectory(1, 2), nil)

	// розыгрыши 1 и 4 января, сегодня 7-е → пропущены 2, 3, 5, 6 января
	seedDraws(store, 2025, 1, 1, 4)
	missed, err := svc.ListMissed(ctx, testChat, mskDate(2025, time.January, 7))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 5, 6}, missed)
}

// --- финальное голосование ---

// voteFixture готовит чат к голосованию 29 декабря 2025:
// missedCount пропущенных дней перед полосой побед, игрок 1 — 5 побед,
// игрок 2 — 3 победы, игрок 3 — без побед.
func voteFixture(t *testing.T, missedCount int) (*Service, *fakeStore, time.Time) {
	t.Helper()
	store := newFakeStore()
	dir := newFakeDirectory(1, 2, 3)
	svc := newTestService(store, dir, nil)

	today := mskDate(2025, time.December, 29)
	day := DayOfYear(today) // 363

	// всё, что раньше, считается уже розданным
	store.resolved[yearKey{testChat, 2025}] = day - missedCount - 9

	seedDraws(store, 2025, 1, day-8, day-7, day-6, day-5, day-4)
	seedDraws(store, 2025, 2, day-3, day-2, day-1)

	missed, err := svc.ListMissed(context.Background(), testChat, today)
	require.NoError(t, err)
	require.Len(t, missed, missedCount, "фикстура собрана неверно")
	return svc, store, today
}

func TestOpenVoteOutsideWindow(t *testing.T) {
	svc, _, _ := voteFixture(t, 2)
	for _, date := range []time.Time{
		mskDate(2025, time.December, 28),
		mskDate(2025, time.December, 31),
		mskDate(2025, time.June, 29),
	} {
		_, err := svc.OpenVote(context.Background(), testChat, date)
		var inel *IneligibleError
		require.ErrorAs(t, err, &inel, "дата %s", date)
	}
}

func TestOpenVoteNothingToDistribute(t *testing.T) {
	svc, _, today := voteFixture(t, 0)
	_, err := svc.OpenVote(context.Background(), testChat, today)
	var inel *IneligibleError
	require.ErrorAs(t, err, &inel)
}

func TestOpenVoteTooManyMissed(t *testing.T) {
	svc, _, today := voteFixture(t, 10)
	_, err := svc.OpenVote(context.Background(), testChat, today)
	var inel *IneligibleError
	require.ErrorAs(t, err, &inel)
	assert.Equal(t, 10, inel.MissedCount)
}

func TestOpenVoteAtLimitMinusOne(t *testing.T) {
	svc, _, today := voteFixture(t, 9)
	opening, err := svc.OpenVote(context.Background(), testChat, today)
	require.NoError(t, err)
	assert.Len(t, opening.MissedDays, 9)
	assert.False(t, opening.AlreadyOpen)
}

func TestOpenVoteWeightsAndReopen(t *testing.T) {
	ctx := context.Background()
	svc, _, today := voteFixture(t, 2)

	opening, err := svc.OpenVote(ctx, testChat, today)
	require.NoError(t, err)
	assert.Equal(t, SessionOpen, opening.Session.State)
	assert.Len(t, opening.Candidates, 3)
	assert.Equal(t, 5, opening.Weights[1])
	assert.Equal(t, 3, opening.Weights[2])
	assert.Equal(t, 0, opening.Weights[3])

	// повторное открытие сообщает, что сессия уже идёт
	again, err := svc.OpenVote(ctx, testChat, today)
	require.NoError(t, err)
	assert.True(t, again.AlreadyOpen)
}

func TestCastBallotReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	svc, store, today := voteFixture(t, 2)
	_, err := svc.OpenVote(ctx, testChat, today)
	require.NoError(t, err)

	require.NoError(t, svc.CastBallot(ctx, testChat, 1, 2, today))
	require.NoError(t, svc.CastBallot(ctx, testChat, 1, 3, today))

	ballots, err := store.Ballots(ctx, testChat, 2025)
	require.NoError(t, err)
	require.Len(t, ballots, 1)
	assert.Equal(t, int64(3), ballots[0].TargetID)
}

func TestCastBallotErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, today := voteFixture(t, 2)

	// голосование ещё не открыто
	err := svc.CastBallot(ctx, testChat, 1, 2, today)
	assert.ErrorIs(t, err, common.ErrVoteNotOpen)

	_, err = svc.OpenVote(ctx, testChat, today)
	require.NoError(t, err)

	// незарегистрированный кандидат
	err = svc.CastBallot(ctx, testChat, 1, 999, today)
	assert.ErrorIs(t, err, common.ErrUnknownPlayer)
}

func TestTallyWeighted(t *testing.T) {
	ctx := context.Background()
	svc, store, today := voteFixture(t, 2)
	_, err := svc.OpenVote(ctx, testChat, today)
	require.NoError(t, err)

	// игрок 1 (вес 5) — за игрока 3; игроки 2 и 3 (веса 3 и 0) — за игрока 2
	require.NoError(t, svc.CastBallot(ctx, testChat, 1, 3, today))
	require.NoError(t, svc.CastBallot(ctx, testChat, 2, 2, today))
	require.NoError(t, svc.CastBallot(ctx, testChat, 3, 2, today))

	result, err := svc.Tally(ctx, testChat, today)
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Winner.UserID)
	assert.Equal(t, 5, result.Score)
	assert.Equal(t, 2, result.AwardedDays)
	assert.Equal(t, map[int64]int{2: 3, 3: 5}, result.Scores)

	// дни зачислены победителю поверх его прежних побед
	counts, err := store.WinCounts(ctx, testChat, 2025)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[3])
	// записи розыгрышей задним числом не создаются
	assert.Len(t, store.draws, 8)

	// журнал очищен
	missed, err := svc.ListMissed(ctx, testChat, today)
	require.NoError(t, err)
	assert.Empty(t, missed)

	// сессия терминальна: повторный подсчёт невозможен
	_, err = svc.Tally(ctx, testChat, today)
	assert.ErrorIs(t, err, common.ErrVoteNotOpen)
}

// Счёт кандидата — сумма весов всех его избирателей.
func TestTallyScoreSumsVoterWeights(t *testing.T) {
	ctx := context.Background()
	svc, _, today := voteFixture(t, 2)
	_, err := svc.OpenVote(ctx, testChat, today)
	require.NoError(t, err)

	// оба голосуют за игрока 3: 5 + 3 = 8
	require.NoError(t, svc.CastBallot(ctx, testChat, 1, 3, today))
	require.NoError(t, svc.CastBallot(ctx, testChat, 2, 3, today))

	result, err := svc.Tally(ctx, testChat, today)
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Winner.UserID)
	assert.Equal(t, 8, result.Score)
}

func TestTallyTieBreakSmallerID(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, newFakeDirectory(1, 2, 3), nil)

	today := mskDate(2025, time.December, 29)
	day := DayOfYear(today)
	store.resolved[yearKey{testChat, 2025}] = day - 6
	// у игроков 1 и 2 по две победы, день day-5 пропущен
	seedDraws(store, 2025, 1, day-4, day-3)
	seedDraws(store, 2025, 2, day-2, day-1)

	_, err := svc.OpenVote(ctx, testChat, today)
	require.NoError(t, err)

	// счёт 2:2 — игрок 1 за игрока 3, игрок 2 за игрока 2
	require.NoError(t, svc.CastBallot(ctx, testChat, 1, 3, today))
	require.NoError(t, svc.CastBallot(ctx, testChat, 2, 2, today))

	result, err := svc.Tally(ctx, testChat, today)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Winner.UserID, "при равенстве побеждает меньший user_id")
}

func TestTallyNoBallotsKeepsSessionOpen(t *testing.T) {
	ctx := context.Background()
	svc, store, today := voteFixture(t, 2)
	_, err := svc.OpenVote(ctx, testChat, today)
	require.NoError(t, err)

	_, err = svc.Tally(ctx, testChat, today)
	assert.ErrorIs(t, err, common.ErrNoBallots)

	sess, err := store.GetSession(ctx, testChat, 2025)
	require.NoError(t, err)
	assert.Equal(t, SessionOpen, sess.State)

	// голосовать по-прежнему можно
	require.NoError(t, svc.CastBallot(ctx, testChat, 1, 2, today))
	result, err := svc.Tally(ctx, testChat, today)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Winner.UserID)
}

func TestVoteStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, today := voteFixture(t, 2)

	st, err := svc.VoteStatus(ctx, testChat, today)
	require.NoError(t, err)
	assert.Equal(t, SessionClosed, st.State)
	assert.Equal(t, 2, st.MissedCount)

	_, err = svc.OpenVote(ctx, testChat, today)
	require.NoError(t, err)
	require.NoError(t, svc.CastBallot(ctx, testChat, 1, 2, today))

	st, err = svc.VoteStatus(ctx, testChat, today)
	require.NoError(t, err)
	assert.Equal(t, SessionOpen, st.State)
	assert.Equal(t, 1, st.BallotCount)

	_, err = svc.Tally(ctx, testChat, today)
	require.NoError(t, err)

	st, err = svc.VoteStatus(ctx, testChat, today)
	require.NoError(t, err)
	assert.Equal(t, SessionTallied, st.State)
	require.NotNil(t, st.Winner)
	assert.Equal(t, int64(2), st.Winner.UserID)
	assert.Equal(t, 2, st.AwardedDays)
	assert.NotNil(t, st.TalliedAt)
}

// После раздачи новые пропуски копятся заново.
func TestMissedReappearAfterTally(t *testing.T) {
	ctx := context.Background()
	svc, _, today := voteFixture(t, 2)
	_, err := svc.OpenVote(ctx, testChat, today)
	require.NoError(t, err)
	require.NoError(t, svc.CastBallot(ctx, testChat, 1, 2, today))
	_, err = svc.Tally(ctx, testChat, today)
	require.NoError(t, err)

	// 29-е (день подсчёта) прошло без розыгрыша — 30-го оно уже пропуск
	missed, err := svc.ListMissed(ctx, testChat, mskDate(2025, time.December, 30))
	require.NoError(t, err)
	assert.Equal(t, []int{DayOfYear(today)}, missed)
}

// --- статистика ---

func TestYearStats(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, newFakeDirectory(1, 2, 3), nil)

	seedDraws(store, 2025, 2, 1, 2, 3)
	seedDraws(store, 2025, 1, 4)
	seedDraws(store, 2024, 1, 10, 11)

	stats, err := svc.YearStats(ctx, testChat, 2025)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, int64(2), stats[0].Player.UserID)
	assert.Equal(t, 3, stats[0].Wins)
	assert.Equal(t, int64(1), stats[1].Player.UserID)
	assert.Equal(t, 1, stats[1].Wins)

	all, err := svc.AllTimeStats(ctx, testChat)
	require.NoError(t, err)
	require.Len(t, all, 2)
	// за всё время игрок 1 догнал: по 3 победы, при равенстве меньший id выше
	assert.Equal(t, int64(1), all[0].Player.UserID)
	assert.Equal(t, 3, all[0].Wins)

	wins, err := svc.PersonalWins(ctx, testChat, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, wins)
}
