// Package game — repository.go: хранилище игры в PostgreSQL.
// Счётчики побед нигде не хранятся как изменяемое число: победы за год
// считаются как COUNT(*) по розыгрышам плюс дни, зачисленные победителю
// финального голосования. Журнал пропущенных дней тоже выводится из
// розыгрышей, единственная изменяемая отметка — missed_resolutions.
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository реализует Store поверх pgxpool.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// DrawnDays возвращает дни года с проведённым розыгрышем по возрастанию.
func (r *Repository) DrawnDays(ctx context.Context, chatID int64, year int) ([]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT day FROM draws WHERE chat_id = $1 AND year = $2 ORDER BY day`,
		chatID, year)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса дней розыгрышей: %w", err)
	}
	defer rows.Close()

	var days []int
	for rows.Next() {
		var d int
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("ошибка чтения дня розыгрыша: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// GetDraw возвращает результат розыгрыша дня или (nil, nil).
func (r *Repository) GetDraw(ctx context.Context, chatID int64, year, day int) (*DrawRecord, error) {
	rec := &DrawRecord{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, chat_id, year, day, winner_id, created_at
		 FROM draws
		 WHERE chat_id = $1 AND year = $2 AND day = $3`,
		chatID, year, day).
		Scan(&rec.ID, &rec.ChatID, &rec.Year, &rec.Day, &rec.WinnerID, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка запроса розыгрыша: %w", err)
	}
	return rec, nil
}

// CreateDraw записывает результат розыгрыша. Уникальный индекс
// (chat_id, year, day) гарантирует не больше одного победителя в день
// даже при гонке двух процессов.
func (r *Repository) CreateDraw(ctx context.Context, rec *DrawRecord) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO draws (chat_id, year, day, winner_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		rec.ChatID, rec.Year, rec.Day, rec.WinnerID).
		Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка записи розыгрыша: %w", err)
	}
	return nil
}

// WinCounts возвращает победы игроков за год: розыгрыши плюс дни,
// зачисленные победителю финального голосования этого года.
func (r *Repository) WinCounts(ctx context.Context, chatID int64, year int) (map[int64]int, error) {
	counts, err := r.drawCounts(ctx,
		`SELECT winner_id, COUNT(*) FROM draws WHERE chat_id = $1 AND year = $2 GROUP BY winner_id`,
		chatID, year)
	if err != nil {
		return nil, err
	}
	if err := r.addAwarded(ctx, counts,
		`SELECT winner_id, awarded_days FROM vote_sessions
		 WHERE chat_id = $1 AND year = $2 AND state = 'tallied' AND winner_id IS NOT NULL`,
		chatID, year); err != nil {
		return nil, err
	}
	return counts, nil
}

// WinCountsAllTime — победы игроков за все годы.
func (r *Repository) WinCountsAllTime(ctx context.Context, chatID int64) (map[int64]int, error) {
	counts, err := r.drawCounts(ctx,
		`SELECT winner_id, COUNT(*) FROM draws WHERE chat_id = $1 GROUP BY winner_id`,
		chatID)
	if err != nil {
		return nil, err
	}
	if err := r.addAwarded(ctx, counts,
		`SELECT winner_id, awarded_days FROM vote_sessions
		 WHERE chat_id = $1 AND state = 'tallied' AND winner_id IS NOT NULL`,
		chatID); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *Repository) drawCounts(ctx context.Context, query string, args ...any) (map[int64]int, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса счёта побед: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var userID int64
		var n int
		if err := rows.Scan(&userID, &n); err != nil {
			return nil, fmt.Errorf("ошибка чтения счёта побед: %w", err)
		}
		counts[userID] = n
	}
	return counts, rows.Err()
}

func (r *Repository) addAwarded(ctx context.Context, counts map[int64]int, query string, args ...any) error {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка запроса розданных дней: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var winnerID int64
		var awarded int
		if err := rows.Scan(&winnerID, &awarded); err != nil {
			return fmt.Errorf("ошибка чтения розданных дней: %w", err)
		}
		counts[winnerID] += awarded
	}
	return rows.Err()
}

// ResolvedThrough возвращает день, по который включительно пропуски
// года уже розданы голосованием. 0 — раздач не было.
func (r *Repository) ResolvedThrough(ctx context.Context, chatID int64, year int) (int, error) {
	var day int
	err := r.pool.QueryRow(ctx,
		`SELECT resolved_through_day FROM missed_resolutions
		 WHERE chat_id = $1 AND year = $2`,
		chatID, year).Scan(&day)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("ошибка запроса отметки журнала пропусков: %w", err)
	}
	return day, nil
}

// GetSession возвращает сессию голосования года или (nil, nil).
func (r *Repository) GetSession(ctx context.Context, chatID int64, year int) (*VoteSession, error) {
	s := &VoteSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, chat_id, year, state, missed_count, opened_at, tallied_at, winner_id, awarded_days
		 FROM vote_sessions
		 WHERE chat_id = $1 AND year = $2`,
		chatID, year).
		Scan(&s.ID, &s.ChatID, &s.Year, &s.State, &s.MissedCount,
			&s.OpenedAt, &s.TalliedAt, &s.WinnerID, &s.AwardedDays)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка запроса сессии голосования: %w", err)
	}
	return s, nil
}

// OpenSession открывает сессию голосования года и чистит голоса
// прежней прерванной попытки. Подсчитанную сессию не трогает —
// это проверяет сервис до вызова.
func (r *Repository) OpenSession(ctx context.Context, chatID int64, year, missedCount int, openedAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO vote_sessions (chat_id, year, state, missed_count, opened_at)
		 VALUES ($1, $2, 'open', $3, $4)
		 ON CONFLICT (chat_id, year) DO UPDATE
		 SET state = 'open', missed_count = EXCLUDED.missed_count,
		     opened_at = EXCLUDED.opened_at`,
		chatID, year, missedCount, openedAt)
	if err != nil {
		return fmt.Errorf("ошибка открытия сессии голосования: %w", err)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM ballots WHERE chat_id = $1 AND year = $2`,
		chatID, year)
	if err != nil {
		return fmt.Errorf("ошибка очистки старых голосов: %w", err)
	}

	return tx.Commit(ctx)
}

// SaveBallot сохраняет голос. Повторный голос участника заменяет
// предыдущий (уникальный индекс по голосующему).
func (r *Repository) SaveBallot(ctx context.Context, b *Ballot) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO ballots (chat_id, year, voter_id, target_id, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (chat_id, year, voter_id) DO UPDATE
		 SET target_id = EXCLUDED.target_id, updated_at = EXCLUDED.updated_at`,
		b.ChatID, b.Year, b.VoterID, b.TargetID, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения голоса: %w", err)
	}
	return nil
}

// Ballots возвращает все голоса сессии года.
func (r *Repository) Ballots(ctx context.Context, chatID int64, year int) ([]Ballot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT chat_id, year, voter_id, target_id, updated_at
		 FROM ballots
		 WHERE chat_id = $1 AND year = $2
		 ORDER BY voter_id`,
		chatID, year)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса голосов: %w", err)
	}
	defer rows.Close()

	var ballots []Ballot
	for rows.Next() {
		var b Ballot
		if err := rows.Scan(&b.ChatID, &b.Year, &b.VoterID, &b.TargetID, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения голоса: %w", err)
		}
		ballots = append(ballots, b)
	}
	return ballots, rows.Err()
}

// FinalizeSession атомарно применяет результат подсчёта: переводит
// открытую сессию в tallied с победителем и количеством зачисленных
// дней и сдвигает отметку журнала пропусков. Если сессия уже не
// открыта (гонка двух подсчётов), возвращает ошибку, ничего не меняя.
func (r *Repository) FinalizeSession(ctx context.Context, chatID int64, year int, winnerID int64, awarded, resolvedThrough int, talliedAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE vote_sessions
		 SET state = 'tallied', winner_id = $3, awarded_days = $4, tallied_at = $5
		 WHERE chat_id = $1 AND year = $2 AND state = 'open'`,
		chatID, year, winnerID, awarded, talliedAt)
	if err != nil {
		return fmt.Errorf("ошибка закрытия сессии голосования: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("сессия голосования %d/%d не в состоянии open", chatID, year)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO missed_resolutions (chat_id, year, resolved_through_day)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (chat_id, year) DO UPDATE
		 SET resolved_through_day = GREATEST(missed_resolutions.resolved_through_day, EXCLUDED.resolved_through_day)`,
		chatID, year, resolvedThrough)
	if err != nil {
		return fmt.Errorf("ошибка обновления журнала пропусков: %w", err)
	}

	return tx.Commit(ctx)
}
