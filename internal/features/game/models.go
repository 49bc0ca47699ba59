// Package game — ядро игры «Пидор дня»: ежедневный розыгрыш,
// учёт пропущенных дней и финальное взвешенное голосование.
// models.go описывает структуры данных игры.
package game

import (
	"fmt"
	"time"

	"github.com/vodka-429/pidor-bot-2/internal/features/players"
)

// DrawRecord — результат одного розыгрыша.
// На (чат, год, день) существует не больше одной записи: день либо
// имеет ровно одного победителя, либо не имеет ни одного.
// После создания запись не изменяется.
type DrawRecord struct {
	ID        int64     `db:"id"`
	ChatID    int64     `db:"chat_id"`
	Year      int       `db:"year"`
	Day       int       `db:"day"` // день года, 1-366
	WinnerID  int64     `db:"winner_id"`
	CreatedAt time.Time `db:"created_at"`
}

// SessionState — состояние сессии финального голосования.
type SessionState string

const (
	// SessionClosed — голосование не запущено (состояние по умолчанию,
	// в БД такой записи нет)
	SessionClosed SessionState = "closed"
	// SessionOpen — голосование идёт, принимаются голоса
	SessionOpen SessionState = "open"
	// SessionTallied — результат подсчитан и применён, пропущенные дни
	// розданы; терминальное состояние
	SessionTallied SessionState = "tallied"
)

// VoteSession — сессия финального голосования.
// На (чат, год) существует не больше одной сессии.
type VoteSession struct {
	ID          int64        `db:"id"`
	ChatID      int64        `db:"chat_id"`
	Year        int          `db:"year"`
	State       SessionState `db:"state"`
	MissedCount int          `db:"missed_count"` // пропущено дней на момент открытия
	OpenedAt    time.Time    `db:"opened_at"`
	TalliedAt   *time.Time   `db:"tallied_at"`
	WinnerID    *int64       `db:"winner_id"`
	AwardedDays int          `db:"awarded_days"` // сколько дней зачислено победителю
}

// Ballot — один голос в финальном голосовании.
// У голосующего не больше одного голоса: повторный голос заменяет
// предыдущий, а не добавляет второй.
type Ballot struct {
	ChatID    int64     `db:"chat_id"`
	Year      int       `db:"year"`
	VoterID   int64     `db:"voter_id"`
	TargetID  int64     `db:"target_id"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GapReport — результат анализа пропуска с последнего розыгрыша.
type GapReport struct {
	Year        int
	LastDrawDay int // день последнего розыгрыша в году, 0 если розыгрышей не было
	GapDays     int // пропущено дней с последнего розыгрыша (сегодня не считается)
	Severity    Severity
}

// DrawResult — результат успешного розыгрыша.
type DrawResult struct {
	Winner *players.Player
	Gap    GapReport // пропуск, накопившийся ДО этого розыгрыша
}

// VoteStatus — снимок состояния голосования, без мутаций.
type VoteStatus struct {
	State       SessionState
	BallotCount int
	MissedCount int
	OpenedAt    time.Time       // нулевое время, если сессии нет
	TalliedAt   *time.Time      // заполнено в состоянии tallied
	Winner      *players.Player // заполнено в состоянии tallied
	AwardedDays int
}

// VoteOpening — результат открытия финального голосования.
type VoteOpening struct {
	Session     *VoteSession
	Candidates  []*players.Player // зарегистрированные игроки — кандидаты
	Weights     map[int64]int     // user_id → вес голоса (победы в году)
	MissedDays  []int             // пропущенные дни года на момент открытия
	AlreadyOpen bool              // сессия уже была открыта раньше
}

// TallyResult — результат подсчёта голосов.
type TallyResult struct {
	Winner      *players.Player
	Score       int           // взвешенный счёт победителя
	AwardedDays int           // сколько пропущенных дней зачислено
	Scores      map[int64]int // полная таблица: кандидат → взвешенный счёт
}

// PlayerWins — строка таблицы статистики.
type PlayerWins struct {
	Player *players.Player
	Wins   int
}

// AlreadyDrawnError — сегодня уже есть победитель.
// Содержит победителя, чтобы обработчик показал результат дня.
type AlreadyDrawnError struct {
	Winner *players.Player
}

func (e *AlreadyDrawnError) Error() string {
	return fmt.Sprintf("розыгрыш сегодня уже проведён, победитель user_id=%d", e.Winner.UserID)
}

// IneligibleError — финальное голосование недоступно: либо сегодня
// не 29-30 декабря, либо пропущено слишком много дней.
type IneligibleError struct {
	Reason      string
	MissedCount int
}

func (e *IneligibleError) Error() string {
	return e.Reason
}
