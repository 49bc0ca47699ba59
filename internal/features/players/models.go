// Package players управляет игроками: регистрацией и идентификацией.
// models.go описывает структуры для работы с таблицей players.
package players

import "time"

// Player представляет игрока в одном чате.
// Игрок всегда привязан к конкретному чату: один и тот же Telegram-аккаунт
// в двух чатах — это две независимые записи со своей статистикой.
// Записи не удаляются; создаются при регистрации (/pidoreg).
type Player struct {
	ID        int64     `db:"id"`         // Автоинкрементный ID записи
	ChatID    int64     `db:"chat_id"`    // Чат, к которому привязан игрок
	UserID    int64     `db:"user_id"`    // Telegram user ID
	Username  string    `db:"username"`   // @username (может быть пустым)
	FirstName string    `db:"first_name"` // Имя
	LastName  string    `db:"last_name"`  // Фамилия (может быть пустой)
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DisplayName возвращает отображаемое имя игрока.
// Если есть @username — возвращает его, иначе имя + фамилию.
func (p *Player) DisplayName() string {
	if p.Username != "" {
		return "@" + p.Username
	}
	name := p.FirstName
	if p.LastName != "" {
		name += " " + p.LastName
	}
	return name
}
