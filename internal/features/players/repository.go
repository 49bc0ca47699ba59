// Package players — repository.go выполняет операции с таблицей players.
package players

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository предоставляет методы для работы с таблицей players.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий игроков.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create добавляет игрока в чат. На конфликте по (chat_id, user_id)
// обновляет только имя/username — игрок мог переименоваться.
func (r *Repository) Create(ctx context.Context, p *Player) error {
	query := `
		INSERT INTO players (chat_id, user_id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (chat_id, user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, p.ChatID, p.UserID, p.Username, p.FirstName, p.LastName)
	if err != nil {
		return fmt.Errorf("ошибка регистрации игрока: %w", err)
	}
	return nil
}

// GetByUserID возвращает игрока чата по Telegram user ID.
// Возвращает (nil, nil), если игрок не зарегистрирован.
func (r *Repository) GetByUserID(ctx context.Context, chatID, userID int64) (*Player, error) {
	query := `
		SELECT id, chat_id, user_id, COALESCE(username, ''), first_name,
		       COALESCE(last_name, ''), created_at, updated_at
		FROM players
		WHERE chat_id = $1 AND user_id = $2
	`
	var p Player
	err := r.db.QueryRow(ctx, query, chatID, userID).Scan(
		&p.ID, &p.ChatID, &p.UserID, &p.Username, &p.FirstName,
		&p.LastName, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска игрока (user_id=%d): %w", userID, err)
	}
	return &p, nil
}

// GetByUsername возвращает игрока чата по @username (без @).
// Возвращает (nil, nil), если такого игрока нет.
func (r *Repository) GetByUsername(ctx context.Context, chatID int64, username string) (*Player, error) {
	query := `
		SELECT id, chat_id, user_id, COALESCE(username, ''), first_name,
		       COALESCE(last_name, ''), created_at, updated_at
		FROM players
		WHERE chat_id = $1 AND username = $2
	`
	var p Player
	err := r.db.QueryRow(ctx, query, chatID, username).Scan(
		&p.ID, &p.ChatID, &p.UserID, &p.Username, &p.FirstName,
		&p.LastName, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска игрока (@%s): %w", username, err)
	}
	return &p, nil
}

// Exists проверяет, зарегистрирован ли игрок в чате.
func (r *Repository) Exists(ctx context.Context, chatID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM players WHERE chat_id = $1 AND user_id = $2)`,
		chatID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки игрока: %w", err)
	}
	return exists, nil
}

// List возвращает всех игроков чата, отсортированных по user_id.
// Порядок стабилен — это важно для воспроизводимости розыгрыша в тестах.
func (r *Repository) List(ctx context.Context, chatID int64) ([]*Player, error) {
	query := `
		SELECT id, chat_id, user_id, COALESCE(username, ''), first_name,
		       COALESCE(last_name, ''), created_at, updated_at
		FROM players
		WHERE chat_id = $1
		ORDER BY user_id
	`
	rows, err := r.db.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения игроков: %w", err)
	}
	defer rows.Close()

	var list []*Player
	for rows.Next() {
		var p Player
		err := rows.Scan(
			&p.ID, &p.ChatID, &p.UserID, &p.Username, &p.FirstName,
			&p.LastName, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования игрока: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
