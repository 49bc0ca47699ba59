// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// Белый список групповых чатов, в которых бот ведёт игру.
	// Каждый чат — отдельная игра со своими игроками и статистикой.
	ChatIDsRaw string  `envconfig:"CHAT_IDS" required:"true"`
	ChatIDs    []int64 `envconfig:"-"` // заполняется из ChatIDsRaw

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт "postgres" (имя сервиса в docker-compose), для локалки DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"pidor_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	// Единый часовой пояс бота. Все игровые даты — «сегодня», окно
	// финального голосования, расписание задач — считаются в нём,
	// а не в поясе каждого чата.
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Game ---
	// Минимум игроков для розыгрыша
	GameMinPlayers int `envconfig:"GAME_MIN_PLAYERS" default:"2"`
	// Порог пропущенных дней: при таком количестве и больше финальное
	// голосование недоступно (строго «меньше порога»)
	GameMaxMissedForVote int `envconfig:"GAME_MAX_MISSED_FOR_VOTE" default:"10"`
	// Пауза между этапами драматического розыгрыша
	GameStageDelay time.Duration `envconfig:"GAME_STAGE_DELAY" default:"2s"`
	// Награда в пидоркойнах за победу в розыгрыше
	GameCoinsPerWin int64 `envconfig:"GAME_COINS_PER_WIN" default:"4"`
	// Минимальная сумма перевода койнов
	GameTransferMin int64 `envconfig:"GAME_TRANSFER_MIN" default:"2"`
	// Час вечернего напоминания о непроведённом розыгрыше (0-23)
	GameReminderHour int `envconfig:"GAME_REMINDER_HOUR" default:"21"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Feature Flags ---
	FeatureCoinsEnabled     bool `envconfig:"FEATURE_COINS_ENABLED" default:"true"`
	FeatureRemindersEnabled bool `envconfig:"FEATURE_REMINDERS_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Location возвращает часовой пояс бота.
// Если пояс не загрузился — фиксированный UTC+3 (московское время).
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

func (c *Config) Validate() error {
	if len(c.ChatIDs) == 0 {
		return fmt.Errorf("CHAT_IDS не задан")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.GameMinPlayers < 2 {
		return fmt.Errorf("GAME_MIN_PLAYERS должен быть >= 2")
	}
	if c.GameMaxMissedForVote <= 0 {
		return fmt.Errorf("GAME_MAX_MISSED_FOR_VOTE должен быть > 0")
	}
	if c.GameReminderHour < 0 || c.GameReminderHour > 23 {
		return fmt.Errorf("GAME_REMINDER_HOUR должен быть в диапазоне 0-23")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.ChatIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("CHAT_IDS parse: %w", err)
	}
	cfg.ChatIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
