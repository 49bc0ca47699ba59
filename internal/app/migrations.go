// Package app — migrations.go: схема базы данных.
package app

import "github.com/vodka-429/pidor-bot-2/internal/db/postgres"

var migrations = []postgres.Migration{
	{
		Version: 1,
		Name:    "players",
		SQL: `
			CREATE TABLE players (
				id         BIGSERIAL PRIMARY KEY,
				chat_id    BIGINT NOT NULL,
				user_id    BIGINT NOT NULL,
				username   TEXT,
				first_name TEXT NOT NULL DEFAULT '',
				last_name  TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (chat_id, user_id)
			);
			CREATE INDEX idx_players_chat ON players (chat_id);
		`,
	},
	{
		Version: 2,
		Name:    "draws",
		SQL: `
			CREATE TABLE draws (
				id         BIGSERIAL PRIMARY KEY,
				chat_id    BIGINT NOT NULL,
				year       INT NOT NULL,
				day        INT NOT NULL CHECK (day BETWEEN 1 AND 366),
				winner_id  BIGINT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (chat_id, year, day)
			);
			CREATE INDEX idx_draws_chat_year ON draws (chat_id, year);
		`,
	},
	{
		Version: 3,
		Name:    "voting",
		SQL: `
			CREATE TABLE vote_sessions (
				id           BIGSERIAL PRIMARY KEY,
				chat_id      BIGINT NOT NULL,
				year         INT NOT NULL,
				state        TEXT NOT NULL CHECK (state IN ('open', 'tallied')),
				missed_count INT NOT NULL DEFAULT 0,
				opened_at    TIMESTAMPTZ NOT NULL,
				tallied_at   TIMESTAMPTZ,
				winner_id    BIGINT,
				awarded_days INT NOT NULL DEFAULT 0,
				UNIQUE (chat_id, year)
			);

			CREATE TABLE ballots (
				chat_id    BIGINT NOT NULL,
				year       INT NOT NULL,
				voter_id   BIGINT NOT NULL,
				target_id  BIGINT NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL,
				UNIQUE (chat_id, year, voter_id)
			);

			CREATE TABLE missed_resolutions (
				chat_id              BIGINT NOT NULL,
				year                 INT NOT NULL,
				resolved_through_day INT NOT NULL CHECK (resolved_through_day BETWEEN 0 AND 366),
				UNIQUE (chat_id, year)
			);
		`,
	},
	{
		Version: 4,
		Name:    "coin_transactions",
		SQL: `
			CREATE TABLE coin_transactions (
				id         BIGSERIAL PRIMARY KEY,
				chat_id    BIGINT NOT NULL,
				user_id    BIGINT NOT NULL,
				amount     BIGINT NOT NULL,
				type       TEXT NOT NULL,
				meta       TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX idx_coin_tx_user ON coin_transactions (chat_id, user_id);
		`,
	},
}
