package sqlstore

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	id                    TEXT PRIMARY KEY,
	user_id               TEXT NOT NULL,
	category              TEXT NOT NULL,
	name                  TEXT NOT NULL,
	balance               REAL NOT NULL DEFAULT 0,
	interest_rate         REAL NOT NULL DEFAULT 0,
	credit_limit          REAL,
	due_date              TEXT,
	statement_date        INTEGER,
	minimum_payment       REAL,
	is_paid_off           INTEGER NOT NULL DEFAULT 0,
	autopay_enabled       INTEGER NOT NULL DEFAULT 0,
	autopay_amount_type   TEXT,
	autopay_custom_amount REAL,
	created_at            DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id);

CREATE TABLE IF NOT EXISTS income_events (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	name       TEXT NOT NULL,
	amount     REAL NOT NULL,
	date       TEXT NOT NULL,
	frequency  TEXT NOT NULL,
	end_date   TEXT,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_income_user ON income_events(user_id);

CREATE TABLE IF NOT EXISTS expense_items (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	name       TEXT NOT NULL,
	amount     REAL NOT NULL,
	category   TEXT NOT NULL DEFAULT '',
	frequency  TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_expenses_user ON expense_items(user_id);

CREATE TABLE IF NOT EXISTS finance_settings (
	user_id             TEXT PRIMARY KEY,
	monthly_expenses    REAL NOT NULL DEFAULT 0,
	expense_mode        TEXT NOT NULL DEFAULT 'simple',
	income_enabled      INTEGER NOT NULL DEFAULT 1,
	excluded_income_ids TEXT NOT NULL DEFAULT '[]',
	credit_score        INTEGER,
	extra_debt_payment  REAL NOT NULL DEFAULT 0,
	updated_at          DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	label            TEXT NOT NULL DEFAULT '',
	accounts         TEXT NOT NULL,
	monthly_expenses REAL NOT NULL DEFAULT 0,
	credit_score     INTEGER,
	net_worth        REAL NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_user ON snapshots(user_id, created_at);
`
