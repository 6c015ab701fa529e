package database

const schemaSQL = `
CREATE SCHEMA IF NOT EXISTS app;

-- Named blobs (override set under "pm_overrides")
CREATE TABLE IF NOT EXISTS app.kv (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Ticker valuation history, one row per ticker per revaluation run
CREATE TABLE IF NOT EXISTS app.valuation_snapshots (
	id          BIGSERIAL PRIMARY KEY,
	run_id      UUID NOT NULL,
	ticker      TEXT NOT NULL,
	sector      TEXT NOT NULL,
	factors     JSONB NOT NULL,
	inputs      JSONB NOT NULL,
	result      JSONB NOT NULL,
	tier        TEXT NOT NULL,
	computed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_valuation_snapshots_ticker
	ON app.valuation_snapshots (ticker, computed_at DESC);
CREATE INDEX IF NOT EXISTS idx_valuation_snapshots_run
	ON app.valuation_snapshots (run_id);
`
