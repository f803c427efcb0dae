// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	dataset TEXT NOT NULL,
	config BLOB,
	start_time DATETIME,
	end_time DATETIME,
	ticks INTEGER NOT NULL,
	trades INTEGER NOT NULL,
	rejected INTEGER NOT NULL,
	initial_capital REAL NOT NULL,
	final_equity REAL NOT NULL,
	net_pl REAL NOT NULL,
	return_pct REAL NOT NULL,
	max_dd_pct REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	time DATETIME NOT NULL,
	side TEXT NOT NULL,
	price REAL NOT NULL,
	quantity REAL NOT NULL,
	cash_delta REAL NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	time DATETIME NOT NULL,
	cash REAL NOT NULL,
	position REAL NOT NULL,
	price REAL NOT NULL,
	equity REAL NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
`
