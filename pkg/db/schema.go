package db

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA temp_store = MEMORY;

-- One row per collection cycle. Timestamps are fixed-width UTC text so they
-- sort lexically.
CREATE TABLE IF NOT EXISTS book_rankings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    cycle_id TEXT NOT NULL,
    collected_at TEXT NOT NULL,

    kyobo_domestic_rank INTEGER,
    kyobo_it_rank INTEGER,

    yes24_sales_index INTEGER,
    yes24_it_mobile_rank INTEGER,

    aladin_computer_weekly_rank INTEGER,
    aladin_textbook_rank INTEGER,
    aladin_rank_period INTEGER,
    aladin_sales_point INTEGER,

    kyobo_error TEXT,
    yes24_error TEXT,
    aladin_error TEXT,

    -- Verbatim snapshot JSON for audit and replay
    raw_data TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_book_rankings_collected_at ON book_rankings(collected_at);
CREATE INDEX IF NOT EXISTS idx_book_rankings_cycle ON book_rankings(cycle_id);
`
