package store

const schema = `
-- Raw daily logs supplied by the ingestion side
CREATE TABLE IF NOT EXISTS daily_logs (
    feed_id TEXT PRIMARY KEY,
    user_name TEXT NOT NULL DEFAULT '',
    department TEXT NOT NULL DEFAULT '',
    log_date TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    crawled_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_daily_logs_date ON daily_logs(log_date);

-- Reconciled events
CREATE TABLE IF NOT EXISTS events (
    event_id TEXT PRIMARY KEY,
    doc_id TEXT NOT NULL,
    raw_span TEXT NOT NULL DEFAULT '',
    school_raw TEXT NOT NULL DEFAULT '',
    school_norm TEXT NOT NULL DEFAULT '',
    school_conf REAL NOT NULL DEFAULT 0,
    product_raw TEXT NOT NULL DEFAULT '',
    product_norm TEXT NOT NULL DEFAULT '',
    product_conf REAL NOT NULL DEFAULT 0,
    action_type TEXT NOT NULL DEFAULT '',
    action_type_conf REAL NOT NULL DEFAULT 0,
    blocker TEXT NOT NULL DEFAULT '',
    blocker_conf REAL NOT NULL DEFAULT 0,
    outcome TEXT NOT NULL DEFAULT '',
    outcome_conf REAL NOT NULL DEFAULT 0,
    event_conf REAL NOT NULL DEFAULT 0 CHECK(event_conf >= 0 AND event_conf <= 1),
    agreement REAL NOT NULL DEFAULT 0,
    consistency_status TEXT NOT NULL DEFAULT 'pending' CHECK(consistency_status IN ('pending', 'silver', 'gray')),
    run_a_json TEXT,
    run_b_json TEXT,
    occurrence_date TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    UNIQUE(doc_id, school_norm, raw_span)
);

CREATE INDEX IF NOT EXISTS idx_events_doc ON events(doc_id);
CREATE INDEX IF NOT EXISTS idx_events_school ON events(school_norm);
CREATE INDEX IF NOT EXISTS idx_events_consistency ON events(consistency_status);
CREATE INDEX IF NOT EXISTS idx_events_date ON events(occurrence_date);

-- Controlled vocabulary
CREATE TABLE IF NOT EXISTS taxonomy (
    tag_id TEXT PRIMARY KEY,
    dimension TEXT NOT NULL CHECK(dimension IN ('action_type', 'blocker', 'outcome')),
    name_norm TEXT NOT NULL,
    definition TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'candidate' CHECK(status IN ('candidate', 'stable')),
    freq_7d INTEGER NOT NULL DEFAULT 0,
    freq_30d INTEGER NOT NULL DEFAULT 0,
    distinct_schools INTEGER NOT NULL DEFAULT 0,
    consistency_rate REAL NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    promoted_at TEXT,
    UNIQUE(dimension, name_norm)
);

CREATE INDEX IF NOT EXISTS idx_taxonomy_dimension ON taxonomy(dimension);
CREATE INDEX IF NOT EXISTS idx_taxonomy_status ON taxonomy(status);

-- School / product name aliases
CREATE TABLE IF NOT EXISTS entity_aliases (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_type TEXT NOT NULL CHECK(entity_type IN ('school', 'product')),
    alias TEXT NOT NULL,
    canonical TEXT NOT NULL,
    confidence REAL NOT NULL DEFAULT 0,
    freq INTEGER NOT NULL DEFAULT 1,
    status TEXT NOT NULL DEFAULT 'candidate' CHECK(status IN ('candidate', 'stable')),
    created_at TEXT NOT NULL,
    UNIQUE(entity_type, alias)
);

CREATE INDEX IF NOT EXISTS idx_entity_aliases_type ON entity_aliases(entity_type);

-- Rejected promotions awaiting a manual merge decision
CREATE TABLE IF NOT EXISTS merge_suggestions (
    dimension TEXT NOT NULL,
    tag TEXT NOT NULL,
    target TEXT NOT NULL,
    similarity REAL NOT NULL,
    source TEXT NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (dimension, tag, target)
);
`
