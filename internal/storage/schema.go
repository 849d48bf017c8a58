package storage

// Schema is the SQL schema for the local algorithm cache. Parameters and
// outputs share algorithm_data and are told apart by is_input.
const Schema = `
CREATE TABLE IF NOT EXISTS algorithms (
    algorithm_name TEXT PRIMARY KEY,
    title          TEXT NOT NULL DEFAULT '',
    description    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS algorithm_data (
    data_id              INTEGER PRIMARY KEY AUTOINCREMENT,
    algorithm_name       TEXT NOT NULL REFERENCES algorithms(algorithm_name) ON DELETE CASCADE,
    is_input             INTEGER NOT NULL CHECK(is_input IN (0, 1)),
    algorithm_field_name TEXT NOT NULL,
    title                TEXT NOT NULL DEFAULT '',
    description          TEXT NOT NULL DEFAULT '',
    data_shape           TEXT NOT NULL,
    data_type            TEXT NOT NULL,
    default_value        TEXT NOT NULL DEFAULT 'null'
);

CREATE INDEX IF NOT EXISTS idx_algorithm_data_name ON algorithm_data(algorithm_name, is_input);
`

// dsnPragmas configures SQLite for a single local client.
const dsnPragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"
