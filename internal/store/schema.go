package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    session_id           TEXT PRIMARY KEY,
    description          TEXT NOT NULL,
    project              TEXT NOT NULL,
    project_path         TEXT,
    project_dir          TEXT NOT NULL,
    git_branch           TEXT,
    git_branch_lower     TEXT NOT NULL DEFAULT '',
    message_count        INTEGER NOT NULL,
    total_tokens         INTEGER NOT NULL,
    input_tokens         INTEGER NOT NULL,
    output_tokens        INTEGER NOT NULL,
    start_time           TEXT,
    end_time             TEXT,
    start_unix_ns        INTEGER,
    start_date           TEXT
);

CREATE TABLE IF NOT EXISTS session_models (
    session_id           TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
    model                TEXT NOT NULL,
    messages             INTEGER NOT NULL,
    input_tokens         INTEGER NOT NULL,
    output_tokens        INTEGER NOT NULL,
    PRIMARY KEY (session_id, model)
);

CREATE INDEX IF NOT EXISTS idx_sessions_start ON sessions(start_unix_ns);
CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(start_date);
`
