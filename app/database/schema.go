package database

const Schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    id      INTEGER PRIMARY KEY CHECK (id = 1),
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    id                         INTEGER PRIMARY KEY CHECK (id = 1),
    enable_extension           INTEGER NOT NULL DEFAULT 1,
    restricted_mode            INTEGER NOT NULL DEFAULT 0,
    auto_skip_ad               INTEGER NOT NULL DEFAULT 0,
    enable_audio_transcription INTEGER NOT NULL DEFAULT 0,
    whitelist_enabled          INTEGER NOT NULL DEFAULT 0
);

INSERT OR IGNORE INTO settings (id) VALUES (1);

CREATE TABLE IF NOT EXISTS whitelist (
    uid          TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    added_at     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS detection_cache (
    video_id    TEXT PRIMARY KEY,
    payload     TEXT NOT NULL,
    computed_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_detection_cache_computed_at ON detection_cache (computed_at);

CREATE TABLE IF NOT EXISTS transcription_cache (
    video_id   TEXT PRIMARY KEY,
    payload    TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transcription_cache_created_at ON transcription_cache (created_at);
`
