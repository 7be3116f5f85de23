package sqlite

// Schema is the SQLite schema for the Dossier core. All statements are
// idempotent so the schema can be applied on every open.
//
// The documents, entities, document_entities, and entity_connections
// tables are written by the upstream ingestion/NER layer; the resolver
// owns entity_resolutions, entity_aliases, resolution_log, and
// resolution_queue.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    filename    TEXT NOT NULL,
    title       TEXT,
    ingested_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS entities (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    name      TEXT NOT NULL,
    type      TEXT NOT NULL,
    canonical TEXT,
    UNIQUE(canonical, type)
);

CREATE TABLE IF NOT EXISTS document_entities (
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    entity_id   INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    count       INTEGER DEFAULT 1,
    PRIMARY KEY (document_id, entity_id)
);

CREATE TABLE IF NOT EXISTS entity_connections (
    entity_a_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    entity_b_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    weight      INTEGER DEFAULT 1,
    PRIMARY KEY (entity_a_id, entity_b_id)
);

CREATE TABLE IF NOT EXISTS entity_resolutions (
    source_entity_id    INTEGER PRIMARY KEY REFERENCES entities(id) ON DELETE CASCADE,
    canonical_entity_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS entity_aliases (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_id   INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    alias_name  TEXT NOT NULL,
    UNIQUE(entity_id, alias_name)
);

CREATE TABLE IF NOT EXISTS resolution_log (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    source_entity_id    INTEGER NOT NULL,
    canonical_entity_id INTEGER NOT NULL,
    action              TEXT NOT NULL,
    detail              TEXT,
    created_at          TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS resolution_queue (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    source_entity_id    INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    target_entity_id    INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    confidence          REAL NOT NULL,
    strategy            TEXT NOT NULL,
    created_at          TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(source_entity_id, target_entity_id)
);

CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(type);
CREATE INDEX IF NOT EXISTS idx_entities_canonical ON entities(canonical);
CREATE INDEX IF NOT EXISTS idx_doc_entities_entity ON document_entities(entity_id);
CREATE INDEX IF NOT EXISTS idx_resolutions_canonical ON entity_resolutions(canonical_entity_id);
CREATE INDEX IF NOT EXISTS idx_aliases_entity ON entity_aliases(entity_id);
CREATE INDEX IF NOT EXISTS idx_queue_confidence ON resolution_queue(confidence DESC);
`
