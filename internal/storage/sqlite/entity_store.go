// Package sqlite provides a SQLite implementation of the Dossier
// storage interfaces using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dossier-io/dossier/internal/storage"
	"github.com/dossier-io/dossier/pkg/types"
)

// EntityStore implements storage.EntityStore using SQLite.
type EntityStore struct {
	db *sql.DB
}

// NewEntityStore opens a SQLite database, configures WAL mode, and
// applies the schema. Use ":memory:" as the dsn for tests.
func NewEntityStore(dsn string) (*EntityStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open
	// connection serialises writes and avoids SQLITE_BUSY errors under
	// concurrent load; WAL mode lets readers proceed without blocking
	// the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}

	return &EntityStore{db: db}, nil
}

// GetDB exposes the underlying database connection for server wiring.
func (s *EntityStore) GetDB() *sql.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *EntityStore) Close() error {
	return s.db.Close()
}

// GetEntity retrieves an entity by id.
func (s *EntityStore) GetEntity(ctx context.Context, id int64) (*types.Entity, error) {
	var e types.Entity
	var canonical sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, type, canonical FROM entities WHERE id = ?", id,
	).Scan(&e.ID, &e.Name, &e.Type, &canonical)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: entity %d", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get entity: %w", err)
	}
	e.Canonical = canonical.String
	return &e, nil
}

// ListEntities retrieves entities in ascending id order, optionally
// filtered by type.
func (s *EntityStore) ListEntities(ctx context.Context, opts storage.ListOptions) ([]*types.Entity, error) {
	query := "SELECT id, name, type, canonical FROM entities"
	args := []any{}
	if opts.Type != "" {
		query += " WHERE type = ?"
		args = append(args, opts.Type)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list entities: %w", err)
	}
	defer rows.Close()

	var entities []*types.Entity
	for rows.Next() {
		var e types.Entity
		var canonical sql.NullString
		if err := rows.Scan(&e.ID, &e.Name, &e.Type, &canonical); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan entity: %w", err)
		}
		e.Canonical = canonical.String
		entities = append(entities, &e)
	}
	return entities, rows.Err()
}

// CreateEntity inserts an entity row and returns its assigned id.
func (s *EntityStore) CreateEntity(ctx context.Context, e *types.Entity) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO entities (name, type, canonical) VALUES (?, ?, ?)",
		e.Name, e.Type, e.Canonical)
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to create entity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to get entity id: %w", err)
	}
	return id, nil
}

// GetResolution returns the canonical id mapped for a source entity.
func (s *EntityStore) GetResolution(ctx context.Context, sourceID int64) (int64, error) {
	var canonicalID int64
	err := s.db.QueryRowContext(ctx,
		"SELECT canonical_entity_id FROM entity_resolutions WHERE source_entity_id = ?",
		sourceID,
	).Scan(&canonicalID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: no resolution for entity %d", storage.ErrNotFound, sourceID)
	}
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to get resolution: %w", err)
	}
	return canonicalID, nil
}

// ListResolutions returns the full source → canonical mapping.
func (s *EntityStore) ListResolutions(ctx context.Context) (map[int64]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT source_entity_id, canonical_entity_id FROM entity_resolutions")
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list resolutions: %w", err)
	}
	defer rows.Close()

	resolutions := make(map[int64]int64)
	for rows.Next() {
		var source, canonical int64
		if err := rows.Scan(&source, &canonical); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan resolution: %w", err)
		}
		resolutions[source] = canonical
	}
	return resolutions, rows.Err()
}

// ListDuplicates returns every resolved pair with both display names.
func (s *EntityStore) ListDuplicates(ctx context.Context) ([]types.DuplicatePair, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT er.source_entity_id, e1.name, er.canonical_entity_id, e2.name
		FROM entity_resolutions er
		JOIN entities e1 ON e1.id = er.source_entity_id
		JOIN entities e2 ON e2.id = er.canonical_entity_id
		ORDER BY er.canonical_entity_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list duplicates: %w", err)
	}
	defer rows.Close()

	var pairs []types.DuplicatePair
	for rows.Next() {
		var p types.DuplicatePair
		if err := rows.Scan(&p.SourceID, &p.SourceName, &p.CanonicalID, &p.CanonicalName); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan duplicate pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// RecordMerge persists one merge as a single transaction: mapping
// upsert, chain rewrite, two alias inserts, and one audit entry.
func (s *EntityStore) RecordMerge(ctx context.Context, source, target *types.Entity, detail string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin merge transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO entity_resolutions (source_entity_id, canonical_entity_id) VALUES (?, ?)",
		source.ID, target.ID); err != nil {
		return fmt.Errorf("sqlite: failed to create resolution: %w", err)
	}

	// Repoint any mappings that resolved to the absorbed source so the
	// table stays transitively flat (single-hop lookups stay correct).
	if _, err := tx.ExecContext(ctx,
		"UPDATE entity_resolutions SET canonical_entity_id = ? WHERE canonical_entity_id = ?",
		target.ID, source.ID); err != nil {
		return fmt.Errorf("sqlite: failed to rewrite resolution chain: %w", err)
	}

	for _, name := range []string{source.Name, target.Name} {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO entity_aliases (entity_id, alias_name) VALUES (?, ?)",
			target.ID, name); err != nil {
			return fmt.Errorf("sqlite: failed to record alias: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO resolution_log (source_entity_id, canonical_entity_id, action, detail) VALUES (?, ?, ?, ?)",
		source.ID, target.ID, types.LogActionMerge, detail); err != nil {
		return fmt.Errorf("sqlite: failed to append merge log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: failed to commit merge: %w", err)
	}
	return nil
}

// RecordSplit removes a mapping and appends a split audit entry,
// atomically.
func (s *EntityStore) RecordSplit(ctx context.Context, sourceID, canonicalID int64, detail string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin split transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM entity_resolutions WHERE source_entity_id = ? AND canonical_entity_id = ?",
		sourceID, canonicalID)
	if err != nil {
		return fmt.Errorf("sqlite: failed to delete resolution: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to check split result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: no resolution %d -> %d", storage.ErrNotFound, sourceID, canonicalID)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO resolution_log (source_entity_id, canonical_entity_id, action, detail) VALUES (?, ?, ?, ?)",
		sourceID, canonicalID, types.LogActionSplit, detail); err != nil {
		return fmt.Errorf("sqlite: failed to append split log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: failed to commit split: %w", err)
	}
	return nil
}

// ListAliases returns all recorded name variants for an entity.
func (s *EntityStore) ListAliases(ctx context.Context, entityID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT alias_name FROM entity_aliases WHERE entity_id = ? ORDER BY alias_name",
		entityID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list aliases: %w", err)
	}
	defer rows.Close()

	var aliases []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan alias: %w", err)
		}
		aliases = append(aliases, name)
	}
	return aliases, rows.Err()
}

// AppendLog appends one entry to the resolution audit log.
func (s *EntityStore) AppendLog(ctx context.Context, entry *types.ResolutionLogEntry) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO resolution_log (source_entity_id, canonical_entity_id, action, detail) VALUES (?, ?, ?, ?)",
		entry.SourceID, entry.CanonicalID, entry.Action, entry.Detail)
	if err != nil {
		return fmt.Errorf("sqlite: failed to append log entry: %w", err)
	}
	return nil
}

// ListLog returns audit entries oldest first, optionally restricted to
// one (source, canonical) pair.
func (s *EntityStore) ListLog(ctx context.Context, sourceID, canonicalID int64) ([]types.ResolutionLogEntry, error) {
	query := "SELECT id, source_entity_id, canonical_entity_id, action, COALESCE(detail, ''), created_at FROM resolution_log"
	args := []any{}
	if sourceID != 0 || canonicalID != 0 {
		query += " WHERE source_entity_id = ? AND canonical_entity_id = ?"
		args = append(args, sourceID, canonicalID)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list log: %w", err)
	}
	defer rows.Close()

	var entries []types.ResolutionLogEntry
	for rows.Next() {
		var e types.ResolutionLogEntry
		var created string
		if err := rows.Scan(&e.ID, &e.SourceID, &e.CanonicalID, &e.Action, &e.Detail, &created); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan log entry: %w", err)
		}
		e.CreatedAt = parseTimestamp(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// EnqueueSuggestion inserts a pending suggestion; re-suggesting an
// existing (source, target) pair is a no-op.
func (s *EntityStore) EnqueueSuggestion(ctx context.Context, m types.CandidateMatch) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO resolution_queue (source_entity_id, target_entity_id, confidence, strategy) VALUES (?, ?, ?, ?)",
		m.SourceID, m.TargetID, m.Confidence, m.Strategy)
	if err != nil {
		return fmt.Errorf("sqlite: failed to enqueue suggestion: %w", err)
	}
	return nil
}

// GetQueueEntry retrieves a review queue entry by queue id.
func (s *EntityStore) GetQueueEntry(ctx context.Context, queueID int64) (*types.ReviewQueueEntry, error) {
	var e types.ReviewQueueEntry
	var created string
	err := s.db.QueryRowContext(ctx, `
		SELECT rq.id, rq.source_entity_id, e1.name, rq.target_entity_id, e2.name,
		       rq.confidence, rq.strategy, rq.created_at
		FROM resolution_queue rq
		JOIN entities e1 ON e1.id = rq.source_entity_id
		JOIN entities e2 ON e2.id = rq.target_entity_id
		WHERE rq.id = ?`, queueID,
	).Scan(&e.ID, &e.SourceID, &e.SourceName, &e.TargetID, &e.TargetName,
		&e.Confidence, &e.Strategy, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: queue entry %d", storage.ErrNotFound, queueID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get queue entry: %w", err)
	}
	e.CreatedAt = parseTimestamp(created)
	return &e, nil
}

// ListQueue returns pending suggestions, highest confidence first.
func (s *EntityStore) ListQueue(ctx context.Context) ([]types.ReviewQueueEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rq.id, rq.source_entity_id, e1.name, rq.target_entity_id, e2.name,
		       rq.confidence, rq.strategy, rq.created_at
		FROM resolution_queue rq
		JOIN entities e1 ON e1.id = rq.source_entity_id
		JOIN entities e2 ON e2.id = rq.target_entity_id
		ORDER BY rq.confidence DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list queue: %w", err)
	}
	defer rows.Close()

	var entries []types.ReviewQueueEntry
	for rows.Next() {
		var e types.ReviewQueueEntry
		var created string
		if err := rows.Scan(&e.ID, &e.SourceID, &e.SourceName, &e.TargetID, &e.TargetName,
			&e.Confidence, &e.Strategy, &created); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan queue entry: %w", err)
		}
		e.CreatedAt = parseTimestamp(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteQueueEntry removes a queue entry.
func (s *EntityStore) DeleteQueueEntry(ctx context.Context, queueID int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM resolution_queue WHERE id = ?", queueID)
	if err != nil {
		return fmt.Errorf("sqlite: failed to delete queue entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: queue entry %d", storage.ErrNotFound, queueID)
	}
	return nil
}

// ListConnections returns every raw co-occurrence edge.
func (s *EntityStore) ListConnections(ctx context.Context) ([]types.Connection, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT entity_a_id, entity_b_id, weight FROM entity_connections")
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list connections: %w", err)
	}
	defer rows.Close()

	var conns []types.Connection
	for rows.Next() {
		var c types.Connection
		if err := rows.Scan(&c.EntityA, &c.EntityB, &c.Weight); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan connection: %w", err)
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}

// SharedDocuments reports whether two entities appear together in at
// least one document.
func (s *EntityStore) SharedDocuments(ctx context.Context, a, b int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM document_entities de1
		JOIN document_entities de2 ON de1.document_id = de2.document_id
		WHERE de1.entity_id = ? AND de2.entity_id = ?`, a, b,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: failed to check shared documents: %w", err)
	}
	return count > 0, nil
}

// AddConnection upserts a co-occurrence edge, summing weight on conflict.
func (s *EntityStore) AddConnection(ctx context.Context, c types.Connection) error {
	a, b := c.EntityA, c.EntityB
	if a > b {
		a, b = b, a
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entity_connections (entity_a_id, entity_b_id, weight)
		VALUES (?, ?, ?)
		ON CONFLICT(entity_a_id, entity_b_id) DO UPDATE SET
			weight = weight + excluded.weight`,
		a, b, c.Weight)
	if err != nil {
		return fmt.Errorf("sqlite: failed to add connection: %w", err)
	}
	return nil
}

// CreateDocument inserts a document row and returns its id.
func (s *EntityStore) CreateDocument(ctx context.Context, filename, title string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO documents (filename, title) VALUES (?, ?)", filename, title)
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to create document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to get document id: %w", err)
	}
	return id, nil
}

// AddDocumentEntity records that an entity appears in a document.
func (s *EntityStore) AddDocumentEntity(ctx context.Context, documentID, entityID int64, count int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document_entities (document_id, entity_id, count)
		VALUES (?, ?, ?)
		ON CONFLICT(document_id, entity_id) DO UPDATE SET
			count = count + excluded.count`,
		documentID, entityID, count)
	if err != nil {
		return fmt.Errorf("sqlite: failed to add document entity: %w", err)
	}
	return nil
}

// parseTimestamp parses the timestamp formats SQLite emits for
// CURRENT_TIMESTAMP columns. Returns the zero time on failure.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
