// Package storage provides the persistence interfaces for the Dossier core.
//
// The resolver engine exclusively owns writes to the resolution mapping,
// alias, audit log, and review queue tables. The graph engine only reads
// the mapping and co-occurrence tables. Entity, document, and connection
// rows are produced upstream by the NER/ingestion layer; the write methods
// for them exist so that ingestion, the CLI, and tests can seed data.
package storage

import (
	"context"

	"github.com/dossier-io/dossier/pkg/types"
)

// EntityStore is the storage surface for the resolver and graph engines.
// Implementations exist for SQLite and PostgreSQL.
type EntityStore interface {
	// GetEntity retrieves an entity by id.
	// Returns ErrNotFound if the entity doesn't exist.
	GetEntity(ctx context.Context, id int64) (*types.Entity, error)

	// ListEntities retrieves entities in ascending id order, optionally
	// filtered by type.
	ListEntities(ctx context.Context, opts ListOptions) ([]*types.Entity, error)

	// CreateEntity inserts an entity row and returns its assigned id.
	// The (canonical, type) pair must be unique; violating it is a
	// storage failure, not ErrNotFound.
	CreateEntity(ctx context.Context, e *types.Entity) (int64, error)

	// GetResolution returns the canonical id mapped for a source entity.
	// Returns ErrNotFound when the source has no mapping.
	GetResolution(ctx context.Context, sourceID int64) (int64, error)

	// ListResolutions returns the full source → canonical mapping.
	ListResolutions(ctx context.Context) (map[int64]int64, error)

	// ListDuplicates returns every resolved pair joined with both
	// display names, ordered by canonical id.
	ListDuplicates(ctx context.Context) ([]types.DuplicatePair, error)

	// RecordMerge persists one merge as a single atomic transaction:
	// it upserts the source → target mapping, rewrites any existing
	// mappings that point at the absorbed source so chains never form,
	// records both display names as aliases of the target, and appends
	// a merge entry to the audit log. A failure rolls back all of it.
	RecordMerge(ctx context.Context, source, target *types.Entity, detail string) error

	// RecordSplit removes the source → canonical mapping and appends a
	// split entry to the audit log, atomically. Aliases are kept as a
	// historical record. Returns ErrNotFound when no such mapping exists.
	RecordSplit(ctx context.Context, sourceID, canonicalID int64, detail string) error

	// ListAliases returns all recorded name variants for an entity,
	// sorted alphabetically.
	ListAliases(ctx context.Context, entityID int64) ([]string, error)

	// AppendLog appends one immutable entry to the resolution audit log.
	AppendLog(ctx context.Context, entry *types.ResolutionLogEntry) error

	// ListLog returns audit entries oldest first. When sourceID and
	// canonicalID are both non-zero, results are restricted to that pair.
	ListLog(ctx context.Context, sourceID, canonicalID int64) ([]types.ResolutionLogEntry, error)

	// EnqueueSuggestion adds a suggested merge to the review queue.
	// Re-suggesting a (source, target) pair that is already pending is
	// a no-op.
	EnqueueSuggestion(ctx context.Context, m types.CandidateMatch) error

	// GetQueueEntry retrieves a review queue entry by queue id.
	// Returns ErrNotFound if the entry doesn't exist.
	GetQueueEntry(ctx context.Context, queueID int64) (*types.ReviewQueueEntry, error)

	// ListQueue returns pending suggestions with both display names,
	// highest confidence first.
	ListQueue(ctx context.Context) ([]types.ReviewQueueEntry, error)

	// DeleteQueueEntry removes a queue entry.
	// Returns ErrNotFound if the entry doesn't exist.
	DeleteQueueEntry(ctx context.Context, queueID int64) error

	// ListConnections returns every raw co-occurrence edge.
	ListConnections(ctx context.Context) ([]types.Connection, error)

	// SharedDocuments reports whether two entities appear together in
	// at least one document.
	SharedDocuments(ctx context.Context, a, b int64) (bool, error)

	// AddConnection upserts a raw co-occurrence edge, summing weight
	// when the pair already exists. Endpoints are stored lower id first.
	AddConnection(ctx context.Context, c types.Connection) error

	// CreateDocument inserts a document row and returns its id.
	CreateDocument(ctx context.Context, filename, title string) (int64, error)

	// AddDocumentEntity records that an entity appears in a document
	// count times.
	AddDocumentEntity(ctx context.Context, documentID, entityID int64, count int) error

	// Close releases the underlying database resources.
	Close() error
}
