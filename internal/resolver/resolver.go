package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dossier-io/dossier/internal/storage"
	"github.com/dossier-io/dossier/pkg/types"
)

// Classification thresholds. Pairs scoring at or above
// AutoMergeThreshold are merged immediately; pairs in
// [SuggestThreshold, AutoMergeThreshold) go to the review queue;
// everything below SuggestThreshold is dropped.
const (
	AutoMergeThreshold = 0.85
	SuggestThreshold   = 0.60

	typeMatchBoost    = 0.10
	coOccurrenceBoost = 0.10
)

// Notifier receives an event whenever the engine mutates persisted
// resolution state. Used to drive the activity feed; may be nil.
type Notifier interface {
	ResolutionEvent(ev types.ActivityEvent)
}

// Engine resolves duplicate entities into canonical identities.
//
// The engine is designed for single-writer, synchronous use: callers
// must serialize concurrent ResolveAll passes over overlapping entity
// sets (e.g. with one process-wide resolution lock). Each individual
// merge is persisted atomically by the store.
type Engine struct {
	store    storage.EntityStore
	notifier Notifier
}

// ResolveOptions controls one resolution pass.
type ResolveOptions struct {
	// Type restricts the pass to one entity type. Empty means all.
	Type string

	// DryRun classifies every pair but writes nothing: no merges, no
	// queue entries, no audit log.
	DryRun bool
}

// NewEngine creates a resolution engine over the given store.
func NewEngine(store storage.EntityStore) *Engine {
	return &Engine{store: store}
}

// SetNotifier registers an activity-feed notifier.
func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

// ResolveEntity compares one entity against every other entity of the
// same type and returns the candidates scoring at or above the
// suggestion threshold. Returns an empty slice when the entity does
// not exist. Read-only: nothing is merged or queued.
func (e *Engine) ResolveEntity(ctx context.Context, id int64) ([]types.CandidateMatch, error) {
	entity, err := e.store.GetEntity(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return []types.CandidateMatch{}, nil
	}
	if err != nil {
		return nil, err
	}

	others, err := e.store.ListEntities(ctx, storage.ListOptions{Type: entity.Type})
	if err != nil {
		return nil, err
	}

	norm := NormalizeName(entity.Name)
	matches := []types.CandidateMatch{}
	for _, other := range others {
		if other.ID == entity.ID {
			continue
		}
		match, err := e.compare(ctx, entity, norm, other)
		if err != nil {
			return nil, err
		}
		if match != nil {
			matches = append(matches, *match)
		}
	}
	return matches, nil
}

// ResolveAll runs resolution across all entities, optionally filtered
// by type, in ascending id order. Auto-merge pairs are merged
// immediately (writes interleave with the scan); suggest pairs are
// queued for review. Each unordered pair is evaluated at most once per
// run; re-encounters count as skipped. Honors context cancellation at
// the granularity of one pair, returning the partial result alongside
// the context error.
func (e *Engine) ResolveAll(ctx context.Context, opts ResolveOptions) (*types.ResolutionResult, error) {
	entities, err := e.store.ListEntities(ctx, storage.ListOptions{Type: opts.Type})
	if err != nil {
		return nil, err
	}

	result := &types.ResolutionResult{
		EntitiesScanned: len(entities),
		Matches:         []types.CandidateMatch{},
	}

	byType := make(map[string][]*types.Entity)
	for _, ent := range entities {
		byType[ent.Type] = append(byType[ent.Type], ent)
	}

	type pairKey struct{ lo, hi int64 }
	seen := make(map[pairKey]bool)

	for _, entity := range entities {
		norm := NormalizeName(entity.Name)
		for _, other := range byType[entity.Type] {
			if other.ID == entity.ID {
				continue
			}
			if err := ctx.Err(); err != nil {
				return result, err
			}

			key := pairKey{entity.ID, other.ID}
			if key.lo > key.hi {
				key.lo, key.hi = key.hi, key.lo
			}
			if seen[key] {
				result.Skipped++
				continue
			}
			seen[key] = true

			match, err := e.compare(ctx, entity, norm, other)
			if err != nil {
				return result, err
			}
			if match == nil {
				continue
			}
			result.Matches = append(result.Matches, *match)

			if opts.DryRun {
				switch match.Action {
				case types.MergeActionAuto:
					result.AutoMerged++
				case types.MergeActionSuggest:
					result.Suggested++
				}
				continue
			}

			switch match.Action {
			case types.MergeActionAuto:
				merged, err := e.MergeEntities(ctx, match.SourceID, match.TargetID)
				if err != nil {
					return result, err
				}
				if merged {
					result.AutoMerged++
				}
			case types.MergeActionSuggest:
				if err := e.store.EnqueueSuggestion(ctx, *match); err != nil {
					return result, err
				}
				result.Suggested++
			}
		}
	}

	log.Printf("resolver: scanned %d entities, merged %d, suggested %d",
		result.EntitiesScanned, result.AutoMerged, result.Suggested)
	return result, nil
}

// MergeEntities merges the source entity into the target, which
// becomes (part of) the canonical identity. When the target itself has
// already been absorbed, the merge is redirected to the target's
// canonical entity, and any mappings pointing at the source are
// repointed, so the mapping table stays transitively flat and
// CanonicalID remains a correct single-hop lookup.
//
// Returns false when either entity does not exist or source == target.
// Idempotent: re-merging an existing pair only refreshes the audit log.
func (e *Engine) MergeEntities(ctx context.Context, sourceID, targetID int64) (bool, error) {
	source, err := e.store.GetEntity(ctx, sourceID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	target, err := e.store.GetEntity(ctx, targetID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// Redirect to the target's canonical identity if it has one.
	canonicalID, err := e.store.GetResolution(ctx, target.ID)
	if err == nil && canonicalID != target.ID {
		target, err = e.store.GetEntity(ctx, canonicalID)
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return false, err
	}

	if source.ID == target.ID {
		return false, nil
	}

	detail := fmt.Sprintf("Merged %q into %q", source.Name, target.Name)
	if err := e.store.RecordMerge(ctx, source, target, detail); err != nil {
		return false, err
	}

	e.notify(types.LogActionMerge, source.ID, target.ID, detail)
	return true, nil
}

// SplitEntity undoes a merge by removing the source → target mapping.
// Aliases are intentionally kept as a historical record. Returns false
// when no such mapping exists.
func (e *Engine) SplitEntity(ctx context.Context, sourceID, targetID int64) (bool, error) {
	detail := fmt.Sprintf("Split entity %d from canonical %d", sourceID, targetID)
	err := e.store.RecordSplit(ctx, sourceID, targetID, detail)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	e.notify(types.LogActionSplit, sourceID, targetID, detail)
	return true, nil
}

// CanonicalID returns the canonical id for an entity, or the id itself
// when unresolved. Single-hop: MergeEntities keeps the mapping table
// flat, so one hop is always enough.
func (e *Engine) CanonicalID(ctx context.Context, id int64) (int64, error) {
	canonicalID, err := e.store.GetResolution(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return id, nil
	}
	if err != nil {
		return 0, err
	}
	return canonicalID, nil
}

// ReviewQueueItem decides a pending suggestion. On approve the pair is
// merged and the decision logged; on reject only the decision is
// logged. The queue entry is removed either way. Returns false when
// the queue entry does not exist.
func (e *Engine) ReviewQueueItem(ctx context.Context, queueID int64, approve bool) (bool, error) {
	item, err := e.store.GetQueueEntry(ctx, queueID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	action, decision := types.LogActionReject, "rejected"
	if approve {
		action, decision = types.LogActionApprove, "approved"
		if _, err := e.MergeEntities(ctx, item.SourceID, item.TargetID); err != nil {
			return false, err
		}
	}

	detail := fmt.Sprintf("Queue item %d %s", queueID, decision)
	if err := e.store.AppendLog(ctx, &types.ResolutionLogEntry{
		SourceID:    item.SourceID,
		CanonicalID: item.TargetID,
		Action:      action,
		Detail:      detail,
	}); err != nil {
		return false, err
	}

	if err := e.store.DeleteQueueEntry(ctx, queueID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return false, err
	}

	e.notify(action, item.SourceID, item.TargetID, detail)
	return true, nil
}

// Aliases returns all recorded name variants for an entity.
func (e *Engine) Aliases(ctx context.Context, id int64) ([]string, error) {
	return e.store.ListAliases(ctx, id)
}

// Duplicates returns all resolved duplicate pairs.
func (e *Engine) Duplicates(ctx context.Context) ([]types.DuplicatePair, error) {
	return e.store.ListDuplicates(ctx)
}

// Queue returns the pending review queue, highest confidence first.
func (e *Engine) Queue(ctx context.Context) ([]types.ReviewQueueEntry, error) {
	return e.store.ListQueue(ctx)
}

// Log returns the audit trail, optionally restricted to one pair when
// both ids are non-zero.
func (e *Engine) Log(ctx context.Context, sourceID, canonicalID int64) ([]types.ResolutionLogEntry, error) {
	return e.store.ListLog(ctx, sourceID, canonicalID)
}

// compare scores one (source, other) pair of same-type entities and
// returns a candidate when the pair clears the suggestion threshold,
// nil otherwise. Strategies are tried in order: exact canonical, then
// initial match, then the better of Jaccard and edit distance. The
// floor is enforced before boosting, so a boosted candidate is always
// at least SuggestThreshold.
func (e *Engine) compare(ctx context.Context, source *types.Entity, sourceNorm string, other *types.Entity) (*types.CandidateMatch, error) {
	otherNorm := NormalizeName(other.Name)

	var confidence float64
	var strategy string

	switch {
	case sourceNorm == otherNorm && sourceNorm != "":
		confidence = exactConfidence
		strategy = StrategyExact
	case InitialMatch(sourceNorm, otherNorm):
		confidence = initialConfidence
		strategy = StrategyInitial
	default:
		if jac := JaccardSimilarity(sourceNorm, otherNorm); jac > jaccardFloor {
			confidence = jac
			strategy = StrategyJaccard
		}
		if editConf, ok := EditDistanceMatch(sourceNorm, otherNorm); ok && editConf > confidence {
			confidence = editConf
			strategy = StrategyEdit
		}
	}

	if confidence < SuggestThreshold {
		return nil, nil
	}

	// Context boosters. The type booster is always in effect today
	// because comparison is type-scoped; it is kept for cross-type
	// comparison later.
	if source.Type == other.Type {
		confidence = min(1.0, confidence+typeMatchBoost)
	}

	shared, err := e.store.SharedDocuments(ctx, source.ID, other.ID)
	if err != nil {
		return nil, err
	}
	if shared {
		confidence = min(1.0, confidence+coOccurrenceBoost)
	}

	action := types.MergeActionSuggest
	if confidence >= AutoMergeThreshold {
		action = types.MergeActionAuto
	}

	return &types.CandidateMatch{
		SourceID:   source.ID,
		SourceName: source.Name,
		TargetID:   other.ID,
		TargetName: other.Name,
		Confidence: confidence,
		Strategy:   strategy,
		Action:     action,
	}, nil
}

func (e *Engine) notify(action string, sourceID, targetID int64, detail string) {
	if e.notifier == nil {
		return
	}
	e.notifier.ResolutionEvent(types.ActivityEvent{
		Action:    action,
		SourceID:  sourceID,
		TargetID:  targetID,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	})
}
