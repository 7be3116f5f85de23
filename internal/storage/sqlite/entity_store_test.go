package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/dossier-io/dossier/internal/storage"
	"github.com/dossier-io/dossier/pkg/types"
)

// newTestStore creates an in-memory SQLite store for testing.
// NewEntityStore applies the full schema, so no additional DDL is
// required in tests.
func newTestStore(t *testing.T) *EntityStore {
	t.Helper()
	store, err := NewEntityStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustCreateEntity(t *testing.T, store *EntityStore, name, entityType string) *types.Entity {
	t.Helper()
	e := &types.Entity{Name: name, Type: entityType, Canonical: name}
	id, err := store.CreateEntity(context.Background(), e)
	if err != nil {
		t.Fatalf("CreateEntity(%q) failed: %v", name, err)
	}
	e.ID = id
	return e
}

func TestCreateAndGetEntity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created := mustCreateEntity(t, store, "John Smith", types.EntityTypePerson)

	got, err := store.GetEntity(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetEntity() failed: %v", err)
	}
	if got.Name != "John Smith" || got.Type != types.EntityTypePerson || got.Canonical != "John Smith" {
		t.Errorf("GetEntity() = %+v", got)
	}

	_, err = store.GetEntity(ctx, 999)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing entity: got %v, want ErrNotFound", err)
	}
}

func TestListEntitiesTypeFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreateEntity(t, store, "John Smith", types.EntityTypePerson)
	mustCreateEntity(t, store, "Jane Doe", types.EntityTypePerson)
	mustCreateEntity(t, store, "Acme Corp", types.EntityTypeOrg)

	all, err := store.ListEntities(ctx, storage.ListOptions{})
	if err != nil {
		t.Fatalf("ListEntities() failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all entities = %d, want 3", len(all))
	}
	// Ascending id order.
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Errorf("entities not in ascending id order: %d before %d", all[i-1].ID, all[i].ID)
		}
	}

	people, err := store.ListEntities(ctx, storage.ListOptions{Type: types.EntityTypePerson})
	if err != nil {
		t.Fatalf("ListEntities(person) failed: %v", err)
	}
	if len(people) != 2 {
		t.Errorf("person entities = %d, want 2", len(people))
	}
}

func TestRecordMerge(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	source := mustCreateEntity(t, store, "Jon Smith", types.EntityTypePerson)
	target := mustCreateEntity(t, store, "John Smith", types.EntityTypePerson)

	if err := store.RecordMerge(ctx, source, target, "test merge"); err != nil {
		t.Fatalf("RecordMerge() failed: %v", err)
	}

	canonical, err := store.GetResolution(ctx, source.ID)
	if err != nil {
		t.Fatalf("GetResolution() failed: %v", err)
	}
	if canonical != target.ID {
		t.Errorf("GetResolution(%d) = %d, want %d", source.ID, canonical, target.ID)
	}

	aliases, err := store.ListAliases(ctx, target.ID)
	if err != nil {
		t.Fatalf("ListAliases() failed: %v", err)
	}
	if len(aliases) != 2 || aliases[0] != "John Smith" || aliases[1] != "Jon Smith" {
		t.Errorf("aliases = %v, want both names alphabetically", aliases)
	}

	log, err := store.ListLog(ctx, source.ID, target.ID)
	if err != nil {
		t.Fatalf("ListLog() failed: %v", err)
	}
	if len(log) != 1 {
		t.Fatalf("log = %+v, want one entry", log)
	}
	if log[0].Action != types.LogActionMerge || log[0].Detail != "test merge" {
		t.Errorf("log entry = %+v", log[0])
	}
	if log[0].CreatedAt.IsZero() {
		t.Error("log entry has zero timestamp")
	}
}

func TestRecordMergeRewritesChains(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := mustCreateEntity(t, store, "J Smith", types.EntityTypePerson)
	b := mustCreateEntity(t, store, "John Smith", types.EntityTypePerson)
	c := mustCreateEntity(t, store, "Jonathan Smith", types.EntityTypePerson)

	if err := store.RecordMerge(ctx, a, b, "a->b"); err != nil {
		t.Fatalf("RecordMerge(a, b) failed: %v", err)
	}
	if err := store.RecordMerge(ctx, b, c, "b->c"); err != nil {
		t.Fatalf("RecordMerge(b, c) failed: %v", err)
	}

	// The a -> b mapping was repointed at c inside the same
	// transaction, so no chain exists.
	resolutions, err := store.ListResolutions(ctx)
	if err != nil {
		t.Fatalf("ListResolutions() failed: %v", err)
	}
	if resolutions[a.ID] != c.ID || resolutions[b.ID] != c.ID {
		t.Errorf("resolutions = %v, want both pointing at %d", resolutions, c.ID)
	}
}

func TestRecordSplit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	source := mustCreateEntity(t, store, "Jon Smith", types.EntityTypePerson)
	target := mustCreateEntity(t, store, "John Smith", types.EntityTypePerson)

	if err := store.RecordMerge(ctx, source, target, "merge"); err != nil {
		t.Fatalf("RecordMerge() failed: %v", err)
	}
	if err := store.RecordSplit(ctx, source.ID, target.ID, "split"); err != nil {
		t.Fatalf("RecordSplit() failed: %v", err)
	}

	_, err := store.GetResolution(ctx, source.ID)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("mapping survived split: %v", err)
	}

	// Aliases are a historical record and survive.
	aliases, err := store.ListAliases(ctx, target.ID)
	if err != nil {
		t.Fatalf("ListAliases() failed: %v", err)
	}
	if len(aliases) != 2 {
		t.Errorf("aliases = %v, want 2", aliases)
	}

	// Splitting a missing mapping reports ErrNotFound.
	err = store.RecordSplit(ctx, source.ID, target.ID, "again")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second split: got %v, want ErrNotFound", err)
	}
}

func TestListDuplicates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	source := mustCreateEntity(t, store, "Jon Smith", types.EntityTypePerson)
	target := mustCreateEntity(t, store, "John Smith", types.EntityTypePerson)
	if err := store.RecordMerge(ctx, source, target, "merge"); err != nil {
		t.Fatalf("RecordMerge() failed: %v", err)
	}

	pairs, err := store.ListDuplicates(ctx)
	if err != nil {
		t.Fatalf("ListDuplicates() failed: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("pairs = %+v, want one", pairs)
	}
	want := types.DuplicatePair{
		SourceID:      source.ID,
		SourceName:    "Jon Smith",
		CanonicalID:   target.ID,
		CanonicalName: "John Smith",
	}
	if pairs[0] != want {
		t.Errorf("pair = %+v, want %+v", pairs[0], want)
	}
}

func TestQueueLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := mustCreateEntity(t, store, "J. Smith", types.EntityTypePerson)
	b := mustCreateEntity(t, store, "John Smith", types.EntityTypePerson)
	c := mustCreateEntity(t, store, "Jon Smith", types.EntityTypePerson)

	low := types.CandidateMatch{SourceID: a.ID, TargetID: b.ID, Confidence: 0.65, Strategy: "initial_match"}
	high := types.CandidateMatch{SourceID: c.ID, TargetID: b.ID, Confidence: 0.80, Strategy: "jaccard"}
	if err := store.EnqueueSuggestion(ctx, low); err != nil {
		t.Fatalf("EnqueueSuggestion(low) failed: %v", err)
	}
	if err := store.EnqueueSuggestion(ctx, high); err != nil {
		t.Fatalf("EnqueueSuggestion(high) failed: %v", err)
	}

	// Re-suggesting a pending pair is a no-op.
	if err := store.EnqueueSuggestion(ctx, low); err != nil {
		t.Fatalf("re-enqueue failed: %v", err)
	}

	queue, err := store.ListQueue(ctx)
	if err != nil {
		t.Fatalf("ListQueue() failed: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("queue = %+v, want 2 entries", queue)
	}
	// Highest confidence first, names joined in.
	if queue[0].Confidence != 0.80 || queue[0].SourceName != "Jon Smith" || queue[0].TargetName != "John Smith" {
		t.Errorf("queue[0] = %+v", queue[0])
	}

	entry, err := store.GetQueueEntry(ctx, queue[0].ID)
	if err != nil {
		t.Fatalf("GetQueueEntry() failed: %v", err)
	}
	if entry.SourceID != c.ID || entry.TargetID != b.ID {
		t.Errorf("entry = %+v", entry)
	}

	if err := store.DeleteQueueEntry(ctx, queue[0].ID); err != nil {
		t.Fatalf("DeleteQueueEntry() failed: %v", err)
	}
	if err := store.DeleteQueueEntry(ctx, queue[0].ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("double delete: got %v, want ErrNotFound", err)
	}
	if _, err := store.GetQueueEntry(ctx, queue[0].ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("deleted entry still readable: %v", err)
	}
}

func TestConnectionsUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := mustCreateEntity(t, store, "John Smith", types.EntityTypePerson)
	b := mustCreateEntity(t, store, "Acme Corp", types.EntityTypeOrg)

	// Endpoints are normalized to lower id first, weights sum.
	if err := store.AddConnection(ctx, types.Connection{EntityA: b.ID, EntityB: a.ID, Weight: 2}); err != nil {
		t.Fatalf("AddConnection() failed: %v", err)
	}
	if err := store.AddConnection(ctx, types.Connection{EntityA: a.ID, EntityB: b.ID, Weight: 3}); err != nil {
		t.Fatalf("AddConnection() failed: %v", err)
	}

	conns, err := store.ListConnections(ctx)
	if err != nil {
		t.Fatalf("ListConnections() failed: %v", err)
	}
	if len(conns) != 1 {
		t.Fatalf("connections = %+v, want one row", conns)
	}
	if conns[0].EntityA != a.ID || conns[0].EntityB != b.ID || conns[0].Weight != 5 {
		t.Errorf("connection = %+v, want (%d, %d, 5)", conns[0], a.ID, b.ID)
	}
}

func TestSharedDocuments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := mustCreateEntity(t, store, "John Smith", types.EntityTypePerson)
	b := mustCreateEntity(t, store, "Jane Doe", types.EntityTypePerson)
	c := mustCreateEntity(t, store, "Acme Corp", types.EntityTypeOrg)

	doc, err := store.CreateDocument(ctx, "memo.txt", "Memo")
	if err != nil {
		t.Fatalf("CreateDocument() failed: %v", err)
	}
	if err := store.AddDocumentEntity(ctx, doc, a.ID, 1); err != nil {
		t.Fatalf("AddDocumentEntity() failed: %v", err)
	}
	if err := store.AddDocumentEntity(ctx, doc, b.ID, 1); err != nil {
		t.Fatalf("AddDocumentEntity() failed: %v", err)
	}

	shared, err := store.SharedDocuments(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("SharedDocuments() failed: %v", err)
	}
	if !shared {
		t.Error("SharedDocuments(a, b) = false, want true")
	}

	shared, err = store.SharedDocuments(ctx, a.ID, c.ID)
	if err != nil {
		t.Fatalf("SharedDocuments() failed: %v", err)
	}
	if shared {
		t.Error("SharedDocuments(a, c) = true, want false")
	}
}

func TestAppendAndFilterLog(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := []types.ResolutionLogEntry{
		{SourceID: 1, CanonicalID: 2, Action: types.LogActionMerge, Detail: "first"},
		{SourceID: 1, CanonicalID: 2, Action: types.LogActionSplit, Detail: "second"},
		{SourceID: 3, CanonicalID: 4, Action: types.LogActionMerge, Detail: "other pair"},
	}
	for i := range entries {
		if err := store.AppendLog(ctx, &entries[i]); err != nil {
			t.Fatalf("AppendLog() failed: %v", err)
		}
	}

	all, err := store.ListLog(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ListLog(all) failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all log = %+v, want 3", all)
	}
	// Oldest first.
	if all[0].Detail != "first" || all[2].Detail != "other pair" {
		t.Errorf("log order = %+v", all)
	}

	pair, err := store.ListLog(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ListLog(pair) failed: %v", err)
	}
	if len(pair) != 2 {
		t.Errorf("pair log = %+v, want 2", pair)
	}
}
