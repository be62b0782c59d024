package memory

import (
	"context"
	"fmt"
	"hash/fnv"
	"testing"
	"time"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	const dim = 16
	vec := make([]float32, dim)
	for i, r := range text {
		h := fnv.New32a()
		fmt.Fprintf(h, "%d:%c", i, r)
		vec[int(h.Sum32())%dim] += 1
	}
	vec[0] += 1
	return vec, nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	idx, err := NewChromemIndex("")
	if err != nil {
		t.Fatalf("NewChromemIndex() error = %v", err)
	}
	return NewStore(idx, fakeEmbedder{}, "test")
}

func TestUpsertAndQueryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.Upsert(ctx, "willy", "使用者喜歡在早上散步", TypePreference, []string{"hobby"}, 2)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if id == "" {
		t.Fatalf("Upsert() returned empty id")
	}

	hits, err := store.Query(ctx, "willy", "散步", 5)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Query() returned %d hits, want 1", len(hits))
	}
	got := hits[0]
	if got.Text != "使用者喜歡在早上散步" {
		t.Fatalf("hit text = %q", got.Text)
	}
	if got.Type != TypePreference {
		t.Fatalf("hit type = %q, want %q", got.Type, TypePreference)
	}
	if got.Importance != 2 {
		t.Fatalf("hit importance = %d, want 2", got.Importance)
	}
	if !got.HasTag("hobby") {
		t.Fatalf("hit tags = %v, want hobby", got.Tags)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("hit CreatedAt is zero")
	}
}

func TestQueryScopedToUserNamespace(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.Upsert(ctx, "willy", "使用者養了一隻貓", TypeProfile, nil, 2); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	hits, err := store.Query(ctx, "amei", "貓", 5)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("cross-user query returned %d hits, want 0", len(hits))
	}
}

func TestFetchUserName(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, ok := store.FetchUserName(ctx, "willy"); ok {
		t.Fatalf("FetchUserName() on empty store should be absent")
	}

	if err := store.WriteName(ctx, "willy", "小明"); err != nil {
		t.Fatalf("WriteName() error = %v", err)
	}
	// Unrelated records must not shadow the name lookup.
	if _, err := store.Upsert(ctx, "willy", "使用者喜歡喝熱茶", TypePreference, []string{"habit"}, 1); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	name, ok := store.FetchUserName(ctx, "willy")
	if !ok {
		t.Fatalf("FetchUserName() = absent, want 小明")
	}
	if name != "小明" {
		t.Fatalf("FetchUserName() = %q, want 小明", name)
	}
}

type staticIndex struct {
	hits []Hit
}

func (s *staticIndex) Upsert(context.Context, string, string, []float32, map[string]string) error {
	return nil
}

func (s *staticIndex) Query(context.Context, string, []float32, int) ([]Hit, error) {
	return s.hits, nil
}

func (s *staticIndex) Count(context.Context, string) (int, error) { return len(s.hits), nil }

func TestQuerySkipsMalformedHits(t *testing.T) {
	idx := &staticIndex{hits: []Hit{
		{ID: "m1", Score: 0.9, Metadata: nil},
		{ID: "m2", Score: 0.8, Metadata: map[string]string{"type": TypeEvent}},
		{ID: "m3", Score: 0.7, Metadata: map[string]string{
			"type":       TypeEvent,
			"text":       "上週去了醫院複診",
			"importance": "not-a-number",
			"tags":       "{broken",
		}},
	}}
	store := NewStore(idx, fakeEmbedder{}, "test")

	hits, err := store.Query(context.Background(), "willy", "anything", 5)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Query() returned %d hits, want 1 (malformed skipped)", len(hits))
	}
	got := hits[0]
	if got.ID != "m3" {
		t.Fatalf("surviving hit = %q, want m3", got.ID)
	}
	if got.Importance != 1 {
		t.Fatalf("importance fallback = %d, want 1", got.Importance)
	}
	if len(got.Tags) != 0 {
		t.Fatalf("broken tags should decode to none, got %v", got.Tags)
	}
}

func TestUpsertIDFormat(t *testing.T) {
	store := newTestStore(t)
	store.now = func() time.Time { return time.Unix(1735000000, 0) }

	id, err := store.Upsert(context.Background(), "willy", "使用者的孫子叫小寶", TypeProfile, nil, 3)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	want := "mem_1735000000_"
	if len(id) != len(want)+8 || id[:len(want)] != want {
		t.Fatalf("id = %q, want prefix %q plus 8 hex chars", id, want)
	}
}
