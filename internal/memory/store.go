package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// TagName marks the record holding the user's self-declared name.
const TagName = "name"

// NameTemplatePrefix is the canonical text prefix of a stored name record.
// FetchUserName pattern-matches on it, so writers must use WriteName.
const NameTemplatePrefix = "使用者名字是"

// nameQuery biases the semantic lookup toward name records.
const nameQuery = "使用者名字是什麼？他的名字"

// Store wraps the vector index with embedding, per-user namespacing, and
// record encoding.
type Store struct {
	index    Index
	embedder Embedder
	prefix   string
	now      func() time.Time
}

func NewStore(index Index, embedder Embedder, namespacePrefix string) *Store {
	return &Store{
		index:    index,
		embedder: embedder,
		prefix:   namespacePrefix,
		now:      time.Now,
	}
}

// Namespace returns the index partition holding one user's records.
func (s *Store) Namespace(userID string) string {
	return fmt.Sprintf("%s:user:%s:mem", s.prefix, userID)
}

// Upsert embeds text and writes a new record into the user's namespace.
// Records get a fresh id every time; nothing is mutated in place.
func (s *Store) Upsert(ctx context.Context, userID, text, recordType string, tags []string, importance int) (string, error) {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return "", fmt.Errorf("embed memory text: %w", err)
	}

	now := s.now()
	id := fmt.Sprintf("mem_%d_%s", now.Unix(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])

	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}

	meta := map[string]string{
		"type":       recordType,
		"text":       text,
		"tags":       string(tagsJSON),
		"importance": strconv.Itoa(importance),
		"ts":         strconv.FormatInt(now.Unix(), 10),
		"user_id":    userID,
	}

	if err := s.index.Upsert(ctx, s.Namespace(userID), id, vec, meta); err != nil {
		return "", fmt.Errorf("upsert memory: %w", err)
	}
	return id, nil
}

// WriteName persists the canonical name record for a user.
func (s *Store) WriteName(ctx context.Context, userID, name string) error {
	_, err := s.Upsert(ctx, userID, NameTemplatePrefix+name, TypeProfile, []string{TagName}, 3)
	return err
}

// Query embeds the query text and returns up to topK scored records from the
// user's namespace. Hits with missing or malformed metadata are skipped.
func (s *Store) Query(ctx context.Context, userID, query string, topK int) ([]ScoredRecord, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.index.Query(ctx, s.Namespace(userID), vec, topK)
	if err != nil {
		return nil, fmt.Errorf("query memory: %w", err)
	}

	records := make([]ScoredRecord, 0, len(hits))
	for _, h := range hits {
		rec, ok := decodeRecord(h)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// FetchUserName looks up the user's name via a semantic query over the name
// record template. Best effort: any failure or miss reports absence. When a
// user has stated more than one name the query ranking decides which wins.
func (s *Store) FetchUserName(ctx context.Context, userID string) (string, bool) {
	hits, err := s.Query(ctx, userID, nameQuery, 8)
	if err != nil {
		return "", false
	}
	for _, h := range hits {
		if !h.HasTag(TagName) {
			continue
		}
		text := strings.TrimSpace(h.Text)
		if idx := strings.Index(text, NameTemplatePrefix); idx >= 0 {
			name := strings.TrimSpace(text[idx+len(NameTemplatePrefix):])
			if name != "" {
				return name, true
			}
		}
	}
	return "", false
}

// Stats reports the namespace and record count for one user.
func (s *Store) Stats(ctx context.Context, userID string) (namespace string, count int, err error) {
	namespace = s.Namespace(userID)
	count, err = s.index.Count(ctx, namespace)
	return namespace, count, err
}

func decodeRecord(h Hit) (ScoredRecord, bool) {
	if len(h.Metadata) == 0 {
		return ScoredRecord{}, false
	}
	text := h.Metadata["text"]
	if strings.TrimSpace(text) == "" {
		return ScoredRecord{}, false
	}

	rec := ScoredRecord{
		Record: Record{
			ID:         h.ID,
			UserID:     h.Metadata["user_id"],
			Type:       h.Metadata["type"],
			Text:       text,
			Importance: 1,
		},
		Score: h.Score,
	}

	if v := h.Metadata["importance"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			rec.Importance = n
		}
	}
	if v := h.Metadata["ts"]; v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			rec.CreatedAt = time.Unix(ts, 0)
		}
	}
	if v := h.Metadata["tags"]; v != "" {
		var tags []string
		if err := json.Unmarshal([]byte(v), &tags); err == nil {
			rec.Tags = tags
		}
	}
	return rec, true
}
