package memory

import (
	"context"
	"fmt"
	"strings"

	chromem "github.com/philippgille/chromem-go"
)

// ChromemIndex implements Index on top of chromem-go, a pure Go embedded
// vector database. Each namespace maps to its own collection.
type ChromemIndex struct {
	db *chromem.DB
}

// NewChromemIndex creates an embedded index. A non-empty path makes the index
// durable across restarts; an empty path keeps it in process memory.
func NewChromemIndex(path string) (*ChromemIndex, error) {
	if strings.TrimSpace(path) == "" {
		return &ChromemIndex{db: chromem.NewDB()}, nil
	}
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open vector index at %s: %w", path, err)
	}
	return &ChromemIndex{db: db}, nil
}

func (x *ChromemIndex) collection(namespace string) (*chromem.Collection, error) {
	// Embeddings are always caller-supplied, so no embedding func is wired.
	col, err := x.db.GetOrCreateCollection(namespace, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("collection %q: %w", namespace, err)
	}
	return col, nil
}

func (x *ChromemIndex) Upsert(ctx context.Context, namespace, id string, vector []float32, metadata map[string]string) error {
	col, err := x.collection(namespace)
	if err != nil {
		return err
	}
	doc := chromem.Document{
		ID:        id,
		Content:   metadata["text"],
		Embedding: vector,
		Metadata:  metadata,
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

func (x *ChromemIndex) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Hit, error) {
	col, err := x.collection(namespace)
	if err != nil {
		return nil, err
	}

	// chromem rejects nResults above the collection size.
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}
	if topK <= 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query namespace %q: %w", namespace, err)
	}

	hits := make([]Hit, 0, len(results))
	for _, res := range results {
		hits = append(hits, Hit{
			ID:       res.ID,
			Score:    res.Similarity,
			Metadata: res.Metadata,
		})
	}
	return hits, nil
}

func (x *ChromemIndex) Count(_ context.Context, namespace string) (int, error) {
	col, err := x.collection(namespace)
	if err != nil {
		return 0, err
	}
	return col.Count(), nil
}
