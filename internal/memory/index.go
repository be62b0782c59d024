package memory

import "context"

// Hit is one nearest-neighbor match from the vector index.
type Hit struct {
	ID       string
	Score    float32
	Metadata map[string]string
}

// Index is the opaque namespaced nearest-neighbor store. A namespace scopes
// all records to one user.
type Index interface {
	Upsert(ctx context.Context, namespace, id string, vector []float32, metadata map[string]string) error
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Hit, error)
	// Count returns the number of records in a namespace.
	Count(ctx context.Context, namespace string) (int, error)
}
