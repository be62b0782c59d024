package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
)

// Mock provides deterministic local replies and embeddings when no real
// provider is configured. Tests can script replies in FIFO order.
type Mock struct {
	mu      sync.Mutex
	scripts []string

	// Calls records every completion request, newest last.
	Calls []CompletionCall
}

type CompletionCall struct {
	Messages    []Message
	Temperature float64
}

func NewMock() *Mock { return &Mock{} }

// Script queues a reply returned by the next unscripted Complete call.
func (m *Mock) Script(replies ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts = append(m.scripts, replies...)
}

func (m *Mock) Complete(ctx context.Context, msgs []Message, temperature float64) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, CompletionCall{Messages: msgs, Temperature: temperature})

	if len(m.scripts) > 0 {
		reply := m.scripts[0]
		m.scripts = m.scripts[1:]
		return reply, nil
	}

	// JSON-only extraction prompts get an empty fact array so the advisory
	// path stays a no-op under the mock provider.
	for _, msg := range msgs {
		if msg.Role == RoleSystem && strings.Contains(msg.Content, "JSON") {
			return "[]", nil
		}
	}

	last := ""
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			last = strings.TrimSpace(msgs[i].Content)
			break
		}
	}
	if last == "" {
		return "我在聽。", nil
	}
	return fmt.Sprintf("我聽到了：%s", last), nil
}

// Embed hashes the text into a fixed small vector. Identical text always maps
// to the identical vector, which keeps similarity search stable in tests.
func (m *Mock) Embed(ctx context.Context, text string) ([]float32, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	const dim = 16
	vec := make([]float32, dim)
	for i, r := range text {
		h := fnv.New32a()
		fmt.Fprintf(h, "%d:%c", i, r)
		vec[int(h.Sum32())%dim] += 1
	}
	// Guard against the zero vector; cosine distance is undefined for it.
	vec[0] += 1
	return vec, nil
}
