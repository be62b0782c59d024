package llm

import (
	"context"
	"strings"
	"testing"
)

func TestMockEmbedDeterministic(t *testing.T) {
	ctx := context.Background()
	m := NewMock()

	a, err := m.Embed(ctx, "使用者喜歡散步")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	b, err := m.Embed(ctx, "使用者喜歡散步")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("vector lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d: %v vs %v", i, a[i], b[i])
		}
	}

	c, err := m.Embed(ctx, "完全不同的句子")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("different texts should not share a vector")
	}
}

func TestMockCompleteScriptOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMock()
	m.Script("first", "second")

	msgs := []Message{{Role: RoleUser, Content: "hi"}}
	for _, want := range []string{"first", "second"} {
		got, err := m.Complete(ctx, msgs, 0.6)
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if got != want {
			t.Fatalf("Complete() = %q, want %q", got, want)
		}
	}

	// Scripts exhausted: unscripted fallback echoes the last user message.
	got, err := m.Complete(ctx, msgs, 0.6)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if !strings.Contains(got, "hi") {
		t.Fatalf("fallback reply = %q, want it to echo the user text", got)
	}
	if len(m.Calls) != 3 {
		t.Fatalf("recorded %d calls, want 3", len(m.Calls))
	}
}

func TestMockCompleteJSONPromptsGetEmptyArray(t *testing.T) {
	m := NewMock()
	got, err := m.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "你是一個嚴格輸出 JSON 的資訊抽取器。"},
		{Role: RoleUser, Content: "我喜歡散步"},
	}, 0.2)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "[]" {
		t.Fatalf("JSON extraction prompt reply = %q, want []", got)
	}
}
