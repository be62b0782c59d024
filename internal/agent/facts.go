package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wen-han-chang/RAG-agent/internal/llm"
	"github.com/wen-han-chang/RAG-agent/internal/memory"
)

const factSystemPrompt = "你是一個嚴格輸出 JSON 的資訊抽取器。只能輸出 JSON。"

const factPromptTemplate = `從使用者這句話中，判斷是否有「值得長期記住」的資訊。
只輸出 JSON 陣列（0~2 個元素），每個元素包含：
- type: profile | preference | event
- text: 一句可直接存的記憶（中文）
- tags: 關鍵字陣列（例如 hobby/family/medicine/sport）
- importance: 1~3（越重要越高）

注意：
- 不要把「詢問句」或「反問句」當成事實記憶。
- 不要記錄太短或太泛的話（例如：你好、今天天氣不錯）。
- 只存對未來聊天真的有用、且可能維持一段時間的資訊。

使用者句子：%s
`

// factItem is the schema the extraction model must emit.
type factItem struct {
	Type       string   `json:"type"`
	Text       string   `json:"text"`
	Tags       []string `json:"tags"`
	Importance int      `json:"importance"`
}

// FactExtractor asks the model for 0-2 durable facts in a message and writes
// the valid ones to long-term memory. The whole path is advisory: it runs
// after the reply is composed and its failures never reach the user.
type FactExtractor struct {
	llm   llm.Client
	store *memory.Store
}

func NewFactExtractor(client llm.Client, store *memory.Store) *FactExtractor {
	return &FactExtractor{llm: client, store: store}
}

// ExtractAndStore returns how many records were written. Parse failures and
// schema violations yield zero stored facts with the error for the caller to
// log; they must never be propagated onto the reply path.
func (e *FactExtractor) ExtractAndStore(ctx context.Context, userID, text string) (int, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return 0, nil
	}

	raw, err := e.llm.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: factSystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(factPromptTemplate, t)},
	}, 0.2)
	if err != nil {
		return 0, fmt.Errorf("fact extraction completion: %w", err)
	}

	items, err := parseFactItems(raw)
	if err != nil {
		return 0, fmt.Errorf("fact extraction parse: %w", err)
	}

	if len(items) > 2 {
		items = items[:2]
	}

	stored := 0
	for _, it := range items {
		factText := strings.TrimSpace(it.Text)
		if !memory.ValidType(it.Type) || utf8.RuneCountInString(factText) < 6 {
			continue
		}
		imp := clampImportance(it.Importance)
		if _, err := e.store.Upsert(ctx, userID, factText, it.Type, it.Tags, imp); err != nil {
			return stored, fmt.Errorf("store extracted fact: %w", err)
		}
		stored++
	}
	return stored, nil
}

func parseFactItems(raw string) ([]factItem, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))
	var items []factItem
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// stripCodeFence unwraps ```json ... ``` blocks some models insist on emitting.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clampImportance(n int) int {
	if n < 1 {
		return 1
	}
	if n > 3 {
		return 3
	}
	return n
}
