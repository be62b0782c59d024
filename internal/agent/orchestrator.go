package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wen-han-chang/RAG-agent/internal/llm"
	"github.com/wen-han-chang/RAG-agent/internal/memory"
	"github.com/wen-han-chang/RAG-agent/internal/observability"
	"github.com/wen-han-chang/RAG-agent/internal/reminder"
)

const personaPrompt = `你是一位溫暖、耐心、適合陪伴年長者的居家照護聊天助理。
原則：
- 語氣溫柔、句子不要太長、一步一步說清楚。
- 如果有「記憶內容」請自然地融入，不要說「我從資料庫查到」。
- 不確定就用委婉方式詢問，不要硬猜。
- 健康提醒要溫馨、不恐嚇；涉及醫療建議要保守，鼓勵詢問醫師/家屬。
`

const memoryContextHeader = "你已知的使用者相關記憶如下（僅供你生成更貼心回覆使用）：\n"

const askNameSuffix = "我可以怎麼稱呼你呢？你告訴我名字後，我之後每次都會用名字叫你。"

// Agent composes memory retrieval, intent classification, reply generation,
// reminder gating, and fact extraction into one turn pipeline.
type Agent struct {
	llm       llm.Client
	memories  *memory.Store
	reminders *reminder.Service
	facts     *FactExtractor
	intents   Intents

	topK       int
	historyMax int

	logger  *log.Logger
	metrics *observability.Metrics

	bg sync.WaitGroup
}

func New(
	client llm.Client,
	memories *memory.Store,
	reminders *reminder.Service,
	facts *FactExtractor,
	intents Intents,
	topK int,
	historyMax int,
	logger *log.Logger,
	metrics *observability.Metrics,
) *Agent {
	if topK <= 0 {
		topK = 6
	}
	if historyMax <= 0 {
		historyMax = 10
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Agent{
		llm:        client,
		memories:   memories,
		reminders:  reminders,
		facts:      facts,
		intents:    intents,
		topK:       topK,
		historyMax: historyMax,
		logger:     logger,
		metrics:    metrics,
	}
}

// Wait blocks until detached background work (fact extraction) has drained.
// Called on shutdown and by tests.
func (a *Agent) Wait() { a.bg.Wait() }

// Respond runs one conversation turn and returns the reply text. Provider
// errors on the reply path propagate; the fact-extraction side path never
// affects the returned reply.
func (a *Agent) Respond(ctx context.Context, userID, text string, history []llm.Message) (string, error) {
	start := time.Now()
	defer func() {
		if a.metrics != nil {
			a.metrics.ObserveTurnLatency(time.Since(start))
		}
	}()

	text = strings.TrimSpace(text)

	// 1) Medication acknowledgment short-circuits everything else.
	if a.intents.IsAck(text) {
		if err := a.reminders.MarkDone(ctx, userID); err != nil {
			a.countTurn("error")
			return "", fmt.Errorf("mark medication done: %w", err)
		}
		who := "你"
		if name, ok := a.memories.FetchUserName(ctx, userID); ok {
			who = name
		}
		a.countTurn("ack")
		return fmt.Sprintf("太好了～謝謝%s跟我說！那我今天就先不再提醒吃藥囉。", who), nil
	}

	// 2) A self-declared name is stored immediately, whatever branch follows.
	nameStored := false
	if cand, ok := ExtractName(text); ok {
		if err := a.memories.WriteName(ctx, userID, cand); err != nil {
			a.countTurn("error")
			return "", fmt.Errorf("store user name: %w", err)
		}
		nameStored = true
	}
	name, _ := a.memories.FetchUserName(ctx, userID)

	var reply string
	var err error
	outcome := "chat"

	if a.intents.IsProfileQuery(text) {
		// 3) Profile summary is built from memory, without the chat model.
		outcome = "summary"
		reply, err = a.summarize(ctx, userID)
		if err != nil {
			a.countTurn("error")
			return "", err
		}
	} else {
		// 4) Regular chat: retrieve memory context, then generate.
		reply, err = a.chatReply(ctx, userID, text, name, history)
		if err != nil {
			a.countTurn("error")
			return "", err
		}
	}

	// 5) The name may have just been stored in step 2; re-fetch before the
	// reminder so it can address the user properly.
	name, _ = a.memories.FetchUserName(ctx, userID)
	due, err := a.reminders.IsDue(ctx, userID)
	if err != nil {
		// The reply is already composed; a reminder-state failure only skips
		// the appended line.
		a.logger.Warn("reminder check failed", "user_id", userID, "error", err)
	} else if due {
		reply = strings.TrimRight(reply, " \n") + "\n\n" + reminder.Text(name)
		if a.metrics != nil {
			a.metrics.RemindersFired.Inc()
		}
	}

	// 6) Fact extraction runs detached from the reply. A freshly stored name
	// short-circuits it so questions about names are not re-mined as facts.
	if !nameStored && a.facts != nil {
		bgCtx := context.WithoutCancel(ctx)
		a.bg.Add(1)
		go func() {
			defer a.bg.Done()
			stored, err := a.facts.ExtractAndStore(bgCtx, userID, text)
			if err != nil {
				a.logger.Warn("fact extraction failed", "user_id", userID, "error", err)
				return
			}
			if stored > 0 && a.metrics != nil {
				a.metrics.FactsStored.Add(float64(stored))
			}
		}()
	}

	a.countTurn(outcome)
	return reply, nil
}

func (a *Agent) chatReply(ctx context.Context, userID, text, name string, history []llm.Message) (string, error) {
	memCtx, err := a.memoryContext(ctx, userID, text)
	if err != nil {
		return "", err
	}

	system := personaPrompt
	if name != "" {
		system += fmt.Sprintf("\n你正在和使用者%s對話，請盡量用%s稱呼對方。", name, name)
	}

	msgs := make([]llm.Message, 0, len(history)+3)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: system})
	if memCtx != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: memCtx})
	}
	if len(history) > a.historyMax {
		history = history[len(history)-a.historyMax:]
	}
	msgs = append(msgs, history...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: text})

	reply, err := a.llm.Complete(ctx, msgs, 0.6)
	if err != nil {
		if a.metrics != nil {
			a.metrics.ProviderErrors.WithLabelValues("complete").Inc()
		}
		return "", fmt.Errorf("generate reply: %w", err)
	}
	reply = strings.TrimSpace(reply)

	// One-time gentle ask for the name on the first turns only.
	if name == "" && len(history) <= 2 {
		reply += "\n\n" + askNameSuffix
	}
	return reply, nil
}

// memoryContext retrieves relevant records and renders them as a bulleted
// system block, ranked by importance then recency. Empty when nothing matches.
func (a *Agent) memoryContext(ctx context.Context, userID, text string) (string, error) {
	hits, err := a.memories.Query(ctx, userID, text, a.topK)
	if err != nil {
		return "", fmt.Errorf("query memory context: %w", err)
	}
	if len(hits) == 0 {
		return "", nil
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Importance != hits[j].Importance {
			return hits[i].Importance > hits[j].Importance
		}
		return hits[i].CreatedAt.After(hits[j].CreatedAt)
	})

	var lines []string
	for _, h := range hits {
		if strings.TrimSpace(h.Text) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- (%s) %s", h.Type, h.Text))
	}
	if len(lines) == 0 {
		return "", nil
	}
	return memoryContextHeader + strings.Join(lines, "\n"), nil
}

func (a *Agent) countTurn(outcome string) {
	if a.metrics != nil {
		a.metrics.ChatTurns.WithLabelValues(outcome).Inc()
	}
}
