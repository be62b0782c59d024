package agent

import (
	"context"
	"fmt"
	"strings"
)

// profileQueryText biases retrieval toward the facts worth summarizing.
const profileQueryText = "使用者的興趣、習慣、偏好、家人、健康提醒相關資訊"

// summarize answers "what do you know about me" from memory alone. It pulls a
// broad slice of records, drops the name record (mentioned separately),
// deduplicates while keeping ranked order, and renders up to six bullets.
func (a *Agent) summarize(ctx context.Context, userID string) (string, error) {
	name, _ := a.memories.FetchUserName(ctx, userID)

	hits, err := a.memories.Query(ctx, userID, profileQueryText, 12)
	if err != nil {
		return "", fmt.Errorf("query profile facts: %w", err)
	}

	seen := make(map[string]struct{})
	var facts []string
	for _, h := range hits {
		if h.HasTag("name") {
			continue
		}
		text := strings.TrimSpace(h.Text)
		if text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		facts = append(facts, text)
		if len(facts) == 6 {
			break
		}
	}

	switch {
	case name != "" && len(facts) > 0:
		var b strings.Builder
		fmt.Fprintf(&b, "當然可以，%s。\n我目前記得的重點是：\n", name)
		for i, f := range facts {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("- " + f)
		}
		b.WriteString("\n\n如果有哪一點想更正或補充，你跟我說我就記起來。")
		return b.String(), nil
	case name != "":
		return fmt.Sprintf("當然可以，%s。\n我目前確定記得的是：你的名字是%s。\n其他像興趣或生活習慣，我還想多了解一點點～你最近最常做、最喜歡做的事情是什麼呢？", name, name), nil
	default:
		return "當然可以～我目前對你還在慢慢認識中。\n我想先問一下：" + askNameSuffix, nil
	}
}
