package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Intents holds the phrase sets driving turn classification. They are data,
// not code, so deployments can tune or localize them without touching the
// orchestration pipeline.
type Intents struct {
	// Ack phrases mean "I took my medication".
	Ack []string `json:"ack"`
	// ProfileQuery phrases ask what the assistant knows about the user.
	ProfileQuery []string `json:"profile_query"`
}

func DefaultIntents() Intents {
	return Intents{
		Ack: []string{
			"我吃了", "吃過了", "已經吃了", "吃藥了", "我已吃", "ok 我吃了", "好了我吃了",
		},
		ProfileQuery: []string{
			"你對我的了解", "你對我了解", "你知道我", "我的興趣", "記得我", "你記得我", "我的資料", "你了解我",
		},
	}
}

// LoadIntents reads a JSON phrase-set file. Missing sections keep their
// built-in defaults.
func LoadIntents(path string) (Intents, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Intents{}, fmt.Errorf("read intents file: %w", err)
	}
	in := Intents{}
	if err := json.Unmarshal(data, &in); err != nil {
		return Intents{}, fmt.Errorf("parse intents file %s: %w", path, err)
	}
	defaults := DefaultIntents()
	if len(in.Ack) == 0 {
		in.Ack = defaults.Ack
	}
	if len(in.ProfileQuery) == 0 {
		in.ProfileQuery = defaults.ProfileQuery
	}
	return in, nil
}

func (in Intents) IsAck(text string) bool {
	return matchesAny(text, in.Ack)
}

func (in Intents) IsProfileQuery(text string) bool {
	return matchesAny(text, in.ProfileQuery)
}

func matchesAny(text string, phrases []string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	for _, p := range phrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}
