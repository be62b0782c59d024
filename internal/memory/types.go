package memory

import "time"

// Record types. A record is one long-term fact about a user.
const (
	TypeProfile    = "profile"
	TypePreference = "preference"
	TypeEvent      = "event"
)

// ValidType reports whether t is a known record type.
func ValidType(t string) bool {
	return t == TypeProfile || t == TypePreference || t == TypeEvent
}

// Record is one long-term fact stored in the vector index. Records are never
// mutated in place; a correction is a new record.
type Record struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Type       string    `json:"type"`
	Text       string    `json:"text"`
	Tags       []string  `json:"tags"`
	Importance int       `json:"importance"`
	CreatedAt  time.Time `json:"created_at"`
}

// HasTag reports whether the record carries the given tag.
func (r Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ScoredRecord is a query hit annotated with its similarity score.
type ScoredRecord struct {
	Record
	Score float32 `json:"score"`
}
