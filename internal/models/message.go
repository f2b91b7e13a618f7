package models

import "time"

// Message is one entry in a chat's append-only log. Position is assigned by the
// store at append time and never changes.
type Message struct {
	ChatID   string    `db:"chat_id" json:"-"`
	Position int64     `db:"position" json:"position"`
	SentBy   string    `db:"sent_by" json:"sent_by"`
	Content  string    `db:"content" json:"content"`
	Media    bool      `db:"media" json:"media"`
	MediaKey string    `db:"media_key" json:"media_key,omitempty"`
	SentAt   time.Time `db:"sent_at" json:"sent_at"`
}
