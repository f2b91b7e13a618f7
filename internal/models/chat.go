package models

import "time"

// Chat is the root chat entity. Its name is unique across all chats.
type Chat struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Img       string    `db:"img" json:"img,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Membership ties a username to a chat. A username appears at most once per chat.
type Membership struct {
	ChatID   string    `db:"chat_id" json:"-"`
	Username string    `db:"username" json:"username"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}

// ResolvedMember is a membership with the user record attached, as returned by
// the chat info endpoint.
type ResolvedMember struct {
	Username    string    `db:"username" json:"username"`
	DisplayName string    `db:"display_name" json:"display_name,omitempty"`
	JoinedAt    time.Time `db:"joined_at" json:"joined_at"`
}

// ChatInfo is the full chat view: the chat, its members resolved to user
// records, and the complete message log.
type ChatInfo struct {
	Chat
	Members  []ResolvedMember `json:"members"`
	Messages []Message        `json:"messages"`
}
