package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"chatroom-service/internal/models"
)

// MessageRepository is the append-only message log.
type MessageRepository interface {
	AppendMessage(ctx context.Context, chatID, sender, content string, media bool, mediaKey string) (models.Message, error)
	ListMessages(ctx context.Context, chatID string) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// AppendMessage appends one message in a single statement. The CTE bumps the
// chat's sequence counter under its row lock, so concurrent appends serialize
// and positions come out gapless and strictly increasing. The membership
// predicate runs inside the same statement: a sender removed after the guard
// check gets zero rows, not a message.
//
// sent_at uses clock_timestamp(), evaluated while the row lock is held, so
// timestamps are non-decreasing in position order. The column default would be
// transaction_timestamp(), fixed at statement start and ahead of the lock.
func (r *MessageRepo) AppendMessage(ctx context.Context, chatID, sender, content string, media bool, mediaKey string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`WITH bumped AS (
            UPDATE chats SET last_seq = last_seq + 1
            WHERE id = $1
              AND EXISTS (SELECT 1 FROM chat_members WHERE chat_id = $1 AND username = $2)
            RETURNING last_seq
         )
         INSERT INTO messages (chat_id, position, sent_by, content, media, media_key, sent_at)
         SELECT $1, bumped.last_seq, $2, $3, $4, $5, clock_timestamp() FROM bumped
         RETURNING chat_id, position, sent_by, content, media, media_key, sent_at`,
		chatID, sender, content, media, mediaKey,
	).Scan(&msg.ChatID, &msg.Position, &msg.SentBy, &msg.Content, &msg.Media, &msg.MediaKey, &msg.SentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrCallerNotMember
	}
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListMessages returns the full log in append order.
func (r *MessageRepo) ListMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT chat_id, position, sent_by, content, media, media_key, sent_at
         FROM messages WHERE chat_id=$1 ORDER BY position ASC`, chatID)
	return msgs, err
}
