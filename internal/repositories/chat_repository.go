package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chatroom-service/internal/models"
)

var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrDuplicateChat   = errors.New("chat name already exists")
	ErrAlreadyMember   = errors.New("user is already a member")
	ErrMemberNotFound  = errors.New("user is not a member")
	ErrCallerNotMember = errors.New("caller is no longer a member")
)

// ChatRepository abstracts chat and membership persistence. Every mutation is a
// single conditional statement; the caller's membership is re-checked inside
// the statement's predicate, never assumed from an earlier read.
type ChatRepository interface {
	CreateChat(ctx context.Context, chat models.Chat, usernames []string) (models.Chat, error)
	CheckMembership(ctx context.Context, chatID, username string) (chatExists bool, member bool, err error)
	AddMember(ctx context.Context, chatID, caller, username string) error
	RemoveMember(ctx context.Context, chatID, caller, username string) error
	GetChatInfo(ctx context.Context, chatID string) (models.ChatInfo, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// CreateChat creates a chat and its initial members atomically.
func (r *ChatRepo) CreateChat(ctx context.Context, chat models.Chat, usernames []string) (models.Chat, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chat{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var created models.Chat
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO chats (id, name, img) VALUES ($1, $2, $3) RETURNING id, name, img, created_at`,
		chat.ID, chat.Name, chat.Img,
	).Scan(&created.ID, &created.Name, &created.Img, &created.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			err = ErrDuplicateChat
		}
		return models.Chat{}, err
	}

	for _, username := range usernames {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO chat_members (chat_id, username) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			created.ID, username,
		); err != nil {
			return models.Chat{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Chat{}, err
	}
	return created, nil
}

// CheckMembership answers chat existence and membership in one round trip,
// reading only the rows matching the username.
func (r *ChatRepo) CheckMembership(ctx context.Context, chatID, username string) (bool, bool, error) {
	var row struct {
		ChatExists bool `db:"chat_exists"`
		Member     bool `db:"member"`
	}
	err := r.db.GetContext(ctx, &row,
		`SELECT EXISTS(SELECT 1 FROM chats WHERE id=$1) AS chat_exists,
                EXISTS(SELECT 1 FROM chat_members WHERE chat_id=$1 AND username=$2) AS member`,
		chatID, username)
	return row.ChatExists, row.Member, err
}

// AddMember appends a membership. The insert applies only while the caller is
// still a member; the primary key rejects duplicates.
func (r *ChatRepo) AddMember(ctx context.Context, chatID, caller, username string) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_members (chat_id, username)
         SELECT $1, $2
         WHERE EXISTS (SELECT 1 FROM chat_members WHERE chat_id=$1 AND username=$3)
         ON CONFLICT (chat_id, username) DO NOTHING`,
		chatID, username, caller)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.explainMemberWrite(ctx, chatID, caller, username, ErrAlreadyMember)
	}
	return nil
}

// RemoveMember pulls a membership, again conditioned on the caller still being
// a member at the moment the delete runs.
func (r *ChatRepo) RemoveMember(ctx context.Context, chatID, caller, username string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM chat_members
         WHERE chat_id=$1 AND username=$2
           AND EXISTS (SELECT 1 FROM chat_members cm WHERE cm.chat_id=$1 AND cm.username=$3)`,
		chatID, username, caller)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.explainMemberWrite(ctx, chatID, caller, username, ErrMemberNotFound)
	}
	return nil
}

// explainMemberWrite turns a zero-row conditional write into the right error:
// either the caller's proof went stale, or the target side of the predicate
// failed.
func (r *ChatRepo) explainMemberWrite(ctx context.Context, chatID, caller, username string, targetErr error) error {
	_, callerMember, err := r.CheckMembership(ctx, chatID, caller)
	if err != nil {
		return err
	}
	if !callerMember {
		return ErrCallerNotMember
	}
	return targetErr
}

// GetChatInfo returns the chat with members resolved to user records. The
// message log lives in MessageRepository; callers assemble the two.
func (r *ChatRepo) GetChatInfo(ctx context.Context, chatID string) (models.ChatInfo, error) {
	var info models.ChatInfo
	err := r.db.GetContext(ctx, &info.Chat,
		`SELECT id, name, img, created_at FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatInfo{}, ErrChatNotFound
	}
	if err != nil {
		return models.ChatInfo{}, err
	}

	if err := r.db.SelectContext(ctx, &info.Members,
		`SELECT cm.username, u.display_name, cm.joined_at
         FROM chat_members cm INNER JOIN users u ON u.username = cm.username
         WHERE cm.chat_id=$1 ORDER BY cm.joined_at ASC, cm.username ASC`, chatID); err != nil {
		return models.ChatInfo{}, err
	}

	return info, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
