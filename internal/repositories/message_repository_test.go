//go:build integration

package repositories

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chatroom-service/internal/db"
	"chatroom-service/internal/models"
)

// Appends race on the chat's sequence counter; the log must come out gapless,
// strictly increasing, with timestamps that never run backwards against
// position. Needs a real Postgres, pointed at by TEST_DB_DSN.
func TestAppendMessageConcurrentOrdering(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	database, err := db.Connect(dsn)
	require.NoError(t, err)
	defer database.Close()

	ctx := context.Background()
	_, err = database.ExecContext(ctx,
		`INSERT INTO users (username) VALUES ('alice') ON CONFLICT DO NOTHING`)
	require.NoError(t, err)

	chatRepo := NewChatRepo(database)
	chat, err := chatRepo.CreateChat(ctx, models.Chat{
		ID:   uuid.NewString(),
		Name: "ordering-" + uuid.NewString(),
	}, []string{"alice"})
	require.NoError(t, err)

	msgRepo := NewMessageRepo(database)

	const appends = 32
	var wg sync.WaitGroup
	errs := make(chan error, appends)
	for i := 0; i < appends; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := msgRepo.AppendMessage(ctx, chat.ID, "alice", "hello", false, "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	msgs, err := msgRepo.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, appends)

	for i, msg := range msgs {
		require.Equal(t, int64(i+1), msg.Position)
		if i > 0 {
			require.False(t, msg.SentAt.Before(msgs[i-1].SentAt),
				"message %d sent_at %v precedes message %d sent_at %v",
				msg.Position, msg.SentAt, msgs[i-1].Position, msgs[i-1].SentAt)
		}
	}
}

// A sender whose membership was revoked between guard check and append must
// get zero rows, not a message.
func TestAppendMessageRevokedSender(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	database, err := db.Connect(dsn)
	require.NoError(t, err)
	defer database.Close()

	ctx := context.Background()
	_, err = database.ExecContext(ctx,
		`INSERT INTO users (username) VALUES ('alice'), ('bob') ON CONFLICT DO NOTHING`)
	require.NoError(t, err)

	chatRepo := NewChatRepo(database)
	chat, err := chatRepo.CreateChat(ctx, models.Chat{
		ID:   uuid.NewString(),
		Name: "revoked-" + uuid.NewString(),
	}, []string{"alice", "bob"})
	require.NoError(t, err)

	require.NoError(t, chatRepo.RemoveMember(ctx, chat.ID, "alice", "bob"))

	msgRepo := NewMessageRepo(database)
	_, err = msgRepo.AppendMessage(ctx, chat.ID, "bob", "still here?", false, "")
	require.ErrorIs(t, err, ErrCallerNotMember)

	msgs, err := msgRepo.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Empty(t, msgs)
}
