package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type membershipReaderStub struct {
	chatExists bool
	member     bool
	err        error
}

func (s membershipReaderStub) CheckMembership(ctx context.Context, chatID, username string) (bool, bool, error) {
	return s.chatExists, s.member, s.err
}

func TestAuthorizeSuccess(t *testing.T) {
	guard := NewMembershipGuard(membershipReaderStub{chatExists: true, member: true})

	proof, err := guard.Authorize(context.Background(), "chat-1", "alice")
	require.NoError(t, err)
	require.Equal(t, Proof{ChatID: "chat-1", Username: "alice"}, proof)
}

func TestAuthorizeChatNotFound(t *testing.T) {
	guard := NewMembershipGuard(membershipReaderStub{})

	_, err := guard.Authorize(context.Background(), "missing", "alice")
	require.ErrorIs(t, err, ErrChatNotFound)
}

func TestAuthorizeNotAMember(t *testing.T) {
	guard := NewMembershipGuard(membershipReaderStub{chatExists: true})

	_, err := guard.Authorize(context.Background(), "chat-1", "carol")
	require.ErrorIs(t, err, ErrNotAMember)
}

func TestAuthorizeReadError(t *testing.T) {
	readErr := errors.New("connection reset")
	guard := NewMembershipGuard(membershipReaderStub{err: readErr})

	_, err := guard.Authorize(context.Background(), "chat-1", "alice")
	require.ErrorIs(t, err, readErr)
}
