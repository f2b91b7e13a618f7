package auth

import "context"

// MembershipReader is the scoped read the guard needs: a single round trip
// answering whether the chat exists and whether the username is a member.
type MembershipReader interface {
	CheckMembership(ctx context.Context, chatID, username string) (chatExists bool, member bool, err error)
}

// Proof is the evidence that an identity was a member of a chat when the guard
// checked. Mutating operations accept a Proof and re-verify membership inside
// their conditional write, so a stale Proof cannot mutate.
type Proof struct {
	ChatID   string
	Username string
}

// MembershipGuard is the authorization predicate for chat-scoped operations.
type MembershipGuard struct {
	members MembershipReader
}

// NewMembershipGuard builds a guard over the membership reader.
func NewMembershipGuard(members MembershipReader) *MembershipGuard {
	return &MembershipGuard{members: members}
}

// Authorize checks that the identity is a current member of the chat.
func (g *MembershipGuard) Authorize(ctx context.Context, chatID, username string) (Proof, error) {
	exists, member, err := g.members.CheckMembership(ctx, chatID, username)
	if err != nil {
		return Proof{}, err
	}
	if !exists {
		return Proof{}, ErrChatNotFound
	}
	if !member {
		return Proof{}, ErrNotAMember
	}
	return Proof{ChatID: chatID, Username: username}, nil
}
