package auth

import "errors"

// The closed set of authorization failures. Handlers map all of them to a
// uniform 403; the reason is distinguished in the body only.
var (
	ErrMissingCredential = errors.New("authorization required")
	ErrInvalidToken      = errors.New("invalid or expired token")
	ErrChatNotFound      = errors.New("chat not found")
	ErrNotAMember        = errors.New("not a member of this chat")
)
