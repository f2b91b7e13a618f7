package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatroom-service/internal/auth"
)

const (
	// UsernameKey holds the verified identity claim in the gin context.
	UsernameKey = "username"
	// ProofKey holds the membership proof for chat-scoped routes.
	ProofKey = "membershipProof"
)

// RequireAuth validates the Authorization header and stores the verified
// username. Every failure is a uniform 403; the body carries the reason.
func RequireAuth(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, err := verifier.VerifyHeader(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.Set(UsernameKey, username)
		c.Next()
	}
}

// RequireMember authorizes the verified identity against the chat in the
// route and stores the resulting proof. Must run after RequireAuth.
func RequireMember(guard *auth.MembershipGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetString(UsernameKey)
		chatID := c.Param("chat_id")

		proof, err := guard.Authorize(c.Request.Context(), chatID, username)
		if err != nil {
			if errors.Is(err, auth.ErrChatNotFound) || errors.Is(err, auth.ErrNotAMember) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
			return
		}
		c.Set(ProofKey, proof)
		c.Next()
	}
}

// ProofFromContext extracts the membership proof set by RequireMember.
func ProofFromContext(c *gin.Context) (auth.Proof, bool) {
	val, ok := c.Get(ProofKey)
	if !ok {
		return auth.Proof{}, false
	}
	proof, ok := val.(auth.Proof)
	return proof, ok
}
