package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chatroom-service/internal/middleware"
	"chatroom-service/internal/models"
	"chatroom-service/internal/observability"
	"chatroom-service/internal/repositories"
	"chatroom-service/internal/telemetry"
)

// ChatHandler manages chat lifecycle and message endpoints.
type ChatHandler struct {
	chatRepo    repositories.ChatRepository
	messageRepo repositories.MessageRepository
	userRepo    repositories.UserRepository
	audit       *telemetry.AuditEmitter
}

// NewChatHandler constructs a ChatHandler.
func NewChatHandler(chatRepo repositories.ChatRepository, messageRepo repositories.MessageRepository, userRepo repositories.UserRepository, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		audit:       audit,
	}
}

// CreateChat handles POST /chats.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	creator := c.GetString(middleware.UsernameKey)

	var req struct {
		Name      string   `json:"name" binding:"required"`
		Img       string   `json:"img"`
		Usernames []string `json:"usernames" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "chat.create_rejected", "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "chat name and member usernames are required"})
		return
	}

	// The creator is always a member and gets resolved like everyone else; an
	// unknown name must never reach the member insert.
	usernames := req.Usernames
	if !containsString(usernames, creator) {
		usernames = append([]string{creator}, usernames...)
	}

	// Resolve every username before touching storage; fail fast on the first miss.
	for _, username := range usernames {
		if _, err := h.userRepo.FindByUsername(c.Request.Context(), username); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("user '%s' not found", username)})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve members"})
			return
		}
	}

	chat := models.Chat{
		ID:   uuid.NewString(),
		Name: req.Name,
		Img:  req.Img,
	}
	created, err := h.chatRepo.CreateChat(c.Request.Context(), chat, usernames)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateChat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("a chat called '%s' already exists", req.Name)})
			return
		}
		h.emitAudit(c, "chat.create_failed", "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chat"})
		return
	}

	h.emitAudit(c, "chat.created", "INFO", fmt.Sprintf("chat '%s' created", created.Name))
	c.JSON(http.StatusCreated, gin.H{"chat": created, "members": usernames})
}

// AddMember handles POST /chats/:chat_id/members.
func (h *ChatHandler) AddMember(c *gin.Context) {
	proof, ok := middleware.ProofFromContext(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "missing membership proof"})
		return
	}

	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	if _, err := h.userRepo.FindByUsername(c.Request.Context(), req.Username); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("user '%s' not found", req.Username)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve user"})
		return
	}

	err := h.chatRepo.AddMember(c.Request.Context(), proof.ChatID, proof.Username, req.Username)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrAlreadyMember):
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("the user '%s' is already in the chat", req.Username)})
		return
	case errors.Is(err, repositories.ErrCallerNotMember):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this chat"})
		return
	default:
		h.emitAudit(c, "chat.member_add_failed", "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add member"})
		return
	}

	h.emitAudit(c, "chat.member_added", "INFO", fmt.Sprintf("user '%s' added", req.Username))
	c.JSON(http.StatusCreated, gin.H{"msg": fmt.Sprintf("user '%s' added", req.Username)})
}

// RemoveMember handles DELETE /chats/:chat_id/members.
func (h *ChatHandler) RemoveMember(c *gin.Context) {
	proof, ok := middleware.ProofFromContext(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "missing membership proof"})
		return
	}

	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	err := h.chatRepo.RemoveMember(c.Request.Context(), proof.ChatID, proof.Username, req.Username)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrMemberNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("the user '%s' is not in the chat", req.Username)})
		return
	case errors.Is(err, repositories.ErrCallerNotMember):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this chat"})
		return
	default:
		h.emitAudit(c, "chat.member_remove_failed", "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove member"})
		return
	}

	h.emitAudit(c, "chat.member_removed", "INFO", fmt.Sprintf("user '%s' removed", req.Username))
	c.JSON(http.StatusOK, gin.H{"msg": fmt.Sprintf("user '%s' removed", req.Username)})
}

// SendMessage handles POST /chats/:chat_id/messages.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	proof, ok := middleware.ProofFromContext(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "missing membership proof"})
		return
	}

	var req struct {
		Content  string `json:"content" binding:"required"`
		Media    bool   `json:"media"`
		MediaKey string `json:"media_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message must have content"})
		return
	}

	// A media key must come from the upload pipeline for this chat.
	if req.MediaKey != "" && !strings.HasPrefix(req.MediaKey, proof.ChatID+"-") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "media key does not belong to this chat"})
		return
	}
	media := req.Media || req.MediaKey != ""

	// The author is always the verified identity, never client input.
	msg, err := h.messageRepo.AppendMessage(c.Request.Context(), proof.ChatID, proof.Username, req.Content, media, req.MediaKey)
	if err != nil {
		if errors.Is(err, repositories.ErrCallerNotMember) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this chat"})
			return
		}
		h.emitAudit(c, "chat.message_failed", "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store message"})
		return
	}

	observability.IncMessageAppended()
	h.emitAudit(c, "chat.message_sent", "INFO", "message appended")
	c.JSON(http.StatusOK, gin.H{"msg": fmt.Sprintf("message '%s' sent", msg.Content), "message": msg})
}

// GetChatInfo handles GET /chats/:chat_id.
func (h *ChatHandler) GetChatInfo(c *gin.Context) {
	proof, ok := middleware.ProofFromContext(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "missing membership proof"})
		return
	}

	info, err := h.chatRepo.GetChatInfo(c.Request.Context(), proof.ChatID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("a chat with the id '%s' could not be found", proof.ChatID)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load chat"})
		return
	}

	msgs, err := h.messageRepo.ListMessages(c.Request.Context(), proof.ChatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load chat"})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	info.Messages = msgs

	c.JSON(http.StatusOK, info)
}

func (h *ChatHandler) emitAudit(c *gin.Context, eventType, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), eventType, level, text, requestIDFromContext(c), usernameFromContext(c))
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
