package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chatroom-service/internal/blobstore"
	"chatroom-service/internal/models"
	"chatroom-service/internal/repositories"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateChat(ctx context.Context, chat models.Chat, usernames []string) (models.Chat, error) {
	args := m.Called(ctx, chat, usernames)
	var created models.Chat
	if val := args.Get(0); val != nil {
		created = val.(models.Chat)
	}
	return created, args.Error(1)
}

func (m *ChatRepositoryMock) CheckMembership(ctx context.Context, chatID, username string) (bool, bool, error) {
	args := m.Called(ctx, chatID, username)
	return args.Bool(0), args.Bool(1), args.Error(2)
}

func (m *ChatRepositoryMock) AddMember(ctx context.Context, chatID, caller, username string) error {
	args := m.Called(ctx, chatID, caller, username)
	return args.Error(0)
}

func (m *ChatRepositoryMock) RemoveMember(ctx context.Context, chatID, caller, username string) error {
	args := m.Called(ctx, chatID, caller, username)
	return args.Error(0)
}

func (m *ChatRepositoryMock) GetChatInfo(ctx context.Context, chatID string) (models.ChatInfo, error) {
	args := m.Called(ctx, chatID)
	var info models.ChatInfo
	if val := args.Get(0); val != nil {
		info = val.(models.ChatInfo)
	}
	return info, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) AppendMessage(ctx context.Context, chatID, sender, content string, media bool, mediaKey string) (models.Message, error) {
	args := m.Called(ctx, chatID, sender, content, media, mediaKey)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	args := m.Called(ctx, chatID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) FindByUsername(ctx context.Context, username string) (models.User, error) {
	args := m.Called(ctx, username)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

type BlobStoreMock struct {
	mock.Mock
}

func (m *BlobStoreMock) Put(ctx context.Context, key string, data []byte, contentType string, publicRead bool) error {
	args := m.Called(ctx, key, data, contentType, publicRead)
	return args.Error(0)
}

func (m *BlobStoreMock) Get(ctx context.Context, key string) ([]byte, blobstore.BlobMeta, error) {
	args := m.Called(ctx, key)
	var data []byte
	if val := args.Get(0); val != nil {
		data = val.([]byte)
	}
	var meta blobstore.BlobMeta
	if val := args.Get(1); val != nil {
		meta = val.(blobstore.BlobMeta)
	}
	return data, meta, args.Error(2)
}

var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ blobstore.Store = (*BlobStoreMock)(nil)
