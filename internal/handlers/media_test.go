package handlers

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatroom-service/internal/auth"
	"chatroom-service/internal/blobstore"
	"chatroom-service/internal/media"
	"chatroom-service/internal/middleware"
	"chatroom-service/internal/mocks"
)

func setupMediaRouter(handler *MediaHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UsernameKey, "alice")
		if chatID := c.Param("chat_id"); chatID != "" {
			c.Set(middleware.ProofKey, auth.Proof{ChatID: chatID, Username: "alice"})
		}
		c.Next()
	})
	r.POST("/chats/:chat_id/media", handler.Upload)
	r.GET("/media/:key", handler.Serve)
	return r
}

func newMediaHandler(store *mocks.BlobStoreMock) *MediaHandler {
	nop := zerolog.Nop()
	return NewMediaHandler(media.NewPipeline(store, &nop), store, nil)
}

func multipartImage(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return buf, writer.FormDataContentType()
}

func TestUploadSuccess(t *testing.T) {
	store := new(mocks.BlobStoreMock)
	handler := newMediaHandler(store)
	router := setupMediaRouter(handler)

	store.On("Put", mock.Anything, mock.Anything, []byte("fake-png"), "image/png", true).Return(nil).Once()

	body, contentType := multipartImage(t, "img", "pic.png", "image/png", []byte("fake-png"))
	req := httptest.NewRequest(http.MethodPost, "/chats/c9/media", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"file_name":"c9-`)
	require.Contains(t, rec.Body.String(), `.png`)
	store.AssertExpectations(t)
}

func TestUploadMissingFile(t *testing.T) {
	store := new(mocks.BlobStoreMock)
	router := setupMediaRouter(newMediaHandler(store))

	req := httptest.NewRequest(http.MethodPost, "/chats/c9/media", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "specify a file")
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadUnsupportedType(t *testing.T) {
	store := new(mocks.BlobStoreMock)
	router := setupMediaRouter(newMediaHandler(store))

	body, contentType := multipartImage(t, "img", "notes.txt", "text/plain", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/chats/c9/media", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "must be an image")
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadBackendFailure(t *testing.T) {
	store := new(mocks.BlobStoreMock)
	router := setupMediaRouter(newMediaHandler(store))

	store.On("Put", mock.Anything, mock.Anything, mock.Anything, "image/png", true).
		Return(errors.New("disk full")).Once()

	body, contentType := multipartImage(t, "img", "pic.png", "image/png", []byte("fake-png"))
	req := httptest.NewRequest(http.MethodPost, "/chats/c9/media", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServePublicBlob(t *testing.T) {
	store := new(mocks.BlobStoreMock)
	router := setupMediaRouter(newMediaHandler(store))

	store.On("Get", mock.Anything, "c9-abc.png").
		Return([]byte("fake-png"), blobstore.BlobMeta{ContentType: "image/png", PublicRead: true}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/media/c9-abc.png", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	require.Equal(t, "fake-png", rec.Body.String())
}

func TestServeUnknownKey(t *testing.T) {
	store := new(mocks.BlobStoreMock)
	router := setupMediaRouter(newMediaHandler(store))

	store.On("Get", mock.Anything, "nope.png").
		Return(nil, nil, blobstore.ErrNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/media/nope.png", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
