package media

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatroom-service/internal/blobstore"
)

var (
	ErrMissingFile     = errors.New("you must specify a file to upload")
	ErrUnsupportedType = errors.New("file must be an image")
	ErrBackend         = errors.New("blob store failure")
)

// allowedImages maps accepted declared content types to the key extension.
var allowedImages = map[string]string{
	"image/jpeg": "jpeg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
}

// Pipeline validates uploads and persists them to the blob store. It never
// touches chat state; callers attach the returned key themselves.
type Pipeline struct {
	store  blobstore.Store
	logger *zerolog.Logger
}

// NewPipeline builds a Pipeline.
func NewPipeline(store blobstore.Store, logger *zerolog.Logger) *Pipeline {
	return &Pipeline{store: store, logger: logger}
}

// Ingest checks the declared content type against the image allow-list,
// derives a chat-scoped random key and stores the bytes with public-read
// visibility. Returns the derived key.
func (p *Pipeline) Ingest(ctx context.Context, chatID string, data []byte, declaredContentType string) (string, error) {
	if len(data) == 0 {
		return "", ErrMissingFile
	}

	contentType, ext, err := normalizeContentType(declaredContentType)
	if err != nil {
		return "", err
	}

	// The gate is on the declared type; a sniff mismatch is only logged.
	if detected := mimetype.Detect(data).String(); detected != contentType {
		p.logger.Warn().
			Str("declared", contentType).
			Str("detected", detected).
			Str("chat_id", chatID).
			Msg("upload content type does not match sniffed bytes")
	}

	key := fmt.Sprintf("%s-%s.%s", chatID, uuid.NewString(), ext)
	if err := p.store.Put(ctx, key, data, contentType, true); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return key, nil
}

func normalizeContentType(declared string) (string, string, error) {
	parsed, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return "", "", ErrUnsupportedType
	}
	parsed = strings.ToLower(parsed)
	ext, ok := allowedImages[parsed]
	if !ok {
		return "", "", ErrUnsupportedType
	}
	return parsed, ext, nil
}
