package services

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const DefaultMaxUploadSize int64 = 10 << 20

// allowedUploadTypes maps the accepted media types to the object key extension.
var allowedUploadTypes = []struct {
	mime string
	ext  string
}{
	{"image/jpeg", ".jpg"},
	{"image/png", ".png"},
	{"image/gif", ".gif"},
	{"image/webp", ".webp"},
	{pdfFileType, ".pdf"},
}

// UploadResult is what the client stores on the certificate.
type UploadResult struct {
	URL      string `json:"url"`
	FileType string `json:"fileType"`
	IsPDF    bool   `json:"isPdf"`
}

// UploadService accepts certificate files. The media type is taken from the
// content, never from the client supplied header.
type UploadService struct {
	storage ObjectStorage
	maxSize int64
	log     zerolog.Logger
}

func NewUploadService(storage ObjectStorage, maxSize int64, log zerolog.Logger) *UploadService {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &UploadService{storage: storage, maxSize: maxSize, log: log.With().Str("service", "upload").Logger()}
}

func (s *UploadService) MaxSize() int64 {
	return s.maxSize
}

// Upload validates and stores the file. size is the declared size, or -1
// when unknown; the limit is enforced on the bytes read either way.
func (s *UploadService) Upload(ctx context.Context, r io.Reader, size int64) (*UploadResult, error) {
	if size > s.maxSize {
		return nil, s.tooLarge()
	}
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, s.tooLarge()
	}
	if len(data) == 0 {
		return nil, invalid("file", "is empty")
	}

	detected := mimetype.Detect(data)
	fileType, ext := "", ""
	for _, t := range allowedUploadTypes {
		if detected.Is(t.mime) {
			fileType, ext = t.mime, t.ext
			break
		}
	}
	if fileType == "" {
		return nil, invalid("file", fmt.Sprintf("unsupported file type %s, allowed: JPEG, PNG, GIF, WebP, PDF", detected.String()))
	}

	key := "certificates/" + uuid.NewString() + ext
	url, err := s.storage.Put(ctx, key, fileType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("store upload failed")
		return nil, fmt.Errorf("store upload: %w", err)
	}

	s.log.Info().Str("key", key).Str("type", fileType).Int("bytes", len(data)).Msg("file uploaded")
	return &UploadResult{URL: url, FileType: fileType, IsPDF: fileType == pdfFileType}, nil
}

func (s *UploadService) tooLarge() error {
	return invalid("file", fmt.Sprintf("must be at most %d MB", s.maxSize>>20))
}
