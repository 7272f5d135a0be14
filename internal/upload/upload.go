package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/unalkalkan/QuizForge/internal/storage"
	"github.com/unalkalkan/QuizForge/internal/util"
	"github.com/unalkalkan/QuizForge/pkg/types"
	"go.uber.org/zap"
)

// multipartMemory is how much of a multipart body is kept in memory before spilling to disk
const multipartMemory = 32 << 20

var (
	// ErrNoFile is returned when the request carries no file in any accepted field
	ErrNoFile = errors.New("No PDF file uploaded")

	// ErrFileTooLarge is returned when the upload exceeds the configured limit
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidForm is returned when the request body is not a readable multipart form
	ErrInvalidForm = errors.New("failed to parse multipart form")
)

// UnsupportedTypeError is returned when the declared or detected type is not allowed
type UnsupportedTypeError struct {
	Type    string
	Allowed []string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %q: allowed types are %s", e.Type, strings.Join(e.Allowed, ", "))
}

// IsValidationError reports whether err was caused by what the client sent
func IsValidationError(err error) bool {
	var typeErr *UnsupportedTypeError
	return errors.Is(err, ErrNoFile) || errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrInvalidForm) || errors.As(err, &typeErr)
}

// File describes a stored upload
type File struct {
	Key          string    `json:"key"`
	OriginalName string    `json:"filename"`
	ContentType  string    `json:"contentType"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// Service validates incoming documents and stores them until their text is extracted
type Service struct {
	store  storage.Adapter
	cfg    types.UploadConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates an upload service storing files through store
func NewService(store storage.Adapter, cfg types.UploadConfig, logger *zap.Logger) *Service {
	if cfg.Dir == "" {
		cfg.Dir = "uploads"
	}
	if cfg.MaxSizeBytes <= 0 {
		cfg.MaxSizeBytes = 10 << 20
	}
	if len(cfg.AllowedTypes) == 0 {
		cfg.AllowedTypes = []string{"application/pdf", "text/plain"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// MaxSizeBytes returns the upload size limit
func (s *Service) MaxSizeBytes() int64 {
	return s.cfg.MaxSizeBytes
}

// FromRequest parses a multipart request and stores the file found in the
// first of fields that is present. The parsed form stays available on r.
func (s *Service) FromRequest(r *http.Request, fields ...string) (*File, error) {
	// Leave room for the other form fields and multipart framing
	r.Body = http.MaxBytesReader(nil, r.Body, s.cfg.MaxSizeBytes+1<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, s.tooLarge()
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}

	for _, field := range fields {
		file, header, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidForm, err)
		}
		defer file.Close()
		return s.Save(r.Context(), file, header)
	}

	return nil, ErrNoFile
}

// Save validates a single uploaded file and writes it to storage
func (s *Service) Save(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*File, error) {
	if header.Size > s.cfg.MaxSizeBytes {
		return nil, s.tooLarge()
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxSizeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxSizeBytes {
		return nil, s.tooLarge()
	}

	contentType, err := s.checkType(header.Header.Get("Content-Type"), data)
	if err != nil {
		s.logger.Info("upload rejected",
			zap.String("filename", header.Filename),
			zap.String("declared_type", header.Header.Get("Content-Type")),
			zap.Error(err))
		return nil, err
	}

	uploaded := &File{
		Key:          s.key(header.Filename, contentType),
		OriginalName: header.Filename,
		ContentType:  contentType,
		Size:         int64(len(data)),
		UploadedAt:   s.now(),
	}
	if err := s.store.Put(ctx, uploaded.Key, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	s.logger.Info("file uploaded",
		zap.String("filename", uploaded.OriginalName),
		zap.String("key", uploaded.Key),
		zap.String("content_type", uploaded.ContentType),
		zap.Int64("size", uploaded.Size))
	return uploaded, nil
}

// checkType requires the declared type to be allowed and the content to
// actually be of that type. It returns the accepted type without parameters.
func (s *Service) checkType(declared string, data []byte) (string, error) {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return "", &UnsupportedTypeError{Type: declared, Allowed: s.cfg.AllowedTypes}
	}

	allowed := false
	for _, t := range s.cfg.AllowedTypes {
		if strings.EqualFold(mediaType, t) {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", &UnsupportedTypeError{Type: mediaType, Allowed: s.cfg.AllowedTypes}
	}

	detected := mimetype.Detect(data)
	if !isA(detected, mediaType) {
		return "", &UnsupportedTypeError{Type: detected.String(), Allowed: s.cfg.AllowedTypes}
	}
	return strings.ToLower(mediaType), nil
}

// isA reports whether m is want or a specialization of it (JSON is text/plain)
func isA(m *mimetype.MIME, want string) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is(want) {
			return true
		}
	}
	return false
}

// key builds <dir>/<unix-ms>-<uuid><ext>. The extension follows the accepted
// type so the extractor can choose a parser from the key alone.
func (s *Service) key(filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if m := mimetype.Lookup(contentType); m != nil && m.Extension() != "" {
		ext = m.Extension()
	}
	return util.GetUploadPath(s.cfg.Dir, s.now(), ext)
}

func (s *Service) tooLarge() error {
	limit := fmt.Sprintf("%d bytes", s.cfg.MaxSizeBytes)
	if s.cfg.MaxSizeBytes%(1<<20) == 0 {
		limit = fmt.Sprintf("%dMB", s.cfg.MaxSizeBytes>>20)
	}
	return fmt.Errorf("%w: maximum upload size is %s", ErrFileTooLarge, limit)
}
