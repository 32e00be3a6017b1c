package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/bdlgate/gatepass-backend/internal/config"
	"github.com/bdlgate/gatepass-backend/internal/models"
	"github.com/bdlgate/gatepass-backend/pkg/storage"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

// PhotoService normalises uploaded entry photos into JPEGs and stores them
type PhotoService struct {
	store storage.MediaStore
	cfg   config.PhotoConfig
	clock Clock
}

// NewPhotoService creates a new PhotoService
func NewPhotoService(store storage.MediaStore, cfg config.PhotoConfig, clock Clock) *PhotoService {
	if clock == nil {
		clock = SystemClock
	}
	return &PhotoService{store: store, cfg: cfg, clock: clock}
}

// DecodeBase64 accepts plain base64 or a data URL such as "data:image/png;base64,..."
func DecodeBase64(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if strings.HasPrefix(data, "data:") {
		comma := strings.Index(data, ",")
		if comma < 0 || !strings.HasSuffix(data[:comma], ";base64") {
			return nil, invalid("photo", "malformed data URL")
		}
		data = data[comma+1:]
	}
	if data == "" {
		return nil, invalid("photo", "photo is required")
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, invalid("photo", "photo is not valid base64")
	}
	return raw, nil
}

// Normalize checks the bytes are an image, applies EXIF orientation, caps the
// width and re-encodes as JPEG
func (s *PhotoService) Normalize(raw []byte) ([]byte, error) {
	if s.cfg.MaxBytes > 0 && len(raw) > s.cfg.MaxBytes {
		return nil, invalid("photo", "photo exceeds %d bytes", s.cfg.MaxBytes)
	}

	mtype := mimetype.Detect(raw)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, invalid("photo", "unsupported content type %s", mtype.String())
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, invalid("photo", "unsupported image format %s", mtype.String())
	}

	if s.cfg.MaxWidth > 0 && img.Bounds().Dx() > s.cfg.MaxWidth {
		img = imaging.Resize(img, s.cfg.MaxWidth, 0, imaging.Lanczos)
	}

	quality := s.cfg.JPEGQuality
	if quality <= 0 {
		quality = 85
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode photo: %w", err)
	}
	return buf.Bytes(), nil
}

// PhotoKey returns the media key for a new photo of an entry
func (s *PhotoService) PhotoKey(kind models.EntryKind, id int64) string {
	return fmt.Sprintf("photos/%ss/%s_%d_%s.jpg", kind, kind, id, s.clock().Format("20060102_150405"))
}

// Store decodes, normalises and writes the photo, returning its media key
func (s *PhotoService) Store(ctx context.Context, kind models.EntryKind, id int64, data string) (string, error) {
	raw, err := DecodeBase64(data)
	if err != nil {
		return "", err
	}

	jpeg, err := s.Normalize(raw)
	if err != nil {
		return "", err
	}

	key := s.PhotoKey(kind, id)
	if err := s.store.Put(ctx, key, bytes.NewReader(jpeg), int64(len(jpeg)), "image/jpeg"); err != nil {
		return "", fmt.Errorf("failed to store photo: %w", err)
	}
	return key, nil
}

// URL resolves a stored media key to a client-facing link
func (s *PhotoService) URL(ctx context.Context, key string) (string, error) {
	return s.store.URL(ctx, key)
}

// Discard removes a stored photo
func (s *PhotoService) Discard(ctx context.Context, key string) error {
	return s.store.Delete(ctx, key)
}
