package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bdlgate/gatepass-backend/pkg/qrtoken"
	"github.com/bdlgate/gatepass-backend/pkg/storage"
)

// PassService renders gate pass QR codes and stores them as PNG media
type PassService struct {
	renderer *qrtoken.Renderer
	store    storage.MediaStore
}

// NewPassService creates a new PassService
func NewPassService(renderer *qrtoken.Renderer, store storage.MediaStore) *PassService {
	return &PassService{renderer: renderer, store: store}
}

// PassKey returns the media key of the QR image for a token
func PassKey(t qrtoken.Token) string {
	switch t.Tag() {
	case qrtoken.TagVehicle:
		return fmt.Sprintf("qr_vehicles/vehicle_%d.png", t.EntryID())
	case qrtoken.TagPreRegistered:
		return fmt.Sprintf("qr_visitors/pre_registered_%d.png", t.EntryID())
	default:
		return fmt.Sprintf("qr_visitors/visitor_%d.png", t.EntryID())
	}
}

// Issue encodes the token, renders it and stores the PNG, returning its URL
func (s *PassService) Issue(ctx context.Context, t qrtoken.Token) (string, error) {
	_, png, err := s.renderer.Token(t)
	if err != nil {
		return "", err
	}

	key := PassKey(t)
	if err := s.store.Put(ctx, key, bytes.NewReader(png), int64(len(png)), "image/png"); err != nil {
		return "", fmt.Errorf("failed to store QR code: %w", err)
	}

	return s.store.URL(ctx, key)
}
