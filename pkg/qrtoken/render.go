package qrtoken

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// Renderer turns payload text into a PNG image
type Renderer struct {
	size  int
	level qrcode.RecoveryLevel
}

// NewRenderer creates a renderer. level is one of low, medium, high, highest.
func NewRenderer(size int, level string) *Renderer {
	if size <= 0 {
		size = 290
	}
	return &Renderer{size: size, level: parseRecoveryLevel(level)}
}

// PNG encodes a payload as a PNG image
func (r *Renderer) PNG(payload string) ([]byte, error) {
	png, err := qrcode.Encode(payload, r.level, r.size)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}

// Token encodes a token and renders it in one step
func (r *Renderer) Token(t Token) (string, []byte, error) {
	payload, err := Encode(t)
	if err != nil {
		return "", nil, err
	}
	png, err := r.PNG(payload)
	if err != nil {
		return "", nil, err
	}
	return payload, png, nil
}

func parseRecoveryLevel(level string) qrcode.RecoveryLevel {
	switch strings.ToLower(level) {
	case "medium":
		return qrcode.Medium
	case "high":
		return qrcode.High
	case "highest":
		return qrcode.Highest
	default:
		return qrcode.Low
	}
}
