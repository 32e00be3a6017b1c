package validator

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrEmptyPlate indicates the plate number is blank
	ErrEmptyPlate = errors.New("plate number cannot be empty")

	// ErrPlateTooLong indicates the plate exceeds MaxPlateLength characters
	ErrPlateTooLong = errors.New("plate number must be at most 20 characters")

	// ErrInvalidPlateChar indicates the plate holds a delimiter or control character
	ErrInvalidPlateChar = errors.New("plate number contains an invalid character")
)

// MaxPlateLength is the longest plate accepted at the gate
const MaxPlateLength = 20

// PlateValidator normalises and validates vehicle plate numbers
type PlateValidator struct{}

// NewPlateValidator creates a new plate validator instance
func NewPlateValidator() *PlateValidator {
	return &PlateValidator{}
}

// Normalize trims surrounding whitespace and upper-cases the plate.
// Lookups and the "one IN row per plate" rule both compare normalised plates.
func (v *PlateValidator) Normalize(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// Validate normalises a plate and checks it can be stored and put in a QR payload
func (v *PlateValidator) Validate(plate string) (string, error) {
	normalized := v.Normalize(plate)
	if normalized == "" {
		return "", ErrEmptyPlate
	}

	if utf8.RuneCountInString(normalized) > MaxPlateLength {
		return "", ErrPlateTooLong
	}

	for _, r := range normalized {
		if r == ':' || unicode.IsControl(r) {
			return "", ErrInvalidPlateChar
		}
	}

	return normalized, nil
}

// IsValid is a convenience method that returns true if plate is valid
func (v *PlateValidator) IsValid(plate string) bool {
	_, err := v.Validate(plate)
	return err == nil
}
