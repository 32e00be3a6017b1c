package validator

import (
	"strings"

	govalidator "github.com/go-playground/validator/v10"
)

// QRSafeTag is the struct tag for text that is embedded in a QR payload
const QRSafeTag = "qrsafe"

// IsQRSafe reports whether s can be placed in a colon-delimited QR payload
func IsQRSafe(s string) bool {
	return !strings.Contains(s, ":")
}

// RegisterTags adds the gate-specific validation tags to a validator engine
func RegisterTags(v *govalidator.Validate) error {
	return v.RegisterValidation(QRSafeTag, func(fl govalidator.FieldLevel) bool {
		return IsQRSafe(fl.Field().String())
	})
}
