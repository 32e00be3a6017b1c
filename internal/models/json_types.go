package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONDocument holds a raw JSONB column. Both drivers are handled: lib/pq
// returns []byte and pgx may return string.
type JSONDocument []byte

// Value implements the driver.Valuer interface
func (d JSONDocument) Value() (driver.Value, error) {
	if len(d) == 0 {
		return "{}", nil
	}
	return string(d), nil
}

// Scan implements the sql.Scanner interface
func (d *JSONDocument) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = nil
	case []byte:
		*d = append((*d)[:0], v...)
	case string:
		*d = JSONDocument(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONDocument", src)
	}
	return nil
}

// MarshalJSON embeds the document as-is
func (d JSONDocument) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON stores a copy of the raw document
func (d *JSONDocument) UnmarshalJSON(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON document")
	}
	*d = append((*d)[:0], data...)
	return nil
}
