// Package qrtoken builds and parses the text payloads printed as QR codes on
// gate passes.
//
// A payload is a colon-delimited string whose first segment is a tag:
//
//	VISITOR:<id>:<name>:<destination>:<purpose>
//	VEHICLE:<id>:<driver>:<plate>
//	PREGISTERED:<id>:<name>:<destination>:<purpose>:<employee>
//
// Field values are not escaped. Printed passes must keep scanning, so the
// format stays byte-stable and Encode rejects any field holding the delimiter.
package qrtoken

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Delimiter separates payload segments
const Delimiter = ":"

// Tag is the leading segment of a payload
type Tag string

const (
	TagVisitor       Tag = "VISITOR"
	TagVehicle       Tag = "VEHICLE"
	TagPreRegistered Tag = "PREGISTERED"
)

// minSegments is the segment count each tag requires, tag included
var minSegments = map[Tag]int{
	TagVisitor:       5,
	TagVehicle:       4,
	TagPreRegistered: 6,
}

// ErrDelimiterInField is returned by Encode when a field contains the delimiter
var ErrDelimiterInField = errors.New("qr token field must not contain ':'")

// ParseError describes a payload that could not be decoded
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid QR payload: %s", e.Reason)
}

// Token is the decoded payload. It is one of Visitor, Vehicle or PreRegistered.
type Token interface {
	Tag() Tag
	EntryID() int64
	fields() []string
}

// Visitor is the payload of a checked-in visitor pass
type Visitor struct {
	ID          int64
	Name        string
	Destination string
	Purpose     string
}

func (t Visitor) Tag() Tag { return TagVisitor }
func (t Visitor) EntryID() int64 { return t.ID }
func (t Visitor) fields() []string { return []string{t.Name, t.Destination, t.Purpose} }

// Vehicle is the payload of a checked-in vehicle pass
type Vehicle struct {
	ID          int64
	DriverName  string
	PlateNumber string
}

func (t Vehicle) Tag() Tag { return TagVehicle }
func (t Vehicle) EntryID() int64 { return t.ID }
func (t Vehicle) fields() []string { return []string{t.DriverName, t.PlateNumber} }

// PreRegistered is the payload handed out ahead of a visit
type PreRegistered struct {
	ID           int64
	Name         string
	Destination  string
	Purpose      string
	EmployeeName string
}

func (t PreRegistered) Tag() Tag { return TagPreRegistered }
func (t PreRegistered) EntryID() int64 { return t.ID }
func (t PreRegistered) fields() []string {
	return []string{t.Name, t.Destination, t.Purpose, t.EmployeeName}
}

// Encode renders a token as payload text
func Encode(t Token) (string, error) {
	fields := t.fields()
	segments := make([]string, 0, len(fields)+2)
	segments = append(segments, string(t.Tag()), strconv.FormatInt(t.EntryID(), 10))
	for _, f := range fields {
		if strings.Contains(f, Delimiter) {
			return "", fmt.Errorf("%w: %q", ErrDelimiterInField, f)
		}
		segments = append(segments, f)
	}
	return strings.Join(segments, Delimiter), nil
}

// Decode parses payload text. Segments beyond the tag's minimum are ignored.
func Decode(text string) (Token, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ParseError{Input: text, Reason: "empty payload"}
	}

	parts := strings.Split(text, Delimiter)
	tag := Tag(parts[0])
	need, ok := minSegments[tag]
	if !ok {
		return nil, &ParseError{Input: text, Reason: fmt.Sprintf("unknown tag %q", parts[0])}
	}
	if len(parts) < need {
		return nil, &ParseError{
			Input:  text,
			Reason: fmt.Sprintf("%s needs %d segments, got %d", tag, need, len(parts)),
		}
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, &ParseError{Input: text, Reason: fmt.Sprintf("id %q is not an integer", parts[1])}
	}

	switch tag {
	case TagVisitor:
		return Visitor{ID: id, Name: parts[2], Destination: parts[3], Purpose: parts[4]}, nil
	case TagVehicle:
		return Vehicle{ID: id, DriverName: parts[2], PlateNumber: parts[3]}, nil
	default:
		return PreRegistered{
			ID:           id,
			Name:         parts[2],
			Destination:  parts[3],
			Purpose:      parts[4],
			EmployeeName: parts[5],
		}, nil
	}
}

// IsParseError reports whether err is a decode failure
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
