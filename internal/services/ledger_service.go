package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bdlgate/gatepass-backend/internal/database"
	"github.com/bdlgate/gatepass-backend/internal/models"
	"github.com/bdlgate/gatepass-backend/pkg/qrtoken"
	"github.com/bdlgate/gatepass-backend/pkg/validator"
	"github.com/sirupsen/logrus"
)

// VisitorLedger is the visitor persistence used by LedgerService
type VisitorLedger interface {
	CheckIn(ctx context.Context, in models.VisitorCheckIn, now time.Time) (*models.VisitorEntry, error)
	CheckOutByName(ctx context.Context, name string, now time.Time) (int64, error)
	CheckOutByID(ctx context.Context, id int64, now time.Time) error
	PreRegister(ctx context.Context, p models.PreRegistration, now, dayStart, dayEnd time.Time) (*models.VisitorEntry, error)
	ConfirmPreRegistration(ctx context.Context, id int64, now time.Time) (*models.VisitorEntry, error)
	GetByID(ctx context.Context, id int64) (*models.VisitorEntry, error)
	List(ctx context.Context) ([]models.VisitorEntry, error)
	SearchByName(ctx context.Context, term string) ([]models.VisitorEntry, error)
	SetPhotoPath(ctx context.Context, id int64, path string) error
}

// VehicleLedger is the vehicle persistence used by LedgerService
type VehicleLedger interface {
	CheckIn(ctx context.Context, in models.VehicleCheckIn, now time.Time) (*models.VehicleEntry, error)
	CheckOutByPlate(ctx context.Context, plate string, mileageOut *int64, now time.Time) (int64, error)
	CheckOutByID(ctx context.Context, id int64, mileageOut *int64, now time.Time) error
	GetByID(ctx context.Context, id int64) (*models.VehicleEntry, error)
	List(ctx context.Context) ([]models.VehicleEntry, error)
	SearchByPlate(ctx context.Context, term string) ([]models.VehicleEntry, error)
	SetPhotoPath(ctx context.Context, id int64, path string) error
}

// CheckInResult is returned by operations that create an entry and issue a pass
type CheckInResult struct {
	EntryID int64
	// Subject is the stored visitor name or normalised plate
	Subject string
	// QRCode is empty when the pass image could not be stored
	QRCode string
}

// Scan actions reported by ScanQR
const (
	ScanActionCheckedOut = "checked_out"
	ScanActionConfirmed  = "confirmed"
)

// ScanResult describes what a scanned pass did
type ScanResult struct {
	Action  string           `json:"action"`
	Kind    models.EntryKind `json:"type"`
	EntryID int64            `json:"id"`
	Name    string           `json:"name"`
	QRCode  string           `json:"qr_code,omitempty"`
}

// LedgerService implements the visitor and vehicle gate lifecycle
type LedgerService struct {
	visitors VisitorLedger
	vehicles VehicleLedger
	passes   *PassService
	photos   *PhotoService
	plates   *validator.PlateValidator
	clock    Clock
	logger   *logrus.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	visitors VisitorLedger,
	vehicles VehicleLedger,
	passes *PassService,
	photos *PhotoService,
	clock Clock,
	logger *logrus.Logger,
) *LedgerService {
	if clock == nil {
		clock = SystemClock
	}
	return &LedgerService{
		visitors: visitors,
		vehicles: vehicles,
		passes:   passes,
		photos:   photos,
		plates:   validator.NewPlateValidator(),
		clock:    clock,
		logger:   logger,
	}
}

// CheckInVisitor records a visitor arriving and issues a VISITOR pass
func (s *LedgerService) CheckInVisitor(ctx context.Context, name, destination, purpose string) (*CheckInResult, error) {
	in := models.VisitorCheckIn{
		Name:        strings.TrimSpace(name),
		Destination: strings.TrimSpace(destination),
		Purpose:     strings.TrimSpace(purpose),
	}
	if err := requireText(
		textField{"name", in.Name},
		textField{"destination", in.Destination},
		textField{"purpose", in.Purpose},
	); err != nil {
		return nil, err
	}

	entry, err := s.visitors.CheckIn(ctx, in, s.clock())
	if err != nil {
		return nil, err
	}

	return &CheckInResult{
		EntryID: entry.ID,
		Subject: entry.Name,
		QRCode: s.issuePass(ctx, qrtoken.Visitor{
			ID: entry.ID, Name: entry.Name, Destination: entry.Destination, Purpose: entry.Purpose,
		}),
	}, nil
}

// CheckOutVisitor checks out the newest IN visitor with a matching name
func (s *LedgerService) CheckOutVisitor(ctx context.Context, identifier string) (int64, error) {
	name := strings.TrimSpace(identifier)
	if name == "" {
		return 0, invalid("identifier", "identifier is required")
	}
	return s.visitors.CheckOutByName(ctx, name, s.clock())
}

// CheckInVehicle records a vehicle arriving and issues a VEHICLE pass.
// mileageIn is the raw decimal text from the request.
func (s *LedgerService) CheckInVehicle(ctx context.Context, driver, plate, mileageIn string) (*CheckInResult, error) {
	driver = strings.TrimSpace(driver)
	if err := requireText(textField{"driver", driver}); err != nil {
		return nil, err
	}

	normalized, err := s.plates.Validate(plate)
	if err != nil {
		return nil, &ValidationError{Field: "plate", Message: err.Error()}
	}

	mileage, err := ParseMileage("m_in", mileageIn)
	if err != nil {
		return nil, err
	}

	entry, err := s.vehicles.CheckIn(ctx, models.VehicleCheckIn{
		DriverName:  driver,
		PlateNumber: normalized,
		MileageIn:   mileage,
	}, s.clock())
	if err != nil {
		return nil, err
	}

	return &CheckInResult{
		EntryID: entry.ID,
		Subject: entry.PlateNumber,
		QRCode: s.issuePass(ctx, qrtoken.Vehicle{
			ID: entry.ID, DriverName: entry.DriverName, PlateNumber: entry.PlateNumber,
		}),
	}, nil
}

// CheckOutVehicle checks out the newest IN row for the plate. An empty
// mileageOut leaves mileage_out unset.
func (s *LedgerService) CheckOutVehicle(ctx context.Context, plate, mileageOut string) (int64, error) {
	normalized := s.plates.Normalize(plate)
	if normalized == "" {
		return 0, invalid("identifier", "identifier is required")
	}

	var out *int64
	if strings.TrimSpace(mileageOut) != "" {
		m, err := ParseMileage("m_out", mileageOut)
		if err != nil {
			return 0, err
		}
		out = &m
	}

	return s.vehicles.CheckOutByPlate(ctx, normalized, out, s.clock())
}

// PreRegister books a visitor for today and issues a PREGISTERED pass
func (s *LedgerService) PreRegister(ctx context.Context, name, destination, purpose, employee string) (*CheckInResult, error) {
	p := models.PreRegistration{
		Name:         strings.TrimSpace(name),
		Destination:  strings.TrimSpace(destination),
		Purpose:      strings.TrimSpace(purpose),
		EmployeeName: strings.TrimSpace(employee),
	}
	if err := requireText(
		textField{"name", p.Name},
		textField{"destination", p.Destination},
		textField{"purpose", p.Purpose},
		textField{"employee_name", p.EmployeeName},
	); err != nil {
		return nil, err
	}

	now := s.clock()
	dayStart, dayEnd := dayBounds(now)
	entry, err := s.visitors.PreRegister(ctx, p, now, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	return &CheckInResult{
		EntryID: entry.ID,
		Subject: p.Name,
		QRCode: s.issuePass(ctx, qrtoken.PreRegistered{
			ID: entry.ID, Name: p.Name, Destination: p.Destination, Purpose: p.Purpose, EmployeeName: p.EmployeeName,
		}),
	}, nil
}

// ConfirmPreRegistration admits a pre-registered visitor and issues the VISITOR
// pass used at checkout
func (s *LedgerService) ConfirmPreRegistration(ctx context.Context, id int64) (*models.VisitorEntry, string, error) {
	if id <= 0 {
		return nil, "", invalid("visitor_id", "visitor_id must be positive")
	}

	entry, err := s.visitors.ConfirmPreRegistration(ctx, id, s.clock())
	if err != nil {
		return nil, "", err
	}

	qr := s.issuePass(ctx, qrtoken.Visitor{
		ID: entry.ID, Name: entry.Name, Destination: entry.Destination, Purpose: entry.Purpose,
	})
	entry.PhotoURL = s.photoURL(ctx, entry.PhotoPath)
	return entry, qr, nil
}

// ConfirmPreRegistrationToken confirms the entry named by a scanned PREGISTERED payload
func (s *LedgerService) ConfirmPreRegistrationToken(ctx context.Context, qrData string) (*models.VisitorEntry, string, error) {
	token, err := qrtoken.Decode(qrData)
	if err != nil {
		return nil, "", err
	}
	pre, ok := token.(qrtoken.PreRegistered)
	if !ok {
		return nil, "", invalid("qr_data", "QR code is not a pre-registration pass")
	}
	return s.ConfirmPreRegistration(ctx, pre.ID)
}

// ScanQR decodes a scanned pass and applies the transition it stands for
func (s *LedgerService) ScanQR(ctx context.Context, qrData string) (*ScanResult, error) {
	token, err := qrtoken.Decode(qrData)
	if err != nil {
		return nil, err
	}

	switch t := token.(type) {
	case qrtoken.Visitor:
		if err := s.visitors.CheckOutByID(ctx, t.ID, s.clock()); err != nil {
			return nil, err
		}
		return &ScanResult{Action: ScanActionCheckedOut, Kind: models.EntryKindVisitor, EntryID: t.ID, Name: t.Name}, nil
	case qrtoken.Vehicle:
		if err := s.vehicles.CheckOutByID(ctx, t.ID, nil, s.clock()); err != nil {
			return nil, err
		}
		return &ScanResult{Action: ScanActionCheckedOut, Kind: models.EntryKindVehicle, EntryID: t.ID, Name: t.PlateNumber}, nil
	case qrtoken.PreRegistered:
		entry, qr, err := s.ConfirmPreRegistration(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		return &ScanResult{Action: ScanActionConfirmed, Kind: models.EntryKindVisitor, EntryID: entry.ID, Name: entry.Name, QRCode: qr}, nil
	default:
		return nil, invalid("qr_data", "unsupported QR code")
	}
}

// ListVisitors returns all visitor entries newest first
func (s *LedgerService) ListVisitors(ctx context.Context) ([]models.VisitorEntry, error) {
	entries, err := s.visitors.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolveVisitorPhotos(ctx, entries), nil
}

// ListVehicles returns all vehicle entries newest first
func (s *LedgerService) ListVehicles(ctx context.Context) ([]models.VehicleEntry, error) {
	entries, err := s.vehicles.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolveVehiclePhotos(ctx, entries), nil
}

// SearchVisitors matches a literal substring of the visitor name
func (s *LedgerService) SearchVisitors(ctx context.Context, q string) ([]models.VisitorEntry, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, invalid("q", "search query is required")
	}
	entries, err := s.visitors.SearchByName(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.resolveVisitorPhotos(ctx, entries), nil
}

// SearchVehicles matches a literal substring of the plate number
func (s *LedgerService) SearchVehicles(ctx context.Context, q string) ([]models.VehicleEntry, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, invalid("q", "search query is required")
	}
	entries, err := s.vehicles.SearchByPlate(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.resolveVehiclePhotos(ctx, entries), nil
}

// AttachPhoto stores a base64 photo and links it to the entry, returning the photo URL
func (s *LedgerService) AttachPhoto(ctx context.Context, kind models.EntryKind, id int64, data string) (string, error) {
	if id <= 0 {
		return "", invalid("id", "id must be positive")
	}

	key, err := s.photos.Store(ctx, kind, id, data)
	if err != nil {
		return "", err
	}

	switch kind {
	case models.EntryKindVehicle:
		err = s.vehicles.SetPhotoPath(ctx, id, key)
	default:
		err = s.visitors.SetPhotoPath(ctx, id, key)
	}
	if err != nil {
		if derr := s.photos.Discard(ctx, key); derr != nil {
			s.logger.WithError(derr).WithField("key", key).Warn("Failed to discard orphaned photo")
		}
		return "", err
	}

	url, err := s.photos.URL(ctx, key)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Failed to resolve photo URL")
		return key, nil
	}
	return url, nil
}

func (s *LedgerService) resolveVisitorPhotos(ctx context.Context, entries []models.VisitorEntry) []models.VisitorEntry {
	for i := range entries {
		entries[i].PhotoURL = s.photoURL(ctx, entries[i].PhotoPath)
	}
	return entries
}

func (s *LedgerService) resolveVehiclePhotos(ctx context.Context, entries []models.VehicleEntry) []models.VehicleEntry {
	for i := range entries {
		entries[i].PhotoURL = s.photoURL(ctx, entries[i].PhotoPath)
	}
	return entries
}

// photoURL maps a stored photo key to the URL clients fetch it from.
// Unresolvable keys yield nil.
func (s *LedgerService) photoURL(ctx context.Context, key *string) *string {
	if key == nil || *key == "" || s.photos == nil {
		return nil
	}
	url, err := s.photos.URL(ctx, *key)
	if err != nil {
		s.logger.WithError(err).WithField("key", *key).Warn("Failed to resolve photo URL")
		return nil
	}
	return &url
}

// issuePass stores the QR image. A failure leaves the committed entry without a pass.
func (s *LedgerService) issuePass(ctx context.Context, t qrtoken.Token) string {
	if s.passes == nil {
		return ""
	}
	url, err := s.passes.Issue(ctx, t)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"tag":      t.Tag(),
			"entry_id": t.EntryID(),
			"error":    err.Error(),
		}).Error("Failed to issue QR pass")
		return ""
	}
	return url
}

// ParseMileage parses an odometer reading given as decimal text
func ParseMileage(field, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, invalid(field, "mileage is required")
	}
	m, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, invalid(field, "mileage must be a whole number")
	}
	if m < 0 {
		return 0, invalid(field, "mileage must not be negative")
	}
	return m, nil
}

type textField struct {
	name  string
	value string
}

// requireText checks trimmed fields are present and free of the QR delimiter
func requireText(fields ...textField) error {
	for _, f := range fields {
		if f.value == "" {
			return invalid(f.name, "%s is required", f.name)
		}
		if !validator.IsQRSafe(f.value) {
			return invalid(f.name, "%s must not contain ':'", f.name)
		}
	}
	return nil
}

// dayBounds returns the local calendar day containing t as [start, end)
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// IsNotFound reports whether err means the entry or account does not exist in the wanted state
func IsNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
