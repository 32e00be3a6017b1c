package models

import "time"

// EntryStatus is the lifecycle state of a visitor or vehicle entry
type EntryStatus string

const (
	EntryStatusIn            EntryStatus = "IN"
	EntryStatusOut           EntryStatus = "OUT"
	EntryStatusPreRegistered EntryStatus = "PRE-REGISTERED"
)

// EntryKind distinguishes the two ledgers
type EntryKind string

const (
	EntryKindVisitor EntryKind = "visitor"
	EntryKindVehicle EntryKind = "vehicle"
)

// ParseEntryKind accepts both the singular and the plural route form
func ParseEntryKind(s string) (EntryKind, bool) {
	switch s {
	case "visitor", "visitors":
		return EntryKindVisitor, true
	case "vehicle", "vehicles":
		return EntryKindVehicle, true
	}
	return "", false
}

// VisitorEntry represents one visit recorded at the gate
type VisitorEntry struct {
	ID           int64       `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	Destination  string      `json:"destination" db:"destination"`
	Purpose      string      `json:"purpose" db:"purpose"`
	HostEmployee *string     `json:"host_employee,omitempty" db:"host_employee"`
	Status       EntryStatus `json:"status" db:"status"`
	CheckinTime  time.Time   `json:"checkin_time" db:"checkin_time"`
	CheckoutTime *time.Time  `json:"checkout_time" db:"checkout_time"`
	PhotoPath    *string     `json:"photo_path" db:"photo_path"`
	PhotoURL     *string     `json:"photo_url,omitempty" db:"-"`
}

// VehicleEntry represents one vehicle stay recorded at the gate
type VehicleEntry struct {
	ID           int64       `json:"id" db:"id"`
	DriverName   string      `json:"driver_name" db:"driver_name"`
	PlateNumber  string      `json:"plate_number" db:"plate_number"`
	MileageIn    int64       `json:"mileage_in" db:"mileage_in"`
	MileageOut   *int64      `json:"mileage_out" db:"mileage_out"`
	Status       EntryStatus `json:"status" db:"status"`
	CheckinTime  time.Time   `json:"checkin_time" db:"checkin_time"`
	CheckoutTime *time.Time  `json:"checkout_time" db:"checkout_time"`
	PhotoPath    *string     `json:"photo_path" db:"photo_path"`
	PhotoURL     *string     `json:"photo_url,omitempty" db:"-"`
}

// VisitorCheckIn holds the validated fields of a visitor check-in
type VisitorCheckIn struct {
	Name        string
	Destination string
	Purpose     string
}

// VehicleCheckIn holds the validated fields of a vehicle check-in
type VehicleCheckIn struct {
	DriverName  string
	PlateNumber string
	MileageIn   int64
}

// PreRegistration holds the validated fields of a visitor pre-registration
type PreRegistration struct {
	Name         string
	Destination  string
	Purpose      string
	EmployeeName string
}
