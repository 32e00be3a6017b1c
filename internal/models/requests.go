package models

import "encoding/json"

// Fields that end up inside a QR payload carry the qrsafe tag: the payload
// format has no escaping, so the delimiter is rejected at the boundary.

// ActionRequest is decoded first to pick the per-action request type
type ActionRequest struct {
	Action string `json:"action" binding:"required,oneof=checkin checkout"`
}

// VisitorCheckInRequest is the body of POST /visitors with action=checkin
type VisitorCheckInRequest struct {
	Name        string `json:"name" binding:"required,max=120,qrsafe"`
	Destination string `json:"destination" binding:"required,max=120,qrsafe"`
	Purpose     string `json:"purpose" binding:"required,max=255,qrsafe"`
}

// CheckOutRequest is the body of POST /visitors with action=checkout
type CheckOutRequest struct {
	Identifier string `json:"identifier" binding:"required"`
}

// VehicleCheckInRequest is the body of POST /vehicles with action=checkin.
// Mileage accepts both JSON numbers and numeric strings.
type VehicleCheckInRequest struct {
	Driver    string      `json:"driver" binding:"required,max=120,qrsafe"`
	Plate     string      `json:"plate" binding:"required,max=20,qrsafe"`
	MileageIn json.Number `json:"m_in" binding:"required"`
}

// VehicleCheckOutRequest is the body of POST /vehicles with action=checkout
type VehicleCheckOutRequest struct {
	Identifier string      `json:"identifier" binding:"required"`
	MileageOut json.Number `json:"m_out"`
}

// PreRegisterRequest is the body of POST /pre-register
type PreRegisterRequest struct {
	Name         string `json:"name" binding:"required,max=120,qrsafe"`
	Destination  string `json:"destination" binding:"required,max=120,qrsafe"`
	Purpose      string `json:"purpose" binding:"required,max=255,qrsafe"`
	EmployeeName string `json:"employee_name" binding:"required,max=120,qrsafe"`
}

// ConfirmPreRegistrationRequest accepts either the scanned QR text or the visitor id
type ConfirmPreRegistrationRequest struct {
	QRData    string `json:"qr_data"`
	VisitorID int64  `json:"visitor_id"`
}

// QRScanRequest is the body of POST /qr/scan
type QRScanRequest struct {
	QRData string `json:"qr_data" binding:"required"`
}

// PhotoUploadRequest is the body of POST /photos
type PhotoUploadRequest struct {
	Photo string `json:"photo" binding:"required"`
	Type  string `json:"type" binding:"required,oneof=visitor vehicle"`
	ID    int64  `json:"id" binding:"required,gt=0"`
}
