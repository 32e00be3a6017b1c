package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bdlgate/gatepass-backend/internal/database"
	"github.com/bdlgate/gatepass-backend/internal/models"
)

// memoryVisitors mirrors the visitors table rules in memory
type memoryVisitors struct {
	mu      sync.Mutex
	entries []models.VisitorEntry
}

func (m *memoryVisitors) CheckIn(_ context.Context, in models.VisitorCheckIn, now time.Time) (*models.VisitorEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := models.VisitorEntry{
		ID: int64(len(m.entries) + 1), Name: in.Name, Destination: in.Destination, Purpose: in.Purpose,
		Status: models.EntryStatusIn, CheckinTime: now,
	}
	m.entries = append(m.entries, e)
	return &e, nil
}

func (m *memoryVisitors) CheckOutByName(_ context.Context, name string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	best := -1
	for i, e := range m.entries {
		if e.Status != models.EntryStatusIn || !strings.EqualFold(e.Name, name) {
			continue
		}
		if best < 0 || e.CheckinTime.After(m.entries[best].CheckinTime) ||
			(e.CheckinTime.Equal(m.entries[best].CheckinTime) && e.ID > m.entries[best].ID) {
			best = i
		}
	}
	if best < 0 {
		return 0, database.ErrNotFound
	}
	m.checkOut(best, now)
	return m.entries[best].ID, nil
}

func (m *memoryVisitors) CheckOutByID(_ context.Context, id int64, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.ID == id && e.Status == models.EntryStatusIn {
			m.checkOut(i, now)
			return nil
		}
	}
	return database.ErrNotFound
}

func (m *memoryVisitors) checkOut(i int, now time.Time) {
	t := now
	m.entries[i].Status = models.EntryStatusOut
	m.entries[i].CheckoutTime = &t
}

func (m *memoryVisitors) PreRegister(_ context.Context, p models.PreRegistration, now, dayStart, dayEnd time.Time) (*models.VisitorEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.Status == models.EntryStatusPreRegistered && e.Name == p.Name && e.Destination == p.Destination &&
			!e.CheckinTime.Before(dayStart) && e.CheckinTime.Before(dayEnd) {
			return nil, database.ErrAlreadyPreRegistered
		}
	}
	host := p.EmployeeName
	e := models.VisitorEntry{
		ID: int64(len(m.entries) + 1), Name: p.Name, Destination: p.Destination, Purpose: p.Purpose,
		HostEmployee: &host, Status: models.EntryStatusPreRegistered, CheckinTime: now,
	}
	m.entries = append(m.entries, e)
	return &e, nil
}

func (m *memoryVisitors) ConfirmPreRegistration(_ context.Context, id int64, now time.Time) (*models.VisitorEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.ID == id && e.Status == models.EntryStatusPreRegistered {
			m.entries[i].Status = models.EntryStatusIn
			m.entries[i].CheckinTime = now
			out := m.entries[i]
			return &out, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memoryVisitors) GetByID(_ context.Context, id int64) (*models.VisitorEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			out := e
			return &out, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memoryVisitors) List(_ context.Context) ([]models.VisitorEntry, error) {
	return m.filter(func(models.VisitorEntry) bool { return true }), nil
}

func (m *memoryVisitors) SearchByName(_ context.Context, term string) ([]models.VisitorEntry, error) {
	term = strings.ToLower(term)
	return m.filter(func(e models.VisitorEntry) bool {
		return strings.Contains(strings.ToLower(e.Name), term)
	}), nil
}

func (m *memoryVisitors) SetPhotoPath(_ context.Context, id int64, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.ID == id {
			p := path
			m.entries[i].PhotoPath = &p
			return nil
		}
	}
	return database.ErrNotFound
}

func (m *memoryVisitors) filter(keep func(models.VisitorEntry) bool) []models.VisitorEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.VisitorEntry{}
	for _, e := range m.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CheckinTime.Equal(out[j].CheckinTime) {
			return out[i].CheckinTime.After(out[j].CheckinTime)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// memoryVehicles mirrors the vehicles table rules in memory
type memoryVehicles struct {
	mu      sync.Mutex
	entries []models.VehicleEntry
}

func (m *memoryVehicles) CheckIn(_ context.Context, in models.VehicleCheckIn, now time.Time) (*models.VehicleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.PlateNumber == in.PlateNumber && e.Status == models.EntryStatusIn {
			return nil, database.ErrAlreadyCheckedIn
		}
	}
	e := models.VehicleEntry{
		ID: int64(len(m.entries) + 1), DriverName: in.DriverName, PlateNumber: in.PlateNumber,
		MileageIn: in.MileageIn, Status: models.EntryStatusIn, CheckinTime: now,
	}
	m.entries = append(m.entries, e)
	return &e, nil
}

func (m *memoryVehicles) CheckOutByPlate(_ context.Context, plate string, mileageOut *int64, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].PlateNumber == plate && m.entries[i].Status == models.EntryStatusIn {
			m.checkOut(i, mileageOut, now)
			return m.entries[i].ID, nil
		}
	}
	return 0, database.ErrNotFound
}

func (m *memoryVehicles) CheckOutByID(_ context.Context, id int64, mileageOut *int64, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.ID == id && e.Status == models.EntryStatusIn {
			m.checkOut(i, mileageOut, now)
			return nil
		}
	}
	return database.ErrNotFound
}

func (m *memoryVehicles) checkOut(i int, mileageOut *int64, now time.Time) {
	t := now
	m.entries[i].Status = models.EntryStatusOut
	m.entries[i].CheckoutTime = &t
	if mileageOut != nil {
		v := *mileageOut
		m.entries[i].MileageOut = &v
	}
}

func (m *memoryVehicles) GetByID(_ context.Context, id int64) (*models.VehicleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			out := e
			return &out, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memoryVehicles) List(_ context.Context) ([]models.VehicleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.VehicleEntry, 0, len(m.entries))
	for i := len(m.entries) - 1; i >= 0; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *memoryVehicles) SearchByPlate(ctx context.Context, term string) ([]models.VehicleEntry, error) {
	all, _ := m.List(ctx)
	out := []models.VehicleEntry{}
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.PlateNumber), strings.ToLower(term)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryVehicles) SetPhotoPath(_ context.Context, id int64, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.ID == id {
			p := path
			m.entries[i].PhotoPath = &p
			return nil
		}
	}
	return database.ErrNotFound
}
