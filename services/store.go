package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/pascal1010100/nomada-fantasma-sub001/models"
)

// GormStore implements TransitionStore and AggregatorStore on the
// shared Postgres connection. Both request kinds map to their own
// table; kind switching stays in here so the engine never sees gorm.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) model(kind string) *gorm.DB {
	if kind == KindShuttle {
		return s.db.Model(&models.ShuttleBooking{})
	}
	return s.db.Model(&models.TourReservation{})
}

func (s *GormStore) GetRequest(kind string, id uint) (*RequestSnapshot, error) {
	if kind == KindShuttle {
		var b models.ShuttleBooking
		if err := s.db.First(&b, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, ErrRequestNotFound
			}
			return nil, err
		}
		return &RequestSnapshot{ID: b.ID, Status: b.Status, AdminNotes: b.AdminNotes, ConfirmedAt: b.ConfirmedAt, CancelledAt: b.CancelledAt}, nil
	}
	var r models.TourReservation
	if err := s.db.First(&r, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &RequestSnapshot{ID: r.ID, Status: r.Status, AdminNotes: r.AdminNotes, ConfirmedAt: r.ConfirmedAt, CancelledAt: r.CancelledAt}, nil
}

// UpdateRequestIfStatus is the compare-and-swap: the WHERE clause pins
// the row to the status read earlier, so a concurrent transition makes
// this affect zero rows instead of overwriting it.
func (s *GormStore) UpdateRequestIfStatus(kind string, id uint, expected string, fields map[string]interface{}) (int64, error) {
	q := s.model(kind).Where("id = ?", id)
	if expected == StatusPending {
		// Legacy rows store NULL or '' for pending.
		q = q.Where("status = ? OR status IS NULL OR status = ''", expected)
	} else {
		q = q.Where("status = ?", expected)
	}
	res := q.Updates(fields)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// RestoreRequest is the compensating write for a failed audit insert.
// It is guarded only by id: at this point the row holds our own
// half-applied transition and must go back to the snapshot.
func (s *GormStore) RestoreRequest(kind string, id uint, snap *RequestSnapshot) error {
	fields := map[string]interface{}{
		"status":       snap.Status,
		"admin_notes":  snap.AdminNotes,
		"confirmed_at": snap.ConfirmedAt,
		"cancelled_at": snap.CancelledAt,
	}
	return s.model(kind).Where("id = ?", id).Updates(fields).Error
}

func (s *GormStore) InsertTransition(tr *models.StatusTransition) error {
	return s.db.Create(tr).Error
}

// StatsStore is the read surface of the reception stats and activity
// endpoints.
type StatsStore interface {
	PendingCount(kind string) (int64, error)
	CreatedSince(kind string, since time.Time) (int64, error)
	RecentTransitions(limit int) ([]models.StatusTransition, error)
}

func (s *GormStore) PendingCount(kind string) (int64, error) {
	var n int64
	err := s.model(kind).
		Where("status = ? OR status IS NULL OR status = ''", StatusPending).
		Count(&n).Error
	return n, err
}

func (s *GormStore) CreatedSince(kind string, since time.Time) (int64, error) {
	var n int64
	err := s.model(kind).Where("created_at >= ?", since).Count(&n).Error
	return n, err
}

func (s *GormStore) RecentTransitions(limit int) ([]models.StatusTransition, error) {
	var transitions []models.StatusTransition
	err := s.db.Order("created_at DESC").Limit(limit).Find(&transitions).Error
	return transitions, err
}

// --- aggregator reads ---

// modern tour reservation columns, selected explicitly so a database
// still on the legacy schema errors instead of silently returning
// zero values.
const tourModernColumns = "id, customer_name, customer_email, customer_notes, tour_slug, location, date, people, status, admin_notes, confirmed_at, cancelled_at, email_status, email_attempts, email_last_error, created_at"

// LegacyTourRow is the pre-migration shape of tour_reservations.
type LegacyTourRow struct {
	ID             uint
	FullName       string
	Email          string
	Notes          string
	TourSlug       string
	Date           time.Time
	People         int
	Status         *string
	AdminNotes     string
	ConfirmedAt    *time.Time
	CancelledAt    *time.Time
	EmailStatus    string
	EmailAttempts  int
	EmailLastError string
	CreatedAt      time.Time
}

func (s *GormStore) RecentTourReservations(location string, limit int) ([]models.TourReservation, error) {
	var rows []models.TourReservation
	q := s.db.Model(&models.TourReservation{}).Select(tourModernColumns)
	if location != "" {
		q = q.Where("location = ?", location)
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (s *GormStore) RecentTourReservationsLegacy(location string, limit int) ([]LegacyTourRow, error) {
	var rows []LegacyTourRow
	q := s.db.Table("tour_reservations").
		Select("id, full_name, email, notes, tour_slug, date, people, status, admin_notes, confirmed_at, cancelled_at, email_status, email_attempts, email_last_error, created_at")
	if location != "" {
		q = q.Where("location = ?", location)
	}
	err := q.Order("created_at DESC").Limit(limit).Scan(&rows).Error
	return rows, err
}

func (s *GormStore) RecentShuttleBookings(location string, limit int) ([]models.ShuttleBooking, error) {
	var rows []models.ShuttleBooking
	q := s.db.Model(&models.ShuttleBooking{})
	if location != "" {
		q = q.Where("location = ?", location)
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
