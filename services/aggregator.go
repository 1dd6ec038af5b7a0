package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/pascal1010100/nomada-fantasma-sub001/models"
)

// Request is the canonical reception-desk view of a booking, whatever
// kind or historical shape it came from.
type Request struct {
	Kind           string     `json:"kind"`
	ID             uint       `json:"id"`
	Status         string     `json:"status"`
	CustomerName   string     `json:"customerName"`
	CustomerEmail  string     `json:"customerEmail"`
	Date           time.Time  `json:"date"`
	Details        string     `json:"details"`
	AdminNotes     string     `json:"adminNotes"`
	ConfirmedAt    *time.Time `json:"confirmedAt"`
	CancelledAt    *time.Time `json:"cancelledAt"`
	EmailStatus    string     `json:"emailStatus"`
	EmailAttempts  int        `json:"emailAttempts"`
	EmailLastError string     `json:"emailLastError"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type RequestSummary struct {
	Total       int `json:"total"`
	Tours       int `json:"tours"`
	Shuttles    int `json:"shuttles"`
	EmailFailed int `json:"emailFailed"`
}

type RequestList struct {
	Summary RequestSummary `json:"summary"`
	Items   []Request      `json:"items"`
}

// AggregatorStore is the read surface of the dashboard. Tour reads come
// in two shapes: the modern one is attempted first and the legacy one
// only after the modern query is rejected by the database.
type AggregatorStore interface {
	RecentTourReservations(location string, limit int) ([]models.TourReservation, error)
	RecentTourReservationsLegacy(location string, limit int) ([]LegacyTourRow, error)
	RecentShuttleBookings(location string, limit int) ([]models.ShuttleBooking, error)
}

const (
	DefaultListLimit = 50
	maxListLimit     = 200
)

// ClampLimit normalizes a caller-supplied page size to [1, 200].
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// Aggregator merges recent tour and shuttle requests for the reception
// dashboard. Read-only; slightly stale data is fine here, unlike the
// workflow which always reads storage directly.
type Aggregator struct {
	store    AggregatorStore
	location string
}

func NewAggregator(store AggregatorStore, location string) *Aggregator {
	return &Aggregator{store: store, location: location}
}

// ListRecentRequests returns up to limit requests of each kind, merged
// newest first, with summary counts. Any storage failure fails the
// whole call: the desk must never see one kind's data presented as the
// full picture.
func (a *Aggregator) ListRecentRequests(limit int) (*RequestList, error) {
	limit = ClampLimit(limit)

	shuttles, err := a.store.RecentShuttleBookings(a.location, limit)
	if err != nil {
		return nil, fmt.Errorf("list shuttle bookings: %w", err)
	}

	items := make([]Request, 0, limit*2)
	for _, b := range shuttles {
		items = append(items, normalizeShuttle(b))
	}

	tours, err := a.store.RecentTourReservations(a.location, limit)
	if err != nil {
		// Schema migration safety net: retry with the legacy column
		// names before giving up.
		legacy, legacyErr := a.store.RecentTourReservationsLegacy(a.location, limit)
		if legacyErr != nil {
			return nil, fmt.Errorf("list tour reservations: %w (legacy retry: %v)", err, legacyErr)
		}
		for _, r := range legacy {
			items = append(items, normalizeLegacyTour(r))
		}
	} else {
		for _, r := range tours {
			items = append(items, normalizeTour(r))
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	summary := RequestSummary{Total: len(items)}
	for _, it := range items {
		switch it.Kind {
		case KindTour:
			summary.Tours++
		case KindShuttle:
			summary.Shuttles++
		}
		if it.EmailStatus == "failed" {
			summary.EmailFailed++
		}
	}

	return &RequestList{Summary: summary, Items: items}, nil
}

func normalizeTour(r models.TourReservation) Request {
	return Request{
		Kind:           KindTour,
		ID:             r.ID,
		Status:         NormalizeStatus(r.Status),
		CustomerName:   r.CustomerName,
		CustomerEmail:  r.CustomerEmail,
		Date:           r.Date,
		Details:        tourDetails(r.TourSlug, r.People, r.CustomerNotes),
		AdminNotes:     r.AdminNotes,
		ConfirmedAt:    r.ConfirmedAt,
		CancelledAt:    r.CancelledAt,
		EmailStatus:    r.EmailStatus,
		EmailAttempts:  r.EmailAttempts,
		EmailLastError: r.EmailLastError,
		CreatedAt:      r.CreatedAt,
	}
}

func normalizeLegacyTour(r LegacyTourRow) Request {
	return Request{
		Kind:           KindTour,
		ID:             r.ID,
		Status:         NormalizeStatus(r.Status),
		CustomerName:   r.FullName,
		CustomerEmail:  r.Email,
		Date:           r.Date,
		Details:        tourDetails(r.TourSlug, r.People, r.Notes),
		AdminNotes:     r.AdminNotes,
		ConfirmedAt:    r.ConfirmedAt,
		CancelledAt:    r.CancelledAt,
		EmailStatus:    r.EmailStatus,
		EmailAttempts:  r.EmailAttempts,
		EmailLastError: r.EmailLastError,
		CreatedAt:      r.CreatedAt,
	}
}

func normalizeShuttle(b models.ShuttleBooking) Request {
	details := fmt.Sprintf("Shuttle %s, %d pasajeros", b.Route, b.Passengers)
	if b.Pickup != "" || b.Dropoff != "" {
		details += fmt.Sprintf(" (%s a %s)", b.Pickup, b.Dropoff)
	}
	if b.CustomerNotes != "" {
		details += " / " + b.CustomerNotes
	}
	return Request{
		Kind:           KindShuttle,
		ID:             b.ID,
		Status:         NormalizeStatus(b.Status),
		CustomerName:   b.CustomerName,
		CustomerEmail:  b.CustomerEmail,
		Date:           b.Date,
		Details:        details,
		AdminNotes:     b.AdminNotes,
		ConfirmedAt:    b.ConfirmedAt,
		CancelledAt:    b.CancelledAt,
		EmailStatus:    b.EmailStatus,
		EmailAttempts:  b.EmailAttempts,
		EmailLastError: b.EmailLastError,
		CreatedAt:      b.CreatedAt,
	}
}

func tourDetails(slug string, people int, notes string) string {
	details := fmt.Sprintf("Tour %s, %d personas", slug, people)
	if notes != "" {
		details += " / " + notes
	}
	return details
}
