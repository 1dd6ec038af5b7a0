package models

import (
	"time"

	"gorm.io/datatypes"
)

type ShuttleBooking struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	CustomerName  string `json:"customerName" gorm:"column:customer_name;size:120;not null"`
	CustomerEmail string `json:"customerEmail" gorm:"column:customer_email;size:160;not null"`
	CustomerNotes string `json:"customerNotes" gorm:"column:customer_notes;type:text"`

	Route      string         `json:"route" gorm:"size:160;not null"`
	Pickup     string         `json:"pickup" gorm:"size:160"`
	Dropoff    string         `json:"dropoff" gorm:"size:160"`
	Stops      datatypes.JSON `json:"stops" gorm:"type:jsonb"` // intermediate stops, ordered
	Location   string         `json:"location" gorm:"size:120;index"`
	Date       time.Time      `json:"date"` // travel date, day precision
	Passengers int            `json:"passengers"`
	Locale     string         `json:"locale" gorm:"size:8"`

	// Nullable for the same reason as TourReservation.Status.
	Status      *string    `json:"status" gorm:"size:24;index"`
	AdminNotes  string     `json:"adminNotes" gorm:"type:text"`
	ConfirmedAt *time.Time `json:"confirmedAt"`
	CancelledAt *time.Time `json:"cancelledAt"`

	EmailStatus    string `json:"emailStatus" gorm:"size:16;index"`
	EmailAttempts  int    `json:"emailAttempts"`
	EmailLastError string `json:"emailLastError" gorm:"type:text"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
