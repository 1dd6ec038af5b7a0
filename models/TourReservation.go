package models

import (
	"time"
)

type TourReservation struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	CustomerName  string `json:"customerName" gorm:"column:customer_name;size:120;not null"`
	CustomerEmail string `json:"customerEmail" gorm:"column:customer_email;size:160;not null"`
	CustomerNotes string `json:"customerNotes" gorm:"column:customer_notes;type:text"`

	TourSlug string    `json:"tourSlug" gorm:"size:120;index"`
	Location string    `json:"location" gorm:"size:120;index"`
	Date     time.Time `json:"date"` // service date, day precision
	People   int       `json:"people"`
	Locale   string    `json:"locale" gorm:"size:8"` // "es" or "en"

	// Status is nullable: rows created before the reception workflow
	// existed carry NULL, which the workflow reads as "pending".
	Status      *string    `json:"status" gorm:"size:24;index"`
	AdminNotes  string     `json:"adminNotes" gorm:"type:text"`
	ConfirmedAt *time.Time `json:"confirmedAt"`
	CancelledAt *time.Time `json:"cancelledAt"`

	// Delivery tracking, owned by the mailer.
	EmailStatus    string `json:"emailStatus" gorm:"size:16;index"` // "pending", "sent", "failed"
	EmailAttempts  int    `json:"emailAttempts"`
	EmailLastError string `json:"emailLastError" gorm:"type:text"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
