package models

import (
	"time"
)

// StatusTransition is the append-only audit trail of the reception
// workflow. Rows are inserted by the workflow engine right after a
// status update lands and are never updated or deleted.
type StatusTransition struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RequestKind string    `json:"requestKind" gorm:"size:16;index;not null"` // "tour" or "shuttle"
	RequestID   uint      `json:"requestID" gorm:"index;not null"`
	FromStatus  string    `json:"fromStatus" gorm:"size:24;not null"`
	ToStatus    string    `json:"toStatus" gorm:"size:24;not null"`
	Note        string    `json:"note" gorm:"type:text"`
	Actor       string    `json:"actor" gorm:"size:80"`
	CreatedAt   time.Time `json:"createdAt"`
}
