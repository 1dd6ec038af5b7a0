package services

import (
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pascal1010100/nomada-fantasma-sub001/models"
)

// Request kinds. Each kind owns its own table; the workflow treats
// them uniformly.
const (
	KindTour    = "tour"
	KindShuttle = "shuttle"
)

// Request lifecycle statuses. A NULL status on a stored row reads as
// StatusPending.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusConfirmed  = "confirmed"
	StatusCancelled  = "cancelled"
	StatusCompleted  = "completed"
)

// allowedTransitions is the full transition graph. Cancelled and
// completed are terminal. This is reception policy, kept as data so it
// can change without touching the engine.
var allowedTransitions = map[string][]string{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusCompleted, StatusCancelled},
	StatusCancelled:  {},
	StatusCompleted:  {},
}

// noteRequired lists target statuses that demand an operator note.
var noteRequired = map[string]bool{
	StatusConfirmed: true,
	StatusCancelled: true,
	StatusCompleted: true,
}

const maxNoteLength = 2000

// error kinds for the workflow and aggregator, mapped to HTTP status
// codes at the route layer.
const (
	ErrValidation = "validation"
	ErrNotFound   = "not_found"
	ErrConflict   = "conflict"
	ErrInternal   = "internal"
)

type WorkflowError struct {
	Kind    string
	Message string
}

func (e *WorkflowError) Error() string {
	return e.Kind + ": " + e.Message
}

func validationError(format string, args ...interface{}) *WorkflowError {
	return &WorkflowError{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func conflictError(format string, args ...interface{}) *WorkflowError {
	return &WorkflowError{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// RequestSnapshot is the slice of a request row the workflow reads
// before writing, and restores if the audit insert fails.
type RequestSnapshot struct {
	ID          uint
	Status      *string
	AdminNotes  string
	ConfirmedAt *time.Time
	CancelledAt *time.Time
}

// TransitionStore is the storage surface the workflow needs: a point
// read, a conditional write guarded by the previously read status, a
// restore for the compensating path, and the audit insert.
type TransitionStore interface {
	GetRequest(kind string, id uint) (*RequestSnapshot, error)
	// UpdateRequestIfStatus applies fields only where the stored status
	// still equals expected (NULL counts as pending). Returns the number
	// of rows affected; zero means another writer won the race.
	UpdateRequestIfStatus(kind string, id uint, expected string, fields map[string]interface{}) (int64, error)
	RestoreRequest(kind string, id uint, snap *RequestSnapshot) error
	InsertTransition(tr *models.StatusTransition) error
}

// ErrRequestNotFound is returned by TransitionStore.GetRequest when no
// row exists for the kind and id.
var ErrRequestNotFound = fmt.Errorf("request not found")

// Workflow applies status transitions to tour and shuttle requests with
// optimistic concurrency and an append-only audit trail.
type Workflow struct {
	store TransitionStore
	now   func() time.Time
}

func NewWorkflow(store TransitionStore) *Workflow {
	return &Workflow{store: store, now: time.Now}
}

type TransitionResult struct {
	ID     uint   `json:"id"`
	Status string `json:"status"`
}

// NormalizeStatus maps a stored status pointer to its effective value.
// Rows written before the workflow existed carry NULL or "", both of
// which mean pending.
func NormalizeStatus(status *string) string {
	if status == nil || *status == "" {
		return StatusPending
	}
	return *status
}

func validStatus(s string) bool {
	_, ok := allowedTransitions[s]
	return ok
}

func transitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ApplyTransition moves one request along the lifecycle graph.
//
// expected is the status the operator saw when deciding; if the stored
// status differs, or the guarded write hits zero rows, the call fails
// with a conflict and the operator must reload. The engine never
// retries on its own: a transition is not idempotent and a lost
// response could mean the first attempt already landed.
func (w *Workflow) ApplyTransition(kind string, id uint, expected, next, note, actor string) (*TransitionResult, error) {
	if kind != KindTour && kind != KindShuttle {
		return nil, validationError("unknown request kind %q", kind)
	}
	if id == 0 {
		return nil, validationError("request id is required")
	}
	if !validStatus(expected) {
		return nil, validationError("invalid current status %q", expected)
	}
	if !validStatus(next) {
		return nil, validationError("invalid next status %q", next)
	}

	snap, err := w.store.GetRequest(kind, id)
	if err != nil {
		if err == ErrRequestNotFound {
			return nil, &WorkflowError{Kind: ErrNotFound, Message: fmt.Sprintf("%s request %d not found", kind, id)}
		}
		return nil, &WorkflowError{Kind: ErrInternal, Message: "load request: " + err.Error()}
	}

	current := NormalizeStatus(snap.Status)
	if current != expected {
		return nil, conflictError("request is %q, not %q: reload and retry", current, expected)
	}

	if !transitionAllowed(expected, next) {
		return nil, validationError("transition %s -> %s is not allowed", expected, next)
	}

	note = strings.TrimSpace(note)
	if noteRequired[next] && note == "" {
		return nil, validationError("a note is required when moving a request to %s", next)
	}
	if utf8.RuneCountInString(note) > maxNoteLength {
		return nil, validationError("note exceeds %d characters", maxNoteLength)
	}

	now := w.now()
	fields := map[string]interface{}{"status": next}
	if next == StatusConfirmed {
		fields["confirmed_at"] = now
	}
	if next == StatusCancelled {
		fields["cancelled_at"] = now
	}
	if note != "" {
		line := fmt.Sprintf("[%s] (%s) %s: %s", now.UTC().Format(time.RFC3339), actor, next, note)
		if snap.AdminNotes != "" {
			fields["admin_notes"] = snap.AdminNotes + "\n" + line
		} else {
			fields["admin_notes"] = line
		}
	}

	affected, err := w.store.UpdateRequestIfStatus(kind, id, expected, fields)
	if err != nil {
		return nil, &WorkflowError{Kind: ErrInternal, Message: "update request: " + err.Error()}
	}
	if affected == 0 {
		// Another operator changed the row between our read and write.
		return nil, conflictError("request changed since last read: reload and retry")
	}

	audit := &models.StatusTransition{
		RequestKind: kind,
		RequestID:   id,
		FromStatus:  expected,
		ToStatus:    next,
		Note:        note,
		Actor:       actor,
	}
	if err := w.store.InsertTransition(audit); err != nil {
		// The status update landed but the audit row did not. Roll the
		// request back so the trail never lags reality; if the rollback
		// also fails the row needs manual reconciliation.
		if rbErr := w.store.RestoreRequest(kind, id, snap); rbErr != nil {
			log.Printf("RECONCILE: %s request %d stuck at %s without audit (transition %s -> %s by %s): audit error: %v, rollback error: %v",
				kind, id, next, expected, next, actor, err, rbErr)
			return nil, &WorkflowError{Kind: ErrInternal, Message: "audit write and rollback both failed, request flagged for reconciliation"}
		}
		return nil, &WorkflowError{Kind: ErrInternal, Message: "audit write failed, transition rolled back: " + err.Error()}
	}

	return &TransitionResult{ID: id, Status: next}, nil
}
