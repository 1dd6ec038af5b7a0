package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/kataras/iris/v12"

	"github.com/pascal1010100/nomada-fantasma-sub001/models"
	"github.com/pascal1010100/nomada-fantasma-sub001/services"
	"github.com/pascal1010100/nomada-fantasma-sub001/utils"
)

// buildReceptionTestApp creates a minimal Iris app with the reception
// routes behind the admin token middleware.
func buildReceptionTestApp(t *testing.T) *iris.Application {
	t.Helper()
	os.Setenv("ADMIN_TOKEN", "testtoken")

	app := iris.New()
	recepcion := app.Party("/api/recepcion", utils.AdminTokenMiddleware)
	{
		recepcion.Get("/requests", ReceptionListRequests)
		recepcion.Post("/requests/transition", ReceptionTransition)
		recepcion.Get("/stats", ReceptionStats)
		recepcion.Get("/activity", ReceptionActivity)
		recepcion.Get("/export", ReceptionExport)
	}
	if err := app.Build(); err != nil {
		t.Fatalf("build app: %v", err)
	}
	return app
}

// memTransitionStore keeps one request in memory and honors the status
// guard the same way the conditional SQL update does.
type memTransitionStore struct {
	snap        *services.RequestSnapshot
	missing     bool
	transitions []*models.StatusTransition
}

func (m *memTransitionStore) GetRequest(kind string, id uint) (*services.RequestSnapshot, error) {
	if m.missing {
		return nil, services.ErrRequestNotFound
	}
	copied := *m.snap
	return &copied, nil
}

func (m *memTransitionStore) UpdateRequestIfStatus(kind string, id uint, expected string, fields map[string]interface{}) (int64, error) {
	if services.NormalizeStatus(m.snap.Status) != expected {
		return 0, nil
	}
	if s, ok := fields["status"].(string); ok {
		m.snap.Status = &s
	}
	if notes, ok := fields["admin_notes"].(string); ok {
		m.snap.AdminNotes = notes
	}
	return 1, nil
}

func (m *memTransitionStore) RestoreRequest(kind string, id uint, snap *services.RequestSnapshot) error {
	copied := *snap
	m.snap = &copied
	return nil
}

func (m *memTransitionStore) InsertTransition(tr *models.StatusTransition) error {
	m.transitions = append(m.transitions, tr)
	return nil
}

type memListStore struct {
	tours    []models.TourReservation
	shuttles []models.ShuttleBooking
}

func (m *memListStore) RecentTourReservations(location string, limit int) ([]models.TourReservation, error) {
	return m.tours, nil
}

func (m *memListStore) RecentTourReservationsLegacy(location string, limit int) ([]services.LegacyTourRow, error) {
	return nil, nil
}

func (m *memListStore) RecentShuttleBookings(location string, limit int) ([]models.ShuttleBooking, error) {
	return m.shuttles, nil
}

var errTest = errors.New("storage offline")

type fakeStatsStore struct {
	pending     map[string]int64
	created     map[string]int64
	transitions []models.StatusTransition
	err         error
}

func (f *fakeStatsStore) PendingCount(kind string) (int64, error) {
	return f.pending[kind], f.err
}

func (f *fakeStatsStore) CreatedSince(kind string, since time.Time) (int64, error) {
	return f.created[kind], f.err
}

func (f *fakeStatsStore) RecentTransitions(limit int) ([]models.StatusTransition, error) {
	return f.transitions, f.err
}

func overrideStatsStore(t *testing.T, store services.StatsStore) {
	t.Helper()
	prev := newStatsStore
	t.Cleanup(func() { newStatsStore = prev })
	newStatsStore = func() services.StatsStore { return store }
}

func pendingPtr() *string {
	s := services.StatusPending
	return &s
}

func TestReceptionRequiresAdminToken(t *testing.T) {
	app := buildReceptionTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/recepcion/requests", nil)
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/recepcion/requests", nil)
	req2.Header.Set("X-Admin-Token", "wrong")
	resp2 := httptest.NewRecorder()
	app.ServeHTTP(resp2, req2)
	if resp2.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", resp2.Code)
	}
}

func TestReceptionListRequests(t *testing.T) {
	app := buildReceptionTestApp(t)

	prevAggregator := newAggregator
	defer func() { newAggregator = prevAggregator }()
	newAggregator = func() *services.Aggregator {
		return services.NewAggregator(&memListStore{
			tours:    []models.TourReservation{{ID: 1, Status: pendingPtr(), CreatedAt: time.Now()}},
			shuttles: []models.ShuttleBooking{{ID: 2, Status: pendingPtr(), EmailStatus: "failed", CreatedAt: time.Now()}},
		}, "")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/recepcion/requests?limit=10", nil)
	req.Header.Set("X-Admin-Token", "testtoken")
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		Success bool                    `json:"success"`
		Summary services.RequestSummary `json:"summary"`
		Items   []services.Request      `json:"items"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success {
		t.Fatal("expected success true")
	}
	if body.Summary.Total != 2 || body.Summary.Tours != 1 || body.Summary.Shuttles != 1 || body.Summary.EmailFailed != 1 {
		t.Fatalf("unexpected summary: %+v", body.Summary)
	}
	if len(body.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(body.Items))
	}
}

func postTransition(t *testing.T, app *iris.Application, payload string, operator string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/recepcion/requests/transition", strings.NewReader(payload))
	req.Header.Set("X-Admin-Token", "testtoken")
	req.Header.Set("Content-Type", "application/json")
	if operator != "" {
		req.Header.Set("X-Operator", operator)
	}
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func overrideWorkflow(t *testing.T, store services.TransitionStore) {
	t.Helper()
	prev := newWorkflow
	t.Cleanup(func() { newWorkflow = prev })
	newWorkflow = func() *services.Workflow { return services.NewWorkflow(store) }
}

func TestReceptionTransitionSuccess(t *testing.T) {
	app := buildReceptionTestApp(t)
	store := &memTransitionStore{snap: &services.RequestSnapshot{ID: 1, Status: pendingPtr()}}
	overrideWorkflow(t, store)

	resp := postTransition(t, app, `{"kind":"tour","id":1,"currentStatus":"pending","nextStatus":"processing"}`, "marta")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			ID     uint   `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success || body.Data.Status != "processing" {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
	if len(store.transitions) != 1 || store.transitions[0].Actor != "marta" {
		t.Fatalf("expected one audit row by marta, got %+v", store.transitions)
	}
}

func TestReceptionTransitionDefaultsOperator(t *testing.T) {
	app := buildReceptionTestApp(t)
	store := &memTransitionStore{snap: &services.RequestSnapshot{ID: 1, Status: pendingPtr()}}
	overrideWorkflow(t, store)

	resp := postTransition(t, app, `{"kind":"tour","id":1,"currentStatus":"pending","nextStatus":"processing"}`, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if store.transitions[0].Actor != "recepcion" {
		t.Fatalf("expected default operator, got %q", store.transitions[0].Actor)
	}
}

func TestReceptionTransitionErrorStatusCodes(t *testing.T) {
	app := buildReceptionTestApp(t)

	cases := []struct {
		name    string
		store   *memTransitionStore
		payload string
		want    int
	}{
		{
			"validation: illegal edge",
			&memTransitionStore{snap: &services.RequestSnapshot{ID: 1, Status: pendingPtr()}},
			`{"kind":"tour","id":1,"currentStatus":"pending","nextStatus":"completed","note":"x"}`,
			http.StatusBadRequest,
		},
		{
			"validation: missing note",
			&memTransitionStore{snap: &services.RequestSnapshot{ID: 1, Status: pendingPtr()}},
			`{"kind":"tour","id":1,"currentStatus":"pending","nextStatus":"cancelled"}`,
			http.StatusBadRequest,
		},
		{
			"not found",
			&memTransitionStore{missing: true},
			`{"kind":"shuttle","id":99,"currentStatus":"pending","nextStatus":"processing"}`,
			http.StatusNotFound,
		},
		{
			"conflict: stale expected status",
			&memTransitionStore{snap: &services.RequestSnapshot{ID: 1, Status: stringPtr("processing")}},
			`{"kind":"tour","id":1,"currentStatus":"pending","nextStatus":"processing"}`,
			http.StatusConflict,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			overrideWorkflow(t, tc.store)
			resp := postTransition(t, app, tc.payload, "marta")
			if resp.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, resp.Code, resp.Body.String())
			}
		})
	}
}

func stringPtr(s string) *string { return &s }

func getWithToken(t *testing.T, app *iris.Application, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-Admin-Token", "testtoken")
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func TestReceptionStats(t *testing.T) {
	app := buildReceptionTestApp(t)
	overrideStatsStore(t, &fakeStatsStore{
		pending: map[string]int64{services.KindTour: 3, services.KindShuttle: 2},
		created: map[string]int64{services.KindTour: 5, services.KindShuttle: 4},
	})

	resp := getWithToken(t, app, "/api/recepcion/stats")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		Data struct {
			PendingTours    int64 `json:"pending_tours"`
			PendingShuttles int64 `json:"pending_shuttles"`
			New7d           int64 `json:"new_requests_7d"`
			New30d          int64 `json:"new_requests_30d"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data.PendingTours != 3 || body.Data.PendingShuttles != 2 {
		t.Fatalf("unexpected pending counts: %+v", body.Data)
	}
	if body.Data.New7d != 9 || body.Data.New30d != 9 {
		t.Fatalf("unexpected new-request counts: %+v", body.Data)
	}
}

func TestReceptionStatsStorageFailure(t *testing.T) {
	app := buildReceptionTestApp(t)
	overrideStatsStore(t, &fakeStatsStore{err: errTest})

	resp := getWithToken(t, app, "/api/recepcion/stats")
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when a count fails, got %d", resp.Code)
	}
}

func TestReceptionActivity(t *testing.T) {
	app := buildReceptionTestApp(t)
	overrideStatsStore(t, &fakeStatsStore{
		transitions: []models.StatusTransition{
			{ID: 1, RequestKind: "tour", RequestID: 7, FromStatus: "pending", ToStatus: "processing", Actor: "marta"},
		},
	})

	resp := getWithToken(t, app, "/api/recepcion/activity")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		Data []models.StatusTransition `json:"data"`
		Meta utils.PageMeta            `json:"meta"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].Actor != "marta" {
		t.Fatalf("unexpected activity data: %+v", body.Data)
	}
	if body.Meta.Page != 1 || body.Meta.PerPage != 100 || body.Meta.Total != 1 {
		t.Fatalf("unexpected page meta: %+v", body.Meta)
	}
}

func TestReceptionActivityStorageFailure(t *testing.T) {
	app := buildReceptionTestApp(t)
	overrideStatsStore(t, &fakeStatsStore{err: errTest})

	resp := getWithToken(t, app, "/api/recepcion/activity")
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when the activity read fails, got %d", resp.Code)
	}
}
