package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/kataras/iris/v12"

	"github.com/pascal1010100/nomada-fantasma-sub001/services"
	"github.com/pascal1010100/nomada-fantasma-sub001/storage"
	"github.com/pascal1010100/nomada-fantasma-sub001/utils"
)

// Factories behind the reception handlers. Overridable so tests can
// run the handlers against in-memory stores.
var newWorkflow = func() *services.Workflow {
	return services.NewWorkflow(services.NewGormStore(storage.DB))
}

var newAggregator = func() *services.Aggregator {
	return services.NewAggregator(services.NewGormStore(storage.DB), os.Getenv("RECEPTION_LOCATION"))
}

var newStatsStore = func() services.StatsStore {
	return services.NewGormStore(storage.DB)
}

const requestsCacheTTL = 15 * time.Second

// GET /api/recepcion/requests?limit=
func ReceptionListRequests(ctx iris.Context) {
	limit := services.ClampLimit(ctx.URLParamIntDefault("limit", services.DefaultListLimit))

	if cached, ok := requestsCacheGet(limit); ok {
		ctx.ContentType("application/json")
		ctx.Write(cached)
		return
	}

	list, err := newAggregator().ListRecentRequests(limit)
	if err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	body, err := json.Marshal(iris.Map{
		"success": true,
		"summary": list.Summary,
		"items":   list.Items,
	})
	if err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	requestsCacheSet(limit, body)

	ctx.ContentType("application/json")
	ctx.Write(body)
}

type transitionRequest struct {
	Kind          string `json:"kind"`
	ID            uint   `json:"id"`
	CurrentStatus string `json:"currentStatus"`
	NextStatus    string `json:"nextStatus"`
	Note          string `json:"note"`
}

// POST /api/recepcion/requests/transition
func ReceptionTransition(ctx iris.Context) {
	var body transitionRequest
	if err := ctx.ReadJSON(&body); err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_payload", "malformed request body")
		return
	}
	actor := utils.OperatorFrom(ctx)

	result, err := newWorkflow().ApplyTransition(body.Kind, body.ID, body.CurrentStatus, body.NextStatus, body.Note, actor)
	if err != nil {
		code, status := workflowHTTPStatus(err)
		utils.JSONError(ctx, status, code, err.Error())
		return
	}

	requestsCacheInvalidate()
	ctx.JSON(iris.Map{"success": true, "data": result})
}

// GET /api/recepcion/stats
//
// Like the dashboard list, all-or-nothing: a failing count returns 500
// instead of quietly reporting zero.
func ReceptionStats(ctx iris.Context) {
	store := newStatsStore()
	since7 := time.Now().AddDate(0, 0, -7)
	since30 := time.Now().AddDate(0, 0, -30)

	counts := make(map[string]int64, 4)
	reads := []struct {
		key  string
		read func() (int64, error)
	}{
		{"pending_tours", func() (int64, error) { return store.PendingCount(services.KindTour) }},
		{"pending_shuttles", func() (int64, error) { return store.PendingCount(services.KindShuttle) }},
		{"tours_7d", func() (int64, error) { return store.CreatedSince(services.KindTour, since7) }},
		{"tours_30d", func() (int64, error) { return store.CreatedSince(services.KindTour, since30) }},
		{"shuttles_7d", func() (int64, error) { return store.CreatedSince(services.KindShuttle, since7) }},
		{"shuttles_30d", func() (int64, error) { return store.CreatedSince(services.KindShuttle, since30) }},
	}
	for _, r := range reads {
		n, err := r.read()
		if err != nil {
			utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
			return
		}
		counts[r.key] = n
	}

	ctx.JSON(iris.Map{
		"data": iris.Map{
			"pending_tours":    counts["pending_tours"],
			"pending_shuttles": counts["pending_shuttles"],
			"new_requests_7d":  counts["tours_7d"] + counts["shuttles_7d"],
			"new_requests_30d": counts["tours_30d"] + counts["shuttles_30d"],
		},
		"meta":  iris.Map{},
		"links": iris.Map{},
	})
}

const activityPageSize = 100

// GET /api/recepcion/activity
func ReceptionActivity(ctx iris.Context) {
	transitions, err := newStatsStore().RecentTransitions(activityPageSize)
	if err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	utils.JSONPage(ctx, transitions, 1, activityPageSize, int64(len(transitions)))
}

func workflowHTTPStatus(err error) (string, int) {
	var werr *services.WorkflowError
	if errors.As(err, &werr) {
		switch werr.Kind {
		case services.ErrValidation:
			return werr.Kind, http.StatusBadRequest
		case services.ErrNotFound:
			return werr.Kind, http.StatusNotFound
		case services.ErrConflict:
			return werr.Kind, http.StatusConflict
		}
	}
	return services.ErrInternal, http.StatusInternalServerError
}

// The dashboard list is cached briefly in Redis (stale reads are fine
// for the desk view). Keys carry a version that transitions bump, so a
// fresh fetch right after a status change sees the new state.
func requestsCacheKey(limit int) string {
	ver := "0"
	if v, err := storage.Redis.Get(context.Background(), "recepcion:requests:ver").Result(); err == nil {
		ver = v
	}
	return "recepcion:requests:v" + ver + ":l" + strconv.Itoa(limit)
}

func requestsCacheGet(limit int) ([]byte, bool) {
	if storage.Redis == nil {
		return nil, false
	}
	body, err := storage.Redis.Get(context.Background(), requestsCacheKey(limit)).Bytes()
	if err != nil {
		return nil, false
	}
	return body, true
}

func requestsCacheSet(limit int, body []byte) {
	if storage.Redis == nil {
		return
	}
	storage.Redis.Set(context.Background(), requestsCacheKey(limit), body, requestsCacheTTL)
}

func requestsCacheInvalidate() {
	if storage.Redis == nil {
		return
	}
	storage.Redis.Incr(context.Background(), "recepcion:requests:ver")
}
