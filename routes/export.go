package routes

import (
	"encoding/csv"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/kataras/iris/v12"

	"github.com/pascal1010100/nomada-fantasma-sub001/services"
	"github.com/pascal1010100/nomada-fantasma-sub001/utils"
)

// GET /api/recepcion/export?kind=tour|shuttle|all&limit=
//
// Streams the merged request list as CSV for the desk's spreadsheet
// workflow. Same aggregator as the dashboard, so the same clamp and
// all-or-nothing error behavior apply.
func ReceptionExport(ctx iris.Context) {
	kind := ctx.URLParamDefault("kind", "all")
	if kind != "all" && kind != services.KindTour && kind != services.KindShuttle {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_kind", "kind must be tour, shuttle or all")
		return
	}
	limit := services.ClampLimit(ctx.URLParamIntDefault("limit", services.DefaultListLimit))

	list, err := newAggregator().ListRecentRequests(limit)
	if err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="solicitudes-`+time.Now().Format("2006-01-02")+`.csv"`)
	ctx.ContentType("text/csv")

	// Headers are already sent, so a mid-stream failure can only be
	// logged; the client sees a truncated file.
	if err := writeRequestsCSV(ctx.ResponseWriter(), list.Items, kind); err != nil {
		log.Printf("csv export truncated after headers: %v", err)
	}
}

func writeRequestsCSV(out io.Writer, items []services.Request, kind string) error {
	w := csv.NewWriter(out)
	w.Write([]string{"kind", "id", "status", "customer_name", "customer_email", "date", "details", "email_status", "created_at"})
	for _, item := range items {
		if kind != "all" && item.Kind != kind {
			continue
		}
		w.Write([]string{
			item.Kind,
			strconv.FormatUint(uint64(item.ID), 10),
			item.Status,
			item.CustomerName,
			item.CustomerEmail,
			item.Date.Format("2006-01-02"),
			item.Details,
			item.EmailStatus,
			item.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	return w.Error()
}
