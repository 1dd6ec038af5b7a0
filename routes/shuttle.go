package routes

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/kataras/iris/v12"
	"gorm.io/datatypes"

	"github.com/pascal1010100/nomada-fantasma-sub001/models"
	"github.com/pascal1010100/nomada-fantasma-sub001/services"
	"github.com/pascal1010100/nomada-fantasma-sub001/storage"
	"github.com/pascal1010100/nomada-fantasma-sub001/utils"
)

type ShuttleBookingRequest struct {
	CustomerName  string   `json:"customerName" validate:"required,min=2,max=120"`
	CustomerEmail string   `json:"customerEmail" validate:"required,email"`
	Route         string   `json:"route" validate:"required,max=160"`
	Pickup        string   `json:"pickup" validate:"max=160"`
	Dropoff       string   `json:"dropoff" validate:"max=160"`
	Stops         []string `json:"stops" validate:"max=10,dive,max=160"`
	Date          string   `json:"date" validate:"required"`
	Passengers    int      `json:"passengers" validate:"required,min=1,max=20"`
	Notes         string   `json:"notes" validate:"max=2000"`
}

// POST /api/shuttle
func CreateShuttleBooking(ctx iris.Context) {
	if !utils.AllowRequest("rate:shuttle:"+utils.ClientIP(ctx), bookingRateLimit, bookingRateWindow) {
		utils.JSONError(ctx, http.StatusTooManyRequests, "rate_limited", "too many requests, try again in a minute")
		return
	}

	var request ShuttleBookingRequest
	if err := ctx.ReadJSON(&request); err != nil {
		handleBookingValidationError(ctx, err)
		return
	}

	date, err := time.Parse("2006-01-02", request.Date)
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}
	if date.Before(time.Now().Truncate(24 * time.Hour)) {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_date", "cannot book a shuttle in the past")
		return
	}

	stops, _ := json.Marshal(request.Stops)

	locale := utils.PreferredLocale(ctx.GetHeader("Accept-Language"))
	status := services.StatusPending
	booking := models.ShuttleBooking{
		CustomerName:  request.CustomerName,
		CustomerEmail: request.CustomerEmail,
		CustomerNotes: request.Notes,
		Route:         request.Route,
		Pickup:        request.Pickup,
		Dropoff:       request.Dropoff,
		Stops:         datatypes.JSON(stops),
		Location:      os.Getenv("RECEPTION_LOCATION"),
		Date:          date,
		Passengers:    request.Passengers,
		Locale:        locale,
		Status:        &status,
		EmailStatus:   "pending",
	}

	if err := storage.DB.Create(&booking).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", "failed to create booking")
		return
	}

	go mailer.DispatchBookingEmail(services.KindShuttle, booking.ID, booking.CustomerEmail, booking.CustomerName, locale)

	ctx.StatusCode(http.StatusCreated)
	ctx.JSON(iris.Map{"data": iris.Map{"id": booking.ID, "status": status}})
}
