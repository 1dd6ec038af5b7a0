package routes

import (
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"

	"github.com/pascal1010100/nomada-fantasma-sub001/models"
	"github.com/pascal1010100/nomada-fantasma-sub001/services"
	"github.com/pascal1010100/nomada-fantasma-sub001/storage"
	"github.com/pascal1010100/nomada-fantasma-sub001/utils"
)

var mailer = services.NewMailer()

const bookingRateLimit = 10 // per IP per window
const bookingRateWindow = time.Minute

type TourReservationRequest struct {
	CustomerName  string `json:"customerName" validate:"required,min=2,max=120"`
	CustomerEmail string `json:"customerEmail" validate:"required,email"`
	TourSlug      string `json:"tourSlug" validate:"required,max=120"`
	Date          string `json:"date" validate:"required"`
	People        int    `json:"people" validate:"required,min=1,max=40"`
	Notes         string `json:"notes" validate:"max=2000"`
}

// POST /api/reservations
func CreateTourReservation(ctx iris.Context) {
	if !utils.AllowRequest("rate:reservations:"+utils.ClientIP(ctx), bookingRateLimit, bookingRateWindow) {
		utils.JSONError(ctx, http.StatusTooManyRequests, "rate_limited", "too many requests, try again in a minute")
		return
	}

	var request TourReservationRequest
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
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_date", "cannot book a tour in the past")
		return
	}

	locale := utils.PreferredLocale(ctx.GetHeader("Accept-Language"))
	status := services.StatusPending
	reservation := models.TourReservation{
		CustomerName:  request.CustomerName,
		CustomerEmail: request.CustomerEmail,
		CustomerNotes: request.Notes,
		TourSlug:      request.TourSlug,
		Location:      os.Getenv("RECEPTION_LOCATION"),
		Date:          date,
		People:        request.People,
		Locale:        locale,
		Status:        &status,
		EmailStatus:   "pending",
	}

	if err := storage.DB.Create(&reservation).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", "failed to create reservation")
		return
	}

	go mailer.DispatchBookingEmail(services.KindTour, reservation.ID, reservation.CustomerEmail, reservation.CustomerName, locale)

	ctx.StatusCode(http.StatusCreated)
	ctx.JSON(iris.Map{"data": iris.Map{"id": reservation.ID, "status": status}})
}

func handleBookingValidationError(ctx iris.Context, err error) {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := make([]iris.Map, 0, len(errs))
		for _, fe := range errs {
			details = append(details, iris.Map{"field": fe.Field(), "rule": fe.Tag()})
		}
		ctx.StatusCode(http.StatusBadRequest)
		ctx.JSON(iris.Map{"error": "invalid_payload", "fields": details})
		return
	}
	utils.JSONError(ctx, http.StatusBadRequest, "invalid_payload", "malformed request body")
}
