package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/pascal1010100/nomada-fantasma-sub001/models"
	"github.com/pascal1010100/nomada-fantasma-sub001/storage"
)

// Mailer sends the booking acknowledgement email through the hosted
// provider and records the delivery outcome on the owning row. It is
// invoked by the public booking handlers only; the reception workflow
// reads the tracking fields but never sends.
type Mailer struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
}

func NewMailer() *Mailer {
	endpoint := os.Getenv("EMAIL_API_URL")
	if endpoint == "" {
		endpoint = "https://api.resend.com/emails"
	}
	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = "Nómada Fantasma <reservas@nomadafantasma.com>"
	}
	return &Mailer{
		endpoint: endpoint,
		apiKey:   os.Getenv("EMAIL_API_KEY"),
		from:     from,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type emailPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// DispatchBookingEmail sends the acknowledgement for a freshly created
// request and updates email_status / email_attempts / email_last_error
// on its row. Safe to run in a goroutine; all failures are recorded,
// never returned to the booking flow.
func (m *Mailer) DispatchBookingEmail(kind string, id uint, toEmail, toName, locale string) {
	subject, body := bookingEmailContent(kind, toName, locale)

	err := m.send(toEmail, subject, body)
	if err != nil {
		log.Printf("email failed for %s request %d: %v", kind, id, err)
		m.recordDelivery(kind, id, "failed", err.Error())
		return
	}
	m.recordDelivery(kind, id, "sent", "")
}

func (m *Mailer) send(to, subject, body string) error {
	if m.apiKey == "" {
		return fmt.Errorf("EMAIL_API_KEY not configured")
	}

	raw, err := json.Marshal(emailPayload{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		HTML:    body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", m.endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	res, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("provider returned %d: %s", res.StatusCode, string(detail))
	}
	return nil
}

func (m *Mailer) recordDelivery(kind string, id uint, status, lastError string) {
	if storage.DB == nil {
		return
	}
	fields := map[string]interface{}{
		"email_status":     status,
		"email_attempts":   gorm.Expr("email_attempts + 1"),
		"email_last_error": lastError,
	}
	var err error
	if kind == KindShuttle {
		err = storage.DB.Model(&models.ShuttleBooking{}).Where("id = ?", id).Updates(fields).Error
	} else {
		err = storage.DB.Model(&models.TourReservation{}).Where("id = ?", id).Updates(fields).Error
	}
	if err != nil {
		log.Printf("could not record email delivery for %s request %d: %v", kind, id, err)
	}
}

func bookingEmailContent(kind, toName, locale string) (string, string) {
	name := toName
	if name == "" {
		name = "viajero"
	}
	if locale == "en" {
		subject := "We received your reservation request"
		if kind == KindShuttle {
			subject = "We received your shuttle booking request"
		}
		body := fmt.Sprintf("<p>Hi %s,</p><p>Your request is in. Our reception desk will review it and get back to you shortly.</p><p>— Nómada Fantasma</p>", name)
		return subject, body
	}
	subject := "Recibimos tu solicitud de reserva"
	if kind == KindShuttle {
		subject = "Recibimos tu solicitud de shuttle"
	}
	body := fmt.Sprintf("<p>Hola %s,</p><p>Tu solicitud fue recibida. Nuestro equipo de recepción la revisará y te contactará pronto.</p><p>— Nómada Fantasma</p>", name)
	return subject, body
}
