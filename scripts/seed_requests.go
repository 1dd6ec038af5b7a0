package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pascal1010100/nomada-fantasma-sub001/models"
	"github.com/pascal1010100/nomada-fantasma-sub001/services"
	"github.com/pascal1010100/nomada-fantasma-sub001/storage"
)

// Seeds a handful of pending requests so the reception dashboard has
// something to show in development.
func main() {
	db := storage.InitializeDB()

	location := os.Getenv("RECEPTION_LOCATION")
	pending := services.StatusPending
	tomorrow := time.Now().AddDate(0, 0, 1)

	tours := []models.TourReservation{
		{CustomerName: "María López", CustomerEmail: "maria@example.com", TourSlug: "kayak-rio-dulce", Location: location, Date: tomorrow, People: 2, Locale: "es", Status: &pending, EmailStatus: "pending"},
		{CustomerName: "John Carter", CustomerEmail: "john@example.com", TourSlug: "mirador-atardecer", Location: location, Date: tomorrow.AddDate(0, 0, 2), People: 4, Locale: "en", Status: &pending, EmailStatus: "sent"},
	}
	for i := range tours {
		if err := db.Create(&tours[i]).Error; err != nil {
			log.Fatalf("Error seeding tour reservation: %v", err)
		}
	}

	shuttles := []models.ShuttleBooking{
		{CustomerName: "Ana Pérez", CustomerEmail: "ana@example.com", Route: "aeropuerto-centro", Pickup: "Aeropuerto", Dropoff: "Centro", Location: location, Date: tomorrow, Passengers: 3, Locale: "es", Status: &pending, EmailStatus: "failed", EmailAttempts: 1, EmailLastError: "provider returned 429"},
	}
	for i := range shuttles {
		if err := db.Create(&shuttles[i]).Error; err != nil {
			log.Fatalf("Error seeding shuttle booking: %v", err)
		}
	}

	fmt.Println("Seed data created successfully!")
}
