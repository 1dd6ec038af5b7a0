package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"

	"github.com/pascal1010100/nomada-fantasma-sub001/routes"
	"github.com/pascal1010100/nomada-fantasma-sub001/storage"
	"github.com/pascal1010100/nomada-fantasma-sub001/utils"
)

func main() {
	godotenv.Load()
	storage.InitializeDB()
	storage.InitializeRedis()

	app := iris.New()
	app.Validator = validator.New()

	// CORS for the Next.js site (http://localhost:3000 in development)
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Content-Type, X-Requested-With, X-Admin-Token, X-Operator, Accept-Language")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	api := app.Party("/api")
	{
		// Public booking forms.
		api.Post("/reservations", routes.CreateTourReservation)
		api.Post("/shuttle", routes.CreateShuttleBooking)

		// Internal reception desk.
		recepcion := api.Party("/recepcion", utils.AdminTokenMiddleware)
		{
			recepcion.Get("/requests", routes.ReceptionListRequests)
			recepcion.Post("/requests/transition", routes.ReceptionTransition)
			recepcion.Get("/stats", routes.ReceptionStats)
			recepcion.Get("/activity", routes.ReceptionActivity)
			recepcion.Get("/export", routes.ReceptionExport)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	log.Println("Nómada Fantasma booking server listening on :" + port)
	app.Listen(":" + port)
}
