package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/showmanfest/luckydraw/handlers"
	"github.com/showmanfest/luckydraw/middleware"
)

func SetupRoutes(
	router *chi.Mux,
	corsOrigins []string,
	jwtSecret []byte,
	adminHandler *handlers.AdminHandler,
	checkInHandler *handlers.CheckInHandler,
	participantHandler *handlers.ParticipantHandler,
	prizeHandler *handlers.PrizeHandler,
	winnerHandler *handlers.WinnerHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	// Public: check-in desk and stage screens.
	router.Post("/auth/login", adminHandler.Login)
	router.Post("/participants/check-in", checkInHandler.CheckIn)
	router.Post("/participants/register", checkInHandler.Register)
	router.Get("/participants/search", participantHandler.Search)
	router.Get("/ws/stage", webSocketHandler.ServeStage)

	// Admin panel.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))
		r.Use(middleware.RequireAdmin)

		r.Route("/participants", func(r chi.Router) {
			r.Get("/", participantHandler.List)
			r.Post("/", participantHandler.Create)
			r.Post("/bulk", participantHandler.BulkCreate)
			r.Get("/eligible", participantHandler.ListEligible)
			r.Put("/{participantID}", participantHandler.Update)
			r.Delete("/{participantID}", participantHandler.Delete)
		})

		r.Route("/prizes", func(r chi.Router) {
			r.Get("/", prizeHandler.List)
			r.Post("/", prizeHandler.Create)
			r.Get("/available", prizeHandler.ListAvailable)
			r.Put("/{prizeID}", prizeHandler.Update)
			r.Delete("/{prizeID}", prizeHandler.Delete)
			r.Post("/{prizeID}/image", prizeHandler.UploadImage)
		})

		r.Post("/draw", winnerHandler.Draw)

		r.Route("/winners", func(r chi.Router) {
			r.Get("/", winnerHandler.List)
			r.Post("/confirm", winnerHandler.Confirm)
			r.Delete("/{winnerID}", winnerHandler.Remove)
			r.Post("/bulk-delete", winnerHandler.RemoveBulk)
		})

		r.Post("/reset", adminHandler.Reset)
		r.Get("/stats", adminHandler.Stats)
	})
}
