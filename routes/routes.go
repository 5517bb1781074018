package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nmoreira/prode-server/docs"
	"github.com/nmoreira/prode-server/handlers"
	"github.com/nmoreira/prode-server/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	matchHandler *handlers.MatchHandler,
	predictionHandler *handlers.PredictionHandler,
	rankingHandler *handlers.RankingHandler,
	userHandler *handlers.UserHandler,
	referenceHandler *handlers.ReferenceHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(jwtSecret))

	// Public routes
	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Get("/teams", referenceHandler.ListTeamsHandler)
	router.Get("/phases", referenceHandler.ListPhasesHandler)
	router.Get("/careers", referenceHandler.ListCareersHandler)

	// API documentation
	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(docs.OpenAPI)
	})
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Authenticated user routes
	router.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/matches", matchHandler.ListDisplayedHandler)
		r.Route("/matches/{matchID}/prediction", func(r chi.Router) {
			r.Get("/", predictionHandler.GetOwnPredictionHandler)
			r.Put("/", predictionHandler.UpsertPredictionHandler)
		})

		r.Get("/ranking", rankingHandler.GetRankingHandler)

		r.Get("/users/me", userHandler.GetProfileHandler)
		r.Post("/users/me/avatar", userHandler.UploadAvatarHandler)
	})

	// Admin routes
	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireAdmin)

		r.Post("/matches", matchHandler.CreateMatchHandler)
		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Get("/", matchHandler.GetAdminMatchHandler)
			r.Put("/", matchHandler.UpdateMatchHandler)
			r.Delete("/", matchHandler.DeleteMatchHandler)
			r.Post("/score", matchHandler.RecalculateScoresHandler)
		})
	})
}
