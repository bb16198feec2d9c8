package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ianstrang2/matchday-system/handlers"
	"github.com/ianstrang2/matchday-system/middleware"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/login", authHandler.Login)

	// Everything below is tenant-scoped through the token claims.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate([]byte(jwtSecret)))

		r.Route("/matches", func(r chi.Router) {
			r.Post("/", matchHandler.CreateMatch)
			r.Get("/{matchID}", matchHandler.GetMatch)

			r.Post("/{matchID}/pool/players", matchHandler.AddPoolPlayer)
			r.Delete("/{matchID}/pool/players/{playerID}", matchHandler.RemovePoolPlayer)
			r.Post("/{matchID}/pool/lock", matchHandler.LockPool)

			r.Post("/{matchID}/balance", matchHandler.Balance)
			r.Post("/{matchID}/confirm", matchHandler.ConfirmTeams)
			r.Post("/{matchID}/complete", matchHandler.Complete)
			r.Post("/{matchID}/undo", matchHandler.Undo)
			r.Post("/{matchID}/cancel", matchHandler.Cancel)
		})

		r.Get("/ws", webSocketHandler.ServeWs)
	})
}
