package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", c.register)
			r.Post("/login", c.login)
		})

		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", c.listRooms)

			r.Group(func(r chi.Router) {
				r.Use(c.authMw)
				r.Post("/", c.createRoom)
				r.Get("/my", c.myRooms)
			})

			r.Route("/{room-id}", func(r chi.Router) {
				r.Get("/", c.getRoomDetail)
				r.Get("/videos", c.listVideos)

				r.Group(func(r chi.Router) {
					r.Use(c.authMw)
					r.Delete("/", c.removeRoom)
					r.Post("/videos", c.addVideo)
					r.Delete("/videos/{video-id}", c.removeVideo)
					r.Post("/participants", c.inviteParticipant)
				})
			})
		})

		r.Get("/ws", c.serveWS)
	})

	return r
}
