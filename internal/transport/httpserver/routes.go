package httpserver

import (
	"net/http"
	"time"

	"family-tree-go/internal/config"
	"family-tree-go/internal/transport/httpserver/handler"
	authmw "family-tree-go/internal/transport/httpserver/middleware"
	"family-tree-go/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, users authmw.Authenticator, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.AllowedOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Post("/users", handlers.RegisterAdmin)
		r.Post("/auth/login", handlers.PasswordLogin)
		r.Post("/auth/login/totp", handlers.TOTPLogin)

		// Invite resolution happens before the invitee has an account.
		r.Post("/invites/{id}/accept", handlers.AcceptInvite)
		r.Post("/invites/{id}/verify", handlers.VerifyInvite)
		r.Post("/invites/{id}/decline", handlers.DeclineInvite)

		auth := authmw.NewSessionAuth(users, cfg.Auth.CookieName, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Post("/auth/logout", handlers.Logout)
			r.Get("/auth/me", handlers.Me)

			r.Get("/members/tree", handlers.GetTree)
			r.Get("/members", handlers.ListMembers)
			r.Get("/members/{id}/subtree", handlers.GetSubtree)

			r.Post("/member-requests", handlers.SubmitRequest)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)

				r.Post("/members", handlers.CreateMember)
				r.Patch("/members/{id}", handlers.UpdateMember)
				r.Delete("/members/{id}", handlers.DeleteMember)
				r.Get("/members/export", handlers.ExportMembers)
				r.Post("/members/import", handlers.ImportMembers)

				r.Get("/member-requests", handlers.ListRequests)
				r.Post("/member-requests/{id}/approve", handlers.ApproveRequest)
				r.Post("/member-requests/{id}/disapprove", handlers.DisapproveRequest)

				r.Post("/members/{id}/invites", handlers.CreateInvite)
				r.Get("/invites", handlers.ListInvites)
			})
		})
	})

	return r
}
