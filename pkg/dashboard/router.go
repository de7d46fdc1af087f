// Package dashboard serves the league over HTTP: a JSON API and a single
// HTML standings page with a filter form.
package dashboard

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/richard-senior/matchboard/pkg/league"
	"github.com/richard-senior/matchboard/pkg/snapshot"
	"github.com/richard-senior/matchboard/pkg/store"
)

// Archive is the part of the store read directly by the refresh history
// and match detail endpoints
type Archive interface {
	RefreshHistory(limit int) ([]*store.RefreshRecord, error)
	Match(id string) (league.Match, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	state   *snapshot.State
	archive Archive
	title   string
}

// NewHandler creates a new handler. archive may be nil.
func NewHandler(state *snapshot.State, archive Archive, title string) *Handler {
	return &Handler{state: state, archive: archive, title: title}
}

// NewRouter wires every route. Refresh sits outside the request timeout
// since a full download can take minutes.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		MaxAge:           300,
	}))

	timeout := middleware.Timeout(30 * time.Second)

	r.With(timeout).Get("/health", h.HealthCheck)
	r.With(timeout).Get("/", h.StandingsPage)

	r.Route("/api", func(r chi.Router) {
		r.Post("/refresh", h.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(timeout)

			r.Get("/status", h.Status)
			r.Get("/refresh/history", h.RefreshHistory)
			r.Get("/standings", h.Standings)
			r.Get("/stats", h.Stats)
			r.Get("/matches", h.Matches)
			r.Get("/matches/{id}", h.MatchDetail)
			r.Get("/leaderboards/{metric}", h.Leaderboard)
			r.Get("/teams", h.Teams)
			r.Route("/teams/{slug}", func(r chi.Router) {
				r.Get("/summary", h.TeamSummary)
				r.Get("/matches", h.TeamMatches)
				r.Get("/players", h.TeamPlayers)
				r.Get("/coaches", h.TeamCoaches)
			})
		})
	})
	return r
}
