package http

import (
	"net/http"

	"deckhand/internal/auth"
	"deckhand/internal/config"
	"deckhand/internal/http/handler"
	mw "deckhand/internal/http/middleware"
	"deckhand/internal/prefs"
	"deckhand/internal/review"
	"deckhand/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	DB      *gorm.DB
	JWT     *auth.JWT
	Session *review.Session
	Store   *store.Store
	Prefs   *prefs.Store
}

func NewRouter(cfg config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{DB: d.DB, JWT: d.JWT}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)

	me := &handler.MeHandler{}
	r.With(auth.RequireAuth(d.JWT)).Get("/me", me.Me)

	cards := &handler.CardsHandler{Sess: d.Session, Store: d.Store}
	sel := &handler.SelectionHandler{Sess: d.Session}
	bulk := &handler.BulkHandler{Sess: d.Session}
	sync := &handler.SyncHandler{Sess: d.Session, Prefs: d.Prefs}
	images := &handler.ImagesHandler{Sess: d.Session}
	edit := &handler.EditHandler{Sess: d.Session}

	r.Route("/cards", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))

		r.Get("/", cards.Board)
		r.Post("/", cards.Intake)
		r.Post("/page/{n}", cards.SetPage)

		r.Get("/selection", sel.Get)
		r.Post("/selection/toggle", sel.Toggle)
		r.Post("/selection/all-pending", sel.SelectAllPending)
		r.Delete("/selection", sel.DeselectAll)
		r.Post("/selection/toggle-synced", sel.ToggleAllSynced)

		r.Post("/approve", bulk.ApproveSelected)
		r.Post("/delete", bulk.DeleteSelected)
		r.Delete("/{id}", cards.DeleteOne)

		r.Get("/{id}/image", images.State)
		r.Post("/{id}/image/retry", images.Retry)
		r.Post("/{id}/image/generate", images.Generate)
		r.Get("/{id}/image/generation", images.GenerationState)

		r.Post("/{id}/edit", edit.Begin)
	})

	r.Route("/edit", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))

		r.Get("/draft", edit.Get)
		r.Put("/draft", edit.Put)
		r.Post("/draft/save", edit.Save)
		r.Post("/draft/cancel", edit.Cancel)
	})

	r.Route("/sync", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))

		r.Post("/", sync.Sync)
		r.Get("/deck", sync.GetDeck)
		r.Put("/deck", sync.PutDeck)
	})

	return r
}
