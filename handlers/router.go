package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kevinaaaquil/skillspark/middleware"
	"github.com/sirupsen/logrus"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterOptions struct {
	Books   *BooksHandler
	Courses *CoursesHandler
	Health  Pinger
	Log     logrus.FieldLogger
}

func NewRouter(opts RouterOptions) http.Handler {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.AllowAll())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "welcome to skillspark."})
	})
	r.Get("/health", health(opts.Health))

	r.Route("/books", func(r chi.Router) {
		b := opts.Books
		r.Get("/", b.List)
		r.Post("/", b.Create)
		r.Get("/public", b.ListPublic)
		r.Get("/category/{category}", b.ListByCategory)
		r.Get("/download/{id}", b.Download)
		r.Get("/{id}", b.Get)
		r.Put("/{id}", b.Update)
		r.Delete("/{id}", b.Delete)
		r.Patch("/{id}/image", b.ReplaceImage)
	})
	r.Route("/courses", func(r chi.Router) {
		r.Get("/", opts.Courses.List)
		r.Post("/", opts.Courses.Create)
	})
	return r
}

func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
