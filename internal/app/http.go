package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Router assembles the full HTTP surface: the JSON API for the web client
// under /api, and the editor-facing bridge under the callback context
// (default /v2/context).
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.Cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/profile", s.handleOwnProfile)

			r.Route("/user", func(r chi.Router) {
				r.Get("/list", s.handleListUsers)
				r.Get("/{userId}", s.handleGetUser)
				r.Put("/{userId}", s.handleUpdateUser)
				r.Post("/{userId}/password", s.handleChangePassword)
			})

			r.Route("/file", func(r chi.Router) {
				r.Post("/upload", s.handleUpload)
				r.Post("/batch-upload", s.handleBatchUpload)
				r.Get("/download/{docId}", s.handleDownload)
				r.Delete("/delete/{docId}", s.handleDeleteFile)
				r.Post("/batch-delete", s.handleBatchDelete)
				r.Post("/new", s.handleNewFile)
				r.Get("/list", s.handleListFiles)
			})

			r.Route("/doc/{docId}", func(r chi.Router) {
				r.Use(s.requireDocAccess)
				r.Get("/meta", s.handleDocMeta)
				r.Put("/meta", s.handleUpdateDocMeta)
				r.Get("/content", s.handleDocContent)
				r.Post("/content", s.handleSaveDocContent)
				r.Get("/control", s.handleGetControl)
				r.Put("/control", s.handleUpsertControl)
				r.Post("/notify", s.handleNotify)
				r.Post("/mention", s.handleMention)
			})
		})
	})

	// Bridge surface: consumed by the web client to obtain handoff URLs and
	// by the editor's callbacks for content and metadata.
	r.Route(s.Cfg.CallbackContext, func(r chi.Router) {
		// The editor issues the save-as preflight before it holds a token.
		r.Options("/files/content", s.handleSaveAs)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/driver-cb", s.handleDriverCallback)
			r.Get("/compareDoc", s.handleCompareDoc)
			r.Get("/profiles", s.handleProfiles)
			r.Post("/files/content", s.handleSaveAs)

			r.Route("/{docId}", func(r chi.Router) {
				r.Use(s.requireDocAccess)
				r.Get("/content", s.handleBridgeContent)
				r.Post("/content", s.handleBridgeSave)
				r.Get("/meta", s.handleBridgeMeta)
				r.Post("/notify", s.handleBridgeNotify)
				r.Post("/mention", s.handleBridgeMention)
			})
		})
	})

	return r
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// requireDocAccess runs the access gate for routes carrying a docId. A
// document that does not resolve or is deleted denies with 403 like any
// other denial; existence is not revealed.
func (s *Service) requireDocAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		docID := chi.URLParam(r, "docId")
		claims := claimsFrom(r)
		if !s.Access.CanAccess(r.Context(), claims.UserID, docID) {
			forbidden(w, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
