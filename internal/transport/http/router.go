package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pixelgram/internal/handler"
	"pixelgram/internal/httputil"
	authmw "pixelgram/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	UserHandler    *handler.UserHandler
	FeedHandler    *handler.FeedHandler
	PostHandler    *handler.PostHandler
	StoryHandler   *handler.StoryHandler
	CommentHandler *handler.CommentHandler
	MediaHandler   *handler.MediaHandler
	WebhookHandler *handler.WebhookHandler
	JWTSecret      string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Identity provider webhooks - authenticated by HMAC signature, not tokens
	r.Post("/webhooks/users", cfg.WebhookHandler.ProvisionUser)

	// Public read endpoints with optional authentication. Anonymous viewers
	// browse with default annotations.
	r.Group(func(r chi.Router) {
		r.Use(authmw.OptionalAuthMiddleware(cfg.JWTSecret))

		r.Get("/feed", cfg.FeedHandler.GetFeed)
		r.Get("/stories", cfg.StoryHandler.List)

		r.Get("/users/search", cfg.UserHandler.Search)
		r.Get("/users/{username}", cfg.UserHandler.GetProfile)
		r.Get("/users/{username}/posts", cfg.FeedHandler.GetUserPosts)

		r.Get("/posts/{id}", cfg.PostHandler.GetByID)
		r.Get("/posts/{id}/comments", cfg.CommentHandler.List)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		// Current user endpoints
		r.Get("/me", cfg.UserHandler.Me)
		r.Patch("/me", cfg.UserHandler.UpdateProfile)
		r.Get("/me/bookmarks", cfg.FeedHandler.GetBookmarked)

		// Post endpoints
		r.Post("/posts", cfg.PostHandler.Create)
		r.Delete("/posts/{id}", cfg.PostHandler.Delete)
		r.Post("/posts/{id}/like", cfg.PostHandler.ToggleLike)
		r.Post("/posts/{id}/bookmark", cfg.PostHandler.ToggleBookmark)
		r.Post("/posts/{id}/comments", cfg.CommentHandler.Add)
		r.Delete("/comments/{id}", cfg.CommentHandler.Delete)

		// Story endpoints
		r.Post("/stories", cfg.StoryHandler.Create)
		r.Get("/stories/me", cfg.StoryHandler.GetOwn)
		r.Delete("/stories/me", cfg.StoryHandler.Delete)

		// Media endpoints (server-side processed uploads to R2)
		r.Post("/media/avatar", cfg.MediaHandler.UploadAvatar)
		r.Post("/media/posts", cfg.MediaHandler.UploadPostImage)
		r.Post("/media/stories", cfg.MediaHandler.UploadStoryImage)
	})

	return r
}
