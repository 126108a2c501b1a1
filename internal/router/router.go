package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"byamn-backend/internal/handlers"
	"byamn-backend/internal/middleware"
	"byamn-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	courseHandler *handlers.CourseHandler,
	playerHandler *handlers.PlayerHandler,
	certificateHandler *handlers.CertificateHandler,
	verificationHandler *handlers.VerificationHandler,
	adminHandler *handlers.AdminHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/google", authHandler.GoogleLogin)
			r.Post("/refresh", authHandler.Refresh)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Certificate verification (public) ────
		// The verifier applies its own per-IP limit.
		r.Post("/verify", verificationHandler.Verify)

		// ──── Course Routes ────
		r.Route("/courses", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", courseHandler.List)
			r.Get("/{courseID}", courseHandler.Get)
			r.Post("/{courseID}/enroll", courseHandler.Enroll)

			// Lesson player
			r.Route("/{courseID}/lessons/{lessonID}", func(r chi.Router) {
				r.Get("/", playerHandler.View)
				r.Post("/watch", playerHandler.WatchEvent)
				r.Post("/complete", playerHandler.Complete)
			})

			// Certificate for a completed course
			r.Get("/{courseID}/certificate", certificateHandler.Get)
			r.Put("/{courseID}/certificate/name", certificateHandler.SetName)
		})

		// ──── My Courses ────
		r.Route("/me", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/courses", courseHandler.MyCourses)
		})

		// ──── Admin Routes ────
		r.Route("/admin", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(jwtAuth.RequireRole("admin"))
			r.Post("/courses", adminHandler.CreateCourse)
			r.Post("/courses/{courseID}/lessons", adminHandler.AddLesson)
			r.Put("/courses/{courseID}/publish", adminHandler.Publish)
			r.Put("/courses/{courseID}/unpublish", adminHandler.Unpublish)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.ServeHTTP)
	})

	return r
}
