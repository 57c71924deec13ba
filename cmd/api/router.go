package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/Shlok2903/spendora/pkg/interceptors"
)

// NewRouter assembles the HTTP routes and middleware chain.
func NewRouter(deps *Dependencies, metrics *interceptors.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(interceptors.RequestLogger(deps.Logger))
	r.Use(interceptors.Tracing)
	if metrics != nil {
		r.Use(metrics.Middleware)
	}

	limiter := interceptors.NewRateLimiter(
		deps.Config.Server.RateLimitPerSecond,
		deps.Config.Server.RateLimitBurst,
	)
	r.Use(limiter.Middleware)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	r.Use(corsHandler.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	requireAuth := interceptors.Auth(interceptors.TokenValidatorFunc(func(token string) (string, error) {
		claims, err := deps.TokenManager.ValidateAccessToken(token)
		if err != nil {
			return "", err
		}
		return claims.UserID, nil
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", deps.AuthHandler.Register)
			r.Post("/verify-email", deps.AuthHandler.VerifyEmail)
			r.Post("/resend-code", deps.AuthHandler.ResendCode)
			r.Post("/login", deps.AuthHandler.Login)
			r.Post("/refresh", deps.AuthHandler.Refresh)
			r.Post("/logout", deps.AuthHandler.Logout)
			r.Post("/forgot-password", deps.AuthHandler.ForgotPassword)
			r.Post("/reset-password", deps.AuthHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/change-password", deps.AuthHandler.ChangePassword)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", deps.UserHandler.Me)
				r.Put("/me", deps.UserHandler.UpdateProfile)
			})

			r.Route("/chat", func(r chi.Router) {
				r.Post("/message", deps.ChatHandler.Message)
				r.Get("/history", deps.ChatHandler.History)
				r.Delete("/history", deps.ChatHandler.ClearHistory)
				r.Post("/init", deps.ChatHandler.InitMessage)
			})

			r.Route("/expenses", func(r chi.Router) {
				r.Get("/", deps.ExpenseHandler.List)
				r.Post("/", deps.ExpenseHandler.Create)
				r.Delete("/{id}", deps.ExpenseHandler.Delete)
				r.Get("/summary", deps.ExpenseHandler.Summary)
				r.Get("/categories", deps.ExpenseHandler.Categories)
				r.Get("/categories/suggest", deps.ExpenseHandler.SuggestCategories)
				r.Get("/search", deps.ExpenseHandler.SearchNotes)
				r.Get("/export", deps.ExpenseHandler.Export)
			})

			r.Route("/incomes", func(r chi.Router) {
				r.Get("/", deps.IncomeHandler.List)
				r.Post("/", deps.IncomeHandler.Create)
				r.Delete("/{id}", deps.IncomeHandler.Delete)
				r.Get("/total", deps.IncomeHandler.Total)
			})
		})
	})

	return r
}
