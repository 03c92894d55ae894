package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Driver: deps.Driver}
	auth := AuthHandler{Accounts: deps.Accounts, Limiter: deps.AuthLimiter, TrustProxyHeaders: deps.TrustProxyHeaders}
	users := UserHandler{Accounts: deps.Accounts}
	posts := PostHandler{Posts: deps.Posts}
	files := FileHandler{Files: deps.Files}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/signup", auth.SignUp)
	mux.HandleFunc("/api/v1/auth/login", auth.Login)
	mux.HandleFunc("/api/v1/auth/logout", auth.Logout)
	mux.HandleFunc("/api/v1/users/me", users.Me)
	mux.HandleFunc("/api/v1/posts", posts.List)
	mux.HandleFunc("/api/v1/posts/latest", posts.Latest)
	mux.HandleFunc("/api/v1/posts/search", posts.Search)
	mux.HandleFunc("/api/v1/posts/by-user", posts.ByUser)
	mux.HandleFunc("/api/v1/videos", posts.CreateVideo)
	mux.HandleFunc("/api/v1/files", files.Upload)
	mux.HandleFunc("/api/v1/files/preview", files.Preview)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Driver      string
	Accounts    AccountService
	Posts       PostService
	Files       FileService
	AuthLimiter RateLimiter

	TrustProxyHeaders bool
}
