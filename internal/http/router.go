package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/filevault/filevault/internal/service"
	"github.com/filevault/filevault/internal/store"
	"github.com/filevault/filevault/pkg/httpx"
	"github.com/filevault/filevault/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store        store.Store
	TokenService *service.TokenService
	UserService  *service.UserService
	FileService  *service.FileService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		RecoverMiddleware,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerUserRoutes()
	r.registerFileRoutes()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerUserRoutes() {
	// POST /register - strict rate limit by IP (public signup endpoint)
	registerHandler := &RegisterHandler{Users: r.UserService}
	r.Mux.Handle("POST /api/v1/user/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /login - strict rate limit by IP (authentication attempts)
	loginHandler := &LoginHandler{Users: r.UserService, Tokens: r.TokenService}
	r.Mux.Handle("POST /api/v1/user/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// GET /refreshToken - requires a live access token, strict limit (token minting)
	refreshHandler := &RefreshHandler{Tokens: r.TokenService}
	r.Mux.Handle("GET /api/v1/user/refreshToken",
		httpx.Chain(refreshHandler,
			AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)

	logoutHandler := &LogoutHandler{Tokens: r.TokenService}
	r.Mux.Handle("POST /api/v1/user/logout",
		httpx.Chain(logoutHandler,
			AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// PATCH /changePassword - strict rate limit by user (old password guessing)
	changePasswordHandler := &ChangePasswordHandler{Users: r.UserService}
	r.Mux.Handle("PATCH /api/v1/user/changePassword",
		httpx.Chain(changePasswordHandler,
			AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)

	currentUserHandler := &CurrentUserHandler{Users: r.UserService}
	r.Mux.Handle("GET /api/v1/user/getCurrentUser",
		httpx.Chain(currentUserHandler,
			AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	updateAccountHandler := &UpdateAccountHandler{Users: r.UserService}
	r.Mux.Handle("PATCH /api/v1/user/updateAccountDetails",
		httpx.Chain(updateAccountHandler,
			AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	updateAvatarHandler := &UpdateAvatarHandler{Users: r.UserService}
	r.Mux.Handle("PATCH /api/v1/user/updateUserAvatar",
		httpx.Chain(updateAvatarHandler,
			AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerFileRoutes() {
	uploadHandler := &UploadFileHandler{Files: r.FileService}
	r.Mux.Handle("POST /api/v1/file/uploadFile",
		httpx.Chain(uploadHandler,
			AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	renameHandler := &RenameFileHandler{Files: r.FileService}
	r.Mux.Handle("PATCH /api/v1/file/editFileName",
		httpx.Chain(renameHandler,
			AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	deleteHandler := &DeleteFileHandler{Files: r.FileService}
	r.Mux.Handle("DELETE /api/v1/file/deleteFile",
		httpx.Chain(deleteHandler,
			AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	searchHandler := &SearchFileHandler{Files: r.FileService}
	r.Mux.Handle("GET /api/v1/file/searchFile",
		httpx.Chain(searchHandler,
			AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	listHandler := &ListFilesHandler{Files: r.FileService}
	r.Mux.Handle("GET /api/v1/file/getFileByUser",
		httpx.Chain(listHandler,
			AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoint - lenient rate limit (monitoring systems poll)
	r.Mux.Handle("GET /healthz",
		httpx.Chain(HealthzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
