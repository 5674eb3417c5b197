package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dtroode/blogauth-server/internal/api/http/clientip"
	"github.com/dtroode/blogauth-server/internal/api/http/cookie"
	"github.com/dtroode/blogauth-server/internal/api/http/handler"
	"github.com/dtroode/blogauth-server/internal/api/http/middleware"
	"github.com/dtroode/blogauth-server/internal/logger"
	"github.com/dtroode/blogauth-server/internal/model"
	"github.com/dtroode/blogauth-server/internal/ratelimit"
	"github.com/dtroode/blogauth-server/internal/validation"
)

// Service is everything the HTTP API needs from the auth orchestrator.
type Service interface {
	handler.AuthService
	handler.DeviceService
	middleware.TokenService
}

// Router wires handlers and middleware of the public HTTP API.
type Router struct {
	service        Service
	limiter        ratelimit.Limiter
	policy         ratelimit.Policy
	failOpen       bool
	validator      *validation.Validator
	cookies        *cookie.Manager
	clientIP       *clientip.Extractor
	contextManager model.ContextManager
	logger         *logger.Logger
}

// Options groups the collaborators of a Router.
type Options struct {
	Service        Service
	Limiter        ratelimit.Limiter
	Policy         ratelimit.Policy
	FailOpen       bool
	Validator      *validation.Validator
	Cookies        *cookie.Manager
	ClientIP       *clientip.Extractor
	ContextManager model.ContextManager
	Logger         *logger.Logger
}

// New creates a new HTTP Router.
func New(opts Options) *Router {
	return &Router{
		service:        opts.Service,
		limiter:        opts.Limiter,
		policy:         opts.Policy,
		failOpen:       opts.FailOpen,
		validator:      opts.Validator,
		cookies:        opts.Cookies,
		clientIP:       opts.ClientIP,
		contextManager: opts.ContextManager,
		logger:         opts.Logger,
	}
}

// Register builds the route tree.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.service, r.contextManager, r.logger)
	limit := middleware.NewRateLimit(r.limiter, r.policy, r.failOpen, r.clientIP.Extract, r.logger)

	authHandler := handler.NewAuth(r.service, r.validator, r.cookies, r.clientIP.Extract, r.contextManager, r.logger)
	devicesHandler := handler.NewDevices(r.service, r.logger)

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(logging.Handle)
	mux.Use(chimw.Recoverer)

	mux.Route("/auth", func(ar chi.Router) {
		ar.Group(func(lr chi.Router) {
			lr.Use(limit.Handle)
			lr.Post("/registration", authHandler.Registration)
			lr.Post("/registration-confirmation", authHandler.RegistrationConfirmation)
			lr.Post("/registration-email-resending", authHandler.RegistrationEmailResending)
			lr.Post("/login", authHandler.Login)
			lr.Post("/password-recovery", authHandler.PasswordRecovery)
			lr.Post("/new-password", authHandler.NewPassword)
		})

		ar.Post("/refresh-token", authHandler.RefreshToken)
		ar.Post("/logout", authHandler.Logout)
		ar.With(authenticate.Handle).Get("/me", authHandler.Me)
	})

	mux.Route("/security", func(sr chi.Router) {
		sr.Get("/devices", devicesHandler.List)
		sr.Delete("/devices", devicesHandler.TerminateOthers)
		sr.Delete("/devices/{deviceId}", devicesHandler.Terminate)
	})

	return mux
}
