package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "probate-backend/internal/auth"
	"probate-backend/internal/cases"
	"probate-backend/internal/checkout"
	"probate-backend/internal/documents"
	"probate-backend/internal/fees"
	"probate-backend/internal/forms"
	"probate-backend/internal/messages"
	"probate-backend/internal/services/health"
	"probate-backend/internal/shared/config"
	"probate-backend/internal/shared/metrics"
	"probate-backend/internal/shared/server/middleware"
	"probate-backend/internal/shared/server/respond"
	"probate-backend/internal/users"
)

// RouterDeps groups the handlers mounted by NewRouter. Nil handlers are
// skipped so tests can build partial routers.
type RouterDeps struct {
	Config          config.Config
	Verifier        middleware.TokenVerifier
	Health          *health.Service
	CaseHandler     *cases.Handler
	DocumentHandler *documents.Handler
	MessageHandler  *messages.Handler
	UserHandler     *users.Handler
	FeeHandler      *fees.Handler
	FormsHandler    *forms.Handler
	CheckoutHandler *checkout.Handler
	GoogleAuth      *googleauth.GoogleService
	RateLimiter     *middleware.RateLimiter
}

// Paths reachable without a bearer token.
var publicPrefixes = []string{
	"/api/v1/health",
	"/api/v1/auth/",
	"/api/v1/fees/",
	"/api/v1/phases",
	"/api/v1/forms/",
	"/api/v1/checkout/",
	"/api/v1/config/public",
}

var rateLimitRules = map[string]middleware.RateLimitRule{
	"DEFAULT":  {Rate: 5, Burst: 20},
	"POLLING":  {Rate: 10, Burst: 30},
	"AUTH":     {Rate: 0.5, Burst: 5},
	"UPSTREAM": {Rate: 0.2, Burst: 3},
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		exceptNetlify(middleware.CORS(deps.Config.CORSAllowOrigin)),
	)
	r.GET("/metrics", metrics.Handler())

	limiter := middleware.RateLimit(middleware.RateLimitConfig{
		Rules:        rateLimitRules,
		DefaultGroup: "DEFAULT",
		GroupFor:     rateLimitGroup,
		Limiter:      deps.RateLimiter,
	})

	// Paths kept compatible with the serverless functions the browser app
	// already calls. They carry their own open CORS policy.
	netlify := r.Group(strings.TrimSuffix(netlifyPrefix, "/"), limiter)
	if deps.FormsHandler != nil {
		deps.FormsHandler.RegisterRoutes(netlify)
	}
	if deps.CheckoutHandler != nil {
		deps.CheckoutHandler.RegisterRoutes(netlify)
	}

	api := r.Group("/api/v1",
		middleware.Auth(deps.Verifier, publicPrefixes...),
		limiter,
	)
	api.GET("/health", func(c *gin.Context) {
		body, ok := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, body)
	})
	registerPublicConfig(api, deps.Config)

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterPublicRoutes(api)
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.FeeHandler != nil {
		deps.FeeHandler.RegisterRoutes(api)
	}
	if deps.FormsHandler != nil {
		deps.FormsHandler.RegisterAPIRoutes(api)
	}
	if deps.CheckoutHandler != nil {
		deps.CheckoutHandler.RegisterAPIRoutes(api)
		deps.CheckoutHandler.RegisterWebhookRoutes(api)
	}
	if deps.CaseHandler != nil {
		deps.CaseHandler.RegisterRoutes(api)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.MessageHandler != nil {
		deps.MessageHandler.RegisterRoutes(api)
	}

	admin := api.Group("/admin", middleware.RequireAdmin())
	if deps.CaseHandler != nil {
		deps.CaseHandler.RegisterAdminRoutes(admin)
	}

	return r
}

const netlifyPrefix = "/.netlify/functions/"

// exceptNetlify skips next for the serverless-compatible paths, which answer
// their own preflights.
func exceptNetlify(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, netlifyPrefix) {
			c.Next()
			return
		}
		next(c)
	}
}

func rateLimitGroup(c *gin.Context) string {
	path := c.FullPath()
	switch {
	case strings.HasPrefix(path, "/api/v1/auth/"):
		return "AUTH"
	case strings.HasSuffix(path, "/generate-forms"), strings.HasSuffix(path, "/forms/generate"):
		return "UPSTREAM"
	case c.Request.Method == http.MethodGet && (strings.HasSuffix(path, "/dashboard") || strings.Contains(path, "/messages")):
		return "POLLING"
	case path == "/api/v1/checkout/webhook":
		// Processor retries must never be throttled.
		return "NONE"
	default:
		return "DEFAULT"
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
