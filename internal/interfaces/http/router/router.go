package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/propertyhub/backend/internal/infrastructure/logger"
	"github.com/propertyhub/backend/internal/interfaces/http/dto"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RegistrarFunc adapts a plain function to RouteRegistrar
type RegistrarFunc func(rg *gin.RouterGroup)

// RegisterRoutes implements RouteRegistrar
func (f RegistrarFunc) RegisterRoutes(rg *gin.RouterGroup) {
	f(rg)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithMiddleware adds middleware that runs on the versioned API group only.
// Engine-wide middleware such as request IDs belongs on the engine itself.
func WithMiddleware(mw ...gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.middleware = append(r.middleware, mw...)
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// BasePath returns the versioned API prefix
func (r *Router) BasePath() string {
	return "/api/" + r.apiVersion
}

// Setup registers all routes with the engine and installs envelope-shaped
// 404 and 405 responses.
func (r *Router) Setup() {
	api := r.engine.Group(r.BasePath())
	if len(r.middleware) > 0 {
		api.Use(r.middleware...)
	}

	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}

	r.engine.HandleMethodNotAllowed = true
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound,
			"Route "+c.Request.URL.Path+" not found", requestID(c)))
	})
	r.engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponse(dto.ErrCodeMethodNotAllowed,
			"Method "+c.Request.Method+" not allowed", requestID(c)))
	})
}

func requestID(c *gin.Context) string {
	return c.GetString(logger.GinRequestIDKey)
}
