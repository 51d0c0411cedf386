package handlers

import (
	"smartbox_dashboard/internal/logger"
	"smartbox_dashboard/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Live snapshot push (HTTP upgrade on the same port)
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.bearerAuth)
	{
		h.registerSmartBoxRoutes(api)
		h.registerConnectionRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerSmartBoxRoutes(api *gin.RouterGroup) {
	box := api.Group("/smartbox")
	{
		box.GET("/state", h.getState)
		// Body example: {"type":"system","message":"check the box","severity":"high"}
		box.POST("/warning", h.sendWarning)
	}
}

func (h *Handler) registerConnectionRoutes(api *gin.RouterGroup) {
	conn := api.Group("/connection")
	{
		conn.GET("", h.getConnection)
		conn.POST("/reconnect", h.reconnect)
		conn.POST("/disconnect", h.disconnect)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
