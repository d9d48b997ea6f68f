package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"frontdesk/internal/infra/config"
	"frontdesk/internal/infra/obs"
)

type RoomHTTP interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Snapshot(c *gin.Context)
	Board(c *gin.Context)
}

type StayHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Action(c *gin.Context)
}

type GroupHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
}

type Handlers struct {
	Rooms   RoomHTTP
	Stays   StayHTTP
	Groups  GroupHTTP
	Metrics http.Handler
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the gin engine without touching the global gin mode.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := router.Group("/api/v1")
	if h.Rooms != nil {
		api.GET("/rooms", h.Rooms.List)
		api.POST("/rooms", h.Rooms.Create)
		api.GET("/rooms/:id/snapshot", h.Rooms.Snapshot)
		api.GET("/board", h.Rooms.Board)
	}
	if h.Stays != nil {
		api.POST("/stays", h.Stays.Create)
		api.GET("/stays/:id", h.Stays.Get)
		api.PATCH("/stays/:id", h.Stays.Update)
		api.POST("/stays/:id/:action", h.Stays.Action)
	}
	if h.Groups != nil {
		api.POST("/groups", h.Groups.Create)
		api.GET("/groups/:code", h.Groups.Get)
		api.PUT("/groups/:code", h.Groups.Update)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
