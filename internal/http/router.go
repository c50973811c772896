package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"youtrait/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(logger *zap.Logger, jwtSvc *service.JWTService, h Handlers) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery, CORS abierto y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware(), jsonContentTypeMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Filtro de contenido, público.
	for _, path := range []string{"/functions/profanity-filter", "/filter"} {
		r.POST(path, h.Filter.Check)
		r.OPTIONS(path, h.Filter.Preflight)
	}

	auth := r.Group("/auth")
	auth.POST("/signup", h.Auth.SignUp)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.RefreshToken)
	auth.POST("/logout", h.Auth.Logout)

	protected := r.Group("/")
	protected.Use(JWTAuthMiddleware(jwtSvc))

	me := protected.Group("/me")
	me.GET("", h.Auth.Me)
	me.PUT("/profile", h.Profile.UpdateProfile)
	me.POST("/avatar", h.Profile.UploadAvatar)
	me.GET("/traits", h.Traits.MyTraits)
	me.GET("/stats", h.Traits.Stats)
	me.GET("/notifications", h.Notifications.List)
	me.GET("/besties", h.Social.Besties)

	traits := protected.Group("/traits")
	traits.POST("", h.Traits.Endorse)
	traits.POST("/:id/approve", h.Traits.Approve)
	traits.POST("/:id/reject", h.Traits.Reject)
	traits.POST("/:id/upvote", h.Traits.Upvote)

	notifications := protected.Group("/notifications")
	notifications.POST("/read-all", h.Notifications.MarkAllRead)
	notifications.POST("/:id/read", h.Notifications.MarkRead)

	suggestions := protected.Group("/suggestions")
	suggestions.GET("", h.Suggestions.List)
	suggestions.POST("/generate", h.Suggestions.Generate)
	suggestions.POST("/:id/accept", h.Suggestions.Accept)
	suggestions.POST("/:id/reject", h.Suggestions.Reject)

	protected.POST("/reactions", h.Social.SendReaction)
	protected.POST("/besties/requests", h.Social.SendBestieRequest)
	protected.POST("/besties/requests/:id/respond", h.Social.RespondBestieRequest)

	protected.GET("/realtime/stream", h.Realtime.Stream)

	return r
}

// corsMiddleware abre CORS a cualquier origen; el preflight responde 200.
func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:              []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	})
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware pone Content-Type: application/json por defecto;
// los handlers que escriben otro formato lo sobrescriben.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
