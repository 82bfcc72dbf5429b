package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"circlerate/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	jwtServ *service.JWTService,
	authH *AuthHandler,
	contactH *ContactHandler,
	ratingH *RatingHandler,
	notificationH *NotificationHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	requireAuth := JWTAuthMiddleware(jwtServ)

	auth := r.Group("/auth")
	auth.POST("/request-code", authH.RequestCode)
	auth.POST("/verify-code", authH.VerifyCode)
	auth.POST("/refresh", authH.RefreshToken)
	auth.POST("/logout", authH.Logout)
	auth.GET("/me", requireAuth, authH.Me)
	auth.PUT("/profile", requireAuth, authH.UpdateProfile)

	contacts := r.Group("/contacts", requireAuth)
	contacts.GET("/circles", contactH.ListCircles)
	contacts.POST("/circles", contactH.CreateCircle)
	contacts.PUT("/circles/:id", contactH.UpdateCircle)
	contacts.DELETE("/circles/:id", contactH.DeleteCircle)
	contacts.GET("", contactH.ListContacts)
	contacts.POST("", contactH.CreateContact)
	contacts.PUT("/:id", contactH.UpdateContact)
	contacts.DELETE("/:id", contactH.DeleteContact)
	contacts.POST("/import", contactH.ImportContacts)
	contacts.POST("/send-invitations", contactH.SendInvitations)

	// Las rutas de sesión de calificación son públicas: el token de
	// invitación es la credencial.
	ratings := r.Group("/ratings")
	ratings.GET("/traits", ratingH.ListTraits)
	ratings.GET("/validate-token/:token", ratingH.ValidateToken)
	ratings.POST("/submit", ratingH.SubmitRating)
	ratings.POST("/skip", ratingH.SkipTrait)
	ratings.GET("/trait-details/:userId/:traitId", ratingH.TraitDetails)
	ratings.GET("/users/:id", requireAuth, ratingH.ReputationSummary)

	notifications := r.Group("/notifications", requireAuth)
	notifications.GET("", notificationH.List)
	notifications.PUT("/read-all", notificationH.MarkAllRead)
	notifications.PUT("/:id/read", notificationH.MarkRead)
	notifications.DELETE("/:id", notificationH.Delete)

	return r
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

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
