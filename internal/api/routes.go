package api

import (
	"net/http"
	"time"

	"peakform/coach-app/internal/billing"
	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/email"
	"peakform/coach-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RouteDeps carries everything the function endpoints need.
type RouteDeps struct {
	JWTSecret     string
	AppBaseURL    string
	AllowedOrigin string
	Billing       *billing.Client
	Mail          email.Provider
	Invites       service.InviteService
	Redis         *redis.Client
}

// SetupRoutes mounts the function endpoints.
func SetupRoutes(router *gin.Engine, deps RouteDeps) {
	billingHandler := NewBillingHandler(deps.Billing, deps.AppBaseURL)
	emailHandler := NewEmailHandler(deps.Mail)
	inviteHandler := NewInviteHandler(deps.Invites)

	router.Use(CORSMiddleware(deps.AllowedOrigin))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	authMiddleware := AuthMiddleware(deps.JWTSecret)

	functions := router.Group("/functions")
	{
		// Accepting an invitation happens before the invitee has a session.
		acceptLimit := functions.Group("")
		if deps.Redis != nil {
			acceptLimit.Use(RateLimitMiddleware(deps.Redis, 10, 10*time.Minute))
		}
		acceptLimit.POST("/invite/:token/accept", inviteHandler.AcceptInvitation)

		protected := functions.Group("")
		protected.Use(authMiddleware)
		if deps.Redis != nil {
			protected.Use(RateLimitMiddleware(deps.Redis, 30, time.Minute))
		}
		{
			protected.POST("/checkout-session", RoleMiddleware(domain.RoleCoach), billingHandler.CreateCheckoutSession)
			protected.GET("/checkout-session/:id", RoleMiddleware(domain.RoleCoach), billingHandler.GetCheckoutSession)

			protected.POST("/send-email", emailHandler.SendEmail)

			protected.POST("/invite", RoleMiddleware(domain.RoleCoach), inviteHandler.CreateInvitation)
		}
	}
}
