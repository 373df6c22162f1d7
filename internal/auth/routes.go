package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes registers auth routes
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, service *Service) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/otp/request", handler.RequestOTP)
		authGroup.POST("/otp/verify", handler.VerifyOTP)

		session := authGroup.Group("")
		session.Use(Middleware(service))
		{
			session.GET("/me", handler.Me)
			session.PUT("/me/wallet", handler.SetWallet)
		}
	}
}
