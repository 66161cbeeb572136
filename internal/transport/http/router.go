package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hallpass/hallpass/internal/session"
	"github.com/hallpass/hallpass/internal/transport/http/handler"
	"github.com/hallpass/hallpass/internal/transport/http/middleware"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(logger *slog.Logger, authHandler *handler.AuthHandler, sessions *session.Issuer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	auth := r.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.GET("/verify", authHandler.Verify)
	auth.POST("/resend-verification", authHandler.Resend)
	auth.POST("/logout", authHandler.Logout)

	r.GET("/me", middleware.Auth(sessions), authHandler.Me)

	return r
}
