// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"planp/internal/delivery/api/middleware"
	"planp/internal/delivery/api/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	UserHandler    *handler.UserHandler
	HealthHandler  *handler.HealthHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	userHandler    *handler.UserHandler
	healthHandler  *handler.HealthHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
func NewRouter(params RouterParams) *router {
	return &router{
		userHandler:    params.UserHandler,
		healthHandler:  params.HealthHandler,
		authMiddleware: params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", r.healthHandler.HealthCheck)

	users := e.Group("/api/users")
	{
		users.POST("/signup", r.userHandler.Signup)
		users.POST("/login", r.userHandler.Login)
		users.GET("/check-id", r.userHandler.CheckUserID)
		users.GET("/check-email", r.userHandler.CheckEmail)
		users.POST("/refresh", r.userHandler.RefreshToken)
		users.POST("/logout", r.userHandler.Logout)
		users.POST("/oauth/google", r.userHandler.GoogleLogin)
	}

	// Routes behind the authentication filter.
	me := users.Group("/me", r.authMiddleware.Authenticate)
	{
		me.GET("", r.userHandler.GetProfile)
		me.DELETE("", r.userHandler.DeleteAccount)
		me.PUT("/password", r.userHandler.ChangePassword)
	}
}
