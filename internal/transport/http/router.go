package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/blog/internal/middleware/auth"
	"github.com/Skotchmaster/blog/internal/service"
)

type Deps struct {
	Auth    *service.AuthService
	Posts   *service.PostService
	Store   Pinger
	Metrics http.Handler
}

// Register installs the error translator, the validator and every route.
func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler
	e.Validator = NewValidator()

	authH := &AuthHandler{Auth: d.Auth}
	postH := &PostHandler{Posts: d.Posts}
	healthH := &HealthHandler{Store: d.Store}
	requireAuth := authmw.RequireAuth(d.Auth)

	e.GET("/health", healthH.Health)
	e.GET("/health/live", healthH.Live)
	e.GET("/health/ready", healthH.Ready)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}

	authG := e.Group("/auth")
	authG.POST("/register", authH.Register)
	authG.POST("/login", authH.Login)
	authG.GET("/me", authH.Me, requireAuth)

	posts := e.Group("/posts")
	posts.GET("", postH.GetPosts)
	posts.GET("/:id", postH.GetPost)
	posts.POST("", postH.CreatePost, requireAuth)
	posts.PUT("/:id", postH.UpdatePost, requireAuth)
	posts.DELETE("/:id", postH.DeletePost, requireAuth)
}
