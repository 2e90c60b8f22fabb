package server

import (
	"github.com/abduss/postboard/internal/attachment"
	"github.com/abduss/postboard/internal/auth"
	"github.com/abduss/postboard/internal/comment"
	"github.com/abduss/postboard/internal/config"
	"github.com/abduss/postboard/internal/logger"
	"github.com/abduss/postboard/internal/metrics"
	"github.com/abduss/postboard/internal/post"
	"github.com/abduss/postboard/internal/user"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config            config.Config
	DB                *pgxpool.Pool
	ObjectStore       *minio.Client
	AuthService       *auth.Service
	UserService       *user.Service
	PostService       *post.Service
	CommentService    *comment.Service
	AttachmentService *attachment.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
// Reads are public; every write sits behind the access-token gate.
func NewRouter(deps Dependencies) *gin.Engine {
	metrics.InitMetrics()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	if deps.AuthService == nil {
		return router
	}

	public := router.Group("/")
	auth.RegisterRoutes(public, deps.AuthService)

	protected := router.Group("/")
	protected.Use(auth.AuthMiddleware(deps.AuthService))

	if deps.UserService != nil {
		user.RegisterRoutes(public, protected, deps.UserService)
	}
	if deps.PostService != nil {
		post.RegisterRoutes(public, protected, deps.PostService)
	}
	if deps.CommentService != nil {
		comment.RegisterRoutes(public, protected, deps.CommentService)
	}
	if deps.AttachmentService != nil {
		attachment.RegisterRoutes(public, protected, deps.AttachmentService)
	}

	return router
}
