package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/lighted-app/lighted-backend/internal/api/http"
	"github.com/lighted-app/lighted-backend/internal/auth"
	"github.com/lighted-app/lighted-backend/internal/projects"
	"github.com/lighted-app/lighted-backend/internal/realtime"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	DB             *pgxpool.Pool
	Redis          *redis.Client
	Tokens         *auth.Issuer
	Google         auth.CredentialVerifier
	Uploads        projects.Uploader
	Notifier       *realtime.Notifier
	Hub            *realtime.Hub
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api")
	requireUser := auth.RequireUser(dep.Tokens)

	userRepo := auth.NewRepo(dep.DB)
	authHandler := auth.NewHandler(userRepo, dep.Tokens, dep.Google)

	authGroup := api.Group("/auth")
	authGroup.Use(RateLimit(5, 10))
	authedAuth := authGroup.Group("")
	authedAuth.Use(requireUser)
	auth.RegisterRoutes(authGroup, authedAuth, authHandler)

	projectRepo := projects.NewRepo(dep.DB)
	projectHandler := projects.NewHandler(projectRepo, dep.Uploads, dep.Notifier)

	projectsGroup := api.Group("/projects")
	projectsGroup.Use(requireUser, MaxBodyBytes(maxProjectBodyBytes))
	projects.Register(projectsGroup, projectHandler)

	if dep.Hub != nil {
		r.GET("/ws", dep.Hub.HandleWS)
	}

	return r
}
