package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kontrakwise/backend/internal/middleware"
)

type RouterDeps struct {
	Auth          *AuthHandler
	Documents     *DocumentHandler
	DocumentTypes *DocumentTypeHandler
	Chat          *ChatHandler
	JWTSecret     []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/auth/register", deps.Auth.Register)
	api.POST("/auth/login", deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.GET("/auth/me", deps.Auth.Me)

	authGroup.POST("/documents/upload", deps.Documents.Upload)
	authGroup.GET("/documents", deps.Documents.List)
	authGroup.GET("/documents/:id", deps.Documents.Get)
	authGroup.DELETE("/documents/:id", deps.Documents.Delete)

	authGroup.POST("/document-types", deps.DocumentTypes.Create)
	authGroup.GET("/document-types", deps.DocumentTypes.List)
	authGroup.GET("/document-types/:id", deps.DocumentTypes.Get)
	authGroup.PUT("/document-types/:id", deps.DocumentTypes.Update)
	authGroup.DELETE("/document-types/:id", deps.DocumentTypes.Delete)

	chatGroup := authGroup.Group("")
	chatGroup.Use(middleware.RateLimit(time.Second))
	chatGroup.POST("/chat/query", deps.Chat.Query)
	chatGroup.POST("/chat/query-stream", deps.Chat.QueryStream)
}
