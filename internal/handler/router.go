package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbhavake/dentalgpt/internal/middleware"
)

type RouterDeps struct {
	Auth      *AuthHandler
	Chats     *ChatHandler
	Patients  *PatientHandler
	Ingest    *IngestHandler
	Voice     *VoiceHandler
	Files     *FileHandler
	Debug     *DebugHandler
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", deps.Debug.Health)
	api.GET("/debug", deps.Debug.Info)
	api.POST("/auth/google", deps.Auth.GoogleLogin)
	api.GET("/files/:key", deps.Files.Get)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.GET("/auth/me", deps.Auth.Me)

	authGroup.POST("/chats", deps.Chats.Create)
	authGroup.GET("/chats", deps.Chats.List)
	authGroup.PATCH("/chats/:id", deps.Chats.Update)
	authGroup.DELETE("/chats/:id", deps.Chats.Delete)
	authGroup.GET("/chats/:id/messages", deps.Chats.Messages)

	authGroup.POST("/patients", deps.Patients.Create)
	authGroup.GET("/patients", deps.Patients.List)
	authGroup.GET("/patients/:id", deps.Patients.Get)
	authGroup.PATCH("/patients/:id", deps.Patients.Update)
	authGroup.GET("/patient-history/:id", deps.Patients.History)

	authGroup.GET("/recent-queries", deps.Chats.RecentQueries)
	authGroup.POST("/upload-image", deps.Ingest.UploadImage)

	// retrieval+generation and ingestion burn provider quota; one request per
	// second per client is plenty for an assistant UI
	expensive := authGroup.Group("")
	expensive.Use(middleware.RateLimit(time.Second))
	expensive.POST("/chats/:id/messages", deps.Chats.PostMessage)
	expensive.POST("/query", deps.Chats.DirectQuery)
	expensive.POST("/ingest", deps.Ingest.IngestText)
	expensive.POST("/upload-document", deps.Ingest.UploadDocument)
	expensive.POST("/voice/transcribe", deps.Voice.Transcribe)
}
