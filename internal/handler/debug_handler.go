package handler

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/kbhavake/dentalgpt/internal/config"
	"github.com/kbhavake/dentalgpt/internal/pkg/response"
	"github.com/kbhavake/dentalgpt/internal/vector"
)

type DebugHandler struct {
	cfg   *config.Config
	db    *sql.DB
	index vector.Index
}

func NewDebugHandler(cfg *config.Config, db *sql.DB, index vector.Index) *DebugHandler {
	return &DebugHandler{cfg: cfg, db: db, index: index}
}

func (h *DebugHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "healthy"})
}

// Info reports wiring status for operators: which providers are configured
// and whether the database and vector index answer. Secrets never appear
// here, only whether they are set.
func (h *DebugHandler) Info(c *gin.Context) {
	info := gin.H{
		"ai_provider":       h.cfg.AI.Provider,
		"ai_embed_provider": h.cfg.AI.EmbedProvider,
		"llm_model":         h.cfg.AI.LLMModel,
		"embed_model":       h.cfg.AI.EmbedModel,
		"dimension":         h.cfg.AI.Dimension,
		"voice_configured":  h.cfg.Voice.APIKey != "",
		"google_client_id":  h.cfg.Google.ClientID != "",
	}
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		info["database_connection"] = "ERROR: " + err.Error()
	} else {
		info["database_connection"] = "OK"
	}
	if stats, err := h.index.Stats(c.Request.Context()); err != nil {
		info["vector_index"] = "ERROR: " + err.Error()
	} else {
		info["vector_index"] = stats
	}
	response.Success(c, info)
}
