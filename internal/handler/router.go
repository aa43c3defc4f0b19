package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CageChen/repodoc/internal/config"
	"github.com/CageChen/repodoc/internal/runner"
)

// NewRouter wires the document, folder and WebSocket handlers into a gin engine.
func NewRouter(cfg *config.Config, r *runner.Runner, ws *WSHandler) *gin.Engine {
	docHandler := NewDocHandler(r)
	folderHandler := NewFolderHandler(cfg, r)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	api := engine.Group("/api")
	{
		api.GET("/docs", docHandler.List)
		api.GET("/docs/:id", docHandler.Get)
		api.POST("/docs/:id/regenerate", docHandler.Regenerate)
		api.GET("/raw/:id", docHandler.GetRaw)
		api.GET("/ws", ws.HandleWS)

		api.GET("/folders", folderHandler.GetFolders)
		api.POST("/folders", folderHandler.AddFolder)
		api.DELETE("/folders", folderHandler.RemoveFolder)
	}
	engine.GET("/view/:id", docHandler.View)

	// The first document is the landing page
	engine.GET("/", func(c *gin.Context) {
		targets := r.Targets()
		if len(targets) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "no folders configured"})
			return
		}
		c.Redirect(http.StatusFound, "/view/"+targets[0].ID)
	})

	return engine
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
