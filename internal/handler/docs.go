// Package handler provides the HTTP handlers of the repodoc server.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CageChen/repodoc/internal/config"
	"github.com/CageChen/repodoc/internal/markdown"
	"github.com/CageChen/repodoc/internal/runner"
)

// DocSummary describes one target in the document list
type DocSummary struct {
	ID          string     `json:"id"`
	Alias       string     `json:"alias"`
	Path        string     `json:"path"`
	Dir         string     `json:"dir,omitempty"`
	GitRef      string     `json:"gitRef,omitempty"`
	OutputPath  string     `json:"outputPath,omitempty"`
	GeneratedAt *time.Time `json:"generatedAt,omitempty"`
}

// DocResponse represents the response for a document request
type DocResponse struct {
	ID          string             `json:"id"`
	Alias       string             `json:"alias"`
	Title       string             `json:"title"`
	HTML        string             `json:"html"`
	TOC         []markdown.TOCItem `json:"toc"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// DocHandler serves generated structure documents
type DocHandler struct {
	runner *runner.Runner
	parser *markdown.Parser
}

// NewDocHandler creates a new document handler
func NewDocHandler(r *runner.Runner) *DocHandler {
	return &DocHandler{
		runner: r,
		parser: markdown.NewParser(),
	}
}

// List returns every target with the time its document was last generated
func (h *DocHandler) List(c *gin.Context) {
	targets := h.runner.Targets()
	docs := make([]DocSummary, 0, len(targets))
	for _, t := range targets {
		summary := DocSummary{
			ID:         t.ID,
			Alias:      t.Alias,
			Path:       t.Folder.Path,
			Dir:        t.Dir,
			GitRef:     t.Folder.GitRef,
			OutputPath: h.runner.OutputPath(t),
		}
		if res, ok := h.runner.Result(t.ID); ok {
			generatedAt := res.GeneratedAt
			summary.GeneratedAt = &generatedAt
		}
		docs = append(docs, summary)
	}
	c.JSON(http.StatusOK, gin.H{"docs": docs})
}

// result returns the latest document of the requested target, generating it on first
// access.
func (h *DocHandler) result(c *gin.Context) (runner.Result, bool) {
	t, ok := h.runner.Target(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "document not found",
		})
		return runner.Result{}, false
	}
	if res, ok := h.runner.Result(t.ID); ok {
		return res, true
	}
	return h.generate(c, t)
}

func (h *DocHandler) generate(c *gin.Context, t config.Target) (runner.Result, bool) {
	res := h.runner.Write(t)
	if res.Err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to generate document: " + res.Err.Error(),
		})
		return runner.Result{}, false
	}
	return res, true
}

// Get returns the rendered HTML and table of contents of a document
func (h *DocHandler) Get(c *gin.Context) {
	res, ok := h.result(c)
	if !ok {
		return
	}

	parsed, err := h.parser.Parse([]byte(res.Document))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to parse markdown: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, DocResponse{
		ID:          res.Target.ID,
		Alias:       res.Target.Alias,
		Title:       parsed.Title,
		HTML:        parsed.HTML,
		TOC:         parsed.TOC,
		GeneratedAt: res.GeneratedAt,
	})
}

// GetRaw returns the raw markdown of a document
func (h *DocHandler) GetRaw(c *gin.Context) {
	res, ok := h.result(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(res.Document))
}

// View returns a document as a standalone page that reloads when it is regenerated
func (h *DocHandler) View(c *gin.Context) {
	res, ok := h.result(c)
	if !ok {
		return
	}

	page, err := h.parser.Render([]byte(res.Document), markdown.PageOptions{
		ID:         res.Target.ID,
		LiveReload: true,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to render page: " + err.Error(),
		})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// Regenerate rebuilds a document immediately
func (h *DocHandler) Regenerate(c *gin.Context) {
	t, ok := h.runner.Target(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "document not found",
		})
		return
	}
	res, ok := h.generate(c, t)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "document regenerated",
		"id":          res.Target.ID,
		"generatedAt": res.GeneratedAt,
	})
}
