package handler

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/CageChen/repodoc/internal/config"
	"github.com/CageChen/repodoc/internal/fs"
	"github.com/CageChen/repodoc/internal/runner"
)

// FolderHandler manages the configured project folders
type FolderHandler struct {
	cfg    *config.Config
	runner *runner.Runner
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(cfg *config.Config, r *runner.Runner) *FolderHandler {
	return &FolderHandler{cfg: cfg, runner: r}
}

// GetFolders returns the configured folders, subdirectories and global excludes
func (h *FolderHandler) GetFolders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"folders":       h.cfg.Folders,
		"subdirs":       h.cfg.Subdirs,
		"globalExclude": h.cfg.Exclude,
	})
}

// AddFolderRequest represents a request to add a folder
type AddFolderRequest struct {
	Path    string   `json:"path" binding:"required"`
	Alias   string   `json:"alias"`
	GitRef  string   `json:"git_ref"`
	SubPath string   `json:"sub_path"`
	Exclude []string `json:"exclude"`
}

// AddFolder adds a new folder to the configuration and generates its documents
func (h *FolderHandler) AddFolder(c *gin.Context) {
	var req AddFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "path is required",
		})
		return
	}

	// Validate path exists (it must be a directory on disk even for git_ref folders)
	info, err := os.Stat(req.Path)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "path does not exist: " + req.Path,
		})
		return
	}
	if !info.IsDir() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "path is not a directory",
		})
		return
	}

	if req.GitRef != "" || req.SubPath != "" {
		var fsys fs.FileSystem = fs.NewLocalFS(req.Path)
		if req.GitRef != "" {
			fsys = fs.NewGitFS(req.Path, req.GitRef)
		}
		if _, err := fs.NewRoot(fsys, req.SubPath, "", nil); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "invalid git_ref or sub_path: " + err.Error(),
			})
			return
		}
	}

	if err := h.cfg.AddFolder(req.Path, req.Alias, req.GitRef, req.SubPath, req.Exclude); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	if !h.saveAndReload(c) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "folder added",
		"folders": h.cfg.Folders,
	})
}

// RemoveFolderRequest represents a request to remove a folder (by index)
type RemoveFolderRequest struct {
	Index int `json:"index"`
}

// RemoveFolder removes a folder from the configuration by index
func (h *FolderHandler) RemoveFolder(c *gin.Context) {
	var req RemoveFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "index is required",
		})
		return
	}

	if req.Index < 0 || req.Index >= len(h.cfg.Folders) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid folder index",
		})
		return
	}

	h.cfg.RemoveFolderByIndex(req.Index)

	if !h.saveAndReload(c) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "folder removed",
		"folders": h.cfg.Folders,
	})
}

func (h *FolderHandler) saveAndReload(c *gin.Context) bool {
	if err := h.cfg.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to save config: " + err.Error(),
		})
		return false
	}
	h.runner.Reload()
	return true
}
