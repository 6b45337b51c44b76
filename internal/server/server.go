package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pricebook/ratesheet-extractor/internal/common"
	"github.com/pricebook/ratesheet-extractor/internal/export"
	"github.com/pricebook/ratesheet-extractor/internal/pipeline"
	"github.com/pricebook/ratesheet-extractor/internal/store"
)

const sessionCookie = "rs_session"

// Server is the thin HTTP surface over the extraction pipeline: upload a PDF,
// fetch the processed dataset, manage a per-session shortlist.
type Server struct {
	logger    *slog.Logger
	processor *pipeline.Processor
	store     *store.Store
	uploadDir string
	maxUpload int64
}

func New(logger *slog.Logger, proc *pipeline.Processor, st *store.Store, uploadDir string, maxUpload int64) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:    logger,
		processor: proc,
		store:     st,
		uploadDir: uploadDir,
		maxUpload: maxUpload,
	}
}

// Router builds the gin engine with CORS and the /api routes.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = s.maxUpload

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowCredentials = false
	r.Use(cors.New(corsCfg))
	r.Use(s.session())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/upload", s.Upload)
	api.GET("/get-data", s.GetData)
	api.POST("/shortlist", s.UpdateShortlist)
	return r
}

// session assigns a cookie token to first-time callers; all per-session state
// lives in the store, not in the cookie.
func (s *Server) session() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookie)
		if err != nil || token == "" {
			token = uuid.New().String()
			c.SetCookie(sessionCookie, token, int((30 * 24 * time.Hour).Seconds()), "/", "", false, true)
		}
		c.Set("session", token)
		c.Next()
	}
}

// Upload handles a multipart PDF upload and processes it synchronously.
func (s *Server) Upload(c *gin.Context) {
	file, err := c.FormFile("pdf_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file part"})
		return
	}
	if file.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No selected file"})
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file format. Please upload a PDF file."})
		return
	}
	if file.Size > s.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload folder unavailable"})
		return
	}
	name := fmt.Sprintf("%s_%s_%s",
		strings.ReplaceAll(uuid.New().String(), "-", ""),
		time.Now().Format("20060102_150405"),
		filepath.Base(file.Filename))
	savedPath := filepath.Join(s.uploadDir, name)
	if err := c.SaveUploadedFile(file, savedPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save upload"})
		return
	}

	runID := uuid.New().String()
	result, err := s.processor.ProcessPDF(c.Request.Context(), savedPath)
	if err != nil {
		s.logger.Error("server.upload.process_failed",
			"run_id", runID, "file", file.Filename, "error", err)
		rec := store.RunRecord{ID: runID, SourceName: file.Filename, Status: "failed"}
		if result != nil {
			rec.OutputDir = result.OutputDir
		}
		s.store.RecordRun(c.Request.Context(), rec)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	dataPath := result.Artifacts[export.KindStructured]
	s.store.RecordRun(c.Request.Context(), store.RunRecord{
		ID:         runID,
		SourceName: file.Filename,
		OutputDir:  result.OutputDir,
		DataPath:   dataPath,
		ItemCount:  result.Dataset.Metadata.TotalItems,
		Status:     "ok",
	})

	token := c.GetString("session")
	if err := s.store.SetCurrentDataset(c.Request.Context(), token, dataPath); err != nil {
		s.logger.Warn("server.upload.session_update_failed", "run_id", runID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   fmt.Sprintf("File processed successfully. Found %d items.", result.Dataset.Metadata.TotalItems),
		"data_path": dataPath,
	})
}

// GetData returns the session's current dataset plus its shortlist.
func (s *Server) GetData(c *gin.Context) {
	token := c.GetString("session")

	dataPath, err := s.store.CurrentDataset(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No processed data available"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ds, err := export.LoadDataset(dataPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No processed data available"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Error loading data: %v", err)})
		return
	}

	shortlist, err := s.store.Shortlist(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      gin.H{"structured_data": ds},
		"shortlist": shortlist,
	})
}

// UpdateShortlist adds or removes one item id from the session's shortlist.
func (s *Server) UpdateShortlist(c *gin.Context) {
	var req struct {
		ItemID int64  `json:"item_id"`
		Action string `json:"action"` // "add" or "remove"
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.ItemID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No item ID provided"})
		return
	}

	token := c.GetString("session")
	var err error
	switch req.Action {
	case "add":
		err = s.store.AddShortlist(c.Request.Context(), token, req.ItemID)
	case "remove":
		err = s.store.RemoveShortlist(c.Request.Context(), token, req.ItemID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be add or remove"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	shortlist, err := s.store.Shortlist(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "shortlist": shortlist})
}
