package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/eventgov/internal/core"
	"github.com/agenthands/eventgov/internal/core/alias"
	"github.com/agenthands/eventgov/internal/core/model"
	"github.com/agenthands/eventgov/internal/core/taxonomy"
	"github.com/agenthands/eventgov/internal/logger"
	"github.com/agenthands/eventgov/internal/store"
)

type Server struct {
	Engine   *core.Engine
	Store    *store.Store
	Taxonomy *taxonomy.Engine
	Aliases  *alias.Governor
	log      *logger.Logger
}

func NewServer(engine *core.Engine, s *store.Store, tax *taxonomy.Engine, al *alias.Governor, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{Engine: engine, Store: s, Taxonomy: tax, Aliases: al, log: log}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/status", s.Status)
	r.POST("/logs", s.AddLogs)
	r.POST("/logs/:id/process", s.ProcessLog)
	r.GET("/events", s.ListEvents)
	r.GET("/taxonomy", s.ListTaxonomy)
	r.GET("/aliases", s.ListAliases)
	r.GET("/suggestions", s.ListSuggestions)
	r.POST("/batch", s.RunBatch)
	r.POST("/governance", s.Govern)

	return r
}

func (s *Server) Status(c *gin.Context) {
	ctx := c.Request.Context()
	counts, err := s.Store.Counts(ctx)
	if err != nil {
		s.fail(c, "Failed to read status", err)
		return
	}
	aliases, err := s.Aliases.Summary(ctx)
	if err != nil {
		s.fail(c, "Failed to read status", err)
		return
	}
	candidates, err := s.Taxonomy.CandidateSummary(ctx, 10)
	if err != nil {
		s.fail(c, "Failed to read status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts, "aliases": aliases, "candidates": candidates})
}

// AddLogs accepts a single log object or an array of them.
func (s *Server) AddLogs(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var docs []model.Document
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		err = json.Unmarshal(body, &docs)
	} else {
		var doc model.Document
		err = json.Unmarshal(body, &doc)
		docs = append(docs, doc)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	for i, doc := range docs {
		if doc.ID == "" || doc.Content == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "doc_id and content are required", "index": i})
			return
		}
	}
	for _, doc := range docs {
		if err := s.Store.UpsertDocument(c.Request.Context(), doc); err != nil {
			s.fail(c, "Failed to store log", err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "stored": len(docs)})
}

func (s *Server) ProcessLog(c *gin.Context) {
	report, err := s.Engine.ProcessByID(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Log not found"})
	case errors.Is(err, core.ErrBatchRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		s.fail(c, "Failed to process log", err)
	default:
		c.JSON(http.StatusOK, report)
	}
}

func (s *Server) ListEvents(c *gin.Context) {
	filter := model.EventFilter{
		DocumentID: c.Query("doc_id"),
		School:     c.Query("school"),
		Status:     model.ConsistencyStatus(c.Query("status")),
		Limit:      queryInt(c, "limit", 100),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}
	events, err := s.Store.ListEvents(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, "Failed to list events", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) ListTaxonomy(c *gin.Context) {
	filter := model.TagFilter{
		Dimension: model.Dimension(c.Query("dimension")),
		Status:    model.LifecycleStatus(c.Query("status")),
	}
	if filter.Dimension != "" && !filter.Dimension.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dimension"})
		return
	}
	tags, err := s.Store.ListTags(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, "Failed to list taxonomy", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

func (s *Server) ListAliases(c *gin.Context) {
	filter := model.AliasFilter{
		EntityType: model.EntityType(c.Query("entity_type")),
		Status:     model.LifecycleStatus(c.Query("status")),
	}
	if filter.EntityType != "" && !filter.EntityType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entity_type"})
		return
	}
	aliases, err := s.Store.ListAliases(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, "Failed to list aliases", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"aliases": aliases})
}

func (s *Server) ListSuggestions(c *gin.Context) {
	suggestions, err := s.Store.ListSuggestions(c.Request.Context())
	if err != nil {
		s.fail(c, "Failed to list suggestions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

type BatchRequest struct {
	Limit int `json:"limit"`
}

func (s *Server) RunBatch(c *gin.Context) {
	var req BatchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
	}

	report, err := s.Engine.RunBatch(c.Request.Context(), req.Limit)
	if errors.Is(err, core.ErrBatchRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.fail(c, "Batch failed", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) Govern(c *gin.Context) {
	report, err := s.Engine.Govern(c.Request.Context())
	if errors.Is(err, core.ErrBatchRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.fail(c, "Governance failed", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) fail(c *gin.Context, msg string, err error) {
	s.log.Error(msg, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
