// Package server exposes the verification pipeline over HTTP: upload an
// invoice PDF to parse it, upload photos to match them against a target MPN,
// or pull the whole run as an XLSX workbook.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jchiu-fusion/mpn-matcher-web/internal/common"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/export"
	"github.com/jchiu-fusion/mpn-matcher-web/internal/pipeline"
)

type Server struct {
	cfg      common.ServerConfig
	verifier *pipeline.Verifier
	exporter *export.Service
	log      *slog.Logger
}

func NewServer(cfg common.ServerConfig, verifier *pipeline.Verifier, exporter *export.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, verifier: verifier, exporter: exporter, log: logger}
}

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/invoice/parse", s.handleParseInvoice)
	api.POST("/verify", s.handleVerify)
	api.POST("/verify/export", s.handleVerifyExport)

	return r
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), id))
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log.Info("http.request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"request_id", common.RequestIDFromContext(c.Request.Context()),
		)
	}
}

// abortError maps pipeline errors onto HTTP status codes. Invalid input is
// the caller's fault; everything else is a collaborator or internal failure.
func (s *Server) abortError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	if isInvalidInput(err) {
		status = http.StatusBadRequest
	}
	s.log.Error("http.request.failed",
		"path", c.Request.URL.Path,
		"status", status,
		"error", err,
		"request_id", common.RequestIDFromContext(c.Request.Context()),
	)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
