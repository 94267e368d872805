package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/abelzeko/panchayat-water/internal/diagnostics"
	"github.com/abelzeko/panchayat-water/internal/entities"
	"github.com/abelzeko/panchayat-water/internal/report"
	"github.com/abelzeko/panchayat-water/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	maxListLimit       = 500
	defaultExportLimit = 1000
	xlsxContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Diagnostics is the use case surface exposed over HTTP and chat
type Diagnostics interface {
	AssessLeak(ctx context.Context, subject string, reading entities.LeakReading) (entities.LeakResult, *entities.Evaluation, error)
	AssessDailyCheck(ctx context.Context, subject string, reading entities.DailyCheckReading) (entities.DailyCheckResult, *entities.Evaluation, error)
	AssessMaintenance(ctx context.Context, subject string, reading entities.MaintenanceReading) (entities.MaintenanceResult, *entities.Evaluation, error)
	AssessWaterQuality(ctx context.Context, subject string, reading entities.WaterQualityReading) (entities.WaterQualityResult, *entities.Evaluation, error)
	AggregateHealth(ctx context.Context, subject string, inputs entities.HealthScoreInputs) (entities.HealthScoreResult, *entities.Evaluation, error)
	GetEvaluation(ctx context.Context, id string) (*entities.Evaluation, error)
	RecentEvaluations(ctx context.Context, filter repository.EvaluationFilter) ([]entities.Evaluation, error)
}

// HTTPServer serves the diagnostics API
type HTTPServer struct {
	engine *gin.Engine
	diag   Diagnostics
	logger *zap.Logger
}

// NewHTTPServer creates the gin engine and registers all routes
func NewHTTPServer(diag Diagnostics, logger *zap.Logger) *HTTPServer {
	s := &HTTPServer{
		engine: gin.New(),
		diag:   diag,
		logger: logger,
	}

	s.engine.Use(requestLogger(logger), gin.Recovery())
	s.engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	v1 := s.engine.Group("/v1")
	v1.POST("/leak", assessHandler(s, diag.AssessLeak))
	v1.POST("/daily-check", assessHandler(s, diag.AssessDailyCheck))
	v1.POST("/maintenance", assessHandler(s, diag.AssessMaintenance))
	v1.POST("/water-quality", assessHandler(s, diag.AssessWaterQuality))
	v1.POST("/health-score", assessHandler(s, diag.AggregateHealth))
	v1.GET("/evaluations", s.listEvaluations)
	v1.GET("/evaluations/export", s.exportEvaluations)
	v1.GET("/evaluations/:id", s.getEvaluation)

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return s
}

// Handler exposes the engine for http.Server and tests
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *HTTPServer) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

type assessRequest[R any] struct {
	Subject string `json:"subject"`
	Reading *R     `json:"reading"`
}

func assessHandler[R, S any](s *HTTPServer, assess func(context.Context, string, R) (S, *entities.Evaluation, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req assessRequest[R]
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
			return
		}
		if req.Reading == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reading is required"})
			return
		}

		result, e, err := assess(c.Request.Context(), req.Subject, *req.Reading)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"result": result, "evaluation": e})
	}
}

func (s *HTTPServer) getEvaluation(c *gin.Context) {
	e, err := s.diag.GetEvaluation(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": e})
}

func (s *HTTPServer) listEvaluations(c *gin.Context) {
	filter, err := filterFromQuery(c, 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	evals, err := s.diag.RecentEvaluations(c.Request.Context(), filter)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if evals == nil {
		evals = []entities.Evaluation{}
	}
	c.JSON(http.StatusOK, gin.H{"data": evals})
}

func (s *HTTPServer) exportEvaluations(c *gin.Context) {
	filter, err := filterFromQuery(c, defaultExportLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	evals, err := s.diag.RecentEvaluations(c.Request.Context(), filter)
	if err != nil {
		s.writeError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteEvaluations(&buf, evals); err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="evaluations.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func filterFromQuery(c *gin.Context, defaultLimit int) (repository.EvaluationFilter, error) {
	filter := repository.EvaluationFilter{
		Kind:    entities.Kind(c.Query("kind")),
		Subject: c.Query("subject"),
		Limit:   defaultLimit,
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		return filter, fmt.Errorf("unknown kind %q", filter.Kind)
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, fmt.Errorf("limit must be a positive integer")
		}
		filter.Limit = min(limit, maxListLimit)
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("since must be an RFC 3339 timestamp")
		}
		filter.Since = since
	}
	return filter, nil
}

func (s *HTTPServer) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, diagnostics.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
