package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roach88/qrelax/internal/compiler"
	"github.com/roach88/qrelax/internal/engine"
	"github.com/roach88/qrelax/internal/ir"
)

// HandleRepair handles POST /v1/repair.
//
// Response:
//
//	200 OK: engine.Report (exhaustion is a 200 with outcome "exhausted")
//	400 Bad Request: malformed body, query or strategy
//	504 Gateway Timeout: the repair ran past the request timeout
//	500 Internal Server Error: anything else
func (s *Server) HandleRepair(c *gin.Context) {
	logger := s.logger.With("handler", "HandleRepair")

	var req RepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidRequest})
		return
	}
	if req.K < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "k must be non-negative", Code: CodeInvalidRequest, Field: "k"})
		return
	}

	q, ok := s.compile(c, logger, req.Prefixes, req.QuerySpec)
	if !ok {
		return
	}
	eng, err := s.engineFor(req.Strategy)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidStrategy, Field: "strategy"})
		return
	}
	k := req.K
	if k == 0 {
		k = s.defaultK
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	report, err := eng.Repair(ctx, q, k)
	if err != nil {
		s.writeEngineError(c, logger, err)
		return
	}

	logger.Info("repair served",
		"request_id", report.RequestID,
		"outcome", report.Outcome,
		"results", len(report.Results))
	c.JSON(http.StatusOK, report)
}

// HandleAnalyze handles POST /v1/analyze.
func (s *Server) HandleAnalyze(c *gin.Context) {
	logger := s.logger.With("handler", "HandleAnalyze")

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidRequest})
		return
	}
	q, ok := s.compile(c, logger, req.Prefixes, req.QuerySpec)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	a, err := s.engine.Analyze(ctx, q)
	if err != nil {
		s.writeEngineError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, AnalyzeResponse{
		RequestID:  a.RequestID,
		Query:      a.Query,
		MFS:        nonNil(a.MFSViews),
		XSS:        nonNil(a.XSSViews),
		RoundTrips: a.RoundTrips,
	})
}

// HandleHealth handles GET /healthz.
func (s *Server) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:   "ok",
		Strategy: s.engine.Strategy().String(),
		Version:  ir.EngineVersion,
	})
}

// compile builds the request query and writes a 400 when it is invalid.
func (s *Server) compile(c *gin.Context, logger *slog.Logger, prefixes map[string]string, spec compiler.QuerySpec) (*ir.Query, bool) {
	q, err := compiler.BuildQuery(spec, compiler.DefaultPrefixes().With(prefixes))
	if err == nil {
		return q, true
	}

	logger.Warn("invalid query", "error", err)
	resp := ErrorResponse{Error: err.Error(), Code: CodeInvalidQuery}
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		resp.Field = ce.Field
	}
	c.JSON(http.StatusBadRequest, resp)
	return nil, false
}

func (s *Server) writeEngineError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case engine.IsMalformedQuery(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidQuery})
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("request timed out", "error", err)
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: err.Error(), Code: CodeTimeout})
	default:
		logger.Error("repair failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: CodeRepairFailed})
	}
}

func nonNil(views []engine.QueryView) []engine.QueryView {
	if views == nil {
		return []engine.QueryView{}
	}
	return views
}
