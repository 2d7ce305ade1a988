package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ledgermatch/dedup-backend/internal/api/dto"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// previewDedup runs the deterministic-only pipeline. Nothing is
// persisted, so the response carries no run ID.
func (s *Server) previewDedup(c *gin.Context) {
	var req dto.DedupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	result, err := s.dedup.Preview(req.AccountID, req.Records())
	if err != nil {
		s.logger.Error("preview failed", "account_id", req.AccountID, "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "preview failed"})
		return
	}

	c.JSON(http.StatusOK, dto.FromResult("", result))
}

// runDedup executes the full pipeline including semantic verification
// and records the run.
func (s *Server) runDedup(c *gin.Context) {
	var req dto.DedupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	result, runID, err := s.dedup.Run(c.Request.Context(), req.AccountID, req.Records())
	if err != nil {
		s.logger.Error("dedup run failed", "account_id", req.AccountID, "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "dedup run failed"})
		return
	}

	c.JSON(http.StatusOK, dto.FromResult(runID, result))
}

func (s *Server) listRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	runs, err := s.dedup.ListRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to list runs"})
		return
	}

	summaries := make([]dto.RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, dto.FromRun(run))
	}

	c.JSON(http.StatusOK, summaries)
}

func (s *Server) getRun(c *gin.Context) {
	id := c.Param("id")

	run, err := s.dedup.GetRun(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to fetch run"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "run not found"})
		return
	}

	c.JSON(http.StatusOK, dto.FromRun(run))
}
