package api

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"cpseval/domain/core"
	"cpseval/internal/analysis"
	"cpseval/internal/config"
	"cpseval/internal/errors"
	"cpseval/internal/report"
	"cpseval/ports"

	"github.com/gin-gonic/gin"
)

// AnalysisHandler serves analysis runs and stored reports.
type AnalysisHandler struct {
	engine   *analysis.Engine
	reports  ports.ReportRepository
	ledger   ports.LedgerSubmitter
	defaults config.EngineConfig
}

// NewAnalysisHandler creates a new analysis handler. ledger may be nil.
func NewAnalysisHandler(
	engine *analysis.Engine,
	reports ports.ReportRepository,
	ledger ports.LedgerSubmitter,
	defaults config.EngineConfig,
) *AnalysisHandler {
	return &AnalysisHandler{
		engine:   engine,
		reports:  reports,
		ledger:   ledger,
		defaults: defaults,
	}
}

// CreateAnalysis scores the posted records and stores the report.
func (h *AnalysisHandler) CreateAnalysis(c *gin.Context) {
	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	opts, err := req.Options.resolve(h.defaults)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.engine.Run(c.Request.Context(), req.metricRecords(), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	h.finish(c, result)
}

// CreateComparison compares precomputed CPS series.
func (h *AnalysisHandler) CreateComparison(c *gin.Context) {
	var req ComparisonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	opts, err := req.Options.resolve(h.defaults)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.engine.CompareScores(c.Request.Context(), req.scoreSeries(), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	h.finish(c, result)
}

func (h *AnalysisHandler) finish(c *gin.Context, result *analysis.Result) {
	ctx := c.Request.Context()
	if err := h.reports.Save(ctx, result.Report); err != nil {
		respondError(c, err)
		return
	}
	h.submitLedger(ctx, result.Report)
	c.JSON(http.StatusCreated, result)
}

// submitLedger forwards scored rows. Failures are logged, not returned:
// the report is already stored.
func (h *AnalysisHandler) submitLedger(ctx context.Context, rep *report.Report) {
	if h.ledger == nil {
		return
	}
	var entries []ports.LedgerEntry
	for _, row := range rep.Rows {
		if !row.Scored() {
			continue
		}
		entries = append(entries, ports.LedgerEntry{
			RunID:   rep.RunID,
			Model:   row.Model,
			Fields:  report.LedgerFields,
			Payload: report.LedgerPayload(row),
		})
	}
	if err := h.ledger.Submit(ctx, entries); err != nil {
		log.Printf("[AnalysisHandler] Ledger submission for run %s failed: %v", rep.RunID, err)
	}
}

// ListAnalyses returns stored report summaries.
func (h *AnalysisHandler) ListAnalyses(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	summaries, err := h.reports.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyses": summaries, "limit": limit, "offset": offset})
}

// GetAnalysis returns a stored report as JSON.
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	rep, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rep)
}

// GetModels returns the per-model threshold analysis of a stored report.
func (h *AnalysisHandler) GetModels(c *gin.Context) {
	rep, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": rep.RunID, "models": rep.AnalyzeModels()})
}

// GetMarkdown renders a stored report as Markdown.
func (h *AnalysisHandler) GetMarkdown(c *gin.Context) {
	rep, ok := h.load(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(rep.Markdown()))
}

// GetHTML renders a stored report as a standalone HTML page.
func (h *AnalysisHandler) GetHTML(c *gin.Context) {
	rep, ok := h.load(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", rep.HTML())
}

// GetSchema returns the metric schema the engine scores against.
func (h *AnalysisHandler) GetSchema(c *gin.Context) {
	s := h.engine.Schema()
	c.JSON(http.StatusOK, gin.H{"hash": s.Hash(), "metrics": s.Entries()})
}

func (h *AnalysisHandler) load(c *gin.Context) (*report.Report, bool) {
	runID, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	rep, err := h.reports.GetByRunID(c.Request.Context(), runID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return rep, true
}

// respondError maps application error codes to HTTP statuses.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.CodeConfigInvalid, errors.CodeInvalidInput:
		status = http.StatusBadRequest
	case errors.CodeMissingMetadata, errors.CodeInsufficientData, errors.CodeNoBaseline:
		status = http.StatusUnprocessableEntity
	case errors.CodeNotFound:
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		log.Printf("[API] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
