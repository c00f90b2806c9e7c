package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AIchemizt/dance-analysis-server/internal/analyzer"
	"github.com/AIchemizt/dance-analysis-server/internal/models"
	"github.com/AIchemizt/dance-analysis-server/internal/repository"
)

// AnalyzeHandler runs the analysis pipeline for API callers.
type AnalyzeHandler struct {
	log      *zap.Logger
	analyzer *analyzer.Analyzer
	persist  bool
}

func NewAnalyzeHandler(log *zap.Logger, a *analyzer.Analyzer, persist bool) *AnalyzeHandler {
	return &AnalyzeHandler{log: log, analyzer: a, persist: persist}
}

// analyzeResponse is the report plus the stored run id when persistence is
// enabled.
type analyzeResponse struct {
	models.AnalysisReport
	ID string `json:"id,omitempty"`
}

// Analyze accepts an extracted landmark sequence and returns the analysis
// report. Landmark extraction happens upstream; this endpoint never sees
// video.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req models.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind analysis request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid landmark sequence",
			"message": err.Error(),
		})
		return
	}

	report, err := h.analyzer.Run(req.Frames, req.FPS)
	if err != nil {
		h.log.Error("Analysis run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Analysis failed",
			"message": err.Error(),
		})
		return
	}

	resp := analyzeResponse{AnalysisReport: *report}
	if h.persist {
		resp.ID = h.saveRun(c, &req, report)
	}

	h.log.Info("Analysis completed",
		zap.String("source", req.Source),
		zap.Int("total_frames", report.TotalFrames),
		zap.Int("detected_poses", len(report.DetectedPoses)),
	)
	c.JSON(http.StatusOK, resp)
}

// saveRun persists the report. Persistence failures are logged but never
// fail the request; the caller still gets their report.
func (h *AnalyzeHandler) saveRun(c *gin.Context, req *models.AnalysisRequest, report *models.AnalysisReport) string {
	blob, err := json.Marshal(report)
	if err != nil {
		h.log.Error("Failed to marshal report for storage", zap.Error(err))
		return ""
	}
	series, err := json.Marshal(report.MovementAnalysis.FrameDisplacement)
	if err != nil {
		h.log.Error("Failed to marshal displacement series for storage", zap.Error(err))
		series = nil
	}

	run := &models.AnalysisRun{
		ID:              uuid.NewString(),
		Source:          req.Source,
		TotalFrames:     report.TotalFrames,
		DurationSeconds: report.DurationSeconds,
		SymmetryScore:   report.MovementAnalysis.SymmetryScore,
		Report:          blob,
		Displacement:    series,
	}
	if err := repository.SaveRun(c.Request.Context(), run); err != nil {
		h.log.Error("Failed to persist analysis run", zap.Error(err))
		return ""
	}
	return run.ID
}

// Health is the load-balancer health check. No dependencies are touched so
// the response stays fast.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "dance-analysis-server",
		"version": "2.0.0",
	})
}

// Index documents the API on the root path.
func Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "Dance Movement Analysis Server",
		"version": "2.0.0",
		"endpoints": gin.H{
			"/health": gin.H{
				"method":      "GET",
				"description": "Health check endpoint",
			},
			"/analyze": gin.H{
				"method":      "POST",
				"description": "Analyze an extracted landmark sequence for poses and movement patterns",
				"request": gin.H{
					"content_type": "application/json",
					"body":         "{source?, fps?, frames: [{frame, timestamp?, landmarks: {joint: {x, y, z?, visibility}}}]}",
				},
				"response": gin.H{
					"total_frames":      "Number of processed frames",
					"duration_seconds":  "Sequence duration",
					"detected_poses":    "Confirmed poses with frame numbers",
					"movement_analysis": "Movement intensity and symmetry metrics",
				},
			},
			"/analyses": gin.H{
				"method":      "GET",
				"description": "Recent stored analysis runs (requires persistence)",
			},
		},
	})
}
