package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AIchemizt/dance-analysis-server/internal/models"
	"github.com/AIchemizt/dance-analysis-server/internal/repository"
)

// RunsHandler serves stored analysis runs and their charts.
type RunsHandler struct {
	log *zap.Logger
}

func NewRunsHandler(log *zap.Logger) *RunsHandler {
	return &RunsHandler{log: log}
}

const listLimit = 50

// List returns recent run summaries.
func (h *RunsHandler) List(c *gin.Context) {
	runs, err := repository.ListRuns(c.Request.Context(), listLimit)
	if err != nil {
		h.log.Error("Failed to list analysis runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list analysis runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyses": runs})
}

// Get returns one stored run, report included.
func (h *RunsHandler) Get(c *gin.Context) {
	run, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, run)
}

// Chart renders the stored report as an HTML page: per-joint movement
// intensity, the per-frame displacement line with its high-movement
// frames marked, and per-pose confirmed frame counts.
func (h *RunsHandler) Chart(c *gin.Context) {
	run, ok := h.load(c)
	if !ok {
		return
	}

	var report models.AnalysisReport
	if err := json.Unmarshal(run.Report, &report); err != nil {
		h.log.Error("Failed to decode stored report", zap.String("id", run.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stored report is unreadable"})
		return
	}

	var series []models.DisplacementSample
	if len(run.Displacement) > 0 {
		if err := json.Unmarshal(run.Displacement, &series); err != nil {
			h.log.Warn("Failed to decode stored displacement series", zap.String("id", run.ID), zap.Error(err))
		}
	}

	page := components.NewPage()
	page.AddCharts(
		intensityChart(report.MovementAnalysis.MovementIntensity),
		displacementChart(series, report.MovementAnalysis.HighMovementFrames),
		posesChart(report.DetectedPoses),
	)

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(c.Writer); err != nil {
		h.log.Error("Failed to render chart page", zap.String("id", run.ID), zap.Error(err))
	}
}

func (h *RunsHandler) load(c *gin.Context) (*models.AnalysisRun, bool) {
	id := c.Param("id")
	run, err := repository.GetRun(c.Request.Context(), id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Analysis run not found"})
			return nil, false
		}
		h.log.Error("Failed to load analysis run", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load analysis run"})
		return nil, false
	}
	return run, true
}

func intensityChart(intensity map[string]float64) *charts.Bar {
	joints := make([]string, 0, len(intensity))
	for joint := range intensity {
		joints = append(joints, joint)
	}
	sort.Strings(joints)

	items := make([]opts.BarData, 0, len(joints))
	for _, joint := range joints {
		items = append(items, opts.BarData{Value: intensity[joint]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Movement intensity by joint",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Rotate: 45, Show: opts.Bool(true)},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(joints).AddSeries("intensity", items)
	return bar
}

// displacementChart draws the per-frame total-body displacement as a line
// with the statistically high-movement frames marked on it.
func displacementChart(series []models.DisplacementSample, peaks []int) *charts.Line {
	peakSet := make(map[int]struct{}, len(peaks))
	for _, frame := range peaks {
		peakSet[frame] = struct{}{}
	}

	frames := make([]string, 0, len(series))
	items := make([]opts.LineData, 0, len(series))
	marks := make([]opts.MarkPointNameCoordItem, 0, len(peaks))
	for _, sample := range series {
		label := strconv.Itoa(sample.Frame)
		frames = append(frames, label)
		items = append(items, opts.LineData{Value: sample.Value})
		if _, ok := peakSet[sample.Frame]; ok {
			marks = append(marks, opts.MarkPointNameCoordItem{
				Name:       "high movement",
				Coordinate: []interface{}{label, sample.Value},
			})
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Per-frame displacement",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.SetXAxis(frames).AddSeries("displacement", items,
		charts.WithMarkPointNameCoordItemOpts(marks...),
	)
	return line
}

func posesChart(poses map[string]models.PoseSummary) *charts.Bar {
	names := make([]string, 0, len(poses))
	for name := range poses {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]opts.BarData, 0, len(names))
	for _, name := range names {
		items = append(items, opts.BarData{Value: poses[name].Count})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Confirmed pose frames",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).AddSeries("frames", items)
	return bar
}
