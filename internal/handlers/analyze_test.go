package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AIchemizt/dance-analysis-server/internal/analyzer"
	"github.com/AIchemizt/dance-analysis-server/internal/models"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	lib := &models.PoseLibrary{Poses: []models.PoseDefinition{
		{
			Name: "Arms-Up",
			Criteria: []models.Criterion{
				{Kind: models.CriterionPosition, Joints: []string{models.LeftWrist, models.Nose}, Relation: models.RelationAbove},
				{Kind: models.CriterionPosition, Joints: []string{models.RightWrist, models.Nose}, Relation: models.RelationAbove},
			},
		},
	}}
	a, err := analyzer.New(lib, analyzer.DefaultConfig())
	if err != nil {
		t.Fatalf("analyzer.New: %v", err)
	}

	h := NewAnalyzeHandler(zap.NewNop(), a, false)
	r := gin.New()
	r.POST("/analyze", h.Analyze)
	r.GET("/health", Health)
	return r
}

func requestFrames(total int) []models.FrameObservation {
	frames := make([]models.FrameObservation, total)
	for i := range frames {
		frames[i] = models.FrameObservation{
			Frame: i,
			Landmarks: map[string]models.Landmark{
				models.Nose:       {X: 0.6, Y: 0.3, Visibility: 0.95},
				models.LeftWrist:  {X: 0.55, Y: 0.1, Visibility: 0.95},
				models.RightWrist: {X: 0.65, Y: 0.1, Visibility: 0.95},
			},
		}
	}
	return frames
}

func post(t *testing.T, r *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAnalyzeEndpoint(t *testing.T) {
	r := testRouter(t)

	w := post(t, r, models.AnalysisRequest{
		Source: "test.mp4",
		FPS:    30,
		Frames: requestFrames(5),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var report models.AnalysisReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if report.TotalFrames != 5 {
		t.Errorf("total_frames = %d, want 5", report.TotalFrames)
	}
	if summary, ok := report.DetectedPoses["Arms-Up"]; !ok || summary.Count != 5 {
		t.Errorf("detected_poses = %+v, want 5 Arms-Up frames", report.DetectedPoses)
	}
}

func TestAnalyzeRejectsEmptyFrames(t *testing.T) {
	r := testRouter(t)

	w := post(t, r, models.AnalysisRequest{Frames: []models.FrameObservation{}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAnalyzeRejectsNonContiguousFrames(t *testing.T) {
	r := testRouter(t)

	frames := requestFrames(3)
	frames[2].Frame = 5
	w := post(t, r, models.AnalysisRequest{Frames: frames})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAnalyzeRejectsMalformedBody(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %v, want healthy", body["status"])
	}
}
