// Command batch analyzes landmark-sequence JSON files offline: one report
// JSON per input file, with a progress bar over the batch.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"go.uber.org/zap"

	"github.com/AIchemizt/dance-analysis-server/internal/analyzer"
	"github.com/AIchemizt/dance-analysis-server/internal/models"
)

var (
	inPath    string
	posesPath string
	outDir    string
	minRun    int
	fps       float64
)

func init() {
	flag.StringVar(&inPath, "in", "", "landmark JSON file or directory of them")
	flag.StringVar(&posesPath, "poses", "config/poses.yaml", "pose library path")
	flag.StringVar(&outDir, "out", ".", "directory for report output")
	flag.IntVar(&minRun, "k", 3, "minimum consecutive frames to confirm a pose")
	flag.Float64Var(&fps, "fps", 0, "frame rate override (0 = use per-file value)")
	flag.Parse()
}

func main() {
	log, err := zap.NewDevelopment()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if inPath == "" {
		log.Error("-in must be provided")
		os.Exit(1)
	}

	lib, err := models.LoadPoseLibrary(posesPath)
	if err != nil {
		log.Error("Failed to load pose library", zap.Error(err))
		os.Exit(1)
	}

	cfg := analyzer.DefaultConfig()
	cfg.MinConsecutiveFrames = minRun
	a, err := analyzer.New(lib, cfg)
	if err != nil {
		log.Error("Invalid analysis configuration", zap.Error(err))
		os.Exit(1)
	}

	files, err := inputFiles(inPath)
	if err != nil {
		log.Error("Failed to collect input files", zap.Error(err))
		os.Exit(1)
	}
	if len(files) == 0 {
		log.Error("No .json input files found", zap.String("in", inPath))
		os.Exit(1)
	}

	bar := pb.StartNew(len(files))
	failed := 0
	for _, file := range files {
		if err := analyzeFile(a, file); err != nil {
			log.Warn("Skipping file", zap.String("file", file), zap.Error(err))
			failed++
		}
		bar.Increment()
	}
	bar.Finish()

	log.Info("Batch complete",
		zap.Int("analyzed", len(files)-failed),
		zap.Int("failed", failed),
	)
}

func inputFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}
	return files, nil
}

func analyzeFile(a *analyzer.Analyzer, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	var req models.AnalysisRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid landmark JSON: %w", err)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	runFPS := req.FPS
	if fps > 0 {
		runFPS = fps
	}
	report, err := a.Run(req.Frames, runFPS)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(file), ".json")
	outPath := filepath.Join(outDir, base+".report.json")
	return os.WriteFile(outPath, out, 0644)
}
