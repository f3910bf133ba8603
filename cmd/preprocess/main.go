// Command preprocess batch-converts raw trial recordings into cached
// feature matrices ready for inference.
//
// Input layout: <raw-dir>/<subject>/<session>/recording.json, each a
// JSON document {"shape": [...], "data": [...], "targets": [...]}
// holding the flattened recording tensor in any axis order; shape
// inference recovers (trial, channel, sample).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"neurosense/adapters/featurecache"
	"neurosense/app"
	"neurosense/domain/eeg"
	"neurosense/internal"
	"neurosense/internal/config"
	"neurosense/ports"
)

const recordingFile = "recording.json"

type rawRecording struct {
	Shape   []int     `json:"shape"`
	Data    []float64 `json:"data"`
	Targets []int     `json:"targets,omitempty"`
}

func main() {
	rawDir := flag.String("raw", "raw_data", "directory of raw recordings")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	logger := internal.NewDefaultLogger()
	pipeline := app.NewPipelineService(eeg.NewNormalizer(), cfg.Window(), cfg.Signal.SamplingRate, logger)
	cache := featurecache.NewFileCache(cfg.Paths.FeatureCacheDir)

	ctx := context.Background()
	processed, failed := 0, 0

	subjects, err := os.ReadDir(*rawDir)
	if err != nil {
		log.Fatalf("reading %s: %v", *rawDir, err)
	}
	for _, subject := range subjects {
		if !subject.IsDir() {
			continue
		}
		sessions, err := os.ReadDir(filepath.Join(*rawDir, subject.Name()))
		if err != nil {
			logger.Error("reading subject %s: %v", subject.Name(), err)
			continue
		}
		for _, session := range sessions {
			if !session.IsDir() {
				continue
			}
			// One bad session must not stop the batch.
			if err := processSession(ctx, pipeline, cache, *rawDir, subject.Name(), session.Name(), cfg, logger); err != nil {
				logger.Error("%s/%s failed: %v", subject.Name(), session.Name(), err)
				failed++
				continue
			}
			processed++
		}
	}
	logger.Info("preprocessing done: %d sessions processed, %d failed", processed, failed)
}

func processSession(
	ctx context.Context,
	pipeline *app.PipelineService,
	cache *featurecache.FileCache,
	rawDir, subjectID, sessionID string,
	cfg *config.Config,
	logger *internal.Logger,
) error {
	path := filepath.Join(rawDir, subjectID, sessionID, recordingFile)
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var rec rawRecording
	if err := json.Unmarshal(payload, &rec); err != nil {
		return err
	}

	features, report, err := pipeline.Process(ctx, eeg.RawArray{Shape: rec.Shape, Data: rec.Data})
	if err != nil {
		return err
	}
	logger.Info("%s/%s: raw %v -> %v, %d/%d trials, %d features",
		subjectID, sessionID, report.RawShape, report.NormalizedShape,
		report.TrialsOut, report.TrialsIn, features.Cols)

	targets := rec.Targets
	if len(report.Skipped) > 0 {
		// Labels follow the surviving trials.
		targets = filterTargets(rec.Targets, report)
	}

	return cache.Put(ctx, subjectID, sessionID, &ports.SessionFeatures{
		X:            features,
		Targets:      targets,
		SamplingRate: cfg.Signal.SamplingRate,
		Window:       cfg.Window(),
	})
}

func filterTargets(targets []int, report *app.BatchReport) []int {
	if len(targets) != report.TrialsIn {
		return nil
	}
	dropped := make(map[int]bool, len(report.Skipped))
	for _, f := range report.Skipped {
		dropped[f.Trial] = true
	}
	out := make([]int, 0, report.TrialsOut)
	for t, label := range targets {
		if !dropped[t] {
			out = append(out, label)
		}
	}
	return out
}
