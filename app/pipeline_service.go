// Package app orchestrates the core pipeline stages over the
// collaborator ports.
package app

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"neurosense/domain/core"
	"neurosense/domain/eeg"
	"neurosense/internal"
)

// TrialFailure records one trial dropped during conditioning.
type TrialFailure struct {
	Trial int
	Err   error
}

// BatchReport summarizes one recording run.
type BatchReport struct {
	RawShape        []int
	NormalizedShape [3]int
	TrialsIn        int
	TrialsOut       int
	Skipped         []TrialFailure
}

// PipelineService turns raw recordings into feature matrices:
// shape normalization, per-trial conditioning, windowed feature
// extraction.
type PipelineService struct {
	normalizer  *eeg.Normalizer
	conditioner *eeg.Conditioner
	window      eeg.Window
	fs          float64
	logger      *internal.Logger
}

// NewPipelineService creates a pipeline for the given protocol
// parameters.
func NewPipelineService(normalizer *eeg.Normalizer, window eeg.Window, fs float64, logger *internal.Logger) *PipelineService {
	return &PipelineService{
		normalizer:  normalizer,
		conditioner: eeg.NewConditioner(),
		window:      window,
		fs:          fs,
		logger:      logger,
	}
}

// Process runs the full stage chain on one raw recording. A trial
// that fails conditioning is skipped and reported; it never aborts
// its siblings. Shape failures abort the whole recording.
func (s *PipelineService) Process(ctx context.Context, raw eeg.RawArray) (*eeg.FeatureMatrix, *BatchReport, error) {
	batch, err := s.normalizer.Normalize(raw)
	if err != nil {
		return nil, nil, err
	}

	report := &BatchReport{
		RawShape:        raw.Shape,
		NormalizedShape: [3]int{batch.Trials, batch.Channels, batch.Samples},
		TrialsIn:        batch.Trials,
	}

	conditioned, err := eeg.NewTrialBatch(batch.Trials, batch.Channels, batch.Samples)
	if err != nil {
		return nil, nil, err
	}

	// One slot per trial; failed slots stay nil and are compacted
	// below so a bad trial cannot abort its siblings.
	trialErrs := make([]error, batch.Trials)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for t := 0; t < batch.Trials; t++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := s.conditioner.Condition(batch.Trial(t), s.fs)
			if err != nil {
				if core.IsConditioningError(err) {
					trialErrs[t] = err
					return nil
				}
				return err
			}
			return conditioned.SetTrial(t, out)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	kept := make([]int, 0, batch.Trials)
	for t, terr := range trialErrs {
		if terr != nil {
			report.Skipped = append(report.Skipped, TrialFailure{Trial: t, Err: terr})
			s.logger.Warn("trial %d skipped: %v", t, terr)
			continue
		}
		kept = append(kept, t)
	}
	if len(kept) == 0 {
		return nil, report, core.NewConditioningError("no trial survived conditioning")
	}

	surviving := conditioned
	if len(kept) < batch.Trials {
		surviving, err = compactTrials(conditioned, kept)
		if err != nil {
			return nil, report, err
		}
	}
	report.TrialsOut = len(kept)

	features, err := eeg.ExtractFeatures(surviving, s.window, s.fs)
	if err != nil {
		return nil, report, err
	}
	return features, report, nil
}

func compactTrials(batch *eeg.TrialBatch, kept []int) (*eeg.TrialBatch, error) {
	out, err := eeg.NewTrialBatch(len(kept), batch.Channels, batch.Samples)
	if err != nil {
		return nil, err
	}
	for i, t := range kept {
		if err := out.SetTrial(i, batch.Trial(t)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
