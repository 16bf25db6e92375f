package retention

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"retention-analyzer/agents/retention/youtube"
	"retention-analyzer/internal/models"
	"retention-analyzer/shared/ai"
	"retention-analyzer/shared/config"
	"retention-analyzer/shared/credentials"
	"retention-analyzer/shared/monitoring"

	"github.com/google/uuid"
)

// MetadataFetcher resolves a video ID; *youtube.Fetcher implements it.
type MetadataFetcher interface {
	Fetch(ctx context.Context, videoID string) (*youtube.FetchResult, error)
}

// AnalysisFetcher produces a report for a video; *ai.Analyzer implements it.
type AnalysisFetcher interface {
	Analyze(ctx context.Context, video *models.VideoRecord) *ai.AnalysisResult
}

// Result is the outcome of one analysis run.
type Result struct {
	RunID    string                  `json:"run_id"`
	VideoID  string                  `json:"video_id"`
	Video    *models.VideoRecord     `json:"video"`
	Report   *models.RetentionReport `json:"report"`
	Warnings []string                `json:"warnings,omitempty"`
	Duration time.Duration           `json:"duration"`

	// MetadataErr and AnalysisErr keep the causes behind fallback data.
	MetadataErr error `json:"-"`
	AnalysisErr error `json:"-"`
}

// Pipeline chains URL parsing, metadata retrieval and analysis.
type Pipeline struct {
	metadata MetadataFetcher
	analysis AnalysisFetcher
	monitor  *monitoring.Monitor
	metrics  *monitoring.Metrics
}

// NewPipeline builds a pipeline. monitor and metrics may be nil.
func NewPipeline(metadata MetadataFetcher, analysis AnalysisFetcher, monitor *monitoring.Monitor, metrics *monitoring.Metrics) *Pipeline {
	return &Pipeline{
		metadata: metadata,
		analysis: analysis,
		monitor:  monitor,
		metrics:  metrics,
	}
}

// NewPipelineFromConfig wires the YouTube client and the configured analyzer
// to keys.
func NewPipelineFromConfig(cfg *config.Config, keys *credentials.Store, monitor *monitoring.Monitor, metrics *monitoring.Metrics) *Pipeline {
	client := youtube.NewClient(cfg.YouTube.Endpoint, cfg.HTTP.Timeout)
	fetcher := youtube.NewFetcher(client, keys)
	analyzer := ai.NewAnalyzer(cfg, keys)
	return NewPipeline(fetcher, analyzer, monitor, metrics)
}

// Run analyzes the video behind rawURL. Only models.ErrInvalidURL and
// models.ErrMissingCredential are returned; every other failure is absorbed
// by fallback data and reported in Result.Warnings.
func (p *Pipeline) Run(ctx context.Context, rawURL string) (*Result, error) {
	startTime := time.Now()
	runID := uuid.NewString()

	videoID, ok := youtube.ExtractVideoID(rawURL)
	if !ok {
		p.recordOutcome(monitoring.OutcomeInvalid, startTime)
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidURL, rawURL)
	}

	log.Printf("[%s] Analyzing video %s", runID, videoID)

	fetched, err := p.metadata.Fetch(ctx, videoID)
	if err != nil {
		outcome := monitoring.OutcomeError
		if errors.Is(err, models.ErrMissingCredential) {
			outcome = monitoring.OutcomeNoKey
			err = fmt.Errorf("%w: YouTube API key is not set", models.ErrMissingCredential)
		}
		p.recordOutcome(outcome, startTime)
		if p.monitor != nil {
			p.monitor.RecordCriticalFailure(fmt.Errorf("run %s: %w", runID, err), time.Since(startTime))
		}
		return nil, err
	}

	result := &Result{
		RunID:       runID,
		VideoID:     videoID,
		Video:       fetched.Video,
		MetadataErr: fetched.Err,
	}
	if fetched.Err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("video metadata unavailable, showing demo data: %v", fetched.Err))
		if p.metrics != nil {
			p.metrics.MetadataFallbacks.Inc()
		}
	}

	analysis := p.analysis.Analyze(ctx, fetched.Video)
	result.Report = analysis.Report
	result.AnalysisErr = analysis.Err
	if analysis.Err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("analysis request failed, showing sample analysis: %v", analysis.Err))
		if p.metrics != nil {
			p.metrics.AnalysisFallbacks.Inc()
		}
	}

	result.Duration = time.Since(startTime)
	p.recordOutcome(monitoring.OutcomeSuccess, startTime)
	if p.metrics != nil {
		p.metrics.ReportsBySource.WithLabelValues(string(result.Report.Source)).Inc()
	}

	if p.monitor != nil {
		summary := fmt.Sprintf("run %s: %s scored %d (%s)", runID, videoID, result.Report.OverallScore, result.Report.Source)
		for _, w := range result.Warnings {
			p.monitor.RecordPartialFailure(fmt.Errorf("run %s: %s", runID, w), result.Duration)
		}
		p.monitor.RecordSuccess(summary, result.Duration)
	}

	return result, nil
}

func (p *Pipeline) recordOutcome(outcome string, startTime time.Time) {
	if p.metrics == nil {
		return
	}
	p.metrics.RunsTotal.WithLabelValues(outcome).Inc()
	p.metrics.RunDurationSec.Observe(time.Since(startTime).Seconds())
}

// SeedCredentials saves keys supplied through config or the environment so
// later runs find them in the store.
func SeedCredentials(ctx context.Context, keys *credentials.Store, cfg *config.Config) error {
	seeds := map[credentials.Kind]string{
		credentials.KindMetadata: cfg.YouTube.APIKey,
		credentials.KindAnalysis: cfg.AI.APIKey,
	}
	for _, kind := range credentials.Kinds() {
		value := seeds[kind]
		if value == "" {
			continue
		}
		if err := keys.Save(ctx, kind, value); err != nil {
			return fmt.Errorf("failed to store %s key: %w", kind, err)
		}
	}
	return nil
}
