package retention

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"retention-analyzer/internal/models"
	"retention-analyzer/shared/config"
	"retention-analyzer/shared/email"
	"retention-analyzer/shared/scheduler"

	"golang.org/x/time/rate"
)

// WatchMetrics represents the metrics collected during a watch run
type WatchMetrics struct {
	URLs              int  `json:"urls"`
	Analyzed          int  `json:"analyzed"`
	Failed            int  `json:"failed"`
	MetadataFallbacks int  `json:"metadata_fallbacks"`
	AnalysisFallbacks int  `json:"analysis_fallbacks"`
	EmailSent         bool `json:"email_sent"`
}

// GetSummary implements the scheduler.Metrics interface
func (m WatchMetrics) GetSummary() string {
	summary := fmt.Sprintf("analyzed %d/%d videos (%d demo metadata, %d mock analyses)",
		m.Analyzed, m.URLs, m.MetadataFallbacks, m.AnalysisFallbacks)
	if m.EmailSent {
		summary += ", digest sent"
	}
	return summary
}

// Runner runs the pipeline for one URL; *Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, rawURL string) (*Result, error)
}

// DigestSender delivers the watch digest; *email.Sender implements it.
type DigestSender interface {
	SendDigest(report *models.DigestReport) error
}

// WatchAgent implements the scheduler.Agent interface by re-analyzing the
// configured URLs on every run.
type WatchAgent struct {
	config   *config.Config
	pipeline Runner
	limiter  *rate.Limiter
	sender   DigestSender
}

func NewWatchAgent(cfg *config.Config, pipeline Runner) *WatchAgent {
	return &WatchAgent{
		config:   cfg,
		pipeline: pipeline,
	}
}

func (w *WatchAgent) Name() string {
	return "Retention Watch"
}

func (w *WatchAgent) Initialize() error {
	log.Printf("Initializing %s...", w.Name())

	if err := w.config.ValidateWatch(); err != nil {
		return err
	}

	if w.limiter == nil {
		perMinute := max(w.config.Watch.RatePerMinute, 1)
		w.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
		log.Printf("Rate limiter initialized (%d analyses per minute)", perMinute)
	}

	if w.sender == nil && w.config.Email.Enabled() {
		w.sender = email.NewSender(&w.config.Email)
		log.Println("Email sender initialized")
	}

	log.Printf("Watching %d videos", len(w.config.Watch.URLs))
	return nil
}

func (w *WatchAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	metrics := WatchMetrics{URLs: len(w.config.Watch.URLs)}
	digest := &models.DigestReport{Date: startTime}

	for i, rawURL := range w.config.Watch.URLs {
		if err := w.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("watch run interrupted: %w", err)
		}

		log.Printf("Analyzing video %d/%d: %s", i+1, len(w.config.Watch.URLs), rawURL)
		res, err := w.pipeline.Run(ctx, rawURL)
		if err != nil {
			if errors.Is(err, models.ErrMissingCredential) {
				if events != nil && events.OnCriticalFailure != nil {
					events.OnCriticalFailure(err, time.Since(startTime))
				}
				return err
			}
			log.Printf("Warning: Failed to analyze %s: %v", rawURL, err)
			metrics.Failed++
			if events != nil && events.OnPartialFailure != nil {
				events.OnPartialFailure(err, time.Since(startTime))
			}
			continue
		}

		metrics.Analyzed++
		if res.MetadataErr != nil {
			metrics.MetadataFallbacks++
		}
		if res.AnalysisErr != nil {
			metrics.AnalysisFallbacks++
		}
		digest.Entries = append(digest.Entries, &models.DigestEntry{Video: res.Video, Report: res.Report})
	}

	digest.Total = metrics.Analyzed
	digest.Failed = metrics.Failed

	if metrics.Analyzed == 0 && metrics.URLs > 0 {
		err := fmt.Errorf("none of the %d watched URLs could be analyzed", metrics.URLs)
		if events != nil && events.OnCriticalFailure != nil {
			events.OnCriticalFailure(err, time.Since(startTime))
		}
		return err
	}

	if w.sender != nil && len(digest.Entries) > 0 {
		log.Printf("Sending digest with %d videos", len(digest.Entries))
		if err := w.sender.SendDigest(digest); err != nil {
			if events != nil && events.OnCriticalFailure != nil {
				events.OnCriticalFailure(fmt.Errorf("failed to send digest: %w", err), time.Since(startTime))
			}
			return fmt.Errorf("failed to send digest: %w", err)
		}
		metrics.EmailSent = true
		log.Println("Digest sent successfully")
	}

	duration := time.Since(startTime)
	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, duration)
	}

	log.Printf("Watch run complete: %s", metrics.GetSummary())
	return nil
}
