package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"retention-analyzer/internal/models"
	"retention-analyzer/shared/config"
	"retention-analyzer/shared/credentials"
)

// CredentialSource is the read side of the credential store.
type CredentialSource interface {
	Get(ctx context.Context, kind credentials.Kind) (string, bool)
}

// AnalysisResult is the report handed to the caller and, when the mock report
// replaced a failed request, the error that caused it.
type AnalysisResult struct {
	Report *models.RetentionReport
	Err    error
}

type Analyzer struct {
	mode         string
	timeout      time.Duration
	keys         CredentialSource
	newGenerator GeneratorFactory
	mock         *MockGenerator
}

func NewAnalyzer(cfg *config.Config, keys CredentialSource) *Analyzer {
	return &Analyzer{
		mode:         cfg.AI.Mode,
		timeout:      cfg.HTTP.Timeout,
		keys:         keys,
		newGenerator: NewGeneratorFactory(cfg.AI),
		mock:         NewMockGenerator(),
	}
}

// SetGeneratorFactory replaces the provider factory.
func (a *Analyzer) SetGeneratorFactory(f GeneratorFactory) {
	a.newGenerator = f
}

// SetMockGenerator replaces the generator used for the fallback report.
func (a *Analyzer) SetMockGenerator(m *MockGenerator) {
	a.mock = m
}

// Analyze always returns a report. Without an analysis key, or in mock mode,
// the mock report is the intended result and Err stays nil.
func (a *Analyzer) Analyze(ctx context.Context, video *models.VideoRecord) *AnalysisResult {
	if a.mode == config.ModeMock {
		return &AnalysisResult{Report: a.mock.Generate(video)}
	}

	apiKey, ok := a.keys.Get(ctx, credentials.KindAnalysis)
	if !ok {
		log.Printf("No analysis key stored, generating mock analysis for %s", video.ID)
		return &AnalysisResult{Report: a.mock.Generate(video)}
	}

	report, err := a.RequestAnalysis(ctx, video, apiKey)
	if err != nil {
		log.Printf("Analysis request failed for %s, using mock analysis: %v", video.ID, err)
		return &AnalysisResult{Report: a.mock.Generate(video), Err: err}
	}

	return &AnalysisResult{Report: report}
}

// RequestAnalysis makes one model request. Transport failures wrap
// models.ErrUpstreamFailure; unusable answers wrap models.ErrMalformedResponse.
func (a *Analyzer) RequestAnalysis(ctx context.Context, video *models.VideoRecord, apiKey string) (*models.RetentionReport, error) {
	if video == nil {
		return nil, fmt.Errorf("video cannot be nil")
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	generator, err := a.newGenerator(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamFailure, err)
	}

	responseText, err := generator.Generate(ctx, buildAnalysisPrompt(video))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamFailure, err)
	}

	report, err := parseAnalysisResponse(responseText, video)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)
	}
	report.Source = generator.Source()

	return report, nil
}

func buildAnalysisPrompt(video *models.VideoRecord) string {
	return fmt.Sprintf(`
YouTube 영상 분석 요청:

제목: %s
조회수: %s
좋아요: %s
댓글수: %s
채널: %s
영상 길이: %d초

이 영상의 시청자 이탈 패턴을 분석하고 개선 방안을 제시해주세요.
시간은 0부터 %d 사이의 초 단위 정수로 작성해주세요.
다음 형식으로 응답해주세요:

{
  "dropPoints": [
    {"time": 초단위, "percentage": 이탈률, "reason": "이탈 이유"},
    {"time": 초단위, "percentage": 이탈률, "reason": "이탈 이유"}
  ],
  "improvements": [
    {"time": 초단위, "suggestion": "개선 방안"},
    {"time": 초단위, "suggestion": "개선 방안"}
  ],
  "overallScore": 1~100점수,
  "summary": "전체 분석 요약"
}
`,
		video.Title,
		groupDigits(video.ViewCount),
		countOrNA(video.LikeCount),
		countOrNA(video.CommentCount),
		video.ChannelTitle,
		video.DurationSeconds,
		video.DurationSeconds,
	)
}

// groupDigits formats n with comma thousands separators.
func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// Hidden counts come back as zero; the model is told they are unknown.
func countOrNA(n int64) string {
	if n <= 0 {
		return "N/A"
	}
	return groupDigits(n)
}

// rawReport mirrors the answer format. Pointers distinguish absent fields
// from zero values.
type rawReport struct {
	DropPoints *[]struct {
		Time       float64 `json:"time"`
		Percentage float64 `json:"percentage"`
		Reason     string  `json:"reason"`
	} `json:"dropPoints"`
	Improvements *[]struct {
		Time       float64 `json:"time"`
		Suggestion string  `json:"suggestion"`
	} `json:"improvements"`
	OverallScore *float64 `json:"overallScore"`
	Summary      string   `json:"summary"`
}

func parseAnalysisResponse(response string, video *models.VideoRecord) (*models.RetentionReport, error) {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("no JSON found in response: %s", truncateString(response, 200))
	}

	jsonStr := response[startIdx : endIdx+1]

	var raw rawReport
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		sanitizedJSON := sanitizeJSON(jsonStr)
		raw = rawReport{}
		if sanitizedErr := json.Unmarshal([]byte(sanitizedJSON), &raw); sanitizedErr != nil {
			return nil, fmt.Errorf("failed to unmarshal JSON '%s': %w (sanitized version also failed: %v)", truncateString(jsonStr, 200), err, sanitizedErr)
		}
		log.Printf("Warning: Had to sanitize malformed JSON for video %s", video.ID)
	}

	if raw.DropPoints == nil {
		return nil, fmt.Errorf("dropPoints array is missing")
	}
	if raw.Improvements == nil {
		return nil, fmt.Errorf("improvements array is missing")
	}
	if raw.OverallScore == nil {
		return nil, fmt.Errorf("overallScore is missing")
	}

	duration := max(video.DurationSeconds, 0)

	report := &models.RetentionReport{
		DropPoints:   make([]models.DropPoint, 0, len(*raw.DropPoints)),
		Improvements: make([]models.Improvement, 0, len(*raw.Improvements)),
		OverallScore: clamp(roundInt(*raw.OverallScore), 1, 100),
		Summary:      strings.TrimSpace(raw.Summary),
	}

	for _, p := range *raw.DropPoints {
		report.DropPoints = append(report.DropPoints, models.DropPoint{
			TimeSeconds: clamp(roundInt(p.Time), 0, duration),
			Percentage:  clamp(roundInt(p.Percentage), 0, 100),
			Reason:      p.Reason,
		})
	}
	for _, imp := range *raw.Improvements {
		report.Improvements = append(report.Improvements, models.Improvement{
			TimeSeconds: clamp(roundInt(imp.Time), 0, duration),
			Suggestion:  imp.Suggestion,
		})
	}

	return report, nil
}

func roundInt(f float64) int {
	if math.IsNaN(f) {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(math.Round(f))
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

func sanitizeJSON(jsonStr string) string {
	// Handle common JSON formatting issues from AI responses:
	// unescaped quotes inside string values and trailing commas.
	lines := strings.Split(jsonStr, "\n")
	var sanitizedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Only single-value lines ("key": "value",) are rewritten; inline
		// objects are left to the trailing comma pass.
		if strings.HasPrefix(line, "\"") && strings.Contains(line, ":") {
			colonIdx := strings.Index(line, ":")
			beforeColon := line[:colonIdx+1]
			afterColon := strings.TrimSpace(line[colonIdx+1:])

			if strings.HasPrefix(afterColon, "\"") {
				lastQuoteIdx := strings.LastIndex(afterColon, "\"")
				if lastQuoteIdx > 0 {
					stringContent := afterColon[1:lastQuoteIdx]
					stringContent = strings.ReplaceAll(stringContent, `\"`, `"`)
					stringContent = strings.ReplaceAll(stringContent, `"`, `\"`)
					remainder := afterColon[lastQuoteIdx+1:]
					line = beforeColon + " \"" + stringContent + "\"" + remainder
				}
			}
		}

		sanitizedLines = append(sanitizedLines, line)
	}

	return trailingComma.ReplaceAllString(strings.Join(sanitizedLines, "\n"), "$1")
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "..."
}
