package ai

import (
	"fmt"
	"math/rand/v2"

	"retention-analyzer/internal/models"
)

// mockPoint is one synthetic drop-off at a fixed fraction of the video.
type mockPoint struct {
	percentOfDuration int
	dropPercentage    int
	reason            string
	suggestion        string
}

var mockPoints = []mockPoint{
	{15, 8, "인트로가 길어서 지루함", "인트로를 30초 이내로 단축"},
	{40, 15, "갑작스러운 화면 전환", "부드러운 전환 효과 추가"},
	{70, 12, "설명이 너무 길고 복잡함", "시각적 자료로 설명 보완"},
}

const (
	mockScoreBase  = 70
	mockScoreRange = 25
)

// MockGenerator builds a plausible report without calling any model.
type MockGenerator struct {
	intn func(n int) int
}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{intn: rand.IntN}
}

// NewMockGeneratorWithRand uses intn, which must return a value in [0, n),
// for the score.
func NewMockGeneratorWithRand(intn func(n int) int) *MockGenerator {
	return &MockGenerator{intn: intn}
}

// Generate places three drop points at 15%, 40% and 70% of the video and an
// improvement at each. The score is drawn from [70, 94].
func (m *MockGenerator) Generate(video *models.VideoRecord) *models.RetentionReport {
	duration := 0
	if video != nil && video.DurationSeconds > 0 {
		duration = video.DurationSeconds
	}

	report := &models.RetentionReport{
		DropPoints:   make([]models.DropPoint, 0, len(mockPoints)),
		Improvements: make([]models.Improvement, 0, len(mockPoints)),
		OverallScore: mockScoreBase + m.intn(mockScoreRange),
		Source:       models.ReportSourceMock,
	}

	for _, p := range mockPoints {
		at := duration * p.percentOfDuration / 100
		report.DropPoints = append(report.DropPoints, models.DropPoint{
			TimeSeconds: at,
			Percentage:  p.dropPercentage,
			Reason:      p.reason,
		})
		report.Improvements = append(report.Improvements, models.Improvement{
			TimeSeconds: at,
			Suggestion:  p.suggestion,
		})
	}

	report.Summary = fmt.Sprintf("전체적으로 양질의 콘텐츠이지만 %d개의 주요 이탈 지점이 발견되었습니다. 인트로 단축과 전환 효과 개선으로 시청 유지율을 높일 수 있습니다.", len(report.DropPoints))

	return report
}
